package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stayfinder/config"
	"stayfinder/infras/jwt"
	jwtMocks "stayfinder/infras/jwt/mocks"
	"stayfinder/infras/kafka"
	kafkaMocks "stayfinder/infras/kafka/mocks"
	"stayfinder/infras/otel/mocks"
	"stayfinder/internal/domains/auth/model/dto"
	"stayfinder/internal/domains/auth/service"
	userMocks "stayfinder/internal/domains/user/mocks"
	userModel "stayfinder/internal/domains/user/model"
	"stayfinder/shared/cache"
	cacheMocks "stayfinder/shared/cache/mocks"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	gModel "stayfinder/shared/model"
	"stayfinder/shared/password"
	"stayfinder/shared/timezone"
)

type fixture struct {
	userRepo *userMocks.MockUser
	jwt      *jwtMocks.MockJWT
	cache    *cacheMocks.MockRedisCache
	kafka    *kafkaMocks.MockClient
	cfg      *config.Config
	svc      service.Auth
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		userRepo: userMocks.NewMockUser(ctrl),
		jwt:      jwtMocks.NewMockJWT(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
		kafka:    kafkaMocks.NewMockClient(ctrl),
		cfg:      &config.Config{},
	}

	f.cfg.Kafka.Topics.Notifications = "notifications"
	f.svc = service.New(f.userRepo, f.cfg, mocks.NewOtel(), f.jwt, f.cache, f.kafka)

	return f
}

func validUser(t *testing.T) userModel.User {
	t.Helper()

	hashed, err := password.Hash("password")
	require.NoError(t, err)

	return userModel.User{
		ID:         "user-id-123",
		Email:      "test@example.com",
		Password:   hashed,
		Level:      constant.RoleUser,
		FullName:   stringPtr("Test User"),
		IsVerified: true,
		Active:     true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "system",
			ModifiedBy: "system",
		},
	}
}

func tokenPair() *jwt.TokenPair {
	return &jwt.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    900,
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		req       dto.RegisterRequest
		setupMock func()
		wantCode  int
		wantErr   bool
	}{
		{
			name: "host registration",
			req:  dto.RegisterRequest{Email: "host@example.com", Password: "password", Role: constant.RoleHost},
			setupMock: func() {
				f.userRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.userRepo.EXPECT().
					Insert(gomock.Any(), gomock.Cond(func(u userModel.User) bool {
						return u.Level == constant.RoleHost && u.Email == "host@example.com" && u.Password != "password"
					})).
					Return(nil)
			},
		},
		{
			name: "email taken",
			req:  dto.RegisterRequest{Email: "host@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "exist check fails",
			req:  dto.RegisterRequest{Email: "host@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, errors.New("db down"))
			},
			wantErr:  true,
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "insert fails",
			req:  dto.RegisterRequest{Email: "guest@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.userRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("insert error"))
			},
			wantErr:  true,
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := f.svc.Register(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	user := validUser(t)

	tests := []struct {
		name      string
		req       dto.LoginRequest
		setupMock func()
		wantErr   bool
	}{
		{
			name: "successful login",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.jwt.EXPECT().GenerateTokenPair(user.ID, user.Email, user.Level).Return(tokenPair(), nil)
				f.userRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "user not found",
			req:  dto.LoginRequest{Email: "nonexistent@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantErr: true,
		},
		{
			name: "lookup fails",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, errors.New("db down"))
			},
			wantErr: true,
		},
		{
			name: "wrong password",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "wrongpassword"},
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
			},
			wantErr: true,
		},
		{
			name: "inactive user",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "password"},
			setupMock: func() {
				inactive := user
				inactive.Active = false

				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inactive, nil)
			},
			wantErr: true,
		},
		{
			name: "token generation error",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.jwt.EXPECT().GenerateTokenPair(user.ID, user.Email, user.Level).Return(nil, errors.New("token generation failed"))
			},
			wantErr: true,
		},
		{
			name: "update last login error",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "password"},
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.jwt.EXPECT().GenerateTokenPair(user.ID, user.Email, user.Level).Return(tokenPair(), nil)
				f.userRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("update error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			result, err := f.svc.Login(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "access-token", result.AccessToken)
			assert.Equal(t, "refresh-token", result.RefreshToken)
			assert.False(t, result.OTPRequired)
		})
	}
}

func TestAuthService_LoginWithOTP(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f *fixture, user userModel.User)
		wantErr   bool
	}{
		{
			name: "code stored and published",
			setupMock: func(f *fixture, user userModel.User) {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.cache.EXPECT().
					Save(gomock.Any(), "otp:test@example.com", gomock.Cond(func(code string) bool { return len(code) == 6 }), 600).
					Return(nil)
				f.kafka.EXPECT().
					SendMessages(gomock.Any(), "notifications", gomock.Cond(func(msg kafka.Message) bool {
						n, ok := msg.Value.(dto.OTPNotification)

						return ok && msg.Key == user.Email && n.Email == user.Email && len(n.Code) == 6
					})).
					Return(nil)
			},
		},
		{
			name: "no brokers configured",
			setupMock: func(f *fixture, user userModel.User) {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.cache.EXPECT().Save(gomock.Any(), "otp:test@example.com", gomock.Any(), 600).Return(nil)
				f.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(kafka.ErrNoBrokers)
			},
		},
		{
			name: "cache unavailable",
			setupMock: func(f *fixture, user userModel.User) {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
			},
			wantErr: true,
		},
		{
			name: "publish fails",
			setupMock: func(f *fixture, user userModel.User) {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.cfg.Auth.OTP.Enable = true

			tt.setupMock(f, validUser(t))

			result, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "test@example.com", Password: "password"})

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.True(t, result.OTPRequired)
			assert.Empty(t, result.AccessToken)
		})
	}
}

func TestAuthService_VerifyOTP(t *testing.T) {
	storeCode := func(code string) func(context.Context, string, any) error {
		return func(_ context.Context, _ string, value any) error {
			*(value.(*string)) = code

			return nil
		}
	}

	tests := []struct {
		name      string
		req       dto.VerifyOTPRequest
		setupMock func(f *fixture, user userModel.User)
		wantErr   bool
	}{
		{
			name: "valid code",
			req:  dto.VerifyOTPRequest{Email: "Test@Example.com", Code: "123456"},
			setupMock: func(f *fixture, user userModel.User) {
				f.cache.EXPECT().Take(gomock.Any(), "otp:test@example.com", gomock.Any()).DoAndReturn(storeCode("123456"))
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.jwt.EXPECT().GenerateTokenPair(user.ID, user.Email, user.Level).Return(tokenPair(), nil)
				f.userRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "wrong code",
			req:  dto.VerifyOTPRequest{Email: "test@example.com", Code: "000000"},
			setupMock: func(f *fixture, _ userModel.User) {
				f.cache.EXPECT().Take(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(storeCode("123456"))
			},
			wantErr: true,
		},
		{
			name: "expired or already used",
			req:  dto.VerifyOTPRequest{Email: "test@example.com", Code: "123456"},
			setupMock: func(f *fixture, _ userModel.User) {
				f.cache.EXPECT().Take(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("failed to take cache value: %w", cache.Nil))
			},
			wantErr: true,
		},
		{
			name: "user removed after login",
			req:  dto.VerifyOTPRequest{Email: "test@example.com", Code: "123456"},
			setupMock: func(f *fixture, _ userModel.User) {
				f.cache.EXPECT().Take(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(storeCode("123456"))
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.cfg.Auth.OTP.Enable = true

			tt.setupMock(f, validUser(t))

			result, err := f.svc.VerifyOTP(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "access-token", result.AccessToken)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		req       dto.RefreshTokenRequest
		setupMock func()
		wantErr   bool
	}{
		{
			name: "successful token refresh",
			req:  dto.RefreshTokenRequest{RefreshToken: "valid-refresh-token"},
			setupMock: func() {
				f.jwt.EXPECT().RefreshTokens("valid-refresh-token").Return(tokenPair(), nil)
			},
		},
		{
			name: "invalid refresh token",
			req:  dto.RefreshTokenRequest{RefreshToken: "invalid-refresh-token"},
			setupMock: func() {
				f.jwt.EXPECT().RefreshTokens("invalid-refresh-token").Return(nil, errors.New("invalid token"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			result, err := f.svc.RefreshToken(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, result.AccessToken)
			assert.NotEmpty(t, result.RefreshToken)
		})
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	user := validUser(t)

	tests := []struct {
		name      string
		req       dto.ChangePasswordRequest
		userID    string
		setupMock func()
		wantErr   bool
	}{
		{
			name:   "successful password change",
			req:    dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpassword123"},
			userID: "user-id-123",
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.userRepo.EXPECT().
					Update(gomock.Any(), gomock.Cond(func(fields map[string]any) bool {
						hashed, ok := fields["password"].(string)

						return ok && password.Verify("newpassword123", hashed) == nil && fields[constant.FieldModifiedBy] == "user-id-123"
					}), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:   "lookup fails",
			req:    dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpassword123"},
			userID: "nonexistent-id",
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, errors.New("db down"))
			},
			wantErr: true,
		},
		{
			name:   "user not found",
			req:    dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpassword123"},
			userID: "user-id-123",
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantErr: true,
		},
		{
			name:   "wrong current password",
			req:    dto.ChangePasswordRequest{CurrentPassword: "wrongpassword", NewPassword: "newpassword123"},
			userID: "user-id-123",
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
			},
			wantErr: true,
		},
		{
			name:   "update password error",
			req:    dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpassword123"},
			userID: "user-id-123",
			setupMock: func() {
				f.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.userRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("update error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := f.svc.ChangePassword(context.Background(), tt.req, tt.userID)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func stringPtr(s string) *string {
	return &s
}
