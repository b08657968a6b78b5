package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"stayfinder/config"
	"stayfinder/infras/otel/mocks"
	userMocks "stayfinder/internal/domains/user/mocks"
	"stayfinder/internal/domains/user/model"
	"stayfinder/internal/domains/user/model/dto"
	"stayfinder/internal/domains/user/service"
	cacheMocks "stayfinder/shared/cache/mocks"
	"stayfinder/shared/constant"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"
)

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func TestUserService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	svc := service.New(mockRepo, &config.Config{}, mockCache, mocks.NewOtel())

	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	tests := []struct {
		name      string
		setupMock func()
		wantEmail string
		wantCode  int
	}{
		{
			name: "cache hit",
			setupMock: func() {
				mockCache.EXPECT().Get(gomock.Any(), "user:get:user-1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, v any) error {
					v.(*dto.UserResponse).Email = "cached@example.com"

					return nil
				})
			},
			wantEmail: "cached@example.com",
		},
		{
			name: "loaded from repository",
			setupMock: func() {
				mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: "user-1", Email: "guest@example.com", Level: constant.RoleUser}, nil)
			},
			wantEmail: "guest@example.com",
		},
		{
			name: "not found",
			setupMock: func() {
				mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.Get(context.Background(), "user-1")

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantEmail, res.Email)
		})
	}

	time.Sleep(10 * time.Millisecond)
}

func TestUserService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	svc := service.New(mockRepo, &config.Config{}, mockCache, mocks.NewOtel())

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(3, nil)
	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.User, error) {
			assert.Equal(t, "users.created_at", params.SortBy)
			assert.Equal(t, gDto.SortDirDesc, params.SortDir)

			return []model.User{{ID: "a"}, {ID: "b"}}, nil
		})

	res, err := svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 2, SortBy: "password"})

	assert.NoError(t, err)
	assert.Equal(t, 3, res.TotalData)
	assert.Equal(t, 2, res.TotalPage)
	assert.Len(t, res.Users, 2)

	time.Sleep(10 * time.Millisecond)
}

func TestUserService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	svc := service.New(mockRepo, &config.Config{}, mockCache, mocks.NewOtel())

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	tests := []struct {
		name      string
		req       dto.CreateUserRequest
		setupMock func()
		wantCode  int
	}{
		{
			name: "created by admin",
			req:  dto.CreateUserRequest{Email: "New@Example.com", Password: "password", Level: constant.RoleHost},
			setupMock: func() {
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u model.User) error {
					assert.Equal(t, "new@example.com", u.Email)
					assert.Equal(t, constant.RoleHost, u.Level)
					assert.Equal(t, "admin-1", u.CreatedBy)

					return nil
				})
			},
		},
		{
			name: "duplicate email",
			req:  dto.CreateUserRequest{Email: "new@example.com", Password: "password"},
			setupMock: func() {
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Create(context.Background(), "admin-1", tt.req)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}

	time.Sleep(10 * time.Millisecond)
}

func TestUserService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	svc := service.New(mockRepo, &config.Config{}, mockCache, mocks.NewOtel())

	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	tests := []struct {
		name      string
		req       dto.UpdateUserRequest
		setupMock func()
		wantCode  int
	}{
		{
			name:      "empty request",
			req:       dto.UpdateUserRequest{},
			setupMock: func() {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "unknown user",
			req:  dto.UpdateUserRequest{Active: boolPtr(true)},
			setupMock: func() {
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "promoted to host",
			req:  dto.UpdateUserRequest{Level: stringPtr(constant.RoleHost)},
			setupMock: func() {
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Cond(func(fields map[string]any) bool {
						level, ok := fields[model.FieldLevel].(*string)

						return ok && *level == constant.RoleHost && fields[constant.FieldModifiedBy] == "admin-1"
					}), gomock.Any()).
					Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Update(context.Background(), "user-1", "admin-1", tt.req)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}

	time.Sleep(10 * time.Millisecond)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	svc := service.New(mockRepo, &config.Config{}, mockCache, mocks.NewOtel())

	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: "user-1", FullName: stringPtr("Ana Guest")}, nil)

	res, err := svc.UpdateProfile(context.Background(), "user-1", dto.UpdateProfileRequest{FullName: stringPtr("Ana Guest")})

	assert.NoError(t, err)
	assert.Equal(t, "Ana Guest", *res.FullName)

	_, err = svc.UpdateProfile(context.Background(), "user-1", dto.UpdateProfileRequest{})
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

	time.Sleep(10 * time.Millisecond)
}

func TestUserService_Deactivate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	svc := service.New(mockRepo, &config.Config{}, mockCache, mocks.NewOtel())

	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	err := svc.Deactivate(context.Background(), "admin-1", "admin-1")
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

	mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: "root", Level: constant.RoleSuperAdmin, Active: true}, nil)

	err = svc.Deactivate(context.Background(), "root", "admin-1")
	assert.Equal(t, http.StatusForbidden, failure.GetCode(err))

	mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: "gone", Level: constant.RoleUser}, nil)

	assert.NoError(t, svc.Deactivate(context.Background(), "gone", "admin-1"))

	mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: "user-1", Level: constant.RoleUser, Active: true}, nil)
	mockRepo.EXPECT().
		Update(gomock.Any(), gomock.Cond(func(fields map[string]any) bool {
			return fields[model.FieldActive] == false
		}), gomock.Any()).
		Return(nil)

	assert.NoError(t, svc.Deactivate(context.Background(), "user-1", "admin-1"))

	time.Sleep(10 * time.Millisecond)
}
