package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"stayfinder/config"
	"stayfinder/infras/jwt"
	"stayfinder/infras/kafka"
	"stayfinder/infras/otel"
	"stayfinder/internal/domains/auth/model/dto"
	userModel "stayfinder/internal/domains/user/model"
	userRepo "stayfinder/internal/domains/user/repository"
	"stayfinder/shared"
	"stayfinder/shared/cache"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	"stayfinder/shared/password"
	"stayfinder/shared/timezone"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	cacheOTP = "otp"

	defaultOTPLength = 6
	defaultOTPTTL    = 600

	notificationTypeOTP = "login_otp"
)

var errInvalidCredentials = failure.BadRequestFromString("invalid email or password")

type Auth interface {
	Register(ctx context.Context, req dto.RegisterRequest) error
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) error
}

type serviceImpl struct {
	userRepo   userRepo.User
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
	cache      cache.RedisCache
	kafka      kafka.Client
}

func New(userRepo userRepo.User, cfg *config.Config, otel otel.Otel, jwt jwt.JWT, cache cache.RedisCache, kafka kafka.Client) Auth {
	return &serviceImpl{
		userRepo:   userRepo,
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
		cache:      cache,
		kafka:      kafka,
	}
}

func (s *serviceImpl) Register(ctx context.Context, req dto.RegisterRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Register")
	defer scope.End()
	defer scope.TraceIfError(&err)

	exists, err := s.userRepo.Exist(ctx, userRepo.ByEmail(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if exists {
		return failure.Conflict("email already registered")
	}

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err = s.userRepo.Insert(ctx, req.ToUserModel(constant.ContextGuest, hashedPassword)); err != nil {
		log.Error().Err(err).Msg("failed to create user")

		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Login verifies the password. With OTP enabled it only sends a code and the
// tokens are issued by VerifyOTP.
func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer scope.TraceIfError(&err)

	user, err := s.authenticate(ctx, req)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	if s.cfg.Auth.OTP.Enable {
		if err = s.sendOTP(ctx, user.Email); err != nil {
			return res, err
		}

		res.OTPRequired = true

		return res, nil
	}

	return s.issueTokens(ctx, user)
}

func (s *serviceImpl) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".VerifyOTP")
	defer scope.End()
	defer scope.TraceIfError(&err)

	var stored string

	err = s.cache.Take(ctx, shared.BuildCacheKey(cacheOTP, strings.ToLower(req.Email)), &stored)
	if errors.Is(err, cache.Nil) {
		return res, failure.BadRequestFromString("invalid or expired otp")
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to read otp")

		return res, fmt.Errorf("failed to read otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.Code)) != 1 {
		log.Warn().Str("email", req.Email).Msg("otp mismatch")

		return res, failure.BadRequestFromString("invalid or expired otp")
	}

	user, err := s.userRepo.Get(ctx, userRepo.ByEmail(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty || !user.Active {
		return res, errInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshToken")
	defer scope.End()
	defer scope.TraceIfError(&err)

	tokenPair, err := s.jwtService.RefreshTokens(req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh tokens")

		return res, failure.Unauthorized("invalid refresh token")
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}

func (s *serviceImpl) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ChangePassword")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := shared.FilterByID(userID, userModel.FieldID, userModel.TableName)

	user, err := s.userRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return failure.NotFound("user not found")
	}

	if err := password.Verify(req.CurrentPassword, user.Password); err != nil {
		return failure.BadRequestFromString("current password is incorrect")
	}

	hashedPassword, err := password.Hash(req.NewPassword)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash new password")

		return fmt.Errorf("failed to hash new password: %w", err)
	}

	updatedFields := shared.TransformFields(dto.UpdatePasswordRequest{Password: hashedPassword}, userID)

	if err = s.userRepo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update password")

		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (s *serviceImpl) authenticate(ctx context.Context, req dto.LoginRequest) (userModel.User, error) {
	user, err := s.userRepo.Get(ctx, userRepo.ByEmail(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return user, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		log.Warn().Str("email", req.Email).Msg("login attempt with non-existent email")

		return user, errInvalidCredentials
	}

	if err := password.Verify(req.Password, user.Password); err != nil {
		log.Warn().Str("email", req.Email).Msg("login attempt with wrong password")

		return user, errInvalidCredentials
	}

	if !user.Active {
		return user, failure.BadRequestFromString("user account is deactivated")
	}

	return user, nil
}

func (s *serviceImpl) issueTokens(ctx context.Context, user userModel.User) (res dto.LoginResponse, err error) {
	tokenPair, err := s.jwtService.GenerateTokenPair(user.ID, user.Email, user.Level)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate tokens")

		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	lastLogin := dto.UpdateLastLoginRequest{LastLogin: timezone.Now()}
	updatedFields := shared.TransformFields(lastLogin, user.ID)

	if err := s.userRepo.Update(ctx, updatedFields, shared.FilterByID(user.ID, userModel.FieldID, userModel.TableName)); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")

		return res, fmt.Errorf("failed to update last login: %w", err)
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}

func (s *serviceImpl) sendOTP(ctx context.Context, email string) error {
	code, err := generateOTP(s.otpLength())
	if err != nil {
		log.Error().Err(err).Msg("failed to generate otp")

		return fmt.Errorf("failed to generate otp: %w", err)
	}

	ttl := s.otpTTL()

	if err = s.cache.Save(ctx, shared.BuildCacheKey(cacheOTP, email), code, ttl); err != nil {
		log.Error().Err(err).Msg("failed to store otp")

		return fmt.Errorf("failed to store otp: %w", err)
	}

	err = s.kafka.SendMessages(ctx, s.cfg.Kafka.Topics.Notifications, kafka.Message{
		Key: email,
		Value: dto.OTPNotification{
			Type:      notificationTypeOTP,
			Email:     email,
			Code:      code,
			ExpiresIn: ttl,
		},
	})
	if errors.Is(err, kafka.ErrNoBrokers) {
		log.Warn().Str("email", email).Msg("kafka disabled, otp notification not sent")

		return nil
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to send otp notification")

		return fmt.Errorf("failed to send otp notification: %w", err)
	}

	return nil
}

func (s *serviceImpl) otpLength() int {
	if s.cfg.Auth.OTP.Length <= 0 {
		return defaultOTPLength
	}

	return s.cfg.Auth.OTP.Length
}

func (s *serviceImpl) otpTTL() int {
	if s.cfg.Auth.OTP.TTLSeconds <= 0 {
		return defaultOTPTTL
	}

	return s.cfg.Auth.OTP.TTLSeconds
}

func generateOTP(length int) (string, error) {
	var b strings.Builder

	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return constant.Empty, fmt.Errorf("failed to read random digit: %w", err)
		}

		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
