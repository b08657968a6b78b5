package dto

import (
	"stayfinder/infras/jwt"
	userModel "stayfinder/internal/domains/user/model"
	"stayfinder/shared/constant"
	gModel "stayfinder/shared/model"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string  `json:"email"               validate:"required,email"`
	Password string  `json:"password"            validate:"required,min=8,max=72"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Role     string  `json:"role,omitempty"      validate:"omitempty,oneof=user host"`
}

// ToUserModel builds an active, unverified account. Role defaults to user.
func (r *RegisterRequest) ToUserModel(username string, hashedPassword string) userModel.User {
	role := r.Role
	if role == constant.Empty {
		role = constant.RoleUser
	}

	return userModel.User{
		ID:         uuid.NewString(),
		Email:      strings.ToLower(r.Email),
		Password:   hashedPassword,
		Level:      role,
		FullName:   r.FullName,
		IsVerified: false,
		Active:     true,
		Metadata:   gModel.NewMetadata(username),
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,numeric"`
}

type UpdateLastLoginRequest struct {
	LastLogin time.Time `db:"last_login" json:"last_login" validate:"required"`
}

// LoginResponse carries either a token pair or, when a second factor is
// enabled, only OTPRequired.
type LoginResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	OTPRequired  bool   `json:"otp_required,omitempty"`
}

func (l *LoginResponse) FromTokenPair(tokenPair *jwt.TokenPair) {
	l.AccessToken = tokenPair.AccessToken
	l.RefreshToken = tokenPair.RefreshToken
	l.ExpiresIn = tokenPair.ExpiresIn
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (r *RefreshTokenResponse) FromTokenPair(tokenPair *jwt.TokenPair) {
	r.AccessToken = tokenPair.AccessToken
	r.RefreshToken = tokenPair.RefreshToken
	r.ExpiresIn = tokenPair.ExpiresIn
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type UpdatePasswordRequest struct {
	Password string `db:"password" json:"password" validate:"required,min=8"`
}

// OTPNotification is the payload published for the mailer.
type OTPNotification struct {
	Type      string `json:"type"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresIn int    `json:"expires_in"`
}
