package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stayfinder/infras/jwt"
	"stayfinder/internal/domains/auth/model/dto"
	"stayfinder/shared/constant"
)

func TestLoginResponse_FromTokenPair(t *testing.T) {
	tokenPair := &jwt.TokenPair{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		ExpiresIn:    900,
	}

	var response dto.LoginResponse
	response.FromTokenPair(tokenPair)

	assert.Equal(t, tokenPair.AccessToken, response.AccessToken)
	assert.Equal(t, tokenPair.RefreshToken, response.RefreshToken)
	assert.Equal(t, int64(900), response.ExpiresIn)
	assert.False(t, response.OTPRequired)
}

func TestRefreshTokenResponse_FromTokenPair(t *testing.T) {
	tokenPair := &jwt.TokenPair{
		AccessToken:  "new-access-token",
		RefreshToken: "new-refresh-token",
	}

	var response dto.RefreshTokenResponse
	response.FromTokenPair(tokenPair)

	assert.Equal(t, tokenPair.AccessToken, response.AccessToken)
	assert.Equal(t, tokenPair.RefreshToken, response.RefreshToken)
}

func TestRegisterRequest_ToUserModel(t *testing.T) {
	tests := []struct {
		name     string
		req      dto.RegisterRequest
		wantRole string
	}{
		{
			name:     "defaults to user",
			req:      dto.RegisterRequest{Email: "Guest@Example.com", Password: "password"},
			wantRole: constant.RoleUser,
		},
		{
			name:     "host role kept",
			req:      dto.RegisterRequest{Email: "host@example.com", Password: "password", Role: constant.RoleHost},
			wantRole: constant.RoleHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.req.ToUserModel(constant.ContextGuest, "hashed")

			assert.NotEmpty(t, user.ID)
			assert.Equal(t, tt.wantRole, user.Level)
			assert.Equal(t, "hashed", user.Password)
			assert.True(t, user.Active)
			assert.False(t, user.IsVerified)
			assert.Equal(t, constant.ContextGuest, user.CreatedBy)
		})
	}

	user := (&dto.RegisterRequest{Email: "Guest@Example.com"}).ToUserModel(constant.ContextGuest, "hashed")
	assert.Equal(t, "guest@example.com", user.Email)
}
