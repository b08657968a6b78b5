package validator_test

import (
	"net/http"
	"stayfinder/shared/failure"
	"stayfinder/shared/validator"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guestRequest struct {
	Name     string `json:"name"      validate:"required,notblank,max=20"`
	Email    string `json:"email"     validate:"required,email"`
	Guests   int    `json:"guests"    validate:"gte=1,lte=16"`
	Role     string `json:"role"      validate:"oneof=user host"`
	CheckIn  string `json:"check_in"  validate:"omitempty,datetime=2006-01-02"`
	Password string `json:"password"  validate:"omitempty,min=8"`
	Current  string `json:"current"   validate:"omitempty,nefield=Password"`
}

type upload struct {
	ContentType string `json:"content_type" validate:"mimetypes=image/png image/jpeg"`
	Data        []byte `json:"data"         validate:"maxfilesize=0.001"`
}

func validGuest() guestRequest {
	return guestRequest{Name: "Ayu", Email: "ayu@example.com", Guests: 2, Role: "user"}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *guestRequest)
		expected string
	}{
		{name: "valid", mutate: func(*guestRequest) {}},
		{name: "missing name", mutate: func(r *guestRequest) { r.Name = "" }, expected: "name is required"},
		{name: "blank name", mutate: func(r *guestRequest) { r.Name = "   " }, expected: "name must not be blank"},
		{name: "long name", mutate: func(r *guestRequest) { r.Name = strings.Repeat("a", 21) }, expected: "name must be at most 20"},
		{name: "bad email", mutate: func(r *guestRequest) { r.Email = "ayu" }, expected: "email must be a valid email address"},
		{name: "too many guests", mutate: func(r *guestRequest) { r.Guests = 17 }, expected: "guests must be less than or equal to 16"},
		{name: "zero guests", mutate: func(r *guestRequest) { r.Guests = 0 }, expected: "guests must be greater than or equal to 1"},
		{name: "unknown role", mutate: func(r *guestRequest) { r.Role = "admin" }, expected: "role must be one of user host"},
		{name: "bad date", mutate: func(r *guestRequest) { r.CheckIn = "10/08/2024" }, expected: "check_in must match the format 2006-01-02"},
		{name: "short password", mutate: func(r *guestRequest) { r.Password = "short" }, expected: "password must be at least 8"},
		{
			name:     "reused password",
			mutate:   func(r *guestRequest) { r.Password, r.Current = "password1", "password1" },
			expected: "current must differ from Password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validGuest()
			tt.mutate(&req)

			err := validator.ValidateStruct(&req)
			if tt.expected == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "valid body", body: `{"name":"Ayu","email":"ayu@example.com","guests":2,"role":"host"}`},
		{name: "empty body", body: "", expected: "request body is empty"},
		{name: "malformed json", body: `{"name":`, expected: "failed to decode request body"},
		{name: "fails validation", body: `{"name":"Ayu","email":"nope","guests":2,"role":"host"}`, expected: "email must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req guestRequest

			err := validator.Validate(strings.NewReader(tt.body), &req)
			if tt.expected == "" {
				require.NoError(t, err)
				assert.Equal(t, "Ayu", req.Name)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidateStruct_Uploads(t *testing.T) {
	tests := []struct {
		name     string
		input    upload
		expected string
	}{
		{name: "png within limit", input: upload{ContentType: "image/png", Data: make([]byte, 1000)}},
		{name: "content type with params", input: upload{ContentType: "image/jpeg; charset=binary", Data: []byte{1}}},
		{name: "wrong type", input: upload{ContentType: "application/pdf", Data: []byte{1}}, expected: "content_type must be one of image/png image/jpeg"},
		{name: "too large", input: upload{ContentType: "image/png", Data: make([]byte, 2000)}, expected: "data must not exceed 0.001 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&tt.input)
			if tt.expected == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("ayu@example.com", "email"))
	assert.NoError(t, validator.ValidateVar("image/webp", "mimetypes=image/png image/webp"))
	assert.NoError(t, validator.ValidateVar([]byte("tiny"), "maxfilesize=1"))
	assert.Error(t, validator.ValidateVar("  ", "notblank"))
	assert.Error(t, validator.ValidateVar("2024-13-01", "datetime=2006-01-02"))
}
