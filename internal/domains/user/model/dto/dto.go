package dto

import (
	"stayfinder/internal/domains/user/model"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	gDto "stayfinder/shared/dto"
	gModel "stayfinder/shared/model"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email    string  `json:"email"               validate:"required,email"`
	Password string  `json:"password"            validate:"required,min=8,max=72"`
	Level    string  `json:"level"               validate:"omitempty,oneof=user host admin"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
}

func (r *CreateUserRequest) ToModel(actorID string, hashedPassword string) model.User {
	level := r.Level
	if level == constant.Empty {
		level = constant.RoleUser
	}

	return model.User{
		ID:         uuid.NewString(),
		Email:      strings.ToLower(r.Email),
		Password:   hashedPassword,
		Level:      level,
		FullName:   r.FullName,
		IsVerified: true,
		Active:     true,
		Metadata:   gModel.NewMetadata(actorID),
	}
}

type UserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Level        string     `json:"level"`
	FullName     *string    `json:"full_name,omitempty"`
	ProfileImage *string    `json:"profile_image,omitempty"`
	IsVerified   bool       `json:"is_verified"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	Active       bool       `json:"active"`
	gDto.Metadata
}

func (r *UserResponse) FromModel(model model.User) {
	r.ID = model.ID
	r.Email = model.Email
	r.Level = model.Level
	r.FullName = model.FullName
	r.ProfileImage = model.ProfileImage
	r.IsVerified = model.IsVerified
	r.LastLogin = model.LastLogin
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

// UpdateUserRequest is the admin view of an account.
type UpdateUserRequest struct {
	Level      *string `db:"level"       json:"level,omitempty"       validate:"omitempty,oneof=user host admin"`
	FullName   *string `db:"full_name"   json:"full_name,omitempty"   validate:"omitempty,min=2,max=100"`
	IsVerified *bool   `db:"is_verified" json:"is_verified,omitempty"`
	Active     *bool   `db:"active"      json:"active,omitempty"`
}

type UpdateProfileRequest struct {
	FullName     *string `db:"full_name"     json:"full_name,omitempty"     validate:"omitempty,min=2,max=100"`
	ProfileImage *string `db:"profile_image" json:"profile_image,omitempty" validate:"omitempty,url"`
}

type GetUsersResponse struct {
	Users     []UserResponse `json:"users"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetUsersResponse) FromModels(models []model.User, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Users = make([]UserResponse, len(models))
	for i, mod := range models {
		r.Users[i].FromModel(mod)
	}
}
