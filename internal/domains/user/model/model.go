package model

import (
	"stayfinder/shared/constant"
	"stayfinder/shared/model"
	"time"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID           = "id"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldLevel        = "level"
	FieldFullName     = "full_name"
	FieldProfileImage = "profile_image"
	FieldIsVerified   = "is_verified"
	FieldLastLogin    = "last_login"
	FieldActive       = "active"
)

// User is an account. Level doubles as the RBAC role carried in tokens.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	Password     string     `db:"password"`
	Level        string     `db:"level"`
	FullName     *string    `db:"full_name"`
	ProfileImage *string    `db:"profile_image"`
	IsVerified   bool       `db:"is_verified"`
	LastLogin    *time.Time `db:"last_login"`
	Active       bool       `db:"active"`
	model.Metadata
}

func (u User) IsSuperAdmin() bool {
	return u.Level == constant.RoleSuperAdmin
}

