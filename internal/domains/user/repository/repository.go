package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"stayfinder/infras/otel"
	"stayfinder/infras/postgres"
	"stayfinder/internal/domains/user/model"
	gDto "stayfinder/shared/dto"
	gRepo "stayfinder/shared/repository"
	"strings"
)

// User has no Delete: accounts are deactivated so their listings and
// bookings stay attributable.
type User interface {
	Insert(ctx context.Context, model model.User) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.User, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.User, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.User]
}

func New(db *postgres.Connection, otel otel.Otel) User {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.User](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

// ByEmail matches case-insensitively, the same way the unique index on
// LOWER(email) compares addresses.
func ByEmail(email string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Operator: gDto.FilterPlainQuery,
				Value:    fmt.Sprintf("LOWER(%s.%s) = :email", model.TableName, model.FieldEmail),
				Args:     map[string]any{"email": strings.ToLower(strings.TrimSpace(email))},
			},
		},
	}
}
