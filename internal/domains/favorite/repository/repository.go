package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"stayfinder/infras/otel"
	"stayfinder/infras/postgres"
	"stayfinder/internal/domains/favorite/model"
	gDto "stayfinder/shared/dto"
	gRepo "stayfinder/shared/repository"
)

type Favorite interface {
	Insert(ctx context.Context, model model.Favorite) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Favorite, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Favorite]
}

func New(db *postgres.Connection, otel otel.Otel) Favorite {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Favorite](model.EntityName, model.TableName, model.FieldListingID, db, otel),
	}
}

// Filter matches the favorite of userID on listingID.
func Filter(userID, listingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldUserID, Value: userID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldListingID, Value: listingID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}
}
