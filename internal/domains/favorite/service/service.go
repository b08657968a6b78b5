package service

import (
	"context"
	"errors"
	"fmt"
	"stayfinder/infras/otel"
	"stayfinder/internal/domains/favorite/model"
	"stayfinder/internal/domains/favorite/model/dto"
	"stayfinder/internal/domains/favorite/repository"
	listingModel "stayfinder/internal/domains/listing/model"
	listingRepo "stayfinder/internal/domains/listing/repository"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"
	"stayfinder/shared/retry"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type Favorite interface {
	Add(ctx context.Context, userID, listingID string) error
	Remove(ctx context.Context, userID, listingID string) error
	List(ctx context.Context, userID string, params gDto.QueryParams) (dto.GetFavoritesResponse, error)
}

type serviceImpl struct {
	repo        repository.Favorite
	listingRepo listingRepo.Listing
	otel        otel.Otel
}

func New(repo repository.Favorite, listingRepo listingRepo.Listing, otel otel.Otel) Favorite {
	return &serviceImpl{
		repo:        repo,
		listingRepo: listingRepo,
		otel:        otel,
	}
}

// Add marks listingID as a favorite of userID. Adding it twice is not an error.
func (s *serviceImpl) Add(ctx context.Context, userID, listingID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AddFavorite")
	defer scope.End()
	defer scope.TraceIfError(&err)

	exist, err := retry.Read(ctx, func() (bool, error) {
		return s.listingRepo.Exist(ctx, shared.FilterByID(listingID, listingModel.FieldID, listingModel.TableName))
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to check listing existence")

		return fmt.Errorf("failed to check listing existence: %w", err)
	}

	if !exist {
		return failure.NotFound("listing not found") // nolint:wrapcheck
	}

	already, err := retry.Read(ctx, func() (bool, error) {
		return s.repo.Exist(ctx, repository.Filter(userID, listingID))
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to check favorite existence")

		return fmt.Errorf("failed to check favorite existence: %w", err)
	}

	if already {
		return nil
	}

	if err = s.repo.Insert(ctx, dto.NewFavorite(userID, listingID)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == constant.PqErrorCodeUniqueViolation {
			return nil
		}

		log.Error().Err(err).Msg("failed to add favorite")

		return fmt.Errorf("failed to add favorite: %w", err)
	}

	return nil
}

func (s *serviceImpl) Remove(ctx context.Context, userID, listingID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RemoveFavorite")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = s.repo.Delete(ctx, repository.Filter(userID, listingID)); err != nil {
		log.Error().Err(err).Msg("failed to remove favorite")

		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	return nil
}

func (s *serviceImpl) List(ctx context.Context, userID string, params gDto.QueryParams) (res dto.GetFavoritesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListFavorites")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := shared.FilterByID(userID, model.FieldUserID, model.TableName)

	params = params.Restrict(model.TableName, model.FieldCreatedAt)

	total, err := retry.Read(ctx, func() (int, error) {
		return s.repo.Count(ctx, filter)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to count favorites")

		return res, fmt.Errorf("failed to count favorites: %w", err)
	}

	favorites, err := retry.Read(ctx, func() ([]model.Favorite, error) {
		return s.repo.GetAll(ctx, params, filter)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get favorites")

		return res, fmt.Errorf("failed to get favorites: %w", err)
	}

	res.FromModels(favorites, total, params.Limit)

	return res, nil
}
