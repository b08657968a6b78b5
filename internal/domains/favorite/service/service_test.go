package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	otelMocks "stayfinder/infras/otel/mocks"
	"stayfinder/internal/domains/favorite/mocks"
	"stayfinder/internal/domains/favorite/model"
	"stayfinder/internal/domains/favorite/service"
	listingMocks "stayfinder/internal/domains/listing/mocks"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFavoriteService_Add(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockFavorite(ctrl)
	mockListingRepo := listingMocks.NewMockListing(ctrl)

	svc := service.New(mockRepo, mockListingRepo, otelMocks.NewOtel())

	tests := []struct {
		name      string
		setupMock func()
		wantCode  int
	}{
		{
			name: "missing listing",
			setupMock: func() {
				mockListingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "already a favorite",
			setupMock: func() {
				mockListingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
		},
		{
			name: "added",
			setupMock: func() {
				mockListingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fav model.Favorite) error {
					assert.Equal(t, "user-1", fav.UserID)
					assert.Equal(t, "listing-1", fav.ListingID)

					return nil
				})
			},
		},
		{
			name: "lost a race with another add",
			setupMock: func() {
				mockListingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(fmt.Errorf("failed to insert data (favorite): %w", &pq.Error{Code: "23505"}))
			},
		},
		{
			name: "insert failure",
			setupMock: func() {
				mockListingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Add(context.Background(), "user-1", "listing-1")

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestFavoriteService_Remove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockFavorite(ctrl)
	svc := service.New(mockRepo, listingMocks.NewMockListing(ctrl), otelMocks.NewOtel())

	mockRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) error {
		_, args := filter.GetWhereClause()

		assert.Equal(t, "user-1", args[model.FieldUserID])
		assert.Equal(t, "listing-1", args[model.FieldListingID])

		return nil
	})

	require.NoError(t, svc.Remove(context.Background(), "user-1", "listing-1"))
}

func TestFavoriteService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockFavorite(ctrl)
	svc := service.New(mockRepo, listingMocks.NewMockListing(ctrl), otelMocks.NewOtel())

	mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(3, nil)
	mockRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Favorite, error) {
		assert.Equal(t, "favorites.created_at", params.SortBy)

		return []model.Favorite{
			{UserID: "user-1", ListingID: "listing-1", Title: "Loft", NightlyPrice: decimal.NewFromInt(80)},
			{UserID: "user-1", ListingID: "listing-2", Title: "Cabin", NightlyPrice: decimal.NewFromInt(60)},
		}, nil
	})

	res, err := svc.List(context.Background(), "user-1", gDto.QueryParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalData)
	assert.Equal(t, 2, res.TotalPage)
	require.Len(t, res.Favorites, 2)
	assert.Equal(t, "Cabin", res.Favorites[1].Title)
}
