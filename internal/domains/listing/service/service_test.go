package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"
	"time"

	"stayfinder/config"
	otelMocks "stayfinder/infras/otel/mocks"
	s3Mocks "stayfinder/infras/s3/mocks"
	bookingMocks "stayfinder/internal/domains/booking/mocks"
	"stayfinder/internal/domains/listing/mocks"
	"stayfinder/internal/domains/listing/model"
	"stayfinder/internal/domains/listing/model/dto"
	"stayfinder/internal/domains/listing/service"
	cacheMocks "stayfinder/shared/cache/mocks"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	hostID    = "host-1"
	strangeID = "host-2"
	imageURL  = "https://cdn.example.com/listing/a.jpg"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func storedListing() model.Listing {
	return model.Listing{
		ID:           "listing-1",
		HostID:       hostID,
		Title:        "Loft",
		NightlyPrice: decimal.NewFromInt(80),
		MaxGuests:    2,
		Images:       []string{imageURL},
	}
}

type mocksSet struct {
	repo        *mocks.MockListing
	bookingRepo *bookingMocks.MockBooking
	cache       *cacheMocks.MockRedisCache
	s3          *s3Mocks.MockS3
}

func newService(t *testing.T, cfg *config.Config) (service.Listing, mocksSet) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := mocksSet{
		repo:        mocks.NewMockListing(ctrl),
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
		s3:          s3Mocks.NewMockS3(ctrl),
	}

	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return service.New(m.repo, m.bookingRepo, cfg, m.cache, otelMocks.NewOtel(), m.s3), m
}

func TestListingService_Create(t *testing.T) {
	picture := dto.Image{Name: "room.png", ContentType: "image/png", Data: pngBytes(t, 64, 32)}

	tests := []struct {
		name      string
		cfg       *config.Config
		req       dto.CreateListingRequest
		setupMock func(m mocksSet)
		wantCode  int
	}{
		{
			name:      "negative price",
			cfg:       &config.Config{},
			req:       dto.CreateListingRequest{Title: "Loft", NightlyPrice: "-1", MaxGuests: 2},
			setupMock: func(mocksSet) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "not an image",
			cfg:       &config.Config{},
			req:       dto.CreateListingRequest{Title: "Loft", NightlyPrice: "80", MaxGuests: 2, Images: []dto.Image{{Name: "x.png", Data: []byte("nope")}}},
			setupMock: func(mocksSet) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "too many images",
			cfg: func() *config.Config {
				cfg := &config.Config{}
				cfg.Listing.MaxImages = 1

				return cfg
			}(),
			req:       dto.CreateListingRequest{Title: "Loft", NightlyPrice: "80", MaxGuests: 2, Images: []dto.Image{picture, picture}},
			setupMock: func(mocksSet) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "insert fails and uploaded images are removed",
			cfg:  &config.Config{},
			req:  dto.CreateListingRequest{Title: "Loft", NightlyPrice: "80", MaxGuests: 2, Images: []dto.Image{picture}},
			setupMock: func(m mocksSet) {
				m.s3.EXPECT().UploadFileBytes(gomock.Any(), model.EntityName, gomock.Any(), "image/jpeg", gomock.Any()).Return(imageURL, nil)
				m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
				m.s3.EXPECT().GetObjectKeyFromURL(imageURL).Return("listing/a.jpg")
				m.s3.EXPECT().DeleteObject(gomock.Any(), "listing/a.jpg").Return(nil)
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "success resizes and uploads",
			cfg: func() *config.Config {
				cfg := &config.Config{}
				cfg.Listing.ImageMaxWidth = 16
				cfg.Listing.ImageMaxHeight = 16

				return cfg
			}(),
			req: dto.CreateListingRequest{Title: "Loft", NightlyPrice: "80.50", MaxGuests: 2, Amenities: []string{"wifi"}, Images: []dto.Image{picture}},
			setupMock: func(m mocksSet) {
				m.s3.EXPECT().UploadFileBytes(gomock.Any(), model.EntityName, gomock.Any(), "image/jpeg", gomock.Any()).
					DoAndReturn(func(_ context.Context, _, fileName, _ string, data []byte) (string, error) {
						assert.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}), "expected a JPEG")
						assert.Contains(t, fileName, ".jpg")

						return imageURL, nil
					})
				m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, listing model.Listing) error {
					assert.Equal(t, hostID, listing.HostID)
					assert.True(t, decimal.RequireFromString("80.50").Equal(listing.NightlyPrice))

					return nil
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t, tt.cfg)
			tt.setupMock(m)

			res, err := svc.Create(context.Background(), hostID, tt.req)

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, []string{imageURL}, res.Images)
			assert.Equal(t, []string{"wifi"}, res.Amenities)
		})
	}
}

func TestListingService_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(m mocksSet)
		wantCode  int
	}{
		{
			name: "cache hit",
			setupMock: func(m mocksSet) {
				m.cache.EXPECT().Get(gomock.Any(), "listing:get:listing-1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, value any) error {
					res, _ := value.(*dto.ListingResponse)
					res.ID = "listing-1"

					return nil
				})
			},
		},
		{
			name: "cache miss",
			setupMock: func(m mocksSet) {
				m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis: nil"))
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedListing(), nil)
				m.cache.EXPECT().Save(gomock.Any(), "listing:get:listing-1", gomock.Any(), 300).Return(nil)
			},
		},
		{
			name: "not found",
			setupMock: func(m mocksSet) {
				m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis: nil"))
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Listing{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t, &config.Config{})
			tt.setupMock(m)

			res, err := svc.Get(context.Background(), "listing-1")

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "listing-1", res.ID)
		})
	}
}

func TestListingService_Search(t *testing.T) {
	tests := []struct {
		name      string
		params    gDto.QueryParams
		query     dto.SearchQuery
		setupMock func(m mocksSet)
		wantCode  int
	}{
		{
			name:      "only one date",
			query:     dto.SearchQuery{CheckIn: "2024-07-01"},
			setupMock: func(mocksSet) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "empty date range",
			query:     dto.SearchQuery{CheckIn: "2024-07-01", CheckOut: "2024-07-01"},
			setupMock: func(mocksSet) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "bad price",
			query:     dto.SearchQuery{MinPrice: "cheap"},
			setupMock: func(mocksSet) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:   "criteria and dates reach the repository",
			params: gDto.QueryParams{Page: 1, Limit: 10, SortBy: "password; DROP TABLE users", SortDir: "ASC"},
			query:  dto.SearchQuery{Q: "loft", Location: "Lyon", MinPrice: "20", MaxPrice: "100", Guests: 2, CheckIn: "2024-07-01", CheckOut: "2024-07-03"},
			setupMock: func(m mocksSet) {
				m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis: nil"))
				m.repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
					where, args := filter.GetWhereClause()

					assert.Contains(t, where, "NOT EXISTS")
					assert.Contains(t, where, "listings.max_guests >= :max_guests")
					assert.Equal(t, "%loft%", args["q_title"])
					assert.Equal(t, "%Lyon%", args["location"])

					return 1, nil
				})
				m.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Listing, error) {
					assert.Equal(t, "listings.created_at", params.SortBy)
					assert.Equal(t, gDto.SortDirAsc, params.SortDir)

					return []model.Listing{storedListing()}, nil
				})
				m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t, &config.Config{})
			tt.setupMock(m)

			res, err := svc.Search(context.Background(), tt.params, tt.query)

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			require.Len(t, res.Listings, 1)
			assert.Equal(t, 1, res.TotalData)
		})
	}
}

func TestListingService_Update(t *testing.T) {
	title := "Bigger loft"

	tests := []struct {
		name      string
		actorID   string
		req       dto.UpdateListingRequest
		setupMock func(m mocksSet)
		wantCode  int
	}{
		{
			name:    "not the owner",
			actorID: strangeID,
			req:     dto.UpdateListingRequest{Title: title},
			setupMock: func(m mocksSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedListing(), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:    "invalid price",
			actorID: hostID,
			req:     dto.UpdateListingRequest{NightlyPrice: "-5"},
			setupMock: func(m mocksSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedListing(), nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "owner updates",
			actorID: hostID,
			req:     dto.UpdateListingRequest{Title: title, NightlyPrice: "95"},
			setupMock: func(m mocksSet) {
				updated := storedListing()
				updated.Title = title

				gomock.InOrder(
					m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedListing(), nil),
					m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, title, fields[model.FieldTitle])
						assert.True(t, decimal.NewFromInt(95).Equal(fields[model.FieldNightlyPrice].(decimal.Decimal)))
						assert.NotContains(t, fields, model.FieldImages)

						return nil
					}),
					m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(updated, nil),
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t, &config.Config{})
			tt.setupMock(m)

			res, err := svc.Update(context.Background(), "listing-1", tt.actorID, tt.req)

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, title, res.Title)
		})
	}
}

func TestListingService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		actorID   string
		setupMock func(m mocksSet)
		wantCode  int
	}{
		{
			name:    "unknown listing",
			actorID: hostID,
			setupMock: func(m mocksSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Listing{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:    "not the owner",
			actorID: strangeID,
			setupMock: func(m mocksSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedListing(), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:    "active bookings block deletion",
			actorID: hostID,
			setupMock: func(m mocksSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedListing(), nil)
				m.bookingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: http.StatusConflict,
		},
		{
			name:    "deleted with its images",
			actorID: hostID,
			setupMock: func(m mocksSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(storedListing(), nil)
				m.bookingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				m.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
				m.s3.EXPECT().GetObjectKeyFromURL(imageURL).Return("listing/a.jpg")
				m.s3.EXPECT().DeleteObject(gomock.Any(), "listing/a.jpg").Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t, &config.Config{})
			tt.setupMock(m)

			err := svc.Delete(context.Background(), "listing-1", tt.actorID)

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
		})
	}
}
