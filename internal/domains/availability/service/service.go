package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"slices"

	"stayfinder/infras/otel"
	"stayfinder/internal/domains/availability/dto"
	bookingModel "stayfinder/internal/domains/booking/model"
	bookingRepo "stayfinder/internal/domains/booking/repository"
	listingModel "stayfinder/internal/domains/listing/model"
	listingRepo "stayfinder/internal/domains/listing/repository"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	"stayfinder/shared/daterange"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"
	"stayfinder/shared/retry"

	"github.com/rs/zerolog/log"
)

type Availability interface {
	// IsAvailable reports whether no blocking booking of listingID overlaps
	// dateRange. The answer is advisory, bookings re-check on insert.
	IsAvailable(ctx context.Context, listingID string, dateRange daterange.DateRange) (bool, error)
	Check(ctx context.Context, listingID, checkIn, checkOut string) (dto.AvailabilityResponse, error)
	BookedRanges(ctx context.Context, listingID string) (dto.BookedDatesResponse, error)
}

type serviceImpl struct {
	bookingRepo bookingRepo.Booking
	listingRepo listingRepo.Listing
	otel        otel.Otel
}

func New(bookingRepo bookingRepo.Booking, listingRepo listingRepo.Listing, otel otel.Otel) Availability {
	return &serviceImpl{
		bookingRepo: bookingRepo,
		listingRepo: listingRepo,
		otel:        otel,
	}
}

func (s *serviceImpl) IsAvailable(ctx context.Context, listingID string, dateRange daterange.DateRange) (available bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IsAvailable")
	defer scope.End()
	defer scope.TraceIfError(&err)

	overlap, err := retry.Read(ctx, func() (bool, error) {
		return s.bookingRepo.Exist(ctx, bookingRepo.OverlapFilter(listingID, dateRange))
	})
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Msg("failed to check availability")

		return false, fmt.Errorf("failed to check availability: %w", err)
	}

	return !overlap, nil
}

func (s *serviceImpl) Check(ctx context.Context, listingID, checkIn, checkOut string) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Check")
	defer scope.End()
	defer scope.TraceIfError(&err)

	dateRange, err := daterange.Parse(checkIn, checkOut)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	if err = s.ensureListing(ctx, listingID); err != nil {
		return res, err
	}

	available, err := s.IsAvailable(ctx, listingID, dateRange)
	if err != nil {
		return res, err
	}

	res.FromRange(listingID, dateRange, available)

	return res, nil
}

func (s *serviceImpl) BookedRanges(ctx context.Context, listingID string) (res dto.BookedDatesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".BookedRanges")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = s.ensureListing(ctx, listingID); err != nil {
		return res, err
	}

	params := gDto.QueryParams{
		SortBy:  bookingModel.TableName + "." + bookingModel.FieldCheckIn,
		SortDir: gDto.SortDirAsc,
	}

	bookings, err := retry.Read(ctx, func() ([]bookingModel.Booking, error) {
		return s.bookingRepo.GetAll(ctx, params, bookingRepo.BlockingFilter(listingID))
	})
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Msg("failed to get booked ranges")

		return res, fmt.Errorf("failed to get booked ranges: %w", err)
	}

	slices.SortStableFunc(bookings, func(a, b bookingModel.Booking) int {
		return a.CheckIn.Compare(b.CheckIn)
	})

	res.FromModels(listingID, bookings)

	return res, nil
}

func (s *serviceImpl) ensureListing(ctx context.Context, listingID string) error {
	exist, err := retry.Read(ctx, func() (bool, error) {
		return s.listingRepo.Exist(ctx, shared.FilterByID(listingID, listingModel.FieldID, listingModel.TableName))
	})
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Msg("failed to check listing existence")

		return fmt.Errorf("failed to check listing existence: %w", err)
	}

	if !exist {
		return failure.NotFound("listing not found") // nolint:wrapcheck
	}

	return nil
}

// AvailableListingsFilter keeps listings with no blocking booking overlapping
// dateRange. It is meant for listing searches against the SQL store.
func AvailableListingsFilter(dateRange daterange.DateRange) gDto.Filter {
	return gDto.Filter{
		Operator: gDto.FilterPlainQuery,
		Value: fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM %[1]s WHERE %[1]s.%[2]s = %[3]s.%[4]s AND %[1]s.%[5]s <> :avail_cancelled AND %[1]s.%[6]s < :avail_check_out AND %[1]s.%[7]s > :avail_check_in)",
			bookingModel.TableName, bookingModel.FieldListingID,
			listingModel.TableName, listingModel.FieldID,
			bookingModel.FieldStatus, bookingModel.FieldCheckIn, bookingModel.FieldCheckOut,
		),
		Args: map[string]any{
			"avail_cancelled": string(bookingModel.StatusCancelled),
			"avail_check_out": dateRange.CheckOut,
			"avail_check_in":  dateRange.CheckIn,
		},
	}
}
