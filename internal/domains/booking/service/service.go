package service

import (
	"context"
	"errors"
	"fmt"
	"stayfinder/config"
	"stayfinder/infras/otel"
	availabilityService "stayfinder/internal/domains/availability/service"
	"stayfinder/internal/domains/booking/event"
	"stayfinder/internal/domains/booking/model"
	"stayfinder/internal/domains/booking/model/dto"
	"stayfinder/internal/domains/booking/pricing"
	"stayfinder/internal/domains/booking/receipt"
	"stayfinder/internal/domains/booking/repository"
	listingModel "stayfinder/internal/domains/listing/model"
	listingRepo "stayfinder/internal/domains/listing/repository"
	"stayfinder/shared"
	"stayfinder/shared/cache"
	"stayfinder/shared/constant"
	"stayfinder/shared/daterange"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"
	"stayfinder/shared/retry"
	"stayfinder/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGuestBookings = "booking:guest"
	cacheHostBookings  = "booking:host"

	defaultListCacheTTL = 60
)

type Booking interface {
	Create(ctx context.Context, guestID string, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	SetStatus(ctx context.Context, bookingID, actorID string, status model.Status) (dto.BookingResponse, error)
	Get(ctx context.Context, bookingID, actorID string) (dto.BookingResponse, error)
	ListForGuest(ctx context.Context, guestID string, params gDto.QueryParams, status string) (dto.GetBookingsResponse, error)
	ListForHost(ctx context.Context, hostID string, params gDto.QueryParams, status string) (dto.GetBookingsResponse, error)
	Receipt(ctx context.Context, bookingID, actorID string) ([]byte, error)
}

type serviceImpl struct {
	repo         repository.Booking
	listingRepo  listingRepo.Listing
	availability availabilityService.Availability
	pricing      pricing.Calculator
	publisher    event.Publisher
	receipt      receipt.Renderer
	cache        cache.RedisCache
	cfg          *config.Config
	otel         otel.Otel
}

func New(
	repo repository.Booking,
	listingRepo listingRepo.Listing,
	availability availabilityService.Availability,
	pricing pricing.Calculator,
	publisher event.Publisher,
	receipt receipt.Renderer,
	cache cache.RedisCache,
	cfg *config.Config,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:         repo,
		listingRepo:  listingRepo,
		availability: availability,
		pricing:      pricing,
		publisher:    publisher,
		receipt:      receipt,
		cache:        cache,
		cfg:          cfg,
		otel:         otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, guestID string, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(&err)

	dateRange, err := daterange.Parse(req.CheckIn, req.CheckOut)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	if req.Guests < 1 {
		return res, failure.BadRequestFromString("guests must be at least 1") // nolint:wrapcheck
	}

	listing, err := s.getListing(ctx, req.ListingID)
	if err != nil {
		return res, err
	}

	if req.Guests > listing.MaxGuests {
		return res, failure.BadRequestFromString(fmt.Sprintf("listing accepts at most %d guests", listing.MaxGuests)) // nolint:wrapcheck
	}

	available, err := s.availability.IsAvailable(ctx, listing.ID, dateRange)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	if !available {
		return res, failure.DatesUnavailable
	}

	total, err := s.pricing.Compute(dateRange, listing.NightlyPrice)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	booking := req.ToModel(guestID, listing.HostID, dateRange, total)

	if err = s.repo.InsertIfAvailable(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			log.Info().Str("listing_id", listing.ID).Str("range", dateRange.String()).Msg("booking rejected, dates taken")

			return res, failure.DatesUnavailable
		}

		log.Error().Err(err).Str("listing_id", listing.ID).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish(ctx, event.TypeCreated, booking, guestID)
	InvalidateListCaches(ctx, s.cache, booking)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) SetStatus(ctx context.Context, bookingID, actorID string, status model.Status) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetStatus")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if !status.Valid() {
		return res, failure.BadRequestFromString(fmt.Sprintf("unknown booking status %q", status)) // nolint:wrapcheck
	}

	var changed bool

	booking, err := s.repo.Mutate(ctx, bookingID, func(b *model.Booking) (bool, error) {
		if !b.IsGuest(actorID) && !b.IsHost(actorID) {
			return false, failure.NotAuthorized
		}

		if status == model.StatusCancelled {
			ok, cancelErr := cancel(b, actorID)
			changed = ok

			return ok, cancelErr
		}

		if !b.IsHost(actorID) {
			return false, failure.NotAuthorized
		}

		if !b.Status.CanTransitionTo(status) {
			return false, failure.InvalidState(fmt.Sprintf("booking cannot move from %s to %s", b.Status, status)) // nolint:wrapcheck
		}

		b.Status = status
		b.Touch(actorID)

		changed = true

		return true, nil
	})
	if err != nil {
		return res, MapMutateError(err, bookingID)
	}

	if changed {
		s.publish(ctx, event.TypeStatusChanged, booking, actorID)
		InvalidateListCaches(ctx, s.cache, booking)
	}

	res.FromModel(booking)

	return res, nil
}

// cancel moves b to cancelled. A booking that is already cancelled is left as
// is. Guests may only withdraw pending bookings; anything later needs the
// host's approval. A pending request counts as approved only when the host
// cancels.
func cancel(b *model.Booking, actorID string) (bool, error) {
	switch {
	case b.Status == model.StatusCancelled:
		return false, nil
	case b.Status == model.StatusCompleted:
		return false, failure.InvalidState("completed bookings cannot be cancelled") // nolint:wrapcheck
	case !b.IsHost(actorID) && b.Status != model.StatusPending:
		return false, failure.InvalidState("confirmed bookings can only be cancelled through a cancellation request") // nolint:wrapcheck
	}

	switch {
	case b.CancelPending() && b.IsHost(actorID):
		now := timezone.Now()
		b.CancelApprovalStatus = model.ApprovalApproved
		b.CancelApprovalDate = &now
	case b.CancelPending():
		// withdrawn by the guest, nothing left for the host to resolve
		b.CancelRequested = false
	}

	b.Status = model.StatusCancelled
	b.Touch(actorID)

	return true, nil
}

func (s *serviceImpl) Get(ctx context.Context, bookingID, actorID string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(&err)

	booking, err := s.getForParty(ctx, bookingID, actorID)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) ListForGuest(ctx context.Context, guestID string, params gDto.QueryParams, status string) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListForGuest")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter, err := partyFilter(model.FieldGuestID, model.TableName, guestID, status)
	if err != nil {
		return res, err
	}

	return s.list(ctx, shared.BuildCacheKey(cacheGuestBookings, guestID), params, filter)
}

func (s *serviceImpl) ListForHost(ctx context.Context, hostID string, params gDto.QueryParams, status string) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListForHost")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter, err := partyFilter(model.FieldHostID, listingModel.TableName, hostID, status)
	if err != nil {
		return res, err
	}

	return s.list(ctx, shared.BuildCacheKey(cacheHostBookings, hostID), params, filter)
}

func (s *serviceImpl) list(ctx context.Context, prefix string, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	params = params.Restrict(model.TableName, model.FieldCreatedAt, model.FieldCreatedAt, model.FieldCheckIn)

	cacheKey := shared.BuildCacheKeyWithQuery(prefix, params, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := retry.Read(ctx, func() (int, error) {
		return s.repo.Count(ctx, filter)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := retry.Read(ctx, func() ([]model.Booking, error) {
		return s.repo.GetAll(ctx, params, filter)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.listCacheTTL()); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) listCacheTTL() int {
	if s.cfg.Booking.ListCacheTTL <= 0 {
		return defaultListCacheTTL
	}

	return s.cfg.Booking.ListCacheTTL
}

func (s *serviceImpl) Receipt(ctx context.Context, bookingID, actorID string) (res []byte, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Receipt")
	defer scope.End()
	defer scope.TraceIfError(&err)

	booking, err := s.getForParty(ctx, bookingID, actorID)
	if err != nil {
		return nil, err
	}

	if booking.Status == model.StatusCancelled {
		return nil, failure.InvalidState("cancelled bookings have no receipt") // nolint:wrapcheck
	}

	listing, err := s.getListing(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}

	res, err = s.receipt.Render(receipt.Data{
		Booking:         booking,
		ListingTitle:    listing.Title,
		ListingLocation: listing.Location,
		NightlyPrice:    listing.NightlyPrice,
		IssuedAt:        timezone.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to render receipt")

		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	return res, nil
}

func (s *serviceImpl) getForParty(ctx context.Context, bookingID, actorID string) (model.Booking, error) {
	booking, err := retry.Read(ctx, func() (model.Booking, error) {
		return s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldID, model.TableName))
	})
	if err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if !booking.IsGuest(actorID) && !booking.IsHost(actorID) {
		return model.Booking{}, failure.NotAuthorized
	}

	return booking, nil
}

func (s *serviceImpl) getListing(ctx context.Context, listingID string) (listingModel.Listing, error) {
	listing, err := retry.Read(ctx, func() (listingModel.Listing, error) {
		return s.listingRepo.Get(ctx, shared.FilterByID(listingID, listingModel.FieldID, listingModel.TableName))
	})
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Msg("failed to get listing")

		return listing, fmt.Errorf("failed to get listing: %w", err)
	}

	if listing.ID == constant.Empty {
		return listing, failure.NotFound("listing not found") // nolint:wrapcheck
	}

	return listing, nil
}

func (s *serviceImpl) publish(ctx context.Context, eventType event.Type, booking model.Booking, actorID string) {
	if err := s.publisher.Publish(ctx, event.NewEvent(eventType, booking, actorID)); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Str("type", string(eventType)).Msg("booking event not delivered")
	}
}

func partyFilter(field, table, userID, status string) (gDto.FilterGroup, error) {
	filter := shared.FilterByID(userID, field, table)

	if status == constant.Empty {
		return filter, nil
	}

	if !model.Status(status).Valid() {
		return filter, failure.BadRequestFromString(fmt.Sprintf("unknown booking status %q", status)) // nolint:wrapcheck
	}

	filter.Filters = append(filter.Filters, gDto.Filter{
		Field:    model.FieldStatus,
		Value:    status,
		Operator: gDto.FilterOperatorEq,
		Table:    model.TableName,
	})

	return filter, nil
}

// MapMutateError translates repository errors from a booking mutation into
// failures. Failures raised by the mutation itself pass through.
func MapMutateError(err error, bookingID string) error {
	var fail *failure.Failure

	switch {
	case errors.As(err, &fail):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return failure.NotFound("booking not found") // nolint:wrapcheck
	default:
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to update booking")

		return fmt.Errorf("failed to update booking: %w", err)
	}
}

// InvalidateListCaches drops the guest and host list projections of booking.
func InvalidateListCaches(ctx context.Context, redisCache cache.RedisCache, booking model.Booking) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, redisCache, shared.BuildCacheKey(cacheGuestBookings, booking.GuestID))
		shared.InvalidateCaches(c, redisCache, shared.BuildCacheKey(cacheHostBookings, booking.HostID))
	}()
}
