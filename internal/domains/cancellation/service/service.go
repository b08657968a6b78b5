// Package service runs the two-party cancellation negotiation of a booking:
// the guest asks, the host approves or rejects.
package service

import (
	"context"
	"fmt"
	"stayfinder/infras/otel"
	"stayfinder/internal/domains/booking/event"
	"stayfinder/internal/domains/booking/model"
	"stayfinder/internal/domains/booking/model/dto"
	bookingRepo "stayfinder/internal/domains/booking/repository"
	bookingService "stayfinder/internal/domains/booking/service"
	"stayfinder/shared/cache"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	"stayfinder/shared/timezone"
	"strings"

	"github.com/rs/zerolog/log"
)

type Cancellation interface {
	Request(ctx context.Context, bookingID, guestID, reason string) (dto.BookingResponse, error)
	Resolve(ctx context.Context, bookingID, hostID string, decision model.ApprovalStatus) (dto.BookingResponse, error)
}

type serviceImpl struct {
	repo      bookingRepo.Booking
	publisher event.Publisher
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(repo bookingRepo.Booking, publisher event.Publisher, cache cache.RedisCache, otel otel.Otel) Cancellation {
	return &serviceImpl{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		otel:      otel,
	}
}

func (s *serviceImpl) Request(ctx context.Context, bookingID, guestID, reason string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RequestCancellation")
	defer scope.End()
	defer scope.TraceIfError(&err)

	// the reason is optional free text
	reason = strings.TrimSpace(reason)

	booking, err := s.repo.Mutate(ctx, bookingID, func(b *model.Booking) (bool, error) {
		if !b.IsGuest(guestID) {
			return false, failure.NotAuthorized
		}

		switch {
		case b.CancelPending():
			return false, failure.InvalidState("a cancellation request is already pending") // nolint:wrapcheck
		case b.Status.Terminal():
			return false, failure.InvalidState(fmt.Sprintf("%s bookings cannot be cancelled", b.Status)) // nolint:wrapcheck
		}

		// a new request after a rejection starts the negotiation over
		b.CancelRequested = true
		b.CancelReason = reason
		b.CancelApprovalStatus = model.ApprovalPending
		b.CancelApprovalDate = nil
		b.Touch(guestID)

		return true, nil
	})
	if err != nil {
		return res, bookingService.MapMutateError(err, bookingID) // nolint:wrapcheck
	}

	s.publish(ctx, event.TypeCancelRequested, booking, guestID)
	bookingService.InvalidateListCaches(ctx, s.cache, booking)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Resolve(ctx context.Context, bookingID, hostID string, decision model.ApprovalStatus) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ResolveCancellation")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if decision != model.ApprovalApproved && decision != model.ApprovalRejected {
		return res, failure.BadRequestFromString(fmt.Sprintf("decision must be %s or %s", model.ApprovalApproved, model.ApprovalRejected)) // nolint:wrapcheck
	}

	booking, err := s.repo.Mutate(ctx, bookingID, func(b *model.Booking) (bool, error) {
		if !b.IsHost(hostID) {
			return false, failure.NotAuthorized
		}

		switch {
		case !b.CancelRequested:
			return false, failure.InvalidState("no cancellation was requested") // nolint:wrapcheck
		case b.CancelApprovalStatus != model.ApprovalPending:
			return false, failure.InvalidState("the cancellation request was already " + string(b.CancelApprovalStatus)) // nolint:wrapcheck
		case decision == model.ApprovalApproved && b.Status == model.StatusCompleted:
			return false, failure.InvalidState("completed bookings cannot be cancelled") // nolint:wrapcheck
		}

		now := timezone.Now()

		b.CancelApprovalStatus = decision
		b.CancelApprovalDate = &now
		b.ModifiedAt = now
		b.ModifiedBy = hostID

		if decision == model.ApprovalApproved {
			b.Status = model.StatusCancelled
		}

		return true, nil
	})
	if err != nil {
		return res, bookingService.MapMutateError(err, bookingID) // nolint:wrapcheck
	}

	s.publish(ctx, event.TypeCancelResolved, booking, hostID)
	bookingService.InvalidateListCaches(ctx, s.cache, booking)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) publish(ctx context.Context, eventType event.Type, booking model.Booking, actorID string) {
	if err := s.publisher.Publish(ctx, event.NewEvent(eventType, booking, actorID)); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Str("type", string(eventType)).Msg("cancellation event not delivered")
	}
}
