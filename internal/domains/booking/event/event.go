// Package event publishes booking lifecycle changes to Kafka, keyed by listing
// so consumers see the changes of one listing in order.
package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=./mocks/event_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"stayfinder/config"
	"stayfinder/infras/kafka"
	"stayfinder/infras/otel"
	"stayfinder/internal/domains/booking/model"
	"stayfinder/shared/constant"
	"stayfinder/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

type Type string

const (
	TypeCreated         Type = "booking.created"
	TypeStatusChanged   Type = "booking.status_changed"
	TypeCancelRequested Type = "booking.cancel_requested"
	TypeCancelResolved  Type = "booking.cancel_resolved"
)

type Event struct {
	Type                 Type      `json:"type"`
	BookingID            string    `json:"booking_id"`
	ListingID            string    `json:"listing_id"`
	GuestID              string    `json:"guest_id"`
	HostID               string    `json:"host_id"`
	Status               string    `json:"status"`
	CancelRequested      bool      `json:"cancel_requested"`
	CancelApprovalStatus string    `json:"cancel_approval_status,omitempty"`
	CheckIn              string    `json:"check_in"`
	CheckOut             string    `json:"check_out"`
	ActorID              string    `json:"actor_id"`
	OccurredAt           time.Time `json:"occurred_at"`
}

func NewEvent(eventType Type, booking model.Booking, actorID string) Event {
	evt := Event{
		Type:            eventType,
		BookingID:       booking.ID,
		ListingID:       booking.ListingID,
		GuestID:         booking.GuestID,
		HostID:          booking.HostID,
		Status:          string(booking.Status),
		CancelRequested: booking.CancelRequested,
		CheckIn:         booking.CheckIn.Format(constant.DateOnlyFormat),
		CheckOut:        booking.CheckOut.Format(constant.DateOnlyFormat),
		ActorID:         actorID,
		OccurredAt:      timezone.Now(),
	}

	if booking.CancelRequested {
		evt.CancelApprovalStatus = string(booking.CancelApprovalStatus)
	}

	return evt
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type kafkaPublisher struct {
	client kafka.Client
	cfg    *config.Config
	otel   otel.Otel
}

func NewPublisher(client kafka.Client, cfg *config.Config, otel otel.Otel) Publisher {
	return &kafkaPublisher{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, evt Event) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".Publish")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttributes(map[string]any{
		"event.type": string(evt.Type),
		"booking_id": evt.BookingID,
	})

	err = p.client.SendMessages(ctx, p.cfg.Kafka.Topics.BookingEvents, kafka.Message{
		Key:   evt.ListingID,
		Value: evt,
	})
	if errors.Is(err, kafka.ErrNoBrokers) {
		log.Debug().Str("type", string(evt.Type)).Msg("kafka disabled, dropping booking event")

		return nil
	}

	if err != nil {
		log.Error().Err(err).Str("type", string(evt.Type)).Str("booking_id", evt.BookingID).Msg("failed to publish booking event")

		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	return nil
}
