package event_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stayfinder/config"
	"stayfinder/infras/kafka"
	kafkaMocks "stayfinder/infras/kafka/mocks"
	"stayfinder/infras/otel/mocks"
	"stayfinder/internal/domains/booking/event"
	"stayfinder/internal/domains/booking/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestNewEvent(t *testing.T) {
	booking := model.Booking{
		ID:                   "b1",
		ListingID:            "l1",
		GuestID:              "g1",
		HostID:               "h1",
		CheckIn:              time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:             time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
		Status:               model.StatusConfirmed,
		CancelApprovalStatus: model.ApprovalPending,
	}

	evt := event.NewEvent(event.TypeStatusChanged, booking, "h1")

	assert.Equal(t, event.TypeStatusChanged, evt.Type)
	assert.Equal(t, "confirmed", evt.Status)
	assert.Equal(t, "2025-07-01", evt.CheckIn)
	assert.Equal(t, "2025-07-03", evt.CheckOut)
	assert.Empty(t, evt.CancelApprovalStatus)

	booking.CancelRequested = true
	evt = event.NewEvent(event.TypeCancelRequested, booking, "g1")

	assert.Equal(t, "pending", evt.CancelApprovalStatus)
}

func TestPublisher_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockKafka := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Kafka.Topics.BookingEvents = "booking-events"

	publisher := event.NewPublisher(mockKafka, cfg, mocks.NewOtel())
	evt := event.Event{Type: event.TypeCreated, BookingID: "b1", ListingID: "l1"}

	tests := []struct {
		name      string
		setupMock func()
		wantErr   bool
	}{
		{
			name: "published keyed by listing",
			setupMock: func() {
				mockKafka.EXPECT().
					SendMessages(gomock.Any(), "booking-events", kafka.Message{Key: "l1", Value: evt}).
					Return(nil)
			},
		},
		{
			name: "kafka disabled is not an error",
			setupMock: func() {
				mockKafka.EXPECT().
					SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(kafka.ErrNoBrokers)
			},
		},
		{
			name: "broker failure",
			setupMock: func() {
				mockKafka.EXPECT().
					SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("leader not available"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := publisher.Publish(context.Background(), evt)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
