package model

import (
	"stayfinder/shared/daterange"
	"stayfinder/shared/model"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                   = "id"
	FieldListingID            = "listing_id"
	FieldGuestID              = "guest_id"
	FieldHostID               = "host_id"
	FieldCheckIn              = "check_in"
	FieldCheckOut             = "check_out"
	FieldStatus               = "status"
	FieldCancelRequested      = "cancel_requested"
	FieldCancelReason         = "cancel_reason"
	FieldCancelApprovalStatus = "cancel_approval_status"
	FieldCancelApprovalDate   = "cancel_approval_date"
	FieldCreatedAt            = "created_at"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Terminal statuses accept no further transition.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
// Cancelling is handled separately because it depends on the actor.
func (s Status) CanTransitionTo(target Status) bool {
	switch {
	case s == StatusPending && target == StatusConfirmed:
		return true
	case s == StatusConfirmed && target == StatusCompleted:
		return true
	default:
		return false
	}
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type Booking struct {
	ID                   string          `db:"id"`
	ListingID            string          `db:"listing_id"`
	GuestID              string          `db:"guest_id"`
	HostID               string          `db:"host_id"                table:"listings"`
	CheckIn              time.Time       `db:"check_in"`
	CheckOut             time.Time       `db:"check_out"`
	Guests               int             `db:"guests"`
	TotalPrice           decimal.Decimal `db:"total_price"`
	Status               Status          `db:"status"`
	CancelRequested      bool            `db:"cancel_requested"`
	CancelReason         string          `db:"cancel_reason"`
	CancelApprovalStatus ApprovalStatus  `db:"cancel_approval_status"`
	CancelApprovalDate   *time.Time      `db:"cancel_approval_date"`
	model.Metadata
}

// GetJoinQuery exposes the listing owner on every read.
func (Booking) GetJoinQuery() string {
	return "JOIN listings ON listings.id = bookings.listing_id"
}

func (b Booking) Range() daterange.DateRange {
	return daterange.DateRange{
		CheckIn:  daterange.Normalize(b.CheckIn),
		CheckOut: daterange.Normalize(b.CheckOut),
	}
}

// Blocking bookings hold their dates.
func (b Booking) Blocking() bool {
	return b.Status != StatusCancelled
}

func (b Booking) IsGuest(userID string) bool {
	return userID != "" && b.GuestID == userID
}

func (b Booking) IsHost(userID string) bool {
	return userID != "" && b.HostID == userID
}

func (b Booking) CancelPending() bool {
	return b.CancelRequested && b.CancelApprovalStatus == ApprovalPending
}

// MutableFields lists the columns a status or cancellation change may touch.
func (b Booking) MutableFields() map[string]any {
	return map[string]any{
		FieldStatus:               b.Status,
		FieldCancelRequested:      b.CancelRequested,
		FieldCancelReason:         b.CancelReason,
		FieldCancelApprovalStatus: b.CancelApprovalStatus,
		FieldCancelApprovalDate:   b.CancelApprovalDate,
		"modified_at":             b.ModifiedAt,
		"modified_by":             b.ModifiedBy,
	}
}
