package dto

import (
	"stayfinder/internal/domains/booking/model"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	"stayfinder/shared/daterange"
	gDto "stayfinder/shared/dto"
	gModel "stayfinder/shared/model"
	"stayfinder/shared/timezone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateBookingRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	CheckIn   string `json:"check_in"   validate:"required,datetime=2006-01-02"`
	CheckOut  string `json:"check_out"  validate:"required,datetime=2006-01-02"`
	Guests    int    `json:"guests"     validate:"required,min=1"`
}

func (c *CreateBookingRequest) ToModel(guestID, hostID string, dateRange daterange.DateRange, total decimal.Decimal) model.Booking {
	return model.Booking{
		ID:                   uuid.NewString(),
		ListingID:            c.ListingID,
		GuestID:              guestID,
		HostID:               hostID,
		CheckIn:              dateRange.CheckIn,
		CheckOut:             dateRange.CheckOut,
		Guests:               c.Guests,
		TotalPrice:           total,
		Status:               model.StatusPending,
		CancelApprovalStatus: model.ApprovalPending,
		Metadata:             gModel.NewMetadata(guestID),
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type CancelResolutionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

type BookingResponse struct {
	ID                   string          `json:"id"`
	ListingID            string          `json:"listing_id"`
	GuestID              string          `json:"guest_id"`
	HostID               string          `json:"host_id"`
	CheckIn              string          `json:"check_in"`
	CheckOut             string          `json:"check_out"`
	Nights               int             `json:"nights"`
	Guests               int             `json:"guests"`
	TotalPrice           decimal.Decimal `json:"total_price"                    swaggertype:"string"`
	Status               string          `json:"status"`
	CancelRequested      bool            `json:"cancel_requested"`
	CancelReason         string          `json:"cancel_reason,omitempty"`
	CancelApprovalStatus string          `json:"cancel_approval_status"`
	CancelApprovalDate   *string         `json:"cancel_approval_date,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	dateRange := model.Range()

	r.ID = model.ID
	r.ListingID = model.ListingID
	r.GuestID = model.GuestID
	r.HostID = model.HostID
	r.CheckIn = dateRange.CheckIn.Format(constant.DateOnlyFormat)
	r.CheckOut = dateRange.CheckOut.Format(constant.DateOnlyFormat)
	r.Nights = dateRange.Nights()
	r.Guests = model.Guests
	r.TotalPrice = model.TotalPrice
	r.Status = string(model.Status)
	r.CancelRequested = model.CancelRequested
	r.CancelReason = model.CancelReason
	r.CancelApprovalStatus = string(model.CancelApprovalStatus)
	r.CancelApprovalDate = nil

	if model.CancelApprovalDate != nil {
		date := timezone.Format(*model.CancelApprovalDate, constant.DateFormat)
		r.CancelApprovalDate = &date
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
