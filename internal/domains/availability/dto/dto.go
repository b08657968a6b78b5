package dto

import (
	"stayfinder/internal/domains/booking/model"
	"stayfinder/shared/constant"
	"stayfinder/shared/daterange"
)

type AvailabilityResponse struct {
	ListingID string `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Nights    int    `json:"nights"`
	Available bool   `json:"available"`
}

func (r *AvailabilityResponse) FromRange(listingID string, dateRange daterange.DateRange, available bool) {
	r.ListingID = listingID
	r.CheckIn = dateRange.CheckIn.Format(constant.DateOnlyFormat)
	r.CheckOut = dateRange.CheckOut.Format(constant.DateOnlyFormat)
	r.Nights = dateRange.Nights()
	r.Available = available
}

type BookedRange struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Status   string `json:"status"`
}

type BookedDatesResponse struct {
	ListingID string        `json:"listing_id"`
	Ranges    []BookedRange `json:"ranges"`
}

func (r *BookedDatesResponse) FromModels(listingID string, bookings []model.Booking) {
	r.ListingID = listingID
	r.Ranges = make([]BookedRange, len(bookings))

	for i, booking := range bookings {
		dateRange := booking.Range()

		r.Ranges[i] = BookedRange{
			CheckIn:  dateRange.CheckIn.Format(constant.DateOnlyFormat),
			CheckOut: dateRange.CheckOut.Format(constant.DateOnlyFormat),
			Status:   string(booking.Status),
		}
	}
}
