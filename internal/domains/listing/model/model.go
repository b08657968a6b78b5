package model

import (
	"stayfinder/shared/model"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	TableName  = "listings"
	EntityName = "listing"

	FieldID           = "id"
	FieldHostID       = "host_id"
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldLocation     = "location"
	FieldNightlyPrice = "nightly_price"
	FieldMaxGuests    = "max_guests"
	FieldImages       = "images"
	FieldCreatedAt    = "created_at"
)

type Listing struct {
	ID           string          `db:"id"`
	HostID       string          `db:"host_id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	Location     string          `db:"location"`
	NightlyPrice decimal.Decimal `db:"nightly_price"`
	MaxGuests    int             `db:"max_guests"`
	Bedrooms     int             `db:"bedrooms"`
	Bathrooms    int             `db:"bathrooms"`
	Amenities    pq.StringArray  `db:"amenities"`
	Images       pq.StringArray  `db:"images"`
	model.Metadata
}

func (l Listing) IsOwnedBy(userID string) bool {
	return userID != "" && l.HostID == userID
}
