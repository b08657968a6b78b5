package model

import (
	"stayfinder/shared/model"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	TableName  = "favorites"
	EntityName = "favorite"

	FieldUserID    = "user_id"
	FieldListingID = "listing_id"
	FieldCreatedAt = "created_at"
)

// Favorite carries a summary of the listing it points at, read through a join.
type Favorite struct {
	UserID       string          `db:"user_id"`
	ListingID    string          `db:"listing_id"`
	Title        string          `db:"title"         table:"listings"`
	Location     string          `db:"location"      table:"listings"`
	NightlyPrice decimal.Decimal `db:"nightly_price" table:"listings"`
	Images       pq.StringArray  `db:"images"        table:"listings"`
	model.Metadata
}

func (Favorite) GetJoinQuery() string {
	return "JOIN listings ON listings.id = favorites.listing_id"
}
