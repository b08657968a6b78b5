package dto

import (
	"stayfinder/internal/domains/favorite/model"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	gModel "stayfinder/shared/model"
	"stayfinder/shared/timezone"

	"github.com/shopspring/decimal"
)

func NewFavorite(userID, listingID string) model.Favorite {
	return model.Favorite{
		UserID:    userID,
		ListingID: listingID,
		Metadata:  gModel.NewMetadata(userID),
	}
}

type FavoriteResponse struct {
	ListingID    string          `json:"listing_id"`
	Title        string          `json:"title"`
	Location     string          `json:"location"`
	NightlyPrice decimal.Decimal `json:"nightly_price" swaggertype:"string"`
	Images       []string        `json:"images"`
	AddedAt      string          `json:"added_at"`
}

func (r *FavoriteResponse) FromModel(model model.Favorite) {
	r.ListingID = model.ListingID
	r.Title = model.Title
	r.Location = model.Location
	r.NightlyPrice = model.NightlyPrice
	r.Images = model.Images
	r.AddedAt = timezone.Format(model.CreatedAt, constant.DateFormat)
}

type GetFavoritesResponse struct {
	Favorites []FavoriteResponse `json:"favorites"`
	TotalPage int                `json:"total_page"`
	TotalData int                `json:"total_data"`
}

func (r *GetFavoritesResponse) FromModels(models []model.Favorite, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Favorites = make([]FavoriteResponse, len(models))
	for i, mod := range models {
		r.Favorites[i].FromModel(mod)
	}
}
