package dto

import (
	"fmt"
	"net/http"
	"strings"

	"stayfinder/internal/domains/listing/model"
	"stayfinder/shared"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/failure"
	gModel "stayfinder/shared/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	queryParamQ        = "q"
	queryParamLocation = "location"
	queryParamMinPrice = "min_price"
	queryParamMaxPrice = "max_price"
	queryParamGuests   = "guests"
	queryParamCheckIn  = "check_in"
	queryParamCheckOut = "check_out"
)

// Image is an uploaded listing picture read fully into memory.
type Image struct {
	Name        string `json:"name"         validate:"required"`
	ContentType string `json:"content_type" validate:"required,mimetypes=image/png image/jpg image/jpeg"`
	Data        []byte `json:"-"            validate:"required,maxfilesize=5"`
}

type CreateListingRequest struct {
	Title        string   `json:"title"         validate:"required,notblank,max=200"`
	Description  string   `json:"description"   validate:"required,notblank"`
	Location     string   `json:"location"      validate:"required,notblank,max=200"`
	NightlyPrice string   `json:"nightly_price" validate:"required,numeric"`
	MaxGuests    int      `json:"max_guests"    validate:"required,min=1"`
	Bedrooms     int      `json:"bedrooms"      validate:"min=0"`
	Bathrooms    int      `json:"bathrooms"     validate:"min=0"`
	Amenities    []string `json:"amenities"     validate:"omitempty,dive,max=100"`
	Images       []Image  `json:"-"             validate:"omitempty,dive"`
}

func (c *CreateListingRequest) ToModel(hostID string, imageURLs []string) (model.Listing, error) {
	price, err := ParsePrice(c.NightlyPrice)
	if err != nil {
		return model.Listing{}, err
	}

	amenities := c.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	if imageURLs == nil {
		imageURLs = []string{}
	}

	return model.Listing{
		ID:           uuid.NewString(),
		HostID:       hostID,
		Title:        c.Title,
		Description:  c.Description,
		Location:     c.Location,
		NightlyPrice: price,
		MaxGuests:    c.MaxGuests,
		Bedrooms:     c.Bedrooms,
		Bathrooms:    c.Bathrooms,
		Amenities:    pq.StringArray(amenities),
		Images:       pq.StringArray(imageURLs),
		Metadata:     gModel.NewMetadata(hostID),
	}, nil
}

type UpdateListingRequest struct {
	Title        string         `db:"title"       json:"title"         validate:"omitempty,max=200"`
	Description  string         `db:"description" json:"description"   validate:"omitempty"`
	Location     string         `db:"location"    json:"location"      validate:"omitempty,max=200"`
	NightlyPrice string         `json:"nightly_price"                  validate:"omitempty,numeric"`
	MaxGuests    *int           `db:"max_guests"  json:"max_guests"    validate:"omitempty,min=1"`
	Bedrooms     *int           `db:"bedrooms"    json:"bedrooms"      validate:"omitempty,min=0"`
	Bathrooms    *int           `db:"bathrooms"   json:"bathrooms"     validate:"omitempty,min=0"`
	Amenities    pq.StringArray `db:"amenities"   json:"amenities"     validate:"omitempty,dive,max=100"`
	Images       []Image        `json:"-"                              validate:"omitempty,dive"`
}

// Fields returns the columns to update. Images are handled by the caller.
func (u *UpdateListingRequest) Fields(user string) (map[string]any, error) {
	fields := shared.TransformFields(*u, user)

	if u.NightlyPrice != "" {
		price, err := ParsePrice(u.NightlyPrice)
		if err != nil {
			return nil, err
		}

		fields[model.FieldNightlyPrice] = price
	}

	return fields, nil
}

// ParsePrice parses a nightly price and rejects negative amounts.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, failure.BadRequestFromString(fmt.Sprintf("invalid nightly price %q", raw)) // nolint:wrapcheck
	}

	if price.IsNegative() {
		return decimal.Zero, failure.BadRequestFromString("nightly price must not be negative") // nolint:wrapcheck
	}

	return price, nil
}

type ListingResponse struct {
	ID           string          `json:"id"`
	HostID       string          `json:"host_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Location     string          `json:"location"`
	NightlyPrice decimal.Decimal `json:"nightly_price" swaggertype:"string"`
	MaxGuests    int             `json:"max_guests"`
	Bedrooms     int             `json:"bedrooms"`
	Bathrooms    int             `json:"bathrooms"`
	Amenities    []string        `json:"amenities"`
	Images       []string        `json:"images"`
	gDto.Metadata
}

func (r *ListingResponse) FromModel(model model.Listing) {
	r.ID = model.ID
	r.HostID = model.HostID
	r.Title = model.Title
	r.Description = model.Description
	r.Location = model.Location
	r.NightlyPrice = model.NightlyPrice
	r.MaxGuests = model.MaxGuests
	r.Bedrooms = model.Bedrooms
	r.Bathrooms = model.Bathrooms
	r.Amenities = model.Amenities
	r.Images = model.Images
	r.Metadata.FromModel(model.Metadata)
}

type GetListingsResponse struct {
	Listings  []ListingResponse `json:"listings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetListingsResponse) FromModels(models []model.Listing, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Listings = make([]ListingResponse, len(models))
	for i, mod := range models {
		r.Listings[i].FromModel(mod)
	}
}

// SearchQuery holds the optional listing search criteria. Dates must be given
// together.
type SearchQuery struct {
	Q        string `json:"q"         validate:"omitempty,max=200"`
	Location string `json:"location"  validate:"omitempty,max=200"`
	MinPrice string `json:"min_price" validate:"omitempty,numeric"`
	MaxPrice string `json:"max_price" validate:"omitempty,numeric"`
	Guests   int    `json:"guests"    validate:"omitempty,min=1"`
	CheckIn  string `json:"check_in"  validate:"omitempty,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"omitempty,datetime=2006-01-02"`
}

func (q *SearchQuery) FromRequest(r *http.Request) error {
	values := r.URL.Query()

	q.Q = strings.TrimSpace(values.Get(queryParamQ))
	q.Location = strings.TrimSpace(values.Get(queryParamLocation))
	q.MinPrice = values.Get(queryParamMinPrice)
	q.MaxPrice = values.Get(queryParamMaxPrice)
	q.CheckIn = values.Get(queryParamCheckIn)
	q.CheckOut = values.Get(queryParamCheckOut)

	if guests := values.Get(queryParamGuests); guests != "" {
		n, err := shared.ConvertStringToInt(guests)
		if err != nil {
			return failure.BadRequestFromString("guests must be a number") // nolint:wrapcheck
		}

		q.Guests = n
	}

	return nil
}

// HasDates reports whether the search is restricted to free listings.
func (q *SearchQuery) HasDates() bool {
	return q.CheckIn != "" && q.CheckOut != ""
}

// Filter translates the criteria that live on the listing row itself.
func (q *SearchQuery) Filter() (gDto.FilterGroup, error) {
	filter := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd, Filters: []any{}}

	if q.Q != "" {
		filter.Filters = append(filter.Filters, gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorOr,
			Filters: []any{
				gDto.Filter{ArgName: "q_title", Field: model.FieldTitle, Value: q.Q, Operator: gDto.FilterOperatorLike, Table: model.TableName},
				gDto.Filter{ArgName: "q_description", Field: model.FieldDescription, Value: q.Q, Operator: gDto.FilterOperatorLike, Table: model.TableName},
			},
		})
	}

	if q.Location != "" {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field: model.FieldLocation, Value: q.Location, Operator: gDto.FilterOperatorLike, Table: model.TableName,
		})
	}

	if q.MinPrice != "" {
		price, err := ParsePrice(q.MinPrice)
		if err != nil {
			return filter, err
		}

		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName: "min_price", Field: model.FieldNightlyPrice, Value: price, Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName,
		})
	}

	if q.MaxPrice != "" {
		price, err := ParsePrice(q.MaxPrice)
		if err != nil {
			return filter, err
		}

		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName: "max_price", Field: model.FieldNightlyPrice, Value: price, Operator: gDto.FilterOperatorLessEq, Table: model.TableName,
		})
	}

	if q.Guests > 0 {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field: model.FieldMaxGuests, Value: q.Guests, Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName,
		})
	}

	return filter, nil
}
