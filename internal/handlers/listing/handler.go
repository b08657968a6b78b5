package listing

import (
	"net/http"
	"stayfinder/infras/otel"
	availabilityDto "stayfinder/internal/domains/availability/dto"
	availabilityService "stayfinder/internal/domains/availability/service"
	"stayfinder/internal/domains/listing/model/dto"
	"stayfinder/internal/domains/listing/service"
	"stayfinder/shared/constant"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/validator"
	"stayfinder/transport/http/middleware"
	"stayfinder/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	queryParamCheckIn  = "check_in"
	queryParamCheckOut = "check_out"
)

type Handler struct {
	service      service.Listing
	availability availabilityService.Availability
	otel         otel.Otel
}

func New(service service.Listing, availability availabilityService.Availability, otel otel.Otel) Handler {
	return Handler{
		service:      service,
		availability: availability,
		otel:         otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/listings", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.SearchListings)
		routerGroup.Post("/", handler.CreateListing)
		routerGroup.Get("/mine", handler.GetMyListings)
		routerGroup.Get("/{id}", handler.GetListing)
		routerGroup.Patch("/{id}", handler.UpdateListing)
		routerGroup.Delete("/{id}", handler.DeleteListing)
		routerGroup.Get("/{id}/availability", handler.CheckAvailability)
		routerGroup.Get("/{id}/booked-dates", handler.GetBookedDates)
	})
}

// CreateListing publishes a new listing owned by the caller.
// @Summary Create a listing
// @Description Images are resized and re-encoded as JPEG before upload.
// @Tags Listing
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param location formData string true "Location"
// @Param nightly_price formData string true "Nightly price"
// @Param max_guests formData integer true "Maximum guests"
// @Param bedrooms formData integer false "Bedrooms"
// @Param bathrooms formData integer false "Bathrooms"
// @Param amenities formData string false "Comma separated amenities"
// @Param images formData file false "Listing images"
// @Success 201 {object} response.Data[dto.ListingResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/listings [post]
// @Security BearerAuth
func (handler *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateListing")
	defer scope.End()

	req, err := parseCreateForm(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse listing form")

		response.WithError(w, err)

		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	listing, err := handler.service.Create(ctx, middleware.UserID(ctx), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create listing")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Listing created " + listing.ID)

	response.WithJSON(w, http.StatusCreated, listing)
}

// SearchListings searches published listings.
// @Summary Search listings
// @Description With check_in and check_out only listings free for the whole range are returned.
// @Tags Listing
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param q query string false "Text in title or description"
// @Param location query string false "Location"
// @Param min_price query string false "Minimum nightly price"
// @Param max_price query string false "Maximum nightly price"
// @Param guests query integer false "Guests"
// @Param check_in query string false "Check-in date (YYYY-MM-DD)"
// @Param check_out query string false "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetListingsResponse]
// @Failure 400 {object} response.Error
// @Router /v1/listings [get]
func (handler *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SearchListings")
	defer scope.End()

	params := gDto.QueryParams{}
	params.FromRequest(r)

	query := dto.SearchQuery{}
	if err := query.FromRequest(r); err != nil {
		response.WithError(w, err)

		return
	}

	if err := validator.ValidateStruct(&query); err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	listings, err := handler.service.Search(ctx, params, query)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to search listings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, listings)
}

// GetMyListings lists the listings of the calling host.
// @Summary Host listings
// @Tags Listing
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetListingsResponse]
// @Router /v1/listings/mine [get]
// @Security BearerAuth
func (handler *Handler) GetMyListings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyListings")
	defer scope.End()

	params := gDto.QueryParams{}
	params.FromRequest(r)

	listings, err := handler.service.Mine(ctx, middleware.UserID(ctx), params)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get host listings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, listings)
}

// GetListing returns one listing.
// @Summary Get a listing
// @Tags Listing
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Data[dto.ListingResponse]
// @Failure 404 {object} response.Error
// @Router /v1/listings/{id} [get]
func (handler *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetListing")
	defer scope.End()

	listing, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get listing")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, listing)
}

// UpdateListing changes a listing owned by the caller. New images replace the old ones.
// @Summary Update a listing
// @Tags Listing
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Listing ID"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param location formData string false "Location"
// @Param nightly_price formData string false "Nightly price"
// @Param max_guests formData integer false "Maximum guests"
// @Param bedrooms formData integer false "Bedrooms"
// @Param bathrooms formData integer false "Bathrooms"
// @Param amenities formData string false "Comma separated amenities"
// @Param images formData file false "Listing images"
// @Success 200 {object} response.Data[dto.ListingResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/listings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateListing")
	defer scope.End()

	req, err := parseUpdateForm(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse listing form")

		response.WithError(w, err)

		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	listing, err := handler.service.Update(ctx, chi.URLParam(r, constant.RequestParamID), middleware.UserID(ctx), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update listing")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, listing)
}

// DeleteListing removes a listing without pending or confirmed bookings.
// @Summary Delete a listing
// @Tags Listing
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Message
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/listings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteListing")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID), middleware.UserID(ctx)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete listing")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Listing deleted successfully")
}

// CheckAvailability answers whether a listing is free for a date range.
// @Summary Check availability
// @Tags Availability
// @Produce json
// @Param id path string true "Listing ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[availabilityDto.AvailabilityResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/listings/{id}/availability [get]
func (handler *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	var (
		query = r.URL.Query()
		res   availabilityDto.AvailabilityResponse
		err   error
	)

	res, err = handler.availability.Check(ctx, chi.URLParam(r, constant.RequestParamID), query.Get(queryParamCheckIn), query.Get(queryParamCheckOut))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// GetBookedDates returns the ranges held by non-cancelled bookings.
// @Summary Booked dates
// @Tags Availability
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Data[availabilityDto.BookedDatesResponse]
// @Failure 404 {object} response.Error
// @Router /v1/listings/{id}/booked-dates [get]
func (handler *Handler) GetBookedDates(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookedDates")
	defer scope.End()

	var res availabilityDto.BookedDatesResponse

	res, err := handler.availability.BookedRanges(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booked dates")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}
