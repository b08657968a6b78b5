package booking

import (
	"fmt"
	"net/http"
	"stayfinder/infras/otel"
	"stayfinder/internal/domains/booking/model"
	"stayfinder/internal/domains/booking/model/dto"
	"stayfinder/internal/domains/booking/service"
	cancellationService "stayfinder/internal/domains/cancellation/service"
	"stayfinder/shared/constant"
	gDto "stayfinder/shared/dto"
	"stayfinder/shared/validator"
	"stayfinder/transport/http/middleware"
	"stayfinder/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const queryParamStatus = "status"

type Handler struct {
	service      service.Booking
	cancellation cancellationService.Cancellation
	otel         otel.Otel
}

func New(service service.Booking, cancellation cancellationService.Cancellation, otel otel.Otel) Handler {
	return Handler{
		service:      service,
		cancellation: cancellation,
		otel:         otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/mine", handler.GetMyBookings)
		routerGroup.Get("/hosting", handler.GetHostBookings)
		routerGroup.Get("/{id}", handler.GetBooking)
		routerGroup.Patch("/{id}/status", handler.UpdateBookingStatus)
		routerGroup.Delete("/{id}", handler.CancelBooking)
		routerGroup.Patch("/{id}/cancel-request", handler.RequestCancellation)
		routerGroup.Patch("/{id}/cancel-approval", handler.ResolveCancellation)
		routerGroup.Get("/{id}/receipt", handler.GetReceipt)
	})
}

// CreateBooking reserves a listing for the caller.
// @Summary Create a booking
// @Description The booking starts as pending. Overlapping non-cancelled bookings are rejected.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Create(ctx, middleware.UserID(ctx), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking created " + booking.ID)

	response.WithJSON(w, http.StatusCreated, booking)
}

// GetMyBookings lists the bookings made by the caller.
// @Summary Guest bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending, confirmed, cancelled, completed)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse]
// @Failure 400 {object} response.Error
// @Router /v1/bookings/mine [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	params := gDto.QueryParams{}
	params.FromRequest(r)

	bookings, err := handler.service.ListForGuest(ctx, middleware.UserID(ctx), params, r.URL.Query().Get(queryParamStatus))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get guest bookings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetHostBookings lists the bookings on listings owned by the caller.
// @Summary Host bookings
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending, confirmed, cancelled, completed)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse]
// @Failure 400 {object} response.Error
// @Router /v1/bookings/hosting [get]
// @Security BearerAuth
func (handler *Handler) GetHostBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetHostBookings")
	defer scope.End()

	params := gDto.QueryParams{}
	params.FromRequest(r)

	bookings, err := handler.service.ListForHost(ctx, middleware.UserID(ctx), params, r.URL.Query().Get(queryParamStatus))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get host bookings")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetBooking returns a booking visible to its guest or host.
// @Summary Get a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBooking")
	defer scope.End()

	booking, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID), middleware.UserID(ctx))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// UpdateBookingStatus moves a booking through its lifecycle.
// @Summary Update booking status
// @Description Hosts confirm and complete bookings. Either party may cancel within the lifecycle rules.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateStatusRequest true "Update Status Request"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBookingStatus")
	defer scope.End()

	req := dto.UpdateStatusRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.SetStatus(ctx, id, middleware.UserID(ctx), model.Status(req.Status))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", id).Msg("failed to update booking status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent(fmt.Sprintf("Booking %s is %s", booking.ID, booking.Status))

	response.WithJSON(w, http.StatusOK, booking)
}

// CancelBooking cancels a booking. Cancelling twice is a no-op.
// @Summary Cancel a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/bookings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	booking, err := handler.service.SetStatus(ctx, chi.URLParam(r, constant.RequestParamID), middleware.UserID(ctx), model.StatusCancelled)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel booking")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// RequestCancellation asks the host to cancel a booking.
// @Summary Request cancellation
// @Tags Cancellation
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelRequest false "Cancel Request"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/bookings/{id}/cancel-request [patch]
// @Security BearerAuth
func (handler *Handler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RequestCancellation")
	defer scope.End()

	// the body is optional since the reason may be omitted
	req := dto.CancelRequest{}
	if r.ContentLength != 0 {
		if err := validator.Validate(r.Body, &req); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Msg("failed to validate request body")

			response.WithError(w, err)

			return
		}
	}

	booking, err := handler.cancellation.Request(ctx, chi.URLParam(r, constant.RequestParamID), middleware.UserID(ctx), req.Reason)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to request cancellation")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// ResolveCancellation lets the host approve or reject a pending request.
// @Summary Resolve cancellation
// @Description Approving cancels the booking and frees its dates.
// @Tags Cancellation
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelResolutionRequest true "Cancel Resolution Request"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Router /v1/bookings/{id}/cancel-approval [patch]
// @Security BearerAuth
func (handler *Handler) ResolveCancellation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ResolveCancellation")
	defer scope.End()

	req := dto.CancelResolutionRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.cancellation.Resolve(ctx, chi.URLParam(r, constant.RequestParamID), middleware.UserID(ctx), model.ApprovalStatus(req.Decision))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to resolve cancellation")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// GetReceipt renders a PDF receipt for a booking.
// @Summary Booking receipt
// @Tags Booking
// @Produce application/pdf
// @Param id path string true "Booking ID"
// @Success 200 {file} file
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/bookings/{id}/receipt [get]
// @Security BearerAuth
func (handler *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReceipt")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	pdf, err := handler.service.Receipt(ctx, id, middleware.UserID(ctx))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to render receipt")

		response.WithError(w, err)

		return
	}

	response.WithFile(w, constant.ContentTypePDF, fmt.Sprintf("receipt-%s.pdf", id), pdf)
}
