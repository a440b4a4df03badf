package adaptor

import (
	"net/http"
	"strconv"

	"parking-booking/internal/dto/request"
	"parking-booking/internal/usecase"
	"parking-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (protected)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// GetBookings handles GET /api/bookings (protected)
func (h *BookingHandler) GetBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.BookingListRequest{
		PaginatedRequest: paginationFromQuery(query),
		UserID:           utils.ParseString(query.Get("user_id")),
		LotID:            utils.ParseString(query.Get("lot_id")),
		Status:           utils.ParseString(query.Get("status")),
	}

	bookings, err := h.service.GetBookings(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "get bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBookingByID handles GET /api/bookings/{id} (protected)
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	booking, err := h.service.GetBookingByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetBookingQR handles GET /api/bookings/{id}/qr (protected), returns image/png
func (h *BookingHandler) GetBookingQR(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	size := utils.ParseInt(r.URL.Query().Get("size"), defaultQRSize)
	if size < 64 || size > maxQRSize {
		size = defaultQRSize
	}

	png, err := h.service.GetBookingQR(r.Context(), actor, chi.URLParam(r, "id"), size)
	if err != nil {
		handleServiceError(w, h.log, err, "render booking QR")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// CancelBooking handles PUT /api/bookings/{id}/cancel (protected)
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	booking, err := h.service.CancelBooking(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}

// MarkNoShow handles PUT /api/admin/bookings/{id}/no-show (employee, admin)
func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.MarkNoShow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "mark no-show")
		return
	}

	utils.ResponseSuccess(w, "Booking marked as no-show", booking)
}

// ProcessPayment handles POST /api/pay (protected)
func (h *BookingHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.PaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.service.ProcessPayment(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "process payment")
		return
	}

	utils.ResponseSuccess(w, "Payment recorded", booking)
}
