package adaptor

import (
	"net/http"

	"parking-booking/internal/dto/request"
	"parking-booking/internal/usecase"
	"parking-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ParkingLotHandler struct {
	service usecase.ParkingLotService
	log     *zap.Logger
}

func NewParkingLotHandler(service usecase.ParkingLotService, log *zap.Logger) *ParkingLotHandler {
	return &ParkingLotHandler{
		service: service,
		log:     log.With(zap.String("handler", "parking_lot")),
	}
}

// GetParkingLots handles GET /api/parking-lots (public)
func (h *ParkingLotHandler) GetParkingLots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &request.ParkingLotListRequest{
		PaginatedRequest: paginationFromQuery(query),
		Location:         utils.ParseString(query.Get("location")),
		PriceMin:         utils.ParseFloat(query.Get("price_min")),
		PriceMax:         utils.ParseFloat(query.Get("price_max")),
		AvailableOnly:    utils.ParseBool(query.Get("available_only"), false),
	}

	lots, err := h.service.GetParkingLots(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get parking lots")
		return
	}

	utils.ResponseSuccess(w, "success", lots)
}

// GetParkingLotByID handles GET /api/parking-lots/{id} (public)
func (h *ParkingLotHandler) GetParkingLotByID(w http.ResponseWriter, r *http.Request) {
	lotID := chi.URLParam(r, "id")

	lot, err := h.service.GetParkingLotByID(r.Context(), lotID)
	if err != nil {
		handleServiceError(w, h.log, err, "get parking lot")
		return
	}

	utils.ResponseSuccess(w, "success", lot)
}

// CreateParkingLot handles POST /api/admin/parking-lots
func (h *ParkingLotHandler) CreateParkingLot(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.ParkingLotRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lot, err := h.service.CreateParkingLot(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create parking lot")
		return
	}

	utils.ResponseCreated(w, "Parking lot created", lot)
}

// UpdateParkingLot handles PUT /api/admin/parking-lots/{id}
func (h *ParkingLotHandler) UpdateParkingLot(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.ParkingLotUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lot, err := h.service.UpdateParkingLot(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update parking lot")
		return
	}

	utils.ResponseSuccess(w, "Parking lot updated", lot)
}
