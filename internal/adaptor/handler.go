package adaptor

import (
	"encoding/json"
	"net/http"
	"net/url"

	"parking-booking/internal/dto/request"
	"parking-booking/internal/usecase"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	User       *UserHandler
	ParkingLot *ParkingLotHandler
	Booking    *BookingHandler
	Gate       *GateHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		User:       NewUserHandler(service.User, log),
		ParkingLot: NewParkingLotHandler(service.ParkingLot, log),
		Booking:    NewBookingHandler(service.Booking, log),
		Gate:       NewGateHandler(service.Gate, log),
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the 400 response itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (utils.CurrentUser, bool) {
	user, ok := utils.GetCurrentUser(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return user, ok
}

// paginationFromQuery accepts both per_page and limit.
func paginationFromQuery(query url.Values) request.PaginatedRequest {
	perPage := utils.ParseInt(query.Get("limit"), 10)
	perPage = utils.ParseInt(query.Get("per_page"), perPage)

	return request.PaginatedRequest{
		Page:    max(utils.ParseInt(query.Get("page"), 1), 1),
		PerPage: perPage,
	}
}

// handleServiceError maps an apperror sentinel to its HTTP status and code.
// Anything unclassified is a 500 and its message is not exposed.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	status := apperror.StatusOf(err)
	code := apperror.CodeOf(err)

	if status >= http.StatusInternalServerError {
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	log.Warn(operation+" failed",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("code", code))
	utils.ResponseError(w, status, code, err.Error())
}
