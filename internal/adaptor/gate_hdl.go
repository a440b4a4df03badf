package adaptor

import (
	"net/http"

	"parking-booking/internal/dto/request"
	"parking-booking/internal/usecase"
	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

type GateHandler struct {
	service usecase.GateService
	log     *zap.Logger
}

func NewGateHandler(service usecase.GateService, log *zap.Logger) *GateHandler {
	return &GateHandler{
		service: service,
		log:     log.With(zap.String("handler", "gate")),
	}
}

// Scan handles POST /api/gate/scan (staff). A rejected scan is still a 200;
// the outcome field carries the decision.
func (h *GateHandler) Scan(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.GateScanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.service.Scan(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "gate scan")
		return
	}

	utils.ResponseSuccess(w, outcome.Outcome, outcome)
}
