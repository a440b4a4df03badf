package usecase

import (
	"context"
	"fmt"

	"parking-booking/internal/dto/request"
	"parking-booking/internal/dto/response"
	"parking-booking/internal/parking"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

type GateService interface {
	Scan(ctx context.Context, actor utils.CurrentUser, req *request.GateScanRequest) (*response.GateScanResponse, error)
}

type gateService struct {
	gate *parking.Gate
	log  *zap.Logger
}

func NewGateService(gate *parking.Gate, log *zap.Logger) GateService {
	return &gateService{
		gate: gate,
		log:  log.With(zap.String("service", "gate_scan")),
	}
}

func (s *gateService) Scan(ctx context.Context, actor utils.CurrentUser, req *request.GateScanRequest) (*response.GateScanResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if !isStaff(actor) {
		return nil, fmt.Errorf("gate scan: %w", apperror.ErrForbidden)
	}

	lotID, err := parseOptionalID("parking lot", req.LotID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.gate.Scan(ctx, parking.Direction(req.Direction), req.TokenOrBookingID, actor.ID, lotID)
	if err != nil {
		return nil, fmt.Errorf("gate scan: %w", err)
	}

	resp := &response.GateScanResponse{
		Outcome: "rejected",
		Reason:  outcome.Reason,
		Via:     string(outcome.Via),
	}
	if outcome.Admitted {
		resp.Outcome = "admitted"
	}
	if outcome.Booking != nil {
		booking := response.BookingToResponse(outcome.Booking)
		resp.Booking = &booking
	}
	return resp, nil
}
