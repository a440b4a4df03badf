package usecase

import (
	"context"
	"fmt"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/dto/request"
	"parking-booking/internal/dto/response"
	"parking-booking/internal/parking"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ParkingLotService interface {
	GetParkingLots(ctx context.Context, req *request.ParkingLotListRequest) (*response.PaginatedResponse[response.ParkingLotResponse], error)
	GetParkingLotByID(ctx context.Context, lotID string) (*response.ParkingLotResponse, error)
	CreateParkingLot(ctx context.Context, actor utils.CurrentUser, req *request.ParkingLotRequest) (*response.ParkingLotResponse, error)
	UpdateParkingLot(ctx context.Context, actor utils.CurrentUser, lotID string, req *request.ParkingLotUpdateRequest) (*response.ParkingLotResponse, error)
}

type parkingLotService struct {
	repo   *repository.Repository
	ledger *parking.SlotLedger
	log    *zap.Logger
}

func NewParkingLotService(repo *repository.Repository, ledger *parking.SlotLedger, log *zap.Logger) ParkingLotService {
	return &parkingLotService{
		repo:   repo,
		ledger: ledger,
		log:    log.With(zap.String("service", "parking_lot")),
	}
}

func (s *parkingLotService) GetParkingLots(ctx context.Context, req *request.ParkingLotListRequest) (*response.PaginatedResponse[response.ParkingLotResponse], error) {
	filter := repository.ParkingLotFilter{
		Location:      req.Location,
		PriceMin:      req.PriceMin,
		PriceMax:      req.PriceMax,
		AvailableOnly: req.AvailableOnly,
	}

	lots, err := s.repo.ParkingLot.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get parking lots: %w", err)
	}

	total, err := s.repo.ParkingLot.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count parking lots: %w", err)
	}

	data := make([]response.ParkingLotResponse, 0, len(lots))
	for _, lot := range lots {
		data = append(data, response.ParkingLotToResponse(lot))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *parkingLotService) GetParkingLotByID(ctx context.Context, lotID string) (*response.ParkingLotResponse, error) {
	id, err := parseID("parking lot", lotID)
	if err != nil {
		return nil, err
	}

	lot, err := s.repo.ParkingLot.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get parking lot %s: %w", lotID, err)
	}
	if lot == nil {
		return nil, fmt.Errorf("parking lot %s: %w", lotID, apperror.ErrLotNotFound)
	}

	resp := response.ParkingLotToResponse(lot)
	return &resp, nil
}

func (s *parkingLotService) CreateParkingLot(ctx context.Context, actor utils.CurrentUser, req *request.ParkingLotRequest) (*response.ParkingLotResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ownerID := actor.ID
	if req.OwnerID != nil && *req.OwnerID != "" {
		id, err := parseID("owner", *req.OwnerID)
		if err != nil {
			return nil, err
		}
		if id != actor.ID && !isAdmin(actor) {
			return nil, fmt.Errorf("create lot for owner %s: %w", id.String(), apperror.ErrForbidden)
		}
		ownerID = id
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now()
	lot := &entity.ParkingLot{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:        ownerID,
		Name:           req.Name,
		Description:    req.Description,
		Location:       req.Location,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		TotalSlots:     req.TotalSlots,
		AvailableSlots: req.TotalSlots,
		PricePerHour:   req.PricePerHour,
		PricePerDay:    req.PricePerDay,
		OpenTime:       req.OpenTime,
		CloseTime:      req.CloseTime,
		IsActive:       isActive,
		IsApproved:     isAdmin(actor), // owner-created lots wait for an admin
	}

	if err := s.repo.ParkingLot.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("create parking lot: %w", err)
	}

	s.log.Info("Parking lot created",
		zap.String("lot_id", lot.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("total_slots", lot.TotalSlots),
		zap.Bool("approved", lot.IsApproved),
	)

	resp := response.ParkingLotToResponse(lot)
	return &resp, nil
}

func (s *parkingLotService) UpdateParkingLot(ctx context.Context, actor utils.CurrentUser, lotID string, req *request.ParkingLotUpdateRequest) (*response.ParkingLotResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	id, err := parseID("parking lot", lotID)
	if err != nil {
		return nil, err
	}

	lot, err := s.repo.ParkingLot.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get parking lot %s: %w", lotID, err)
	}
	if lot == nil {
		return nil, fmt.Errorf("parking lot %s: %w", lotID, apperror.ErrLotNotFound)
	}

	if lot.OwnerID != actor.ID && !isAdmin(actor) {
		s.log.Warn("Parking lot update denied",
			zap.String("lot_id", lotID),
			zap.String("actor_id", actor.ID.String()),
		)
		return nil, fmt.Errorf("update parking lot %s: %w", lotID, apperror.ErrForbidden)
	}
	if req.IsApproved != nil && !isAdmin(actor) {
		return nil, fmt.Errorf("approve parking lot %s: %w", lotID, apperror.ErrForbidden)
	}

	if req.Name != nil {
		lot.Name = *req.Name
	}
	if req.Description != nil {
		lot.Description = req.Description
	}
	if req.Location != nil {
		lot.Location = *req.Location
	}
	if req.Address != nil {
		lot.Address = *req.Address
	}
	if req.Latitude != nil {
		lot.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		lot.Longitude = *req.Longitude
	}
	if req.PricePerHour != nil {
		lot.PricePerHour = *req.PricePerHour
	}
	if req.PricePerDay != nil {
		lot.PricePerDay = *req.PricePerDay
	}
	if req.OpenTime != nil {
		lot.OpenTime = *req.OpenTime
	}
	if req.CloseTime != nil {
		lot.CloseTime = *req.CloseTime
	}
	if req.IsActive != nil {
		lot.IsActive = *req.IsActive
	}
	if req.IsApproved != nil {
		lot.IsApproved = *req.IsApproved
	}
	lot.UpdatedAt = time.Now()

	if req.TotalSlots != nil && *req.TotalSlots != lot.TotalSlots {
		// resize and field update commit together
		_, err = s.ledger.ResizeWith(ctx, id, *req.TotalSlots, func(ctx context.Context, tx *repository.Repository) error {
			return tx.ParkingLot.Update(ctx, lot)
		})
	} else {
		err = s.repo.ParkingLot.Update(ctx, lot)
	}
	if err != nil {
		return nil, fmt.Errorf("update parking lot %s: %w", lotID, err)
	}

	// counters may have moved since the first read
	updated, err := s.repo.ParkingLot.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload parking lot %s: %w", lotID, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("parking lot %s: %w", lotID, apperror.ErrLotNotFound)
	}

	s.log.Info("Parking lot updated",
		zap.String("lot_id", lotID),
		zap.Int("total_slots", updated.TotalSlots),
		zap.Int("available_slots", updated.AvailableSlots),
	)

	resp := response.ParkingLotToResponse(updated)
	return &resp, nil
}
