package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/dto/request"
	"parking-booking/internal/dto/response"
	"parking-booking/internal/parking"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, actor utils.CurrentUser, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBookings(ctx context.Context, actor utils.CurrentUser, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBookingByID(ctx context.Context, actor utils.CurrentUser, bookingID string) (*response.BookingResponse, error)
	GetBookingQR(ctx context.Context, actor utils.CurrentUser, bookingID string, size int) ([]byte, error)
	CancelBooking(ctx context.Context, actor utils.CurrentUser, bookingID string) (*response.BookingResponse, error)
	MarkNoShow(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	ProcessPayment(ctx context.Context, actor utils.CurrentUser, req *request.PaymentRequest) (*response.BookingResponse, error)

	// SweepNoShows marks up to limit bookings that started before cutoff
	// and never checked in.
	SweepNoShows(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type bookingService struct {
	repo      *repository.Repository
	lifecycle *parking.Lifecycle
	log       *zap.Logger
}

func NewBookingService(repo *repository.Repository, lifecycle *parking.Lifecycle, log *zap.Logger) BookingService {
	return &bookingService{
		repo:      repo,
		lifecycle: lifecycle,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor utils.CurrentUser, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	lotID, err := parseID("parking lot", req.ParkingLotID)
	if err != nil {
		return nil, err
	}

	userID := actor.ID
	if req.UserID != nil && *req.UserID != "" {
		id, err := parseID("user", *req.UserID)
		if err != nil {
			return nil, err
		}
		if id != actor.ID && !isStaff(actor) {
			s.log.Warn("Booking on behalf of another user denied",
				zap.String("actor_id", actor.ID.String()),
				zap.String("user_id", id.String()),
			)
			return nil, fmt.Errorf("book for user %s: %w", id.String(), apperror.ErrForbidden)
		}
		userID = id
	}

	booking, err := s.lifecycle.Create(ctx, parking.CreateParams{
		UserID:        userID,
		LotID:         lotID,
		VehicleNumber: req.VehicleNumber,
		VehicleType:   entity.VehicleType(req.VehicleType),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DurationUnit:  entity.DurationUnit(req.DurationUnit),
		PaymentMethod: entity.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBookings(ctx context.Context, actor utils.CurrentUser, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	var filter repository.BookingFilter

	userID, err := parseOptionalID("user", req.UserID)
	if err != nil {
		return nil, err
	}
	filter.UserID = userID
	switch {
	case isStaff(actor):
	case isOwner(actor) && (userID == nil || *userID != actor.ID):
		// owners list bookings at their own lots
		filter.LotOwnerID = &actor.ID
	default:
		filter.UserID = &actor.ID
	}

	if filter.LotID, err = parseOptionalID("parking lot", req.LotID); err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status != "" {
		status := entity.BookingStatus(*req.Status)
		filter.Status = &status
	}

	bookings, err := s.repo.Booking.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}

	total, err := s.repo.Booking.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	s.log.Debug("Bookings retrieved",
		zap.Int("count", len(bookings)),
		zap.Int64("total", total),
		zap.String("actor_id", actor.ID.String()),
	)

	return response.NewPaginatedResponse(response.BookingsToResponse(bookings), req.Page, req.Limit(), total), nil
}

func (s *bookingService) getAccessible(ctx context.Context, actor utils.CurrentUser, bookingID string) (*entity.Booking, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.lifecycle.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canAccess(ctx, actor, booking)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.log.Warn("Booking access denied",
			zap.String("booking_id", bookingID),
			zap.String("actor_id", actor.ID.String()),
		)
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperror.ErrForbidden)
	}
	return booking, nil
}

// canAccess: customers reach their own bookings, owners the bookings at
// lots they own, staff all of them.
func (s *bookingService) canAccess(ctx context.Context, actor utils.CurrentUser, booking *entity.Booking) (bool, error) {
	if booking.UserID == actor.ID || isStaff(actor) {
		return true, nil
	}
	if !isOwner(actor) {
		return false, nil
	}

	lot, err := s.repo.ParkingLot.FindByID(ctx, booking.ParkingLotID)
	if err != nil {
		return false, fmt.Errorf("get parking lot %s: %w", booking.ParkingLotID.String(), err)
	}
	return lot != nil && lot.OwnerID == actor.ID, nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, actor utils.CurrentUser, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.getAccessible(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBookingQR(ctx context.Context, actor utils.CurrentUser, bookingID string, size int) ([]byte, error) {
	booking, err := s.getAccessible(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	return parking.QRCode(booking.ValidationToken, size)
}

func (s *bookingService) CancelBooking(ctx context.Context, actor utils.CurrentUser, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.getAccessible(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.lifecycle.Cancel(ctx, booking.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	resp := response.BookingToResponse(cancelled)
	return &resp, nil
}

func (s *bookingService) MarkNoShow(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.lifecycle.MarkNoShow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mark booking %s as no-show: %w", bookingID, err)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ProcessPayment(ctx context.Context, actor utils.CurrentUser, req *request.PaymentRequest) (*response.BookingResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	booking, err := s.getAccessible(ctx, actor, req.BookingID)
	if err != nil {
		return nil, err
	}

	var method *entity.PaymentMethod
	if req.PaymentMethod != nil {
		m := entity.PaymentMethod(*req.PaymentMethod)
		method = &m
	}

	paid, err := s.lifecycle.RecordPayment(ctx, booking.ID, req.Amount, method)
	if err != nil {
		return nil, fmt.Errorf("pay booking %s: %w", req.BookingID, err)
	}

	resp := response.BookingToResponse(paid)
	return &resp, nil
}

func (s *bookingService) SweepNoShows(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	overdue, err := s.repo.Booking.FindOverdueBooked(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("find overdue bookings: %w", err)
	}

	marked := 0
	for _, booking := range overdue {
		updated, err := s.lifecycle.MarkNoShow(ctx, booking.ID)
		switch {
		case err == nil:
			if updated.Status == entity.BookingStatusNoShow && booking.Status != updated.Status {
				marked++
			}
		case errors.Is(err, apperror.ErrInvalidTransition):
			// checked in or cancelled since the query ran
			s.log.Debug("Skipped no-show candidate",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err),
			)
		default:
			return marked, fmt.Errorf("mark booking %s as no-show: %w", booking.ID.String(), err)
		}
	}

	if marked > 0 {
		s.log.Info("No-show sweep finished",
			zap.Int("candidates", len(overdue)),
			zap.Int("marked", marked),
		)
	}
	return marked, nil
}
