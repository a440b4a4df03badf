package parking

import (
	"context"
	"errors"
	"strings"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

// Via tells how the booking was identified at the gate.
type Via string

const (
	ViaToken  Via = "token"
	ViaManual Via = "manual"
)

// Outcome of one scan. Booking is the latest known record, nil only when
// the token did not resolve to a booking at all.
type Outcome struct {
	Admitted bool
	Reason   string
	Booking  *entity.Booking
	Via      Via
}

// Gate admits vehicles at entry and exit by checking the scanned booking and
// driving its lifecycle.
type Gate struct {
	lifecycle *Lifecycle
	codec     *TokenCodec
	log       *zap.Logger
}

func NewGate(lifecycle *Lifecycle, codec *TokenCodec, log *zap.Logger) *Gate {
	return &Gate{
		lifecycle: lifecycle,
		codec:     codec,
		log:       log.With(zap.String("service", "gate")),
	}
}

// Scan dispatches on direction.
func (g *Gate) Scan(ctx context.Context, direction Direction, input string, staffID uuid.UUID, lotID *uuid.UUID) (*Outcome, error) {
	switch direction {
	case DirectionEntry:
		return g.ScanForEntry(ctx, input, staffID, lotID)
	case DirectionExit:
		return g.ScanForExit(ctx, input, staffID, lotID)
	default:
		return nil, apperror.ErrValidation
	}
}

// ScanForEntry checks in a booked vehicle. input is a validation token or,
// when the scanner is down, the raw booking id. lotID, when set, is the lot
// this gate belongs to.
func (g *Gate) ScanForEntry(ctx context.Context, input string, staffID uuid.UUID, lotID *uuid.UUID) (*Outcome, error) {
	return g.scan(ctx, DirectionEntry, input, staffID, lotID)
}

// ScanForExit checks out a vehicle that is in the lot.
func (g *Gate) ScanForExit(ctx context.Context, input string, staffID uuid.UUID, lotID *uuid.UUID) (*Outcome, error) {
	return g.scan(ctx, DirectionExit, input, staffID, lotID)
}

func (g *Gate) scan(ctx context.Context, direction Direction, input string, staffID uuid.UUID, lotID *uuid.UUID) (*Outcome, error) {
	booking, via, reason, err := g.resolve(ctx, strings.TrimSpace(input), lotID)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return g.reject(direction, booking, via, reason), nil
	}

	// one retry: a concurrent transition between our read and the lock
	// shows up as ErrInvalidTransition, the fresh record decides
	for attempt := 0; ; attempt++ {
		outcome, err := g.evaluate(ctx, direction, booking, via, staffID)
		if err == nil {
			return outcome, nil
		}
		if attempt > 0 || !errors.Is(err, apperror.ErrInvalidTransition) {
			return nil, err
		}
		if booking, err = g.lifecycle.Get(ctx, booking.ID); err != nil {
			return nil, err
		}
	}
}

// resolve finds the booking behind input. A non-empty reason means the
// booking was found but must not pass this gate.
func (g *Gate) resolve(ctx context.Context, input string, lotID *uuid.UUID) (*entity.Booking, Via, string, error) {
	if id, err := uuid.Parse(input); err == nil {
		booking, err := g.lifecycle.Get(ctx, id)
		if err != nil {
			return nil, ViaManual, "", err
		}
		return booking, ViaManual, lotReason(booking, lotID), nil
	}

	claims, err := g.codec.Decode(input)
	if err != nil {
		return nil, ViaToken, "", err
	}

	booking, err := g.lifecycle.Get(ctx, claims.BookingID)
	if err != nil {
		return nil, ViaToken, "", err
	}

	if booking.ValidationToken != input || booking.ParkingLotID != claims.LotID {
		g.log.Warn("Token does not match booking record",
			zap.String("booking_id", booking.ID.String()),
		)
		return booking, ViaToken, "token does not match booking", nil
	}

	return booking, ViaToken, lotReason(booking, lotID), nil
}

func lotReason(booking *entity.Booking, lotID *uuid.UUID) string {
	if lotID != nil && booking.ParkingLotID != *lotID {
		return "booking is for a different parking lot"
	}
	return ""
}

func (g *Gate) evaluate(ctx context.Context, direction Direction, booking *entity.Booking, via Via, staffID uuid.UUID) (*Outcome, error) {
	switch {
	case direction == DirectionEntry && booking.Status == entity.BookingStatusBooked:
		updated, err := g.lifecycle.CheckIn(ctx, booking.ID, staffID)
		if err != nil {
			return nil, err
		}
		return g.admit(direction, updated, via), nil

	case direction == DirectionExit && booking.Status == entity.BookingStatusInUse:
		updated, err := g.lifecycle.CheckOut(ctx, booking.ID, staffID)
		if err != nil {
			return nil, err
		}
		return g.admit(direction, updated, via), nil
	}

	return g.reject(direction, booking, via, rejectReason(direction, booking.Status)), nil
}

func rejectReason(direction Direction, status entity.BookingStatus) string {
	switch status {
	case entity.BookingStatusInUse:
		return "already checked in"
	case entity.BookingStatusBooked:
		if direction == DirectionExit {
			return "vehicle has not checked in"
		}
	case entity.BookingStatusCompleted:
		return "booking already completed"
	case entity.BookingStatusCancelled:
		return "booking was cancelled"
	case entity.BookingStatusNoShow:
		return "booking was marked as no-show"
	}
	return "booking status " + string(status) + " cannot pass the gate"
}

func (g *Gate) admit(direction Direction, booking *entity.Booking, via Via) *Outcome {
	g.log.Info("Gate admitted",
		zap.String("direction", string(direction)),
		zap.String("booking_id", booking.ID.String()),
		zap.String("via", string(via)),
	)
	return &Outcome{Admitted: true, Booking: booking, Via: via}
}

func (g *Gate) reject(direction Direction, booking *entity.Booking, via Via, reason string) *Outcome {
	g.log.Info("Gate rejected",
		zap.String("direction", string(direction)),
		zap.String("booking_id", booking.ID.String()),
		zap.String("via", string(via)),
		zap.String("reason", reason),
	)
	return &Outcome{Reason: reason, Booking: booking, Via: via}
}
