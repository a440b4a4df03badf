package parking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Op is a lifecycle operation on an existing booking.
type Op string

const (
	OpCheckIn  Op = "check_in"
	OpCheckOut Op = "check_out"
	OpCancel   Op = "cancel"
	OpNoShow   Op = "no_show"
)

// transitions is the whole state machine. A (status, op) pair that is not
// listed is ErrInvalidTransition.
var transitions = map[entity.BookingStatus]map[Op]entity.BookingStatus{
	entity.BookingStatusBooked: {
		OpCheckIn: entity.BookingStatusInUse,
		OpCancel:  entity.BookingStatusCancelled,
		OpNoShow:  entity.BookingStatusNoShow,
	},
	entity.BookingStatusInUse: {
		OpCheckOut: entity.BookingStatusCompleted,
	},
}

// releasesSlot lists the operations that give the slot back to the lot.
var releasesSlot = map[Op]bool{
	OpCheckOut: true,
	OpCancel:   true,
	OpNoShow:   true,
}

// NextStatus returns the status op leads to from from.
func NextStatus(from entity.BookingStatus, op Op) (entity.BookingStatus, error) {
	to, ok := transitions[from][op]
	if !ok {
		return "", fmt.Errorf("%s from %s: %w", op, from, apperror.ErrInvalidTransition)
	}
	return to, nil
}

type CreateParams struct {
	UserID        uuid.UUID
	LotID         uuid.UUID
	VehicleNumber string
	VehicleType   entity.VehicleType
	StartTime     time.Time
	EndTime       time.Time
	DurationUnit  entity.DurationUnit // hours when empty
	PaymentMethod entity.PaymentMethod
	Notes         *string
}

// Lifecycle creates bookings and moves them through their states, keeping
// the slot ledger in step.
type Lifecycle struct {
	repo   *repository.Repository
	ledger *SlotLedger
	codec  *TokenCodec
	locks  Locker
	now    func() time.Time
	log    *zap.Logger
}

type Option func(*Lifecycle)

func WithClock(now func() time.Time) Option {
	return func(lc *Lifecycle) {
		lc.now = now
	}
}

func NewLifecycle(repo *repository.Repository, ledger *SlotLedger, codec *TokenCodec, locks Locker, log *zap.Logger, opts ...Option) *Lifecycle {
	lc := &Lifecycle{
		repo:   repo,
		ledger: ledger,
		codec:  codec,
		locks:  locks,
		now:    time.Now,
		log:    log.With(zap.String("service", "lifecycle")),
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc
}

// Create reserves a slot and persists a booked booking in one transaction.
func (lc *Lifecycle) Create(ctx context.Context, p CreateParams) (*entity.Booking, error) {
	vehicle := strings.ToUpper(strings.TrimSpace(p.VehicleNumber))
	if vehicle == "" {
		return nil, fmt.Errorf("vehicle number is required: %w", apperror.ErrValidation)
	}

	unit := p.DurationUnit
	if unit == "" {
		unit = entity.DurationHours
	}

	now := lc.now()
	if !p.EndTime.After(p.StartTime) {
		return nil, fmt.Errorf("end time must be after start time: %w", apperror.ErrInvalidTimeRange)
	}
	if !p.EndTime.After(now) {
		return nil, fmt.Errorf("end time is in the past: %w", apperror.ErrInvalidTimeRange)
	}

	hours := DurationValue(p.StartTime, p.EndTime, entity.DurationHours)
	if hours.LessThan(minHours) {
		return nil, fmt.Errorf("duration %s hours: %w", hours.String(), apperror.ErrInvalidDuration)
	}

	user, err := lc.repo.User.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		// deactivated accounts cannot take new bookings
		return nil, fmt.Errorf("user %s: %w", p.UserID.String(), apperror.ErrUserNotFound)
	}

	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:        p.UserID,
		ParkingLotID:  p.LotID,
		VehicleNumber: vehicle,
		VehicleType:   p.VehicleType,
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		DurationHours: hours.InexactFloat64(),
		DurationUnit:  unit,
		PaymentMethod: p.PaymentMethod,
		PaymentStatus: entity.PaymentStatusPending,
		Status:        entity.BookingStatusBooked,
		Notes:         p.Notes,
	}

	err = lc.ledger.withLot(ctx, p.LotID, func(ctx context.Context) error {
		return lc.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
			lot, err := tx.ParkingLot.FindByID(ctx, p.LotID)
			if err != nil {
				return err
			}
			if lot == nil {
				return fmt.Errorf("lot %s: %w", p.LotID.String(), apperror.ErrLotNotFound)
			}
			if !lot.AcceptsBookings() {
				return fmt.Errorf("lot %s: %w", p.LotID.String(), apperror.ErrLotUnavailable)
			}

			cost, err := Cost(DurationValue(p.StartTime, p.EndTime, unit), unit, RatesFor(lot))
			if err != nil {
				return err
			}
			booking.TotalCost = cost.InexactFloat64()

			if booking.ValidationToken, err = lc.codec.Encode(booking); err != nil {
				return err
			}

			if err := lc.ledger.reserveIn(ctx, tx, p.LotID); err != nil {
				return err
			}
			return tx.Booking.Create(ctx, booking)
		})
	})
	if err != nil {
		return nil, err
	}

	lc.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("lot_id", booking.ParkingLotID.String()),
		zap.String("user_id", booking.UserID.String()),
		zap.Float64("total_cost", booking.TotalCost),
	)
	return booking, nil
}

// Get returns the current record, ErrBookingNotFound when missing.
func (lc *Lifecycle) Get(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := lc.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID.String(), apperror.ErrBookingNotFound)
	}
	return booking, nil
}

func (lc *Lifecycle) CheckIn(ctx context.Context, bookingID, staffID uuid.UUID) (*entity.Booking, error) {
	return lc.apply(ctx, bookingID, OpCheckIn, func(b *entity.Booking, now time.Time) {
		b.CheckInTime = &now
		b.CheckedInBy = &staffID
	})
}

func (lc *Lifecycle) CheckOut(ctx context.Context, bookingID, staffID uuid.UUID) (*entity.Booking, error) {
	return lc.apply(ctx, bookingID, OpCheckOut, func(b *entity.Booking, now time.Time) {
		b.CheckOutTime = &now
		b.CheckedOutBy = &staffID
	})
}

// Cancel releases the slot of a booked booking. A paid booking is marked
// refunded.
func (lc *Lifecycle) Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*entity.Booking, error) {
	return lc.apply(ctx, bookingID, OpCancel, func(b *entity.Booking, now time.Time) {
		b.CancelledAt = &now
		b.CancelledBy = &actorID
		if b.PaymentStatus == entity.PaymentStatusPaid {
			b.PaymentStatus = entity.PaymentStatusRefunded
		}
	})
}

// MarkNoShow releases the slot of a booking whose start time passed without
// a check-in. Calling it on a terminal booking returns the booking unchanged.
func (lc *Lifecycle) MarkNoShow(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	return lc.transition(ctx, bookingID, OpNoShow, func(b *entity.Booking, now time.Time) (bool, error) {
		if b.Status.IsTerminal() {
			return false, nil
		}
		if b.Status == entity.BookingStatusBooked && now.Before(b.StartTime) {
			return false, fmt.Errorf("booking %s starts at %s: %w", b.ID.String(), b.StartTime.Format(time.RFC3339), apperror.ErrNoShowTooEarly)
		}
		return true, nil
	})
}

// RecordPayment marks a pending booking as paid. The amount must equal the
// booking's total cost.
func (lc *Lifecycle) RecordPayment(ctx context.Context, bookingID uuid.UUID, amount float64, method *entity.PaymentMethod) (*entity.Booking, error) {
	unlock, err := lc.locks.Lock(ctx, bookingKey(bookingID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	booking, err := lc.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusBooked && booking.Status != entity.BookingStatusInUse {
		return nil, fmt.Errorf("pay booking in status %s: %w", booking.Status, apperror.ErrInvalidTransition)
	}
	if booking.PaymentStatus == entity.PaymentStatusPaid || booking.PaymentStatus == entity.PaymentStatusRefunded {
		return nil, fmt.Errorf("booking already %s: %w", booking.PaymentStatus, apperror.ErrInvalidTransition)
	}
	if !sameAmount(amount, booking.TotalCost) {
		return nil, fmt.Errorf("paid %.2f for %.2f: %w", amount, booking.TotalCost, apperror.ErrPaymentMismatch)
	}

	if method != nil {
		booking.PaymentMethod = *method
	}
	booking.PaymentStatus = entity.PaymentStatusPaid
	booking.UpdatedAt = lc.now()

	if err := lc.repo.Booking.UpdateState(ctx, booking); err != nil {
		return nil, err
	}

	lc.log.Info("Payment recorded",
		zap.String("booking_id", booking.ID.String()),
		zap.Float64("amount", amount),
		zap.String("method", string(booking.PaymentMethod)),
	)
	return booking, nil
}

func (lc *Lifecycle) apply(ctx context.Context, bookingID uuid.UUID, op Op, stamp func(b *entity.Booking, now time.Time)) (*entity.Booking, error) {
	return lc.transition(ctx, bookingID, op, func(b *entity.Booking, now time.Time) (bool, error) {
		stamp(b, now)
		return true, nil
	})
}

// transition runs op under the booking lock. prepare may stamp the booking
// and reports whether anything should be written; it runs before the state
// machine check so it can turn redundant calls into no-ops.
func (lc *Lifecycle) transition(ctx context.Context, bookingID uuid.UUID, op Op, prepare func(b *entity.Booking, now time.Time) (bool, error)) (*entity.Booking, error) {
	unlock, err := lc.locks.Lock(ctx, bookingKey(bookingID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := lc.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	next, err := NextStatus(current.Status, op)
	if err != nil && !(op == OpNoShow && current.Status.IsTerminal()) {
		return nil, err
	}

	booking := current.Clone()
	now := lc.now()
	write, err := prepare(booking, now)
	if err != nil {
		return nil, err
	}
	if !write {
		return current, nil
	}

	from := booking.Status
	booking.Status = next
	booking.UpdatedAt = now

	if releasesSlot[op] {
		err = lc.ledger.withLot(ctx, booking.ParkingLotID, func(ctx context.Context) error {
			return lc.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
				if err := tx.Booking.UpdateState(ctx, booking); err != nil {
					return err
				}
				return lc.ledger.releaseIn(ctx, tx, booking.ParkingLotID)
			})
		})
	} else {
		err = lc.repo.Booking.UpdateState(ctx, booking)
	}
	if err != nil {
		return nil, err
	}

	lc.log.Info("Booking transitioned",
		zap.String("booking_id", booking.ID.String()),
		zap.String("op", string(op)),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	return booking, nil
}

// sameAmount compares money to the cent.
func sameAmount(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}
