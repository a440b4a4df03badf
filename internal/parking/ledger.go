package parking

import (
	"context"
	"errors"
	"fmt"

	"parking-booking/internal/data/repository"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotLedger owns the available/total slot counters of every lot. All
// counter changes go through it under the per-lot lock.
type SlotLedger struct {
	repo  *repository.Repository
	locks Locker
	log   *zap.Logger
}

func NewSlotLedger(repo *repository.Repository, locks Locker, log *zap.Logger) *SlotLedger {
	return &SlotLedger{
		repo:  repo,
		locks: locks,
		log:   log.With(zap.String("service", "slot_ledger")),
	}
}

// Reserve takes one slot, failing with ErrNoCapacity when the lot is full.
func (l *SlotLedger) Reserve(ctx context.Context, lotID uuid.UUID) error {
	return l.withLot(ctx, lotID, func(ctx context.Context) error {
		return l.reserveIn(ctx, l.repo, lotID)
	})
}

// Release gives one slot back. Releasing into a full lot is ErrOverRelease.
func (l *SlotLedger) Release(ctx context.Context, lotID uuid.UUID) error {
	return l.withLot(ctx, lotID, func(ctx context.Context) error {
		return l.releaseIn(ctx, l.repo, lotID)
	})
}

// Availability returns the live counters of a lot.
func (l *SlotLedger) Availability(ctx context.Context, lotID uuid.UUID) (available, total int, err error) {
	lot, err := l.repo.ParkingLot.FindByID(ctx, lotID)
	if err != nil {
		return 0, 0, err
	}
	if lot == nil {
		return 0, 0, fmt.Errorf("availability of lot %s: %w", lotID.String(), apperror.ErrLotNotFound)
	}
	return lot.AvailableSlots, lot.TotalSlots, nil
}

// Resize changes total capacity and moves available by the same delta.
// Shrinking below the slots currently in use fails with ErrCapacityInUse.
func (l *SlotLedger) Resize(ctx context.Context, lotID uuid.UUID, totalSlots int) (int, error) {
	return l.ResizeWith(ctx, lotID, totalSlots, nil)
}

// ResizeWith resizes the lot and runs fn in the same transaction while the
// lot lock is held. An error from fn rolls the resize back.
func (l *SlotLedger) ResizeWith(ctx context.Context, lotID uuid.UUID, totalSlots int, fn func(ctx context.Context, tx *repository.Repository) error) (int, error) {
	if totalSlots < 1 {
		return 0, fmt.Errorf("total slots must be at least 1: %w", apperror.ErrValidation)
	}

	var available int
	err := l.withLot(ctx, lotID, func(ctx context.Context) error {
		return l.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
			var err error
			if available, err = tx.ParkingLot.Resize(ctx, lotID, totalSlots); err != nil {
				return err
			}
			if fn == nil {
				return nil
			}
			return fn(ctx, tx)
		})
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("Parking lot resized",
		zap.String("lot_id", lotID.String()),
		zap.Int("total_slots", totalSlots),
		zap.Int("available_slots", available),
	)
	return available, nil
}

// withLot runs fn while holding the lot's lock.
func (l *SlotLedger) withLot(ctx context.Context, lotID uuid.UUID, fn func(ctx context.Context) error) error {
	unlock, err := l.locks.Lock(ctx, lotKey(lotID))
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}

// reserveIn and releaseIn expect the lot lock to be held and run against
// repo, which may be bound to a transaction.
func (l *SlotLedger) reserveIn(ctx context.Context, repo *repository.Repository, lotID uuid.UUID) error {
	available, err := repo.ParkingLot.ReserveSlot(ctx, lotID)
	if err != nil {
		if errors.Is(err, apperror.ErrNoCapacity) {
			l.log.Debug("Parking lot full", zap.String("lot_id", lotID.String()))
		}
		return err
	}

	l.log.Debug("Slot reserved",
		zap.String("lot_id", lotID.String()),
		zap.Int("available_slots", available),
	)
	return nil
}

func (l *SlotLedger) releaseIn(ctx context.Context, repo *repository.Repository, lotID uuid.UUID) error {
	available, err := repo.ParkingLot.ReleaseSlot(ctx, lotID)
	if err != nil {
		if errors.Is(err, apperror.ErrOverRelease) {
			l.log.Warn("Release would exceed total slots", zap.String("lot_id", lotID.String()))
		}
		return err
	}

	l.log.Debug("Slot released",
		zap.String("lot_id", lotID.String()),
		zap.Int("available_slots", available),
	)
	return nil
}
