package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
)

type bookingRepository struct {
	*view
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	return r.run(func() error {
		if _, ok := r.s.bookings[booking.ID]; ok {
			return errDuplicate("booking", booking.ID)
		}
		if _, ok := r.s.tokens[booking.ValidationToken]; ok {
			return fmt.Errorf("create booking %s: validation token already issued", booking.ID.String())
		}
		r.putBooking(booking.Clone())
		return nil
	})
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var found *entity.Booking
	err := r.run(func() error {
		if booking, ok := r.s.bookings[id]; ok {
			found = booking.Clone()
		}
		return nil
	})
	return found, err
}

func (r *bookingRepository) match(b *entity.Booking, f repository.BookingFilter) bool {
	if f.UserID != nil && b.UserID != *f.UserID {
		return false
	}
	if f.LotID != nil && b.ParkingLotID != *f.LotID {
		return false
	}
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.LotOwnerID != nil {
		lot, ok := r.s.lots[b.ParkingLotID]
		if !ok || lot.OwnerID != *f.LotOwnerID {
			return false
		}
	}
	return true
}

func (r *bookingRepository) FindAll(ctx context.Context, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := r.run(func() error {
		for _, b := range r.s.bookings {
			if r.match(b, filter) {
				bookings = append(bookings, b.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
		}
		return bookings[i].ID.String() < bookings[j].ID.String()
	})

	return page(bookings, limit, offset), nil
}

func (r *bookingRepository) CountAll(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	var total int64
	err := r.run(func() error {
		for _, b := range r.s.bookings {
			if r.match(b, filter) {
				total++
			}
		}
		return nil
	})
	return total, err
}

func (r *bookingRepository) FindOverdueBooked(ctx context.Context, before time.Time, limit int) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := r.run(func() error {
		for _, b := range r.s.bookings {
			if b.Status == entity.BookingStatusBooked && b.StartTime.Before(before) {
				bookings = append(bookings, b.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})

	return page(bookings, limit, 0), nil
}

func (r *bookingRepository) UpdateState(ctx context.Context, booking *entity.Booking) error {
	err := r.run(func() error {
		stored, ok := r.s.bookings[booking.ID]
		if !ok || stored.Version != booking.Version {
			return apperror.ErrConflict
		}

		// identity, vehicle, schedule, pricing and token are immutable
		next := stored.Clone()
		next.Status = booking.Status
		next.PaymentStatus = booking.PaymentStatus
		next.PaymentMethod = booking.PaymentMethod
		next.CheckInTime = cloneTime(booking.CheckInTime)
		next.CheckOutTime = cloneTime(booking.CheckOutTime)
		next.CheckedInBy = cloneUUID(booking.CheckedInBy)
		next.CheckedOutBy = cloneUUID(booking.CheckedOutBy)
		next.CancelledAt = cloneTime(booking.CancelledAt)
		next.CancelledBy = cloneUUID(booking.CancelledBy)
		next.Notes = booking.Clone().Notes
		next.UpdatedAt = booking.UpdatedAt
		next.Version = stored.Version + 1
		r.putBooking(next)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update booking %s at version %d: %w", booking.ID.String(), booking.Version, err)
	}

	booking.Version++
	return nil
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
