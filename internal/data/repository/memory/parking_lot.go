package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/pkg/apperror"

	"github.com/google/uuid"
)

type parkingLotRepository struct {
	*view
}

func (r *parkingLotRepository) Create(ctx context.Context, lot *entity.ParkingLot) error {
	return r.run(func() error {
		if _, ok := r.s.lots[lot.ID]; ok {
			return errDuplicate("parking lot", lot.ID)
		}
		r.putLot(lot.Clone())
		return nil
	})
}

func (r *parkingLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ParkingLot, error) {
	var found *entity.ParkingLot
	err := r.run(func() error {
		if lot, ok := r.s.lots[id]; ok && lot.DeletedAt == nil {
			found = lot.Clone()
		}
		return nil
	})
	return found, err
}

func matchLot(lot *entity.ParkingLot, f repository.ParkingLotFilter) bool {
	if lot.DeletedAt != nil {
		return false
	}
	if !f.IncludeHidden && !(lot.IsActive && lot.IsApproved) {
		return false
	}
	if f.Location != nil && *f.Location != "" {
		needle := strings.ToLower(*f.Location)
		if !strings.Contains(strings.ToLower(lot.Name), needle) &&
			!strings.Contains(strings.ToLower(lot.Location), needle) &&
			!strings.Contains(strings.ToLower(lot.Address), needle) {
			return false
		}
	}
	if f.PriceMin != nil && lot.PricePerHour < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && lot.PricePerHour > *f.PriceMax {
		return false
	}
	if f.OwnerID != nil && lot.OwnerID != *f.OwnerID {
		return false
	}
	if f.AvailableOnly && lot.AvailableSlots <= 0 {
		return false
	}
	return true
}

func (r *parkingLotRepository) FindAll(ctx context.Context, filter repository.ParkingLotFilter, limit, offset int) ([]*entity.ParkingLot, error) {
	var lots []*entity.ParkingLot
	err := r.run(func() error {
		for _, lot := range r.s.lots {
			if matchLot(lot, filter) {
				lots = append(lots, lot.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(lots, func(i, j int) bool {
		if lots[i].AvailableSlots != lots[j].AvailableSlots {
			return lots[i].AvailableSlots > lots[j].AvailableSlots
		}
		return lots[i].Name < lots[j].Name
	})

	return page(lots, limit, offset), nil
}

func (r *parkingLotRepository) CountAll(ctx context.Context, filter repository.ParkingLotFilter) (int64, error) {
	var total int64
	err := r.run(func() error {
		for _, lot := range r.s.lots {
			if matchLot(lot, filter) {
				total++
			}
		}
		return nil
	})
	return total, err
}

func (r *parkingLotRepository) Update(ctx context.Context, lot *entity.ParkingLot) error {
	return r.run(func() error {
		stored, ok := r.s.lots[lot.ID]
		if !ok || stored.DeletedAt != nil {
			return fmt.Errorf("update parking lot %s: %w", lot.ID.String(), apperror.ErrLotNotFound)
		}
		next := lot.Clone()
		next.TotalSlots = stored.TotalSlots
		next.AvailableSlots = stored.AvailableSlots
		next.OwnerID = stored.OwnerID
		next.CreatedAt = stored.CreatedAt
		next.DeletedAt = cloneTime(stored.DeletedAt)
		r.putLot(next)
		return nil
	})
}

func (r *parkingLotRepository) ReserveSlot(ctx context.Context, id uuid.UUID) (int, error) {
	return r.adjust("reserve", id, func(lot *entity.ParkingLot) error {
		if lot.AvailableSlots <= 0 {
			return apperror.ErrNoCapacity
		}
		lot.AvailableSlots--
		return nil
	})
}

func (r *parkingLotRepository) ReleaseSlot(ctx context.Context, id uuid.UUID) (int, error) {
	return r.adjust("release", id, func(lot *entity.ParkingLot) error {
		if lot.AvailableSlots >= lot.TotalSlots {
			return apperror.ErrOverRelease
		}
		lot.AvailableSlots++
		return nil
	})
}

func (r *parkingLotRepository) Resize(ctx context.Context, id uuid.UUID, totalSlots int) (int, error) {
	return r.adjust("resize", id, func(lot *entity.ParkingLot) error {
		available := lot.AvailableSlots + (totalSlots - lot.TotalSlots)
		if available < 0 {
			return apperror.ErrCapacityInUse
		}
		lot.TotalSlots = totalSlots
		lot.AvailableSlots = available
		return nil
	})
}

func (r *parkingLotRepository) adjust(op string, id uuid.UUID, mutate func(lot *entity.ParkingLot) error) (int, error) {
	var available int
	err := r.run(func() error {
		stored, ok := r.s.lots[id]
		if !ok || stored.DeletedAt != nil {
			return apperror.ErrLotNotFound
		}
		next := stored.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		next.UpdatedAt = time.Now()
		r.putLot(next)
		available = next.AvailableSlots
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s slot for lot %s: %w", op, id.String(), err)
	}
	return available, nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
