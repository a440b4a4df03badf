package parking

import (
	"context"
	"testing"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/data/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	repo   *repository.Repository
	ledger *SlotLedger
	lc     *Lifecycle
	gate   *Gate
	codec  *TokenCodec
	now    time.Time
	client *entity.User
	staff  *entity.User
	banned *entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zap.NewNop()
	store := memory.NewStore(log)
	codec, err := NewTokenCodec("test-secret")
	require.NoError(t, err)

	f := &fixture{
		repo:  store.Repository(),
		codec: codec,
		now:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	locks := NewKeyedMutex()
	f.ledger = NewSlotLedger(f.repo, locks, log)
	f.lc = NewLifecycle(f.repo, f.ledger, codec, locks, log, WithClock(func() time.Time { return f.now }))
	f.gate = NewGate(f.lc, codec, log)

	f.client = &entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Ama", Role: entity.RoleClient, IsActive: true}
	f.staff = &entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Kofi", Role: entity.RoleEmployee, IsActive: true}
	f.banned = &entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Yaw", Role: entity.RoleClient}
	store.PutUser(f.client)
	store.PutUser(f.staff)
	store.PutUser(f.banned)

	return f
}

func (f *fixture) addLot(t *testing.T, total int) *entity.ParkingLot {
	t.Helper()
	lot := &entity.ParkingLot{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: f.now, UpdatedAt: f.now},
		OwnerID:        uuid.New(),
		Name:           "Lot " + uuid.NewString()[:8],
		Location:       "Accra",
		Address:        "1 Ring Road",
		TotalSlots:     total,
		AvailableSlots: total,
		PricePerHour:   5,
		PricePerDay:    40,
		OpenTime:       "06:00",
		CloseTime:      "22:00",
		IsActive:       true,
		IsApproved:     true,
	}
	require.NoError(t, f.repo.ParkingLot.Create(context.Background(), lot))
	return lot
}

// params starts an hour ago so no-show is already allowed.
func (f *fixture) params(lotID uuid.UUID) CreateParams {
	return CreateParams{
		UserID:        f.client.ID,
		LotID:         lotID,
		VehicleNumber: " gr-1234-21 ",
		VehicleType:   entity.VehicleCar,
		StartTime:     f.now.Add(-time.Hour),
		EndTime:       f.now.Add(2 * time.Hour),
		PaymentMethod: entity.PaymentMethodMobileMoney,
	}
}

func (f *fixture) create(t *testing.T, lotID uuid.UUID) *entity.Booking {
	t.Helper()
	booking, err := f.lc.Create(context.Background(), f.params(lotID))
	require.NoError(t, err)
	return booking
}

func (f *fixture) available(t *testing.T, lotID uuid.UUID) int {
	t.Helper()
	available, total, err := f.ledger.Availability(context.Background(), lotID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, available, 0)
	require.LessOrEqual(t, available, total)
	return available
}

func bookingFilterAll() repository.BookingFilter {
	return repository.BookingFilter{}
}
