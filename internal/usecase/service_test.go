package usecase

import (
	"context"
	"testing"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/data/repository/memory"
	"parking-booking/internal/dto/request"
	"parking-booking/internal/parking"
	"parking-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	svc      *Service
	repo     *repository.Repository
	now      time.Time
	client   utils.CurrentUser
	other    utils.CurrentUser
	employee utils.CurrentUser
	owner    utils.CurrentUser
	rival    utils.CurrentUser // an owner with no lots in the fixture
	admin    utils.CurrentUser
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zap.NewNop()
	store := memory.NewStore(log)
	env := &testEnv{
		repo: store.Repository(),
		now:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	config := &utils.Config{Token: utils.TokenConfig{Secret: "usecase-secret"}}
	svc, err := NewService(env.repo, parking.NewKeyedMutex(), config, log,
		parking.WithClock(func() time.Time { return env.now }))
	require.NoError(t, err)
	env.svc = svc

	addUser := func(role entity.UserRole) utils.CurrentUser {
		user := &entity.User{Base: entity.Base{ID: uuid.New()}, Name: string(role), Role: role, IsActive: true}
		store.PutUser(user)
		return utils.CurrentUser{ID: user.ID, Role: string(role)}
	}
	env.client = addUser(entity.RoleClient)
	env.other = addUser(entity.RoleClient)
	env.employee = addUser(entity.RoleEmployee)
	env.owner = addUser(entity.RoleOwner)
	env.rival = addUser(entity.RoleOwner)
	env.admin = addUser(entity.RoleAdmin)

	return env
}

// addLot creates an approved lot owned by env.owner.
func (e *testEnv) addLot(t *testing.T, total int) string {
	t.Helper()
	lot := &entity.ParkingLot{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: e.now, UpdatedAt: e.now},
		OwnerID:        e.owner.ID,
		Name:           "Osu Car Park",
		Location:       "Osu",
		Address:        "Oxford Street",
		TotalSlots:     total,
		AvailableSlots: total,
		PricePerHour:   5,
		PricePerDay:    40,
		OpenTime:       "06:00",
		CloseTime:      "22:00",
		IsActive:       true,
		IsApproved:     true,
	}
	require.NoError(t, e.repo.ParkingLot.Create(context.Background(), lot))
	return lot.ID.String()
}

func (e *testEnv) bookingRequest(lotID string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		ParkingLotID:  lotID,
		VehicleNumber: "GT-4410-22",
		VehicleType:   "car",
		StartTime:     e.now.Add(-time.Hour),
		EndTime:       e.now.Add(2 * time.Hour),
		PaymentMethod: "cash",
	}
}

func (e *testEnv) availableSlots(t *testing.T, lotID string) int {
	t.Helper()
	lot, err := e.svc.ParkingLot.GetParkingLotByID(context.Background(), lotID)
	require.NoError(t, err)
	return lot.AvailableSlots
}
