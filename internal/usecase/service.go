package usecase

import (
	"fmt"

	"parking-booking/internal/data/repository"
	"parking-booking/internal/parking"
	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	User       UserService
	ParkingLot ParkingLotService
	Booking    BookingService
	Gate       GateService
}

func NewService(repo *repository.Repository, locks parking.Locker, config *utils.Config, log *zap.Logger, opts ...parking.Option) (*Service, error) {
	codec, err := parking.NewTokenCodec(config.Token.Secret)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	ledger := parking.NewSlotLedger(repo, locks, log)
	lifecycle := parking.NewLifecycle(repo, ledger, codec, locks, log, opts...)
	gate := parking.NewGate(lifecycle, codec, log)

	return &Service{
		User:       NewUserService(repo.User, log),
		ParkingLot: NewParkingLotService(repo, ledger, log),
		Booking:    NewBookingService(repo, lifecycle, log),
		Gate:       NewGateService(gate, log),
	}, nil
}
