// internal/wire/wire.go
package wire

import (
	"fmt"
	"net/http"

	"parking-booking/internal/adaptor"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/parking"
	"parking-booking/internal/usecase"
	"parking-booking/pkg/middleware"
	"parking-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes on top of repo.
func Wiring(repo *repository.Repository, locks parking.Locker, config *utils.Config, logger *zap.Logger) (*App, error) {
	service, err := usecase.NewService(repo, locks, config, logger)
	if err != nil {
		return nil, fmt.Errorf("init services: %w", err)
	}
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}, nil
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireUser(r, handler.User, repo, logger)
	wireParkingLot(r, handler.ParkingLot, repo, logger)
	wireBooking(r, handler.Booking, repo, logger)
	wireGate(r, handler.Gate, repo, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
