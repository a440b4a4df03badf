package wire

import (
	"parking-booking/internal/adaptor"
	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireParkingLot(
	r chi.Router,
	lotHandler *adaptor.ParkingLotHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// ?location=&price_min=&price_max=&available_only=&page=&per_page=
	r.Get("/api/parking-lots", lotHandler.GetParkingLots)
	r.Get("/api/parking-lots/{id}", lotHandler.GetParkingLotByID)

	// ==================== OWNER / ADMIN ROUTES ====================
	r.Route("/api/admin/parking-lots", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.RequireRole(log, entity.RoleOwner, entity.RoleAdmin))

		r.Post("/", lotHandler.CreateParkingLot)
		r.Put("/{id}", lotHandler.UpdateParkingLot) // ownership checked in the service
	})
}
