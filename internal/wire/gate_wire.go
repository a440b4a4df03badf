package wire

import (
	"parking-booking/internal/adaptor"
	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/pkg/middleware"
	"parking-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireGate(
	r chi.Router,
	gateHandler *adaptor.GateHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.RateLimit(config.RateLimit.ScanPerMinute, config.RateLimit.ScanBurst, log))
		r.Use(middleware.RequireRole(log, entity.RoleEmployee, entity.RoleAdmin))

		r.Post("/api/gate/scan", gateHandler.Scan)
	})
}
