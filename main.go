// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-booking/cmd"
	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/data/repository/memory"
	"parking-booking/internal/parking"
	"parking-booking/internal/scheduler"
	"parking-booking/internal/wire"
	"parking-booking/pkg/database"
	"parking-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("store", config.Store.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	var repos *repository.Repository
	switch config.Store.Driver {
	case "memory":
		store := memory.NewStore(logger)
		seedDemoAdmin(store, config.App.DemoAdminToken, logger)
		repos = store.Repository()
		logger.Warn("Using in-memory store, data is lost on restart")
	default:
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connected successfully")
		repos = repository.NewRepository(db, logger)
	}

	// Locks: Redis when shared across instances, in-process otherwise
	var locks parking.Locker = parking.NewKeyedMutex()
	if config.Redis.Enabled() {
		client, err := database.InitRedis(config.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()

		locks = parking.NewRedisLocker(client, config.Redis.LockTTL)
		logger.Info("Redis lock backend enabled", zap.String("addr", config.Redis.Addr))
	}

	// Wire all dependencies
	app, err := wire.Wiring(repos, locks, config, logger)
	if err != nil {
		logger.Fatal("Failed to wire application", zap.Error(err))
	}

	if config.NoShow.SweepEnabled {
		sched, err := scheduler.NewScheduler(app.Service.Booking, config.NoShow, logger)
		if err != nil {
			logger.Fatal("Failed to init scheduler", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}

// seedDemoAdmin registers an admin with a fixed bearer token so the
// in-memory store can be driven over HTTP.
func seedDemoAdmin(store *memory.Store, token string, logger *zap.Logger) {
	if token == "" {
		return
	}
	parsed, err := uuid.Parse(token)
	if err != nil {
		logger.Warn("DEMO_ADMIN_TOKEN is not a UUID, skipping seed", zap.Error(err))
		return
	}

	now := time.Now()
	admin := &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:     "Demo Admin",
		Email:    "admin@parking.local",
		Role:     entity.RoleAdmin,
		IsActive: true,
	}
	store.PutUser(admin)
	store.PutSession(&entity.Session{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		UserID:     admin.ID,
		Token:      parsed,
		ExpiresAt:  now.AddDate(1, 0, 0),
	})

	logger.Info("Seeded demo admin", zap.String("user_id", admin.ID.String()))
}
