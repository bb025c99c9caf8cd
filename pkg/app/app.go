// Package app wires the vending backend together: database, dispense
// guard, purchase and history services, HTTP kernel and background jobs.
//
// The CLI boots it from configuration:
//
//	a, err := app.Boot(ctx)
//	defer a.Close()
//	a.Serve(ctx)
//
// Tests build it around their own database and guard with app.New.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/vendo/app/controllers"
	"github.com/shashiranjanraj/vendo/app/repositories"
	"github.com/shashiranjanraj/vendo/app/services"
	"github.com/shashiranjanraj/vendo/config"
	"github.com/shashiranjanraj/vendo/pkg/cache"
	"github.com/shashiranjanraj/vendo/pkg/database"
	"github.com/shashiranjanraj/vendo/pkg/dispense"
	"github.com/shashiranjanraj/vendo/pkg/logger"
)

// Application owns every long-lived component of one vending instance.
type Application struct {
	DB    *gorm.DB
	Redis *redis.Client // nil unless DISPENSE_DRIVER=redis
	Guard dispense.Guard

	Products  *repositories.ProductRepository
	Purchases *repositories.PurchaseRepository

	Purchase *services.PurchaseService
	History  *services.HistoryService

	Controller *controllers.ProductController

	alerts *logger.MongoHandler
}

// New assembles the services around db and guard. The application takes
// ownership of guard and closes it in Close.
func New(db *gorm.DB, guard dispense.Guard, opts ...services.PurchaseOption) *Application {
	products := repositories.NewProductRepository(db)
	purchases := repositories.NewPurchaseRepository(db)

	purchase := services.NewPurchaseService(products, purchases, guard, opts...)
	history := services.NewHistoryService(purchases)

	return &Application{
		DB:         db,
		Guard:      guard,
		Products:   products,
		Purchases:  purchases,
		Purchase:   purchase,
		History:    history,
		Controller: controllers.NewProductController(products, purchase, history),
	}
}

// Boot loads configuration, connects the database and, depending on
// DISPENSE_DRIVER, Redis, then assembles the application.
func Boot(ctx context.Context) (*Application, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	alerts := attachAlertSink()

	db, err := database.Connect()
	if err != nil {
		closeAlerts(alerts)
		return nil, err
	}

	var rdb *redis.Client
	var guard dispense.Guard
	switch config.DispenseDriver() {
	case "redis":
		rdb, err = cache.Connect(ctx)
		if err != nil {
			closeDB(db)
			closeAlerts(alerts)
			return nil, err
		}
		guard = dispense.NewRedisGuard(rdb, config.DispenseCooldown())
	default:
		guard = dispense.NewMemoryGuard(config.DispenseCooldown())
	}

	a := New(db, guard, services.WithMachineID(config.MachineID()))
	a.Redis = rdb
	a.alerts = alerts

	logger.Info("app: booted",
		"db", config.DatabaseDriver(),
		"dispense", guard.Driver(),
		"cooldown", config.DispenseCooldown().String(),
		"machine", config.MachineID(),
	)
	return a, nil
}

// attachAlertSink tees WARN+ records into MongoDB when LOG_MONGO_URI is set.
// A Mongo outage never blocks boot.
func attachAlertSink() *logger.MongoHandler {
	uri := config.LogMongoURI()
	if uri == "" {
		return nil
	}
	h, err := logger.NewMongoHandler(uri, config.LogMongoDB(), "alerts", slog.LevelWarn)
	if err != nil {
		logger.Warn("app: mongo alert sink disabled", "err", err)
		return nil
	}
	logger.Tee(h)
	return h
}

// Check reports whether the database and, when used, Redis are reachable.
// It backs the gRPC health service.
func (a *Application) Check(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases the guard, Redis, the database and the alert sink.
func (a *Application) Close() error {
	var errs []error
	if a.Guard != nil {
		errs = append(errs, a.Guard.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, closeDB(a.DB))
	}
	closeAlerts(a.alerts)
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeAlerts(h *logger.MongoHandler) {
	if h != nil {
		h.Close()
	}
}
