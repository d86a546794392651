package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-pos-ws/internal/cache"
	"go-pos-ws/internal/config"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/database"
	"go-pos-ws/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log := logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(model.Models()...); err != nil {
		return err
	}

	// 3. Seed counters, register state and the first administrator
	if err := seed(db, cfg.Admin, log); err != nil {
		return err
	}

	// 4. Idempotency keys live in Redis when it is configured
	store, err := newIdempotencyStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()
	defer wsHub.Stop()

	// 6. Wiring and routes
	app, err := newApp(cfg, db, wsHub, store, log)
	if err != nil {
		return err
	}

	// 7. Graceful Shutdown
	listenErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		listenErr <- app.Listen(":" + cfg.App.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return err
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(10 * time.Second)
}

func newIdempotencyStore(cfg *config.Config, log *zap.Logger) (cache.IdempotencyStore, error) {
	if !cfg.Redis.Enabled {
		log.Info("idempotency store: memory")
		return cache.NewInMemoryIdempotencyStore(time.Minute), nil
	}

	store, err := cache.NewRedisIdempotencyStore(context.Background(), cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	log.Info("idempotency store: redis", zap.String("addr", cfg.Redis.Addr))
	return store, nil
}

// seed creates the rows the services expect to exist and an administrator
// when the user table is empty.
func seed(db *gorm.DB, admin config.AdminConfig, log *zap.Logger) error {
	if err := repository.NewCounterRepo(db).Seed(model.CounterSales, model.CounterOrders); err != nil {
		return err
	}
	if _, err := repository.NewCashSessionRepo(db).ShareState(); err != nil {
		return err
	}
	if _, err := repository.NewCompanyRepo(db).Get(); err != nil {
		return err
	}

	userRepo := repository.NewUserRepo(db)
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if _, err := userRepo.FindByEmail(email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	users, err := userRepo.FindAll()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	user := &model.User{
		Name:     admin.Name,
		Email:    email,
		Role:     model.RoleAdministrador,
		IsActive: true,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		return err
	}
	if err := userRepo.Create(user); err != nil {
		return err
	}

	log.Warn("administrator created, change the password after first login", zap.String("email", email))
	return nil
}
