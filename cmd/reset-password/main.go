package main

import (
	"flag"
	"strings"

	"go-pos-ws/internal/config"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/pkg/database"
	"go-pos-ws/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resets a user's password and ends their current session.
//
//	go run ./cmd/reset-password -email admin@mercearia.local -password nova-senha
func main() {
	email := flag.String("email", "", "email of the user to reset")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level)
	defer log.Sync()

	if *email == "" || len(*password) < 6 {
		flag.Usage()
		log.Fatal("-email and a -password of at least 6 characters are required")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, log)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	userRepo := repository.NewUserRepo(db)

	// 3. Find user
	user, err := userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	// 4. Hash new password
	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.Fatal("hash password", zap.Error(err))
	}

	// 5. Update and log the user out everywhere
	if err := userRepo.UpdatePassword(user.ID, hashed.Password); err != nil {
		log.Fatal("update password", zap.Error(err))
	}
	if err := userRepo.UpdateSession(user.ID, uuid.NewString()); err != nil {
		log.Fatal("end session", zap.Error(err))
	}

	log.Info("password reset", zap.String("email", user.Email), zap.String("role", string(user.Role)))
}
