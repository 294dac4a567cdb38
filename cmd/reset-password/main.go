package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go-bar-manager/internal/config"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/service"
	"go-bar-manager/pkg/database"
	applog "go-bar-manager/pkg/logger"
)

// Resets a login's password and revokes its open sessions.
// Usage: reset-password -login 0600000000 -password nouveau123
func main() {
	login := flag.String("login", "", "phone number, username or email of the account")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()
	if *login == "" || *password == "" {
		flag.Usage()
		log.Fatal("❌ -login and -password are required")
	}

	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	zlog := applog.New(applog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer zlog.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.PoolOptions(), applog.NewGormLogger(zlog, cfg.Database.LogLevel, time.Second))
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	// 3. Reset through the identity service so the token version rotates
	identity := service.NewIdentityService(
		repository.NewCredentialRepo(db),
		repository.NewAccountRepo(db),
		repository.NewEmployeeRepo(db),
		db,
		cfg.Auth.Domain,
		zlog,
	)
	if err := identity.ResetPassword(context.Background(), *login, *password); err != nil {
		log.Fatalf("❌ Failed to reset password for %s: %v", *login, err)
	}

	log.Printf("✅ Success! Password for %s has been reset", service.NormalizeIdentifier(*login, cfg.Auth.Domain))
}
