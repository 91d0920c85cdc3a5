// Command seedadmin creates the bootstrap admin account when none exists.
// Credentials come from SEED_ADMIN_* variables, with development defaults.
package main

import (
	"context"
	"log"
	"os"

	"wallet/internal/auth"
	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/models"
	"wallet/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	ctx := context.Background()

	hasAdmin, err := users.HasAdmin(ctx)
	if err != nil {
		log.Fatalf("failed to check for existing admin: %v", err)
	}
	if hasAdmin {
		log.Println("admin account already exists, nothing to do")
		return
	}

	username := envOr("SEED_ADMIN_USERNAME", "admin")
	email := envOr("SEED_ADMIN_EMAIL", "admin@example.com")
	password := envOr("SEED_ADMIN_PASSWORD", "admin123")

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	runner := db.NewRunner(database)
	adminID := uuid.NewString()
	err = runner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return users.Create(ctx, tx, store.UserInput{
			ID:           adminID,
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     "Administrator",
			Role:         models.RoleAdmin,
		})
	})
	if err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	log.Printf("admin account created: %s (%s)", username, email)
	log.Println("change the password after first login")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
