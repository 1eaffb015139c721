// seed inserts development sample accounts for local testing.
// Idempotent: skips inserts if the admin user (admin@example.com) already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"blog-platform/server/internal/config"
	"blog-platform/server/internal/db"
	"blog-platform/server/internal/identity/domain"
	"blog-platform/server/internal/identity/repository"
	"blog-platform/server/internal/security"
)

const (
	adminEmail   = "admin@example.com"
	userEmail    = "user@example.com"
	seedPassword = "Passw0rd123"
	adminID      = "seed-admin-001"
	userID       = "seed-user-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := repository.NewPostgresRepository(conn)
	ctx := context.Background()

	if _, err := repo.FindByEmail(ctx, adminEmail); err == nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("seed check: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(seedPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	accounts := []*domain.Identity{
		{
			ID: adminID, Username: "admin", Email: adminEmail, PasswordHash: passwordHash,
			Role: domain.RoleAdmin, Active: true, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: userID, Username: "devuser", Email: userEmail, PasswordHash: passwordHash,
			Role: domain.RoleUser, Active: true, CreatedAt: now, UpdatedAt: now,
		},
	}
	for _, account := range accounts {
		if err := repo.Save(ctx, account); err != nil {
			log.Fatalf("create %s: %v", account.Username, err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, seedPassword)
	fmt.Printf("User login: %s / %s\n", userEmail, seedPassword)
}
