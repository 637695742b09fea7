// Command seed resets the users table and inserts development fixtures.
// Never run against production data.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"auth_api/internal/common/security"
	"auth_api/internal/domain/model"
	"auth_api/internal/domain/repository"
	"auth_api/internal/platform/config"
	"auth_api/internal/platform/database"
)

type fixture struct {
	name     string
	email    string
	password string
	role     string
}

var fixtures = []fixture{
	{name: "Admin User", email: "admin@example.com", password: "admin123", role: model.RoleAdmin},
	{name: "John Doe", email: "john@example.com", password: "john123", role: model.RoleUser},
	{name: "Jane Smith", email: "jane@example.com", password: "jane123", role: model.RoleUser},
}

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		logger.Error("clearing users failed", "error", err)
		os.Exit(1)
	}
	logger.Info("cleared existing users")

	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	users := repository.NewPgUserRepository(db)

	for _, f := range fixtures {
		hash, err := hasher.Hash(f.password)
		if err != nil {
			logger.Error("hashing fixture password failed", "email", f.email, "error", err)
			os.Exit(1)
		}
		user := &model.User{
			ID:           uuid.NewString(),
			Name:         f.name,
			Email:        f.email,
			PasswordHash: hash,
			Role:         f.role,
			Active:       true,
		}
		if err := users.Create(ctx, user); err != nil {
			logger.Error("seeding user failed", "email", f.email, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded user", "email", f.email, "password", f.password, "role", f.role)
	}

	logger.Info("seeding complete", "count", len(fixtures))
}
