package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth_api/internal/common"
	"auth_api/internal/domain/model"
	"auth_api/internal/platform/database"
)

// startPostgres runs a throwaway Postgres container and returns a migrated
// connection. Skips when no docker daemon is reachable.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv("SKIP_DOCKER") == "1" {
		t.Skip("SKIP_DOCKER=1 set; skipping integration test")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=auth_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	var db *sql.DB
	err = pool.Retry(func() error {
		connStr := fmt.Sprintf(
			"host=localhost port=%s user=test password=test dbname=auth_test sslmode=disable",
			resource.GetPort("5432/tcp"),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Connect migrates on success, so readiness and schema come together.
		db, err = database.Connect(ctx, connStr)
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestPgUserRepository(t *testing.T) {
	db := startPostgres(t)
	repo := NewPgUserRepository(db)
	ctx := context.Background()

	user := &model.User{
		ID:           "3f1b9e54-0000-4000-8000-000000000001",
		Name:         "Ann Example",
		Email:        "ann@example.com",
		PasswordHash: "hash",
		Role:         model.RoleUser,
		Active:       true,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero(), "Create returns store timestamps")

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{
			ID: "3f1b9e54-0000-4000-8000-000000000002", Name: "Other",
			Email: "ann@example.com", PasswordHash: "hash",
			Role: model.RoleUser, Active: true,
		})
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("find", func(t *testing.T) {
		byID, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)

		byEmail, err := repo.FindByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = repo.FindByID(ctx, "3f1b9e54-0000-4000-8000-00000000ffff")
		assert.ErrorIs(t, err, common.ErrNotFound)
		_, err = repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("update name", func(t *testing.T) {
		updated, err := repo.UpdateName(ctx, user.ID, "Ann Renamed")
		require.NoError(t, err)
		assert.Equal(t, "Ann Renamed", updated.Name)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

		_, err = repo.UpdateName(ctx, "3f1b9e54-0000-4000-8000-00000000ffff", "X")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("update password", func(t *testing.T) {
		require.NoError(t, repo.UpdatePassword(ctx, user.ID, "newhash"))

		stored, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "newhash", stored.PasswordHash)

		err = repo.UpdatePassword(ctx, "3f1b9e54-0000-4000-8000-00000000ffff", "h")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("list active", func(t *testing.T) {
		inactive := &model.User{
			ID: "3f1b9e54-0000-4000-8000-000000000003", Name: "Gone",
			Email: "gone@example.com", PasswordHash: "hash",
			Role: model.RoleUser, Active: false,
		}
		require.NoError(t, repo.Create(ctx, inactive))

		users, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, user.ID, users[0].ID)
	})

	t.Run("expired deadline maps to timeout", func(t *testing.T) {
		deadCtx, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err := repo.FindByID(deadCtx, user.ID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrNotFound)
	})
}
