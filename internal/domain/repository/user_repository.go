package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"auth_api/internal/common"
	"auth_api/internal/domain/model"
)

// UserFinder looks up user records. Lookups include the password hash;
// services are responsible for sanitizing records before they leave the
// process.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// UserWriter mutates user records. Create must surface a duplicate email
// as common.ErrConflict, distinct from any other failure, because the
// store's unique index is what resolves concurrent registrations.
type UserWriter interface {
	Create(ctx context.Context, user *model.User) error
	UpdateName(ctx context.Context, id, name string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type UserRepository interface {
	UserFinder
	UserWriter
	ListActive(ctx context.Context) ([]*model.User, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, active, created_at, updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, role, active)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Active,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == common.UniqueViolationCode {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return wrapDBErr("pgUserRepository.Create", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(ctx, "pgUserRepository.FindByEmail", query, email)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(ctx, "pgUserRepository.FindByID", query, id)
}

func (r *pgUserRepository) UpdateName(ctx context.Context, id, name string) (*model.User, error) {
	query := `UPDATE users SET name = $2, updated_at = now() WHERE id = $1
	          RETURNING ` + userColumns
	return r.scanOne(ctx, "pgUserRepository.UpdateName", query, id, name)
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return wrapDBErr("pgUserRepository.UpdatePassword", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapDBErr("pgUserRepository.UpdatePassword", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) ListActive(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE active ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBErr("pgUserRepository.ListActive", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := scanUser(rows, user); err != nil {
			return nil, wrapDBErr("pgUserRepository.ListActive", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr("pgUserRepository.ListActive", err)
	}
	return users, nil
}

func (r *pgUserRepository) scanOne(ctx context.Context, op, query string, args ...any) (*model.User, error) {
	user := &model.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, args...), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapDBErr(op, err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, user *model.User) error {
	return row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
}

// wrapDBErr keeps the operation name for diagnostics and converts a blown
// caller deadline into the timeout kind so it is never mistaken for a
// missing record.
func wrapDBErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, common.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
