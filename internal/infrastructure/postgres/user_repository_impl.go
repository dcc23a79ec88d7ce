package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petlovers/petlovers-api/internal/domain/entity"
	"github.com/petlovers/petlovers-api/internal/domain/repository"
)

const pgUniqueViolation = "23505"

const userColumns = `id, email, password_hash, first_name, last_name, is_active, roles,
	refresh_token, refresh_token_expiry, last_login_at, created_at, updated_at, version`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var refresh *string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsActive, &u.Roles,
		&refresh, &u.RefreshTokenExpiry, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if refresh != nil {
		u.RefreshToken = *refresh
	}
	return u, nil
}

// GetByID treats a malformed id as a missing row rather than a query error.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.Roles,
		nullString(u.RefreshToken), u.RefreshTokenExpiry, u.LastLoginAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	u.Version = 1
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	updatedAt := time.Now().UTC()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, first_name = $3, last_name = $4, is_active = $5, roles = $6,
		    refresh_token = $7, refresh_token_expiry = $8, last_login_at = $9, updated_at = $10,
		    version = version + 1
		WHERE id = $11 AND version = $12
	`, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.Roles,
		nullString(u.RefreshToken), u.RefreshTokenExpiry, u.LastLoginAt, updatedAt, u.ID, u.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return missingOrStale(ctx, r.pool, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, u.ID)
	}
	u.UpdatedAt = updatedAt
	u.Version++
	return nil
}

func missingOrStale(ctx context.Context, pool *pgxpool.Pool, query, id string) error {
	var exists bool
	if err := pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStaleWrite
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ repository.UserRepository = (*UserRepository)(nil)
