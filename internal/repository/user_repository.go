package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tour-booking/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, phone, avatar, address, role, status, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO users (email, password_hash, full_name, phone, role, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.Phone,
		account.Role,
		account.Status,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE users SET full_name=$1, phone=$2, avatar=$3, address=$4, password_hash=$5, status=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.FullName,
		account.Phone,
		account.Avatar,
		account.Address,
		account.PasswordHash,
		account.Status,
		account.ID,
	).Scan(&account.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *userRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var a domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.FullName,
		&a.Phone,
		&a.Avatar,
		&a.Address,
		&a.Role,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}
