package userrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = "id, email, name, password_hash, balance, is_admin, version, created_at"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Balance,
		&user.IsAdmin,
		&user.Version,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// queryUser returns nil, nil when no row matches.
func (repo *Repository) queryUser(ctx context.Context, msg, query string, args ...any) (*domain.User, error) {
	user, err := scanUser(repo.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error(msg, zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return repo.queryUser(ctx, "can't find user by email", "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (repo *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return repo.queryUser(ctx, "can't find user by id", "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (repo *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (id, email, name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING balance, version, created_at
	`
	err := repo.db.QueryRow(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.IsAdmin).
		Scan(&user.Balance, &user.Version, &user.CreatedAt)
	if err != nil {
		zap.L().Error("can't save user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// Credit adds amount to the balance. Returns nil, nil for an unknown user.
func (repo *Repository) Credit(ctx context.Context, id string, amount int64) (*domain.User, error) {
	query := `
		UPDATE users
		SET balance = balance + $1, version = version + 1
		WHERE id = $2
		RETURNING ` + userColumns
	return repo.queryUser(ctx, "can't credit user balance", query, amount, id)
}

// Debit subtracts amount only when the balance covers it. Returns nil, nil
// when the user is unknown or the balance is too low.
func (repo *Repository) Debit(ctx context.Context, id string, amount int64) (*domain.User, error) {
	query := `
		UPDATE users
		SET balance = balance - $1, version = version + 1
		WHERE id = $2 AND balance >= $1
		RETURNING ` + userColumns
	return repo.queryUser(ctx, "can't debit user balance", query, amount, id)
}

// SetBalance overwrites the balance. A zero version skips the version check.
func (repo *Repository) SetBalance(ctx context.Context, id string, balance, version int64) (*domain.User, error) {
	query := `
		UPDATE users
		SET balance = $1, version = version + 1
		WHERE id = $2 AND ($3::bigint = 0 OR version = $3)
		RETURNING ` + userColumns
	return repo.queryUser(ctx, "can't set user balance", query, balance, id, version)
}

func (repo *Repository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := repo.db.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		zap.L().Error("can't list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("failed to scan user row", zap.Error(err))
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate users", zap.Error(err))
		return nil, err
	}
	return users, nil
}

func (repo *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		zap.L().Error("can't count users", zap.Error(err))
		return 0, err
	}
	return count, nil
}
