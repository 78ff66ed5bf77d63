package userrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

var (
	columns   = []string{"id", "email", "name", "password_hash", "balance", "is_admin", "version", "created_at"}
	createdAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)

	return repo, mockDB
}

func userRow(balance, version int64) *pgxmock.Rows {
	return pgxmock.NewRows(columns).
		AddRow("user-1", "budi@example.com", "Budi", "hashed_password", balance, false, version, createdAt)
}

func user(balance, version int64) *domain.User {
	return &domain.User{
		ID:           "user-1",
		Email:        "budi@example.com",
		Name:         "Budi",
		PasswordHash: "hashed_password",
		Balance:      balance,
		Version:      version,
		CreatedAt:    createdAt,
	}
}

func TestRepository_FindByEmail(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE email = $1")

	tests := []struct {
		name      string
		email     string
		mockSetup func()
		expectErr bool
		result    *domain.User
	}{
		{
			name:  "User found",
			email: "budi@example.com",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("budi@example.com").
					WillReturnRows(userRow(25000, 3))
			},
			result: user(25000, 3),
		},
		{
			name:  "User not found",
			email: "nobody@example.com",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("nobody@example.com").
					WillReturnError(pgx.ErrNoRows)
			},
			result: nil,
		},
		{
			name:  "Database error",
			email: "budi@example.com",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("budi@example.com").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByEmail(context.Background(), tt.email)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE id = $1")

	mock.ExpectQuery(query).WithArgs("user-1").WillReturnRows(userRow(0, 1))
	result, err := repo.FindByID(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, user(0, 1), result)

	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	result, err = repo.FindByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, result)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`
		INSERT INTO users (id, email, name, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING balance, version, created_at
	`)

	tests := []struct {
		name      string
		user      *domain.User
		mockSetup func()
		expectErr bool
		result    *domain.User
	}{
		{
			name: "Create user successfully",
			user: &domain.User{ID: "user-1", Email: "budi@example.com", Name: "Budi", PasswordHash: "hashed_password"},
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("user-1", "budi@example.com", "Budi", "hashed_password", false).
					WillReturnRows(pgxmock.NewRows([]string{"balance", "version", "created_at"}).AddRow(int64(0), int64(1), createdAt))
			},
			result: user(0, 1),
		},
		{
			name: "Database error",
			user: &domain.User{ID: "user-1", Email: "budi@example.com", Name: "Budi", PasswordHash: "hashed_password"},
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("user-1", "budi@example.com", "Budi", "hashed_password", false).
					WillReturnError(errors.New("duplicate key value violates unique constraint"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.Create(context.Background(), tt.user)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_BalanceUpdates(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		mockSetup func()
		call      func() (*domain.User, error)
		expectErr bool
		result    *domain.User
	}{
		{
			name: "Credit adds to balance",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("SET balance = balance + $1, version = version + 1 WHERE id = $2")).
					WithArgs(int64(50000), "user-1").
					WillReturnRows(userRow(75000, 4))
			},
			call: func() (*domain.User, error) {
				return repo.Credit(context.Background(), "user-1", 50000)
			},
			result: user(75000, 4),
		},
		{
			name: "Credit unknown user",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("SET balance = balance + $1")).
					WithArgs(int64(50000), "missing").
					WillReturnError(pgx.ErrNoRows)
			},
			call: func() (*domain.User, error) {
				return repo.Credit(context.Background(), "missing", 50000)
			},
			result: nil,
		},
		{
			name: "Debit guarded by balance",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("SET balance = balance - $1, version = version + 1 WHERE id = $2 AND balance >= $1")).
					WithArgs(int64(20000), "user-1").
					WillReturnRows(userRow(5000, 5))
			},
			call: func() (*domain.User, error) {
				return repo.Debit(context.Background(), "user-1", 20000)
			},
			result: user(5000, 5),
		},
		{
			name: "Debit with insufficient balance",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("AND balance >= $1")).
					WithArgs(int64(90000), "user-1").
					WillReturnError(pgx.ErrNoRows)
			},
			call: func() (*domain.User, error) {
				return repo.Debit(context.Background(), "user-1", 90000)
			},
			result: nil,
		},
		{
			name: "SetBalance with version",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("SET balance = $1, version = version + 1 WHERE id = $2 AND ($3::bigint = 0 OR version = $3)")).
					WithArgs(int64(100000), "user-1", int64(4)).
					WillReturnRows(userRow(100000, 5))
			},
			call: func() (*domain.User, error) {
				return repo.SetBalance(context.Background(), "user-1", 100000, 4)
			},
			result: user(100000, 5),
		},
		{
			name: "SetBalance database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("SET balance = $1")).
					WithArgs(int64(100000), "user-1", int64(0)).
					WillReturnError(errors.New("database error"))
			},
			call: func() (*domain.User, error) {
				return repo.SetBalance(context.Background(), "user-1", 100000, 0)
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := tt.call()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ListAndCount(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at, id")).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("user-1", "budi@example.com", "Budi", "hashed_password", int64(25000), false, int64(3), createdAt).
			AddRow("user-2", "admin@example.com", "Admin", "", int64(0), true, int64(1), createdAt))

	users, err := repo.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "user-1", users[0].ID)
	assert.True(t, users[1].IsAdmin)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	count, err := repo.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY created_at, id")).
		WillReturnError(errors.New("database error"))
	users, err = repo.List(context.Background())
	assert.Error(t, err)
	assert.Nil(t, users)

	assert.NoError(t, mock.ExpectationsWereMet())
}
