package withdrawalrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const withdrawalColumns = "id, user_id, amount, admin_fee, net_amount, ewallet, account_number, account_name, status, created_at, processed_at"

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

func scanWithdrawal(row scanner) (*domain.Withdrawal, error) {
	var wd domain.Withdrawal
	err := row.Scan(
		&wd.ID,
		&wd.UserID,
		&wd.Amount,
		&wd.AdminFee,
		&wd.NetAmount,
		&wd.EWallet,
		&wd.AccountNumber,
		&wd.AccountName,
		&wd.Status,
		&wd.CreatedAt,
		&wd.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

func (r *Repository) CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (id, user_id, amount, admin_fee, net_amount, ewallet, account_number, account_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		withdrawal.ID,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.AdminFee,
		withdrawal.NetAmount,
		withdrawal.EWallet,
		withdrawal.AccountNumber,
		withdrawal.AccountName,
		withdrawal.Status,
	).Scan(&withdrawal.CreatedAt)
	if err != nil {
		zap.L().Error("can't save withdrawal", zap.Error(err))
		return nil, err
	}
	return withdrawal, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	wd, err := scanWithdrawal(r.db.QueryRow(ctx, "SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find withdrawal", zap.Error(err))
		return nil, err
	}
	return wd, nil
}

func (r *Repository) GetWithdrawalsByUserID(ctx context.Context, userID string) ([]domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE user_id = $1
        ORDER BY created_at, id
    `
	return r.list(ctx, query, userID)
}

// List returns all withdrawals, or only those in status when it is not empty.
func (r *Repository) List(ctx context.Context, status string) ([]domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE ($1::text = '' OR status = $1)
        ORDER BY created_at, id
    `
	return r.list(ctx, query, status)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		wd, err := scanWithdrawal(rows)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, *wd)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate withdrawals", zap.Error(err))
		return nil, err
	}

	return withdrawals, nil
}

// UpdateStatus moves the withdrawal to status to if it is currently in one
// of from. Returns nil, nil when nothing matched.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from []string, to string, processedAt *time.Time) (*domain.Withdrawal, error) {
	query := `
		UPDATE withdrawals
		SET status = $1, processed_at = COALESCE($2, processed_at)
		WHERE id = $3 AND status = ANY($4)
		RETURNING ` + withdrawalColumns
	wd, err := scanWithdrawal(r.db.QueryRow(ctx, query, to, processedAt, id, from))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't update withdrawal status", zap.Error(err))
		return nil, err
	}
	return wd, nil
}

func (r *Repository) SumByUserStatus(ctx context.Context, userID, status string) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, "SELECT COALESCE(SUM(amount), 0)::bigint FROM withdrawals WHERE user_id = $1 AND status = $2", userID, status).Scan(&sum)
	if err != nil {
		zap.L().Error("can't sum withdrawals", zap.Error(err))
		return 0, err
	}
	return sum, nil
}

func (r *Repository) CountByStatus(ctx context.Context, statuses []string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM withdrawals WHERE status = ANY($1)", statuses).Scan(&count)
	if err != nil {
		zap.L().Error("can't count withdrawals", zap.Error(err))
		return 0, err
	}
	return count, nil
}
