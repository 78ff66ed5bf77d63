package topuprepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const topUpColumns = "id, user_id, amount, sender_name, recipient_name, note, reference_number, status, proof_ref, created_at, confirmed_at"

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

func scanTopUp(row scanner) (*domain.TopUp, error) {
	var t domain.TopUp
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Amount,
		&t.SenderName,
		&t.RecipientName,
		&t.Note,
		&t.ReferenceNumber,
		&t.Status,
		&t.ProofRef,
		&t.CreatedAt,
		&t.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) queryOne(ctx context.Context, msg, query string, args ...any) (*domain.TopUp, error) {
	t, err := scanTopUp(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error(msg, zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *Repository) queryMany(ctx context.Context, query string, args ...any) ([]domain.TopUp, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch topups", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var topups []domain.TopUp
	for rows.Next() {
		t, err := scanTopUp(rows)
		if err != nil {
			zap.L().Error("failed to scan topup row", zap.Error(err))
			return nil, err
		}
		topups = append(topups, *t)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate topups", zap.Error(err))
		return nil, err
	}
	return topups, nil
}

// Create inserts the top-up. Unique violations on reference_number are
// returned unwrapped so callers can retry with a new reference.
func (r *Repository) Create(ctx context.Context, t *domain.TopUp) (*domain.TopUp, error) {
	query := `
		INSERT INTO topups (id, user_id, amount, sender_name, recipient_name, note, reference_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, t.ID, t.UserID, t.Amount, t.SenderName, t.RecipientName, t.Note, t.ReferenceNumber, t.Status).
		Scan(&t.CreatedAt)
	if err != nil {
		zap.L().Error("can't save topup", zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.TopUp, error) {
	return r.queryOne(ctx, "can't find topup", "SELECT "+topUpColumns+" FROM topups WHERE id = $1", id)
}

func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]domain.TopUp, error) {
	return r.queryMany(ctx, "SELECT "+topUpColumns+" FROM topups WHERE user_id = $1 ORDER BY created_at, id", userID)
}

// List returns all top-ups, or only those in status when it is not empty.
func (r *Repository) List(ctx context.Context, status string) ([]domain.TopUp, error) {
	return r.queryMany(ctx, "SELECT "+topUpColumns+" FROM topups WHERE ($1::text = '' OR status = $1) ORDER BY created_at, id", status)
}

// AttachProof stores the proof reference and moves the top-up to
// waiting_confirmation if it belongs to userID and is in one of from.
// The row is locked while the old reference is read, so concurrent uploads
// each get back the reference they replaced. Returns nil, "", nil when
// nothing matched.
func (r *Repository) AttachProof(ctx context.Context, id, userID, proofRef string, from []string) (*domain.TopUp, string, error) {
	query := `
		UPDATE topups t
		SET proof_ref = $1, status = $2
		FROM (SELECT id, proof_ref FROM topups WHERE id = $3 FOR UPDATE) old
		WHERE t.id = old.id AND t.user_id = $4 AND t.status = ANY($5)
		RETURNING ` + prefixed("t", topUpColumns) + `, old.proof_ref`

	var (
		t        domain.TopUp
		replaced *string
	)
	err := r.db.QueryRow(ctx, query, proofRef, domain.TopUpStatusWaitingConfirmation, id, userID, from).Scan(
		&t.ID,
		&t.UserID,
		&t.Amount,
		&t.SenderName,
		&t.RecipientName,
		&t.Note,
		&t.ReferenceNumber,
		&t.Status,
		&t.ProofRef,
		&t.CreatedAt,
		&t.ConfirmedAt,
		&replaced,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil
		}
		zap.L().Error("can't attach topup proof", zap.Error(err))
		return nil, "", err
	}
	if replaced == nil {
		return &t, "", nil
	}
	return &t, *replaced, nil
}

func prefixed(alias, columns string) string {
	return alias + "." + strings.ReplaceAll(columns, ", ", ", "+alias+".")
}

// UpdateStatus moves the top-up to status to if it is currently in one of
// from. Returns nil, nil when nothing matched.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from []string, to string, confirmedAt *time.Time) (*domain.TopUp, error) {
	query := `
		UPDATE topups
		SET status = $1, confirmed_at = COALESCE($2, confirmed_at)
		WHERE id = $3 AND status = ANY($4)
		RETURNING ` + topUpColumns
	return r.queryOne(ctx, "can't update topup status", query, to, confirmedAt, id, from)
}

func (r *Repository) SumByUserStatus(ctx context.Context, userID, status string) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, "SELECT COALESCE(SUM(amount), 0)::bigint FROM topups WHERE user_id = $1 AND status = $2", userID, status).Scan(&sum)
	if err != nil {
		zap.L().Error("can't sum topups", zap.Error(err))
		return 0, err
	}
	return sum, nil
}

func (r *Repository) CountByStatus(ctx context.Context, statuses []string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM topups WHERE status = ANY($1)", statuses).Scan(&count)
	if err != nil {
		zap.L().Error("can't count topups", zap.Error(err))
		return 0, err
	}
	return count, nil
}
