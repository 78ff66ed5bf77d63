package topuprepo

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
	columns   = []string{"id", "user_id", "amount", "sender_name", "recipient_name", "note", "reference_number", "status", "proof_ref", "created_at", "confirmed_at"}
	createdAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)

	return repo, mockDB
}

func addRow(rows *pgxmock.Rows, t domain.TopUp) *pgxmock.Rows {
	return rows.AddRow(t.ID, t.UserID, t.Amount, t.SenderName, t.RecipientName, t.Note, t.ReferenceNumber, t.Status, t.ProofRef, t.CreatedAt, t.ConfirmedAt)
}

func topUp(id, status string) domain.TopUp {
	return domain.TopUp{
		ID:              id,
		UserID:          "user-1",
		Amount:          50000,
		SenderName:      "Budi",
		RecipientName:   "Siti",
		Note:            "arisan",
		ReferenceNumber: "TU1714557600000AB12CD",
		Status:          status,
		CreatedAt:       createdAt,
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`
		INSERT INTO topups (id, user_id, amount, sender_name, recipient_name, note, reference_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`)
	draft := topUp("topup-1", domain.TopUpStatusPending)
	draft.CreatedAt = time.Time{}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Create topup successfully",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("topup-1", "user-1", int64(50000), "Budi", "Siti", "arisan", "TU1714557600000AB12CD", domain.TopUpStatusPending).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))
			},
		},
		{
			name: "Duplicate reference",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("topup-1", "user-1", int64(50000), "Budi", "Siti", "arisan", "TU1714557600000AB12CD", domain.TopUpStatusPending).
					WillReturnError(errors.New("duplicate key value violates unique constraint"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			in := draft
			result, err := repo.Create(context.Background(), &in)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, createdAt, result.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("SELECT " + topUpColumns + " FROM topups WHERE id = $1")

	proof := "proof-1.png"
	confirmedAt := createdAt.Add(time.Hour)
	confirmed := topUp("topup-1", domain.TopUpStatusConfirmed)
	confirmed.ProofRef = &proof
	confirmed.ConfirmedAt = &confirmedAt

	tests := []struct {
		name      string
		id        string
		mockSetup func()
		expectErr bool
		result    *domain.TopUp
	}{
		{
			name: "Confirmed topup with proof",
			id:   "topup-1",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("topup-1").
					WillReturnRows(addRow(pgxmock.NewRows(columns), confirmed))
			},
			result: &confirmed,
		},
		{
			name: "Pending topup without proof",
			id:   "topup-2",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("topup-2").
					WillReturnRows(pgxmock.NewRows(columns).
						AddRow("topup-2", "user-1", int64(50000), "Budi", "Siti", "arisan", "TU1714557600000AB12CD", domain.TopUpStatusPending, (*string)(nil), createdAt, (*time.Time)(nil)))
			},
			result: func() *domain.TopUp { t := topUp("topup-2", domain.TopUpStatusPending); return &t }(),
		},
		{
			name: "Not found",
			id:   "missing",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			id:   "topup-1",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs("topup-1").WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByID(context.Background(), tt.id)
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

func TestRepository_Lists(t *testing.T) {
	repo, mock := NewMock(t)

	first := topUp("topup-1", domain.TopUpStatusConfirmed)
	second := topUp("topup-2", domain.TopUpStatusWaitingConfirmation)

	mock.ExpectQuery(regexp.QuoteMeta("FROM topups WHERE user_id = $1 ORDER BY created_at, id")).
		WithArgs("user-1").
		WillReturnRows(addRow(addRow(pgxmock.NewRows(columns), first), second))
	topups, err := repo.ListByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, []domain.TopUp{first, second}, topups)

	mock.ExpectQuery(regexp.QuoteMeta("FROM topups WHERE ($1::text = '' OR status = $1) ORDER BY created_at, id")).
		WithArgs(domain.TopUpStatusWaitingConfirmation).
		WillReturnRows(addRow(pgxmock.NewRows(columns), second))
	topups, err = repo.List(context.Background(), domain.TopUpStatusWaitingConfirmation)
	assert.NoError(t, err)
	assert.Equal(t, []domain.TopUp{second}, topups)

	mock.ExpectQuery(regexp.QuoteMeta("FROM topups WHERE ($1::text = '' OR status = $1)")).
		WithArgs("").
		WillReturnError(errors.New("database error"))
	topups, err = repo.List(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, topups)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AttachProof(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("FROM (SELECT id, proof_ref FROM topups WHERE id = $3 FOR UPDATE) old " +
		"WHERE t.id = old.id AND t.user_id = $4 AND t.status = ANY($5) RETURNING t.id, t.user_id")
	from := []string{domain.TopUpStatusPending, domain.TopUpStatusWaitingConfirmation}
	withReplaced := append(append([]string{}, columns...), "proof_ref")

	proof := "proof-2.png"
	waiting := topUp("topup-1", domain.TopUpStatusWaitingConfirmation)
	waiting.ProofRef = &proof
	previous := "proof-1.png"

	tests := []struct {
		name             string
		userID           string
		mockSetup        func()
		expectErr        bool
		result           *domain.TopUp
		expectedReplaced string
	}{
		{
			name:   "First proof",
			userID: "user-1",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("proof-2.png", domain.TopUpStatusWaitingConfirmation, "topup-1", "user-1", from).
					WillReturnRows(pgxmock.NewRows(withReplaced).AddRow(
						waiting.ID, waiting.UserID, waiting.Amount, waiting.SenderName, waiting.RecipientName, waiting.Note,
						waiting.ReferenceNumber, waiting.Status, waiting.ProofRef, waiting.CreatedAt, waiting.ConfirmedAt, nil))
			},
			result: &waiting,
		},
		{
			name:   "Replaces previous proof",
			userID: "user-1",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("proof-2.png", domain.TopUpStatusWaitingConfirmation, "topup-1", "user-1", from).
					WillReturnRows(pgxmock.NewRows(withReplaced).AddRow(
						waiting.ID, waiting.UserID, waiting.Amount, waiting.SenderName, waiting.RecipientName, waiting.Note,
						waiting.ReferenceNumber, waiting.Status, waiting.ProofRef, waiting.CreatedAt, waiting.ConfirmedAt, &previous))
			},
			result:           &waiting,
			expectedReplaced: "proof-1.png",
		},
		{
			name:   "Not owner or wrong status",
			userID: "user-2",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("proof-2.png", domain.TopUpStatusWaitingConfirmation, "topup-1", "user-2", from).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name:   "Database error",
			userID: "user-1",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("proof-2.png", domain.TopUpStatusWaitingConfirmation, "topup-1", "user-1", from).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, replaced, err := repo.AttachProof(context.Background(), "topup-1", tt.userID, "proof-2.png", from)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
			assert.Equal(t, tt.expectedReplaced, replaced)
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("SET status = $1, confirmed_at = COALESCE($2, confirmed_at) WHERE id = $3 AND status = ANY($4)")
	from := []string{domain.TopUpStatusWaitingConfirmation}
	now := createdAt.Add(time.Hour)

	confirmed := topUp("topup-1", domain.TopUpStatusConfirmed)
	confirmed.ConfirmedAt = &now

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.TopUp
	}{
		{
			name: "Transition applied",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(domain.TopUpStatusConfirmed, &now, "topup-1", from).
					WillReturnRows(addRow(pgxmock.NewRows(columns), confirmed))
			},
			result: &confirmed,
		},
		{
			name: "Status guard rejected",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(domain.TopUpStatusConfirmed, &now, "topup-1", from).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(domain.TopUpStatusConfirmed, &now, "topup-1", from).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.UpdateStatus(context.Background(), "topup-1", from, domain.TopUpStatusConfirmed, &now)
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

func TestRepository_Aggregates(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0)::bigint FROM topups WHERE user_id = $1 AND status = $2")).
		WithArgs("user-1", domain.TopUpStatusConfirmed).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(150000)))
	sum, err := repo.SumByUserStatus(context.Background(), "user-1", domain.TopUpStatusConfirmed)
	assert.NoError(t, err)
	assert.Equal(t, int64(150000), sum)

	statuses := []string{domain.TopUpStatusWaitingConfirmation}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM topups WHERE status = ANY($1)")).
		WithArgs(statuses).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))
	count, err := repo.CountByStatus(context.Background(), statuses)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM topups WHERE status = ANY($1)")).
		WithArgs(statuses).
		WillReturnError(errors.New("database error"))
	_, err = repo.CountByStatus(context.Background(), statuses)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
