package domain

import "time"

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	Balance      int64     `db:"balance"`
	IsAdmin      bool      `db:"is_admin"`
	Version      int64     `db:"version"`
	CreatedAt    time.Time `db:"created_at"`
}

// Session is one authenticated login. The bearer token carries its ID.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is what an external identity provider vouches for.
type Identity struct {
	Email string
	Name  string
}

const (
	TopUpStatusPending             = "pending"
	TopUpStatusWaitingConfirmation = "waiting_confirmation"
	TopUpStatusConfirmed           = "confirmed"
	TopUpStatusFailed              = "failed"
)

type TopUp struct {
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Amount          int64      `db:"amount"`
	SenderName      string     `db:"sender_name"`
	RecipientName   string     `db:"recipient_name"`
	Note            string     `db:"note"`
	ReferenceNumber string     `db:"reference_number"`
	Status          string     `db:"status"`
	ProofRef        *string    `db:"proof_ref"`
	CreatedAt       time.Time  `db:"created_at"`
	ConfirmedAt     *time.Time `db:"confirmed_at"`
}

const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusFailed     = "failed"
)

type Withdrawal struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	Amount        int64      `db:"amount"`
	AdminFee      int64      `db:"admin_fee"`
	NetAmount     int64      `db:"net_amount"`
	EWallet       string     `db:"ewallet"`
	AccountNumber string     `db:"account_number"`
	AccountName   string     `db:"account_name"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at"`
}

type Dashboard struct {
	User             *User
	TotalTopUps      int64
	TotalWithdrawals int64
	TopUps           []TopUp
	Withdrawals      []Withdrawal
}

type Overview struct {
	WaitingTopUps   int64
	OpenWithdrawals int64
	ConfirmedTopUps int64
	Users           int64
}

type Snapshot struct {
	TopUps      []TopUp
	Withdrawals []Withdrawal
}
