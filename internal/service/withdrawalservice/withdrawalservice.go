package withdrawalservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/notify"
	"github.com/GlebRadaev/qrispay/internal/pg"
	"github.com/GlebRadaev/qrispay/pkg/validate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=withdrawalservice.go -destination=mock_withdrawalservice.go -package=withdrawalservice

type Repo interface {
	CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error)
	FindByID(ctx context.Context, id string) (*domain.Withdrawal, error)
	GetWithdrawalsByUserID(ctx context.Context, userID string) ([]domain.Withdrawal, error)
	List(ctx context.Context, status string) ([]domain.Withdrawal, error)
	UpdateStatus(ctx context.Context, id string, from []string, to string, processedAt *time.Time) (*domain.Withdrawal, error)
}

type BalanceService interface {
	Credit(ctx context.Context, userID string, amount int64) (*domain.User, error)
	Debit(ctx context.Context, userID string, amount int64) (*domain.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, event notify.Event)
}

var (
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrInvalidTransition    = errors.New("withdrawal is not in a state that allows this action")
	ErrAmountTooSmall       = errors.New("amount is below the minimum withdrawal")
	ErrUnknownEWallet       = errors.New("unsupported e-wallet")
	ErrInvalidAccountNumber = errors.New("account number must be 10 to 15 digits")
	ErrAccountNameRequired  = errors.New("account name is required")
	ErrInvalidFeePercent    = errors.New("admin fee percent must be between 0 and 100")
)

var hundred = decimal.NewFromInt(100)

// Draft is what a user submits to request a payout.
type Draft struct {
	Amount        int64
	EWallet       string
	AccountNumber string
	AccountName   string
}

// Quote previews the fee a withdrawal of Amount would pay.
type Quote struct {
	Amount     int64
	FeePercent decimal.Decimal
	AdminFee   int64
	NetAmount  int64
}

type Service struct {
	repo       Repo
	balance    BalanceService
	txManager  pg.TXManager
	notifier   Notifier
	feePercent decimal.Decimal
	minAmount  int64
	newID      func() string
	now        func() time.Time
}

func New(repo Repo, balance BalanceService, txManager pg.TXManager, notifier Notifier, feePercent decimal.Decimal, minAmount int64) (*Service, error) {
	if feePercent.IsNegative() || feePercent.GreaterThan(hundred) {
		return nil, ErrInvalidFeePercent
	}
	return &Service{
		repo:       repo,
		balance:    balance,
		txManager:  txManager,
		notifier:   notifier,
		feePercent: feePercent,
		minAmount:  minAmount,
		newID:      uuid.NewString,
		now:        time.Now,
	}, nil
}

// AdminFee is amount * feePercent / 100 rounded half away from zero.
func (s *Service) AdminFee(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(s.feePercent).Div(hundred).Round(0).IntPart()
}

func (s *Service) Quote(amount int64) (*Quote, error) {
	if amount < s.minAmount {
		return nil, ErrAmountTooSmall
	}
	fee := s.AdminFee(amount)
	return &Quote{
		Amount:     amount,
		FeePercent: s.feePercent,
		AdminFee:   fee,
		NetAmount:  amount - fee,
	}, nil
}

// Create debits the full amount and records the pending withdrawal in one
// transaction.
func (s *Service) Create(ctx context.Context, userID string, draft Draft) (*domain.Withdrawal, error) {
	ewallet := strings.ToLower(strings.TrimSpace(draft.EWallet))
	if !validate.IsEWallet(ewallet) {
		return nil, fmt.Errorf("%w %q, use one of: %s", ErrUnknownEWallet, draft.EWallet, strings.Join(validate.EWallets(), ", "))
	}
	accountNumber := strings.TrimSpace(draft.AccountNumber)
	if !validate.IsAccountNumber(accountNumber) {
		return nil, ErrInvalidAccountNumber
	}
	accountName := strings.TrimSpace(draft.AccountName)
	if accountName == "" {
		return nil, ErrAccountNameRequired
	}
	quote, err := s.Quote(draft.Amount)
	if err != nil {
		return nil, err
	}

	withdrawal := &domain.Withdrawal{
		ID:            s.newID(),
		UserID:        userID,
		Amount:        quote.Amount,
		AdminFee:      quote.AdminFee,
		NetAmount:     quote.NetAmount,
		EWallet:       ewallet,
		AccountNumber: accountNumber,
		AccountName:   accountName,
		Status:        domain.WithdrawalStatusPending,
	}

	var created *domain.Withdrawal
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.balance.Debit(ctx, userID, withdrawal.Amount); err != nil {
			return err
		}
		var err error
		created, err = s.repo.CreateWithdrawal(ctx, withdrawal)
		return err
	})
	if err != nil {
		zap.L().Info("withdrawal not created", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}

	zap.L().Info("withdrawal requested",
		zap.String("id", created.ID),
		zap.String("ewallet", created.EWallet),
		zap.Int64("amount", created.Amount),
		zap.Int64("fee", created.AdminFee))
	s.notify(ctx, notify.WithdrawalRequested, created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Withdrawal, error) {
	withdrawal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, ErrWithdrawalNotFound
	}
	return withdrawal, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Withdrawal, error) {
	return s.repo.GetWithdrawalsByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context, status string) ([]domain.Withdrawal, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) Process(ctx context.Context, id string) (*domain.Withdrawal, error) {
	withdrawal, err := s.transition(ctx, id, []string{domain.WithdrawalStatusPending}, domain.WithdrawalStatusProcessing, nil)
	if err != nil {
		return nil, err
	}
	zap.L().Info("withdrawal processing", zap.String("id", id))
	s.notify(ctx, notify.WithdrawalStarted, withdrawal)
	return withdrawal, nil
}

func (s *Service) Complete(ctx context.Context, id string) (*domain.Withdrawal, error) {
	now := s.now()
	withdrawal, err := s.transition(ctx, id, []string{domain.WithdrawalStatusProcessing}, domain.WithdrawalStatusCompleted, &now)
	if err != nil {
		return nil, err
	}
	zap.L().Info("withdrawal completed", zap.String("id", id))
	s.notify(ctx, notify.WithdrawalCompleted, withdrawal)
	return withdrawal, nil
}

// Fail closes the withdrawal and refunds the debited amount in the same
// transaction.
func (s *Service) Fail(ctx context.Context, id string) (*domain.Withdrawal, error) {
	var failed *domain.Withdrawal
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		now := s.now()
		from := []string{domain.WithdrawalStatusPending, domain.WithdrawalStatusProcessing}
		withdrawal, err := s.transition(ctx, id, from, domain.WithdrawalStatusFailed, &now)
		if err != nil {
			return err
		}
		if _, err := s.balance.Credit(ctx, withdrawal.UserID, withdrawal.Amount); err != nil {
			return fmt.Errorf("refund withdrawal %s: %w", id, err)
		}
		failed = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("withdrawal failed, amount refunded", zap.String("id", id), zap.Int64("amount", failed.Amount))
	s.notify(ctx, notify.WithdrawalFailed, failed)
	return failed, nil
}

func (s *Service) transition(ctx context.Context, id string, from []string, to string, processedAt *time.Time) (*domain.Withdrawal, error) {
	withdrawal, err := s.repo.UpdateStatus(ctx, id, from, to, processedAt)
	if err != nil {
		return nil, err
	}
	if withdrawal != nil {
		return withdrawal, nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (s *Service) notify(ctx context.Context, kind string, withdrawal *domain.Withdrawal) {
	s.notifier.Notify(ctx, notify.Event{
		Kind:          kind,
		UserID:        withdrawal.UserID,
		TransactionID: withdrawal.ID,
		Amount:        withdrawal.Amount,
	})
}
