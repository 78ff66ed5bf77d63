package balanceservice

import (
	"context"
	"errors"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"go.uber.org/zap"
)

//go:generate mockgen -source=balanceservice.go -destination=mock_balanceservice.go -package=balanceservice

type Repo interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Credit(ctx context.Context, id string, amount int64) (*domain.User, error)
	Debit(ctx context.Context, id string, amount int64) (*domain.User, error)
	SetBalance(ctx context.Context, id string, balance, version int64) (*domain.User, error)
}

// Service is the only place that changes user balances.
type Service struct {
	userRepo Repo
}

func New(userRepo Repo) *Service {
	return &Service{
		userRepo: userRepo,
	}
}

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrNegativeBalance     = errors.New("balance cannot be negative")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrVersionConflict     = errors.New("balance was modified concurrently")
)

func (s *Service) Credit(ctx context.Context, userID string, amount int64) (*domain.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := s.userRepo.Credit(ctx, userID, amount)
	if err != nil {
		zap.L().Error("failed to credit balance", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	zap.L().Info("balance credited", zap.String("userID", userID), zap.Int64("amount", amount), zap.Int64("balance", user.Balance))
	return user, nil
}

func (s *Service) Debit(ctx context.Context, userID string, amount int64) (*domain.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := s.userRepo.Debit(ctx, userID, amount)
	if err != nil {
		zap.L().Error("failed to debit balance", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	if user != nil {
		zap.L().Info("balance debited", zap.String("userID", userID), zap.Int64("amount", amount), zap.Int64("balance", user.Balance))
		return user, nil
	}

	existing, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}
	return nil, ErrInsufficientBalance
}

// SetBalance overwrites the balance. expectedVersion 0 applies it unconditionally.
func (s *Service) SetBalance(ctx context.Context, userID string, balance, expectedVersion int64) (*domain.User, error) {
	if balance < 0 {
		return nil, ErrNegativeBalance
	}
	user, err := s.userRepo.SetBalance(ctx, userID, balance, expectedVersion)
	if err != nil {
		zap.L().Error("failed to set balance", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	if user != nil {
		zap.L().Info("balance set", zap.String("userID", userID), zap.Int64("balance", balance))
		return user, nil
	}

	existing, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}
	return nil, ErrVersionConflict
}
