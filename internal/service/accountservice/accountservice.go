package accountservice

import (
	"context"
	"errors"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=accountservice.go -destination=mock_accountservice.go -package=accountservice

type UserRepo interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type TopUpRepo interface {
	ListByUserID(ctx context.Context, userID string) ([]domain.TopUp, error)
	SumByUserStatus(ctx context.Context, userID, status string) (int64, error)
}

type WithdrawalRepo interface {
	GetWithdrawalsByUserID(ctx context.Context, userID string) ([]domain.Withdrawal, error)
	SumByUserStatus(ctx context.Context, userID, status string) (int64, error)
}

var ErrUserNotFound = errors.New("user not found")

type Service struct {
	users       UserRepo
	topUps      TopUpRepo
	withdrawals WithdrawalRepo
}

func New(users UserRepo, topUps TopUpRepo, withdrawals WithdrawalRepo) *Service {
	return &Service{
		users:       users,
		topUps:      topUps,
		withdrawals: withdrawals,
	}
}

func (s *Service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Dashboard loads the balance, totals and both histories concurrently.
func (s *Service) Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	var dashboard domain.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := s.Profile(gctx, userID)
		dashboard.User = user
		return err
	})
	g.Go(func() error {
		total, err := s.topUps.SumByUserStatus(gctx, userID, domain.TopUpStatusConfirmed)
		dashboard.TotalTopUps = total
		return err
	})
	g.Go(func() error {
		total, err := s.withdrawals.SumByUserStatus(gctx, userID, domain.WithdrawalStatusCompleted)
		dashboard.TotalWithdrawals = total
		return err
	})
	g.Go(func() error {
		topUps, err := s.topUps.ListByUserID(gctx, userID)
		dashboard.TopUps = topUps
		return err
	})
	g.Go(func() error {
		withdrawals, err := s.withdrawals.GetWithdrawalsByUserID(gctx, userID)
		dashboard.Withdrawals = withdrawals
		return err
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("failed to load dashboard", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	return &dashboard, nil
}
