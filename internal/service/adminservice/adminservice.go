package adminservice

import (
	"context"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=adminservice.go -destination=mock_adminservice.go -package=adminservice

type UserRepo interface {
	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type TopUpRepo interface {
	List(ctx context.Context, status string) ([]domain.TopUp, error)
	CountByStatus(ctx context.Context, statuses []string) (int64, error)
}

type WithdrawalRepo interface {
	List(ctx context.Context, status string) ([]domain.Withdrawal, error)
	CountByStatus(ctx context.Context, statuses []string) (int64, error)
}

type BalanceService interface {
	SetBalance(ctx context.Context, userID string, balance, expectedVersion int64) (*domain.User, error)
}

type Service struct {
	users       UserRepo
	topUps      TopUpRepo
	withdrawals WithdrawalRepo
	balance     BalanceService
}

func New(users UserRepo, topUps TopUpRepo, withdrawals WithdrawalRepo, balance BalanceService) *Service {
	return &Service{
		users:       users,
		topUps:      topUps,
		withdrawals: withdrawals,
		balance:     balance,
	}
}

func (s *Service) Overview(ctx context.Context) (*domain.Overview, error) {
	var overview domain.Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.topUps.CountByStatus(gctx, []string{domain.TopUpStatusWaitingConfirmation})
		overview.WaitingTopUps = n
		return err
	})
	g.Go(func() error {
		n, err := s.withdrawals.CountByStatus(gctx, []string{domain.WithdrawalStatusPending, domain.WithdrawalStatusProcessing})
		overview.OpenWithdrawals = n
		return err
	})
	g.Go(func() error {
		n, err := s.topUps.CountByStatus(gctx, []string{domain.TopUpStatusConfirmed})
		overview.ConfirmedTopUps = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		overview.Users = n
		return err
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("failed to load overview", zap.Error(err))
		return nil, err
	}
	return &overview, nil
}

// Snapshot re-reads every top-up and withdrawal from storage.
func (s *Service) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		topUps, err := s.topUps.List(gctx, "")
		snapshot.TopUps = topUps
		return err
	})
	g.Go(func() error {
		withdrawals, err := s.withdrawals.List(gctx, "")
		snapshot.Withdrawals = withdrawals
		return err
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("failed to load snapshot", zap.Error(err))
		return nil, err
	}
	return &snapshot, nil
}

func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *Service) SetBalance(ctx context.Context, userID string, balance, expectedVersion int64) (*domain.User, error) {
	user, err := s.balance.SetBalance(ctx, userID, balance, expectedVersion)
	if err != nil {
		return nil, err
	}
	zap.L().Info("balance set by admin",
		zap.String("userID", userID),
		zap.Int64("balance", balance),
		zap.Int64("version", user.Version))
	return user, nil
}
