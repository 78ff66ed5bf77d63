package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GlebRadaev/qrispay/internal/config"
	"github.com/GlebRadaev/qrispay/internal/handlers/account"
	"github.com/GlebRadaev/qrispay/internal/handlers/admin"
	"github.com/GlebRadaev/qrispay/internal/handlers/auth"
	"github.com/GlebRadaev/qrispay/internal/handlers/topup"
	"github.com/GlebRadaev/qrispay/internal/handlers/withdrawal"
	"github.com/GlebRadaev/qrispay/internal/notify"
	"github.com/shopspring/decimal"

	pkgauth "github.com/GlebRadaev/qrispay/pkg/auth"

	"github.com/GlebRadaev/qrispay/internal/repo"
	accountservice "github.com/GlebRadaev/qrispay/internal/service/accountservice"
	adminservice "github.com/GlebRadaev/qrispay/internal/service/adminservice"
	authservice "github.com/GlebRadaev/qrispay/internal/service/authservice"
	balanceservice "github.com/GlebRadaev/qrispay/internal/service/balanceservice"
	topupservice "github.com/GlebRadaev/qrispay/internal/service/topupservice"
	withdrawalservice "github.com/GlebRadaev/qrispay/internal/service/withdrawalservice"
)

// AuthService is the account store's login side plus session resolution.
type AuthService interface {
	auth.Service
	pkgauth.SessionResolver
	PurgeExpiredSessions(ctx context.Context, interval time.Duration)
}

type Services struct {
	AuthService       AuthService
	AccountService    account.Service
	TopUpService      topup.Service
	WithdrawalService withdrawal.Service
	AdminService      admin.Service
}

// MinJWTSecretLen is the shortest HS256 signing key accepted at startup.
const MinJWTSecretLen = 32

var ErrWeakJWTSecret = errors.New("JWT_SECRET must be set to at least 32 bytes")

type Notifier interface {
	Notify(ctx context.Context, event notify.Event)
}

func New(cfg *config.Config, repo *repo.Repositories, verifier authservice.IdentityVerifier, notifier Notifier) (*Services, error) {
	if len(cfg.JWTSecret) < MinJWTSecretLen {
		return nil, ErrWeakJWTSecret
	}
	feePercent, err := decimal.NewFromString(cfg.AdminFeePercent)
	if err != nil {
		return nil, fmt.Errorf("invalid admin fee percent %q: %w", cfg.AdminFeePercent, err)
	}

	balanceService := balanceservice.New(repo.UserRepo)
	authService := authservice.New(
		repo.UserRepo,
		repo.SessionRepo,
		verifier,
		pkgauth.NewHashService(cfg.BcryptCost),
		pkgauth.NewJWTService(cfg.JWTSecret),
		cfg.SessionTTL,
		cfg.AdminEmails,
	)
	topUpService := topupservice.New(repo.TopUpRepo, repo.UserRepo, balanceService, repo.TxManager, notifier, cfg.MinTopUpAmount)
	withdrawalService, err := withdrawalservice.New(repo.Withdrawal, balanceService, repo.TxManager, notifier, feePercent, cfg.MinWithdrawalAmount)
	if err != nil {
		return nil, err
	}

	return &Services{
		AuthService:       authService,
		AccountService:    accountservice.New(repo.UserRepo, repo.TopUpRepo, repo.Withdrawal),
		TopUpService:      topUpService,
		WithdrawalService: withdrawalService,
		AdminService:      adminservice.New(repo.UserRepo, repo.TopUpRepo, repo.Withdrawal, balanceService),
	}, nil
}
