package repo

import (
	"github.com/GlebRadaev/qrispay/internal/pg"
	sessionrepo "github.com/GlebRadaev/qrispay/internal/repo/session-repo"
	topuprepo "github.com/GlebRadaev/qrispay/internal/repo/topup-repo"
	userrepo "github.com/GlebRadaev/qrispay/internal/repo/user-repo"
	withdrawalrepo "github.com/GlebRadaev/qrispay/internal/repo/withdrawal-repo"
)

type Repositories struct {
	UserRepo    *userrepo.Repository
	SessionRepo *sessionrepo.Repository
	TopUpRepo   *topuprepo.Repository
	Withdrawal  *withdrawalrepo.Repository
	TxManager   pg.TXManager
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		UserRepo:    userrepo.New(conn),
		SessionRepo: sessionrepo.New(conn),
		TopUpRepo:   topuprepo.New(conn),
		Withdrawal:  withdrawalrepo.New(conn),
		TxManager:   txManager,
	}
}
