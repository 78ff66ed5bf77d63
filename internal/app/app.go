package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/qrispay/internal/config"
	"github.com/GlebRadaev/qrispay/internal/handlers"
	"github.com/GlebRadaev/qrispay/internal/identity"
	"github.com/GlebRadaev/qrispay/internal/notify"
	"github.com/GlebRadaev/qrispay/internal/pg"
	"github.com/GlebRadaev/qrispay/internal/proofstore"
	"github.com/GlebRadaev/qrispay/internal/repo"
	"github.com/GlebRadaev/qrispay/internal/service"
	"github.com/GlebRadaev/qrispay/pkg/clients"
	"github.com/GlebRadaev/qrispay/pkg/logger"
)

const sessionPurgeInterval = 10 * time.Minute

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg        *config.Config
	api        *handlers.Handlers
	srv        *service.Services
	repo       *repo.Repositories
	dispatcher *notify.Dispatcher

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(ctx, pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	proofs, err := proofstore.New(cfg.ProofDir, cfg.MaxProofSize)
	if err != nil {
		return fmt.Errorf("can't open proof store: %w", err)
	}

	a.cfg = cfg
	a.dispatcher = notify.NewDispatcher(cfg.NotifyWorkers, buildNotifiers(ctx, cfg))
	a.repo = repo.New(pg.New(pool), txManager)
	verifier := identity.NewGoogleVerifier(cfg.GoogleTokenInfoURL, cfg.GoogleClientID, clients.NewHTTPClient())
	a.srv, err = service.New(cfg, a.repo, verifier, a.dispatcher)
	if err != nil {
		return fmt.Errorf("can't build services: %w", err)
	}
	a.api = handlers.New(a.srv, proofs)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startSessionJanitor(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

// buildNotifiers skips any channel that is not configured or fails to start;
// the ledger works without notifications.
func buildNotifiers(ctx context.Context, cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChatID)
		if err != nil {
			zap.L().Warn("telegram notifications disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if cfg.SQSQueueURL != "" {
		q, err := notify.NewSQSNotifier(ctx, cfg.SQSQueueURL)
		if err != nil {
			zap.L().Warn("sqs notifications disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, q)
		}
	}
	return notifiers
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startSessionJanitor(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.srv.AuthService.PurgeExpiredSessions(ctx, sessionPurgeInterval)
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	if a.dispatcher != nil {
		a.dispatcher.Close()
	}

	return appErr
}
