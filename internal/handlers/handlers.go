package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/qrispay/docs"
	accounthandlers "github.com/GlebRadaev/qrispay/internal/handlers/account"
	adminhandlers "github.com/GlebRadaev/qrispay/internal/handlers/admin"
	authhandlers "github.com/GlebRadaev/qrispay/internal/handlers/auth"
	topuphandlers "github.com/GlebRadaev/qrispay/internal/handlers/topup"
	withdrawalhandlers "github.com/GlebRadaev/qrispay/internal/handlers/withdrawal"
	"github.com/GlebRadaev/qrispay/internal/service"
	"github.com/GlebRadaev/qrispay/pkg/auth"
	"github.com/GlebRadaev/qrispay/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	LoginGoogle(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type AccountHandler interface {
	Me(w http.ResponseWriter, r *http.Request)
	Dashboard(w http.ResponseWriter, r *http.Request)
}

type TopUpHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	ListOwn(w http.ResponseWriter, r *http.Request)
	GetOwn(w http.ResponseWriter, r *http.Request)
	UploadProof(w http.ResponseWriter, r *http.Request)
	DownloadOwnProof(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	DownloadProof(w http.ResponseWriter, r *http.Request)
	Confirm(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type WithdrawalHandler interface {
	Quote(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	ListOwn(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	Complete(w http.ResponseWriter, r *http.Request)
	Fail(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	Overview(w http.ResponseWriter, r *http.Request)
	Snapshot(w http.ResponseWriter, r *http.Request)
	Users(w http.ResponseWriter, r *http.Request)
	SetBalance(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler       AuthHandler
	AccountHandler    AccountHandler
	TopUpHandler      TopUpHandler
	WithdrawalHandler WithdrawalHandler
	AdminHandler      AdminHandler
	Sessions          auth.SessionResolver
}

func New(s *service.Services, proofs topuphandlers.ProofStore) *Handlers {
	return &Handlers{
		AuthHandler:       authhandlers.New(s.AuthService),
		AccountHandler:    accounthandlers.New(s.AccountService),
		TopUpHandler:      topuphandlers.New(s.TopUpService, proofs),
		WithdrawalHandler: withdrawalhandlers.New(s.WithdrawalService),
		AdminHandler:      adminhandlers.New(s.AdminService),
		Sessions:          s.AuthService,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		logger.RequestLogger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)
		r.Post("/login/google", h.AuthHandler.LoginGoogle)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(h.Sessions))
			r.Post("/logout", h.AuthHandler.Logout)
			r.Get("/me", h.AccountHandler.Me)
			r.Get("/dashboard", h.AccountHandler.Dashboard)
			r.Route("/topups", func(r chi.Router) {
				r.Post("/", h.TopUpHandler.Create)
				r.Get("/", h.TopUpHandler.ListOwn)
				r.Get("/{id}", h.TopUpHandler.GetOwn)
				r.Post("/{id}/proof", h.TopUpHandler.UploadProof)
				r.Get("/{id}/proof", h.TopUpHandler.DownloadOwnProof)
			})
			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/quote", h.WithdrawalHandler.Quote)
				r.Post("/", h.WithdrawalHandler.Create)
				r.Get("/", h.WithdrawalHandler.ListOwn)
			})
		})
	})
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(h.Sessions), auth.AdminOnly)
		r.Get("/overview", h.AdminHandler.Overview)
		r.Get("/snapshot", h.AdminHandler.Snapshot)
		r.Get("/users", h.AdminHandler.Users)
		r.Put("/users/{id}/balance", h.AdminHandler.SetBalance)
		r.Route("/topups", func(r chi.Router) {
			r.Get("/", h.TopUpHandler.List)
			r.Get("/{id}/proof", h.TopUpHandler.DownloadProof)
			r.Post("/{id}/confirm", h.TopUpHandler.Confirm)
			r.Post("/{id}/reject", h.TopUpHandler.Reject)
		})
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", h.WithdrawalHandler.List)
			r.Post("/{id}/process", h.WithdrawalHandler.Process)
			r.Post("/{id}/complete", h.WithdrawalHandler.Complete)
			r.Post("/{id}/fail", h.WithdrawalHandler.Fail)
		})
	})

	return r
}
