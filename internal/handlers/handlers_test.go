package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/qrispay/internal/handlers/account"
	"github.com/GlebRadaev/qrispay/internal/handlers/admin"
	"github.com/GlebRadaev/qrispay/internal/handlers/topup"
	"github.com/GlebRadaev/qrispay/internal/handlers/withdrawal"
	"github.com/GlebRadaev/qrispay/internal/service"
	"github.com/GlebRadaev/qrispay/internal/service/authservice"
	"github.com/GlebRadaev/qrispay/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)

	services := &service.Services{
		AuthService:       &authservice.Service{},
		AccountService:    account.NewMockService(ctrl),
		TopUpService:      topup.NewMockService(ctrl),
		WithdrawalService: withdrawal.NewMockService(ctrl),
		AdminService:      admin.NewMockService(ctrl),
	}

	h := New(services, topup.NewMockProofStore(ctrl))
	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.Sessions)
}

func newRouter(t *testing.T) http.Handler {
	ctrl := gomock.NewController(t)

	authHandler := NewMockAuthHandler(ctrl)
	accountHandler := NewMockAccountHandler(ctrl)
	topUpHandler := NewMockTopUpHandler(ctrl)
	withdrawalHandler := NewMockWithdrawalHandler(ctrl)
	adminHandler := NewMockAdminHandler(ctrl)
	sessions := auth.NewMockSessionResolver(ctrl)

	authHandler.EXPECT().Register(gomock.Any(), gomock.Any()).AnyTimes()
	authHandler.EXPECT().Login(gomock.Any(), gomock.Any()).AnyTimes()
	authHandler.EXPECT().LoginGoogle(gomock.Any(), gomock.Any()).AnyTimes()
	authHandler.EXPECT().Logout(gomock.Any(), gomock.Any()).AnyTimes()
	accountHandler.EXPECT().Me(gomock.Any(), gomock.Any()).AnyTimes()
	accountHandler.EXPECT().Dashboard(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().Create(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().ListOwn(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().GetOwn(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().UploadProof(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().DownloadOwnProof(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().List(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().DownloadProof(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().Confirm(gomock.Any(), gomock.Any()).AnyTimes()
	topUpHandler.EXPECT().Reject(gomock.Any(), gomock.Any()).AnyTimes()
	withdrawalHandler.EXPECT().Quote(gomock.Any(), gomock.Any()).AnyTimes()
	withdrawalHandler.EXPECT().Create(gomock.Any(), gomock.Any()).AnyTimes()
	withdrawalHandler.EXPECT().ListOwn(gomock.Any(), gomock.Any()).AnyTimes()
	withdrawalHandler.EXPECT().List(gomock.Any(), gomock.Any()).AnyTimes()
	withdrawalHandler.EXPECT().Process(gomock.Any(), gomock.Any()).AnyTimes()
	withdrawalHandler.EXPECT().Complete(gomock.Any(), gomock.Any()).AnyTimes()
	withdrawalHandler.EXPECT().Fail(gomock.Any(), gomock.Any()).AnyTimes()
	adminHandler.EXPECT().Overview(gomock.Any(), gomock.Any()).AnyTimes()
	adminHandler.EXPECT().Snapshot(gomock.Any(), gomock.Any()).AnyTimes()
	adminHandler.EXPECT().Users(gomock.Any(), gomock.Any()).AnyTimes()
	adminHandler.EXPECT().SetBalance(gomock.Any(), gomock.Any()).AnyTimes()

	sessions.EXPECT().ResolveSession(gomock.Any(), "user-token").
		Return(&auth.Principal{UserID: "user-1", SessionID: "session-1"}, nil).AnyTimes()
	sessions.EXPECT().ResolveSession(gomock.Any(), "admin-token").
		Return(&auth.Principal{UserID: "admin-1", SessionID: "session-2", IsAdmin: true}, nil).AnyTimes()
	sessions.EXPECT().ResolveSession(gomock.Any(), "revoked-token").
		Return(nil, authservice.ErrSessionNotFound).AnyTimes()

	h := &Handlers{
		AuthHandler:       authHandler,
		AccountHandler:    accountHandler,
		TopUpHandler:      topUpHandler,
		WithdrawalHandler: withdrawalHandler,
		AdminHandler:      adminHandler,
		Sessions:          sessions,
	}

	router := chi.NewRouter()
	h.InitRoutes(router)
	return router
}

func TestInitRoutes(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		method string
		url    string
		token  string
		status int
	}{
		{"POST", "/api/user/register", "", http.StatusOK},
		{"POST", "/api/user/login", "", http.StatusOK},
		{"POST", "/api/user/login/google", "", http.StatusOK},
		{"POST", "/api/user/logout", "", http.StatusUnauthorized},
		{"GET", "/api/user/me", "", http.StatusUnauthorized},
		{"GET", "/api/user/me", "revoked-token", http.StatusUnauthorized},
		{"GET", "/api/user/me", "user-token", http.StatusOK},
		{"GET", "/api/user/dashboard", "user-token", http.StatusOK},
		{"POST", "/api/user/logout", "user-token", http.StatusOK},
		{"POST", "/api/user/topups", "user-token", http.StatusOK},
		{"GET", "/api/user/topups", "user-token", http.StatusOK},
		{"GET", "/api/user/topups/topup-1", "user-token", http.StatusOK},
		{"POST", "/api/user/topups/topup-1/proof", "user-token", http.StatusOK},
		{"GET", "/api/user/topups/topup-1/proof", "user-token", http.StatusOK},
		{"GET", "/api/user/topups", "", http.StatusUnauthorized},
		{"GET", "/api/user/withdrawals/quote?amount=50000", "user-token", http.StatusOK},
		{"POST", "/api/user/withdrawals", "user-token", http.StatusOK},
		{"GET", "/api/user/withdrawals", "user-token", http.StatusOK},
		{"GET", "/api/user/withdrawals", "", http.StatusUnauthorized},
		{"GET", "/api/admin/overview", "", http.StatusUnauthorized},
		{"GET", "/api/admin/overview", "user-token", http.StatusForbidden},
		{"POST", "/api/admin/topups/topup-1/confirm", "user-token", http.StatusForbidden},
		{"GET", "/api/admin/overview", "admin-token", http.StatusOK},
		{"GET", "/api/admin/snapshot", "admin-token", http.StatusOK},
		{"GET", "/api/admin/users", "admin-token", http.StatusOK},
		{"PUT", "/api/admin/users/user-1/balance", "admin-token", http.StatusOK},
		{"GET", "/api/admin/topups?status=waiting_confirmation", "admin-token", http.StatusOK},
		{"GET", "/api/admin/topups/topup-1/proof", "admin-token", http.StatusOK},
		{"POST", "/api/admin/topups/topup-1/confirm", "admin-token", http.StatusOK},
		{"POST", "/api/admin/topups/topup-1/reject", "admin-token", http.StatusOK},
		{"GET", "/api/admin/withdrawals", "admin-token", http.StatusOK},
		{"POST", "/api/admin/withdrawals/wd-1/process", "admin-token", http.StatusOK},
		{"POST", "/api/admin/withdrawals/wd-1/complete", "admin-token", http.StatusOK},
		{"POST", "/api/admin/withdrawals/wd-1/fail", "admin-token", http.StatusOK},
		{"GET", "/api/user/unknown", "user-token", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url+" "+tt.token, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
