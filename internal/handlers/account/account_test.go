package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/dto"
	"github.com/GlebRadaev/qrispay/internal/service/accountservice"
	"github.com/GlebRadaev/qrispay/pkg/auth"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*AccountHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service), service
}

func request(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	return r.WithContext(context.WithValue(context.Background(), auth.UserIDKey, "user-1"))
}

func TestMeHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Profile found",
			prepareMock: func() {
				service.EXPECT().Profile(gomock.Any(), "user-1").
					Return(&domain.User{ID: "user-1", Email: "budi@example.com", Balance: 75000, IsAdmin: true}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "User deleted",
			prepareMock: func() {
				service.EXPECT().Profile(gomock.Any(), "user-1").Return(nil, accountservice.ErrUserNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				service.EXPECT().Profile(gomock.Any(), "user-1").Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.Me(w, request("/api/user/me"))
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body dto.UserResponseDTO
				assert.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, int64(75000), body.Balance)
				assert.True(t, body.IsAdmin)
			}
		})
	}
}

func TestDashboardHandler(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().Dashboard(gomock.Any(), "user-1").Return(&domain.Dashboard{
		User:             &domain.User{ID: "user-1", Balance: 47500},
		TotalTopUps:      150000,
		TotalWithdrawals: 100000,
		TopUps:           []domain.TopUp{{ID: "topup-1", Status: domain.TopUpStatusConfirmed}},
	}, nil)

	w := httptest.NewRecorder()
	handler.Dashboard(w, request("/api/user/dashboard"))
	assert.Equal(t, http.StatusOK, w.Code)

	var body dto.DashboardResponseDTO
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, int64(47500), body.User.Balance)
	assert.Equal(t, int64(150000), body.TotalTopUps)
	assert.Equal(t, int64(100000), body.TotalWithdrawals)
	assert.Len(t, body.TopUps, 1)
	assert.NotNil(t, body.Withdrawals)
	assert.Empty(t, body.Withdrawals)

	service.EXPECT().Dashboard(gomock.Any(), "user-1").Return(nil, errors.New("error"))
	w = httptest.NewRecorder()
	handler.Dashboard(w, request("/api/user/dashboard"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
