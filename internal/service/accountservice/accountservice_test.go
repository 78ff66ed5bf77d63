package accountservice

import (
	"context"
	"errors"
	"testing"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Service, *MockUserRepo, *MockTopUpRepo, *MockWithdrawalRepo) {
	ctrl := gomock.NewController(t)
	users := NewMockUserRepo(ctrl)
	topUps := NewMockTopUpRepo(ctrl)
	withdrawals := NewMockWithdrawalRepo(ctrl)
	return New(users, topUps, withdrawals), users, topUps, withdrawals
}

func TestProfile(t *testing.T) {
	service, users, _, _ := NewMock(t)

	users.EXPECT().FindByID(gomock.Any(), "user-1").Return(&domain.User{ID: "user-1", Balance: 25000}, nil)
	user, err := service.Profile(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(25000), user.Balance)

	users.EXPECT().FindByID(gomock.Any(), "missing").Return(nil, nil)
	_, err = service.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDashboard(t *testing.T) {
	service, users, topUps, withdrawals := NewMock(t)

	users.EXPECT().FindByID(gomock.Any(), "user-1").Return(&domain.User{ID: "user-1", Balance: 47500}, nil)
	topUps.EXPECT().SumByUserStatus(gomock.Any(), "user-1", domain.TopUpStatusConfirmed).Return(int64(150000), nil)
	withdrawals.EXPECT().SumByUserStatus(gomock.Any(), "user-1", domain.WithdrawalStatusCompleted).Return(int64(100000), nil)
	topUps.EXPECT().ListByUserID(gomock.Any(), "user-1").Return([]domain.TopUp{{ID: "topup-1"}}, nil)
	withdrawals.EXPECT().GetWithdrawalsByUserID(gomock.Any(), "user-1").Return([]domain.Withdrawal{{ID: "wd-1"}}, nil)

	dashboard, err := service.Dashboard(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, &domain.Dashboard{
		User:             &domain.User{ID: "user-1", Balance: 47500},
		TotalTopUps:      150000,
		TotalWithdrawals: 100000,
		TopUps:           []domain.TopUp{{ID: "topup-1"}},
		Withdrawals:      []domain.Withdrawal{{ID: "wd-1"}},
	}, dashboard)
}

func TestDashboardError(t *testing.T) {
	service, users, topUps, withdrawals := NewMock(t)

	users.EXPECT().FindByID(gomock.Any(), "user-1").Return(&domain.User{ID: "user-1"}, nil).AnyTimes()
	topUps.EXPECT().SumByUserStatus(gomock.Any(), "user-1", gomock.Any()).Return(int64(0), errors.New("database error")).AnyTimes()
	withdrawals.EXPECT().SumByUserStatus(gomock.Any(), "user-1", gomock.Any()).Return(int64(0), nil).AnyTimes()
	topUps.EXPECT().ListByUserID(gomock.Any(), "user-1").Return(nil, nil).AnyTimes()
	withdrawals.EXPECT().GetWithdrawalsByUserID(gomock.Any(), "user-1").Return(nil, nil).AnyTimes()

	dashboard, err := service.Dashboard(context.Background(), "user-1")
	assert.EqualError(t, err, "database error")
	assert.Nil(t, dashboard)
}
