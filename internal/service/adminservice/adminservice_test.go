package adminservice

import (
	"context"
	"errors"
	"testing"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/service/balanceservice"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

type mocks struct {
	users       *MockUserRepo
	topUps      *MockTopUpRepo
	withdrawals *MockWithdrawalRepo
	balance     *MockBalanceService
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		users:       NewMockUserRepo(ctrl),
		topUps:      NewMockTopUpRepo(ctrl),
		withdrawals: NewMockWithdrawalRepo(ctrl),
		balance:     NewMockBalanceService(ctrl),
	}
	return New(m.users, m.topUps, m.withdrawals, m.balance), m
}

func TestOverview(t *testing.T) {
	service, m := NewMock(t)

	m.topUps.EXPECT().CountByStatus(gomock.Any(), []string{domain.TopUpStatusWaitingConfirmation}).Return(int64(3), nil)
	m.topUps.EXPECT().CountByStatus(gomock.Any(), []string{domain.TopUpStatusConfirmed}).Return(int64(10), nil)
	m.withdrawals.EXPECT().CountByStatus(gomock.Any(), []string{domain.WithdrawalStatusPending, domain.WithdrawalStatusProcessing}).Return(int64(2), nil)
	m.users.EXPECT().Count(gomock.Any()).Return(int64(7), nil)

	overview, err := service.Overview(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, &domain.Overview{WaitingTopUps: 3, OpenWithdrawals: 2, ConfirmedTopUps: 10, Users: 7}, overview)
}

func TestOverviewError(t *testing.T) {
	service, m := NewMock(t)

	m.topUps.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()
	m.withdrawals.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()
	m.users.EXPECT().Count(gomock.Any()).Return(int64(0), errors.New("database error")).AnyTimes()

	overview, err := service.Overview(context.Background())
	assert.EqualError(t, err, "database error")
	assert.Nil(t, overview)
}

func TestSnapshot(t *testing.T) {
	service, m := NewMock(t)

	m.topUps.EXPECT().List(gomock.Any(), "").Return([]domain.TopUp{{ID: "topup-1"}, {ID: "topup-2"}}, nil)
	m.withdrawals.EXPECT().List(gomock.Any(), "").Return([]domain.Withdrawal{{ID: "wd-1"}}, nil)

	snapshot, err := service.Snapshot(context.Background())
	assert.NoError(t, err)
	assert.Len(t, snapshot.TopUps, 2)
	assert.Len(t, snapshot.Withdrawals, 1)
}

func TestUsers(t *testing.T) {
	service, m := NewMock(t)

	m.users.EXPECT().List(gomock.Any()).Return([]domain.User{{ID: "user-1"}}, nil)
	users, err := service.Users(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []domain.User{{ID: "user-1"}}, users)
}

func TestSetBalance(t *testing.T) {
	service, m := NewMock(t)

	m.balance.EXPECT().SetBalance(gomock.Any(), "user-1", int64(500000), int64(3)).
		Return(&domain.User{ID: "user-1", Balance: 500000, Version: 4}, nil)
	user, err := service.SetBalance(context.Background(), "user-1", 500000, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), user.Version)

	m.balance.EXPECT().SetBalance(gomock.Any(), "user-1", int64(500000), int64(2)).
		Return(nil, balanceservice.ErrVersionConflict)
	_, err = service.SetBalance(context.Background(), "user-1", 500000, 2)
	assert.ErrorIs(t, err, balanceservice.ErrVersionConflict)
}
