package dto

import (
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
)

type UserResponseDTO struct {
	ID        string    `json:"id" example:"6f1c2a0e-8a57-4c5e-9a43-1f0a3f0c1b2d"`
	Email     string    `json:"email" example:"budi@example.com"`
	Name      string    `json:"name" example:"Budi Santoso"`
	Balance   int64     `json:"balance" example:"150000"`
	IsAdmin   bool      `json:"is_admin"`
	Version   int64     `json:"version" example:"3"`
	CreatedAt time.Time `json:"created_at" example:"2024-05-01T10:00:00Z"`
}

type DashboardResponseDTO struct {
	User             UserResponseDTO         `json:"user"`
	TotalTopUps      int64                   `json:"total_topups" example:"500000"`
	TotalWithdrawals int64                   `json:"total_withdrawals" example:"250000"`
	TopUps           []TopUpResponseDTO      `json:"topups"`
	Withdrawals      []WithdrawalResponseDTO `json:"withdrawals"`
}

func NewUserResponse(u *domain.User) UserResponseDTO {
	return UserResponseDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Balance:   u.Balance,
		IsAdmin:   u.IsAdmin,
		Version:   u.Version,
		CreatedAt: u.CreatedAt,
	}
}

func NewUserList(users []domain.User) []UserResponseDTO {
	response := make([]UserResponseDTO, len(users))
	for i := range users {
		response[i] = NewUserResponse(&users[i])
	}
	return response
}

func NewDashboardResponse(d *domain.Dashboard) DashboardResponseDTO {
	return DashboardResponseDTO{
		User:             NewUserResponse(d.User),
		TotalTopUps:      d.TotalTopUps,
		TotalWithdrawals: d.TotalWithdrawals,
		TopUps:           NewTopUpList(d.TopUps),
		Withdrawals:      NewWithdrawalList(d.Withdrawals),
	}
}
