package dto

import (
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/pkg/validate"
)

type CreateWithdrawalRequestDTO struct {
	Amount        int64  `json:"amount" example:"100000"`
	EWallet       string `json:"ewallet" example:"dana"`
	AccountNumber string `json:"account_number" example:"081234567890"`
	AccountName   string `json:"account_name" example:"Budi Santoso"`
}

type QuoteResponseDTO struct {
	Amount     int64  `json:"amount" example:"100000"`
	FeePercent string `json:"fee_percent" example:"2.5"`
	AdminFee   int64  `json:"admin_fee" example:"2500"`
	NetAmount  int64  `json:"net_amount" example:"97500"`
}

type WithdrawalResponseDTO struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Amount        int64      `json:"amount" example:"100000"`
	AdminFee      int64      `json:"admin_fee" example:"2500"`
	NetAmount     int64      `json:"net_amount" example:"97500"`
	EWallet       string     `json:"ewallet" example:"dana"`
	EWalletName   string     `json:"ewallet_name" example:"DANA"`
	AccountNumber string     `json:"account_number" example:"081234567890"`
	AccountName   string     `json:"account_name" example:"Budi Santoso"`
	Status        string     `json:"status" example:"pending"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

func NewWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponseDTO {
	return WithdrawalResponseDTO{
		ID:            w.ID,
		UserID:        w.UserID,
		Amount:        w.Amount,
		AdminFee:      w.AdminFee,
		NetAmount:     w.NetAmount,
		EWallet:       w.EWallet,
		EWalletName:   validate.EWalletName(w.EWallet),
		AccountNumber: w.AccountNumber,
		AccountName:   w.AccountName,
		Status:        w.Status,
		CreatedAt:     w.CreatedAt,
		ProcessedAt:   w.ProcessedAt,
	}
}

func NewWithdrawalList(withdrawals []domain.Withdrawal) []WithdrawalResponseDTO {
	response := make([]WithdrawalResponseDTO, len(withdrawals))
	for i := range withdrawals {
		response[i] = NewWithdrawalResponse(&withdrawals[i])
	}
	return response
}
