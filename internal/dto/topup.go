package dto

import (
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
)

type CreateTopUpRequestDTO struct {
	Amount        int64  `json:"amount" example:"50000"`
	SenderName    string `json:"sender_name,omitempty" example:"Budi Santoso"`
	RecipientName string `json:"recipient_name" example:"Toko Maju"`
	Note          string `json:"note,omitempty" example:"isi saldo"`
}

type TopUpResponseDTO struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Amount          int64      `json:"amount" example:"50000"`
	SenderName      string     `json:"sender_name" example:"Budi Santoso"`
	RecipientName   string     `json:"recipient_name" example:"Toko Maju"`
	Note            string     `json:"note,omitempty"`
	ReferenceNumber string     `json:"reference_number" example:"TU1714557600000K3ZQ8A"`
	Status          string     `json:"status" example:"waiting_confirmation"`
	HasProof        bool       `json:"has_proof"`
	CreatedAt       time.Time  `json:"created_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
}

func NewTopUpResponse(t *domain.TopUp) TopUpResponseDTO {
	return TopUpResponseDTO{
		ID:              t.ID,
		UserID:          t.UserID,
		Amount:          t.Amount,
		SenderName:      t.SenderName,
		RecipientName:   t.RecipientName,
		Note:            t.Note,
		ReferenceNumber: t.ReferenceNumber,
		Status:          t.Status,
		HasProof:        t.ProofRef != nil,
		CreatedAt:       t.CreatedAt,
		ConfirmedAt:     t.ConfirmedAt,
	}
}

func NewTopUpList(topUps []domain.TopUp) []TopUpResponseDTO {
	response := make([]TopUpResponseDTO, len(topUps))
	for i := range topUps {
		response[i] = NewTopUpResponse(&topUps[i])
	}
	return response
}
