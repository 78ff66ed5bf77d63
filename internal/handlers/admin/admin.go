package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/dto"
	"github.com/GlebRadaev/qrispay/internal/service/balanceservice"
	"github.com/GlebRadaev/qrispay/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=admin.go -destination=mock_admin.go -package=admin

type Service interface {
	Overview(ctx context.Context) (*domain.Overview, error)
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	Users(ctx context.Context) ([]domain.User, error)
	SetBalance(ctx context.Context, userID string, balance, expectedVersion int64) (*domain.User, error)
}

type AdminHandler struct {
	adminService Service
}

func New(adminService Service) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// Overview godoc
//
//	@Summary		Admin dashboard counters
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.OverviewResponseDTO
//	@Failure		403	{object}	utils.Response	"Forbidden"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/overview [get]
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.adminService.Overview(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.OverviewResponseDTO{
		WaitingTopUps:   overview.WaitingTopUps,
		OpenWithdrawals: overview.OpenWithdrawals,
		ConfirmedTopUps: overview.ConfirmedTopUps,
		Users:           overview.Users,
	})
}

// Snapshot godoc
//
//	@Summary		Reload all transactions
//	@Description	Re-read every top-up and withdrawal from storage
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.SnapshotResponseDTO
//	@Failure		403	{object}	utils.Response	"Forbidden"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/snapshot [get]
func (h *AdminHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.adminService.Snapshot(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.SnapshotResponseDTO{
		TopUps:      dto.NewTopUpList(snapshot.TopUps),
		Withdrawals: dto.NewWithdrawalList(snapshot.Withdrawals),
	})
}

// Users godoc
//
//	@Summary		List users
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.UserResponseDTO
//	@Failure		403	{object}	utils.Response	"Forbidden"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/users [get]
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.Users(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewUserList(users))
}

// SetBalance godoc
//
//	@Summary		Set a user balance
//	@Description	Overwrite the balance. A non-zero version must match the stored one.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		dto.SetBalanceRequestDTO	true	"New balance"
//	@Success		200		{object}	dto.UserResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		409		{object}	utils.Response	"Balance was modified concurrently"
//	@Failure		422		{object}	utils.Response	"Balance cannot be negative"
//	@Router			/api/admin/users/{id}/balance [put]
func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.SetBalanceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.adminService.SetBalance(r.Context(), chi.URLParam(r, "id"), req.Balance, req.Version)
	if err != nil {
		switch {
		case errors.Is(err, balanceservice.ErrUserNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, balanceservice.ErrVersionConflict):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, balanceservice.ErrNegativeBalance):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewUserResponse(user))
}
