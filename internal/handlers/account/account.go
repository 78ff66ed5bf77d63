package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/dto"
	"github.com/GlebRadaev/qrispay/internal/service/accountservice"
	"github.com/GlebRadaev/qrispay/pkg/auth"
	"github.com/GlebRadaev/qrispay/pkg/utils"
)

//go:generate mockgen -source=account.go -destination=mock_account.go -package=account

type Service interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
	Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error)
}

type AccountHandler struct {
	accountService Service
}

func New(accountService Service) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// Me godoc
//
//	@Summary		Current user profile
//	@Description	Profile of the authenticated user including balance and admin flag
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.UserResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"User not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/me [get]
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	user, err := h.accountService.Profile(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewUserResponse(user))
}

// Dashboard godoc
//
//	@Summary		User dashboard
//	@Description	Balance, confirmed top-up total, completed withdrawal total and both histories
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.DashboardResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/dashboard [get]
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	dashboard, err := h.accountService.Dashboard(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewDashboardResponse(dashboard))
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, accountservice.ErrUserNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}
