package withdrawal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/dto"
	"github.com/GlebRadaev/qrispay/internal/service/balanceservice"
	"github.com/GlebRadaev/qrispay/internal/service/withdrawalservice"
	"github.com/GlebRadaev/qrispay/pkg/auth"
	"github.com/GlebRadaev/qrispay/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=withdrawal.go -destination=mock_withdrawal.go -package=withdrawal

type Service interface {
	Quote(amount int64) (*withdrawalservice.Quote, error)
	Create(ctx context.Context, userID string, draft withdrawalservice.Draft) (*domain.Withdrawal, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Withdrawal, error)
	List(ctx context.Context, status string) ([]domain.Withdrawal, error)
	Process(ctx context.Context, id string) (*domain.Withdrawal, error)
	Complete(ctx context.Context, id string) (*domain.Withdrawal, error)
	Fail(ctx context.Context, id string) (*domain.Withdrawal, error)
}

type WithdrawalHandler struct {
	withdrawalService Service
}

func New(withdrawalService Service) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

// Quote godoc
//
//	@Summary		Preview withdrawal fee
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Produce		json
//	@Param			amount	query		int	true	"Amount in rupiah"
//	@Success		200		{object}	dto.QuoteResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid amount"
//	@Failure		422		{object}	utils.Response	"Amount below minimum"
//	@Router			/api/user/withdrawals/quote [get]
func (h *WithdrawalHandler) Quote(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	quote, err := h.withdrawalService.Quote(amount)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.QuoteResponseDTO{
		Amount:     quote.Amount,
		FeePercent: quote.FeePercent.String(),
		AdminFee:   quote.AdminFee,
		NetAmount:  quote.NetAmount,
	})
}

// Create godoc
//
//	@Summary		Request a withdrawal
//	@Description	Debit the balance and queue a payout to an e-wallet
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateWithdrawalRequestDTO	true	"Withdrawal request"
//	@Success		201		{object}	dto.WithdrawalResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		402		{object}	utils.Response	"Insufficient balance"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/withdrawals [post]
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	var req dto.CreateWithdrawalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	withdrawal, err := h.withdrawalService.Create(r.Context(), userID, withdrawalservice.Draft{
		Amount:        req.Amount,
		EWallet:       req.EWallet,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewWithdrawalResponse(withdrawal))
}

// ListOwn godoc
//
//	@Summary		List own withdrawals
//	@Tags			Withdrawals
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.WithdrawalResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/withdrawals [get]
func (h *WithdrawalHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	withdrawals, err := h.withdrawalService.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewWithdrawalList(withdrawals))
}

// List godoc
//
//	@Summary		List withdrawals (admin)
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(pending, processing, completed, failed)
//	@Success		200		{array}		dto.WithdrawalResponseDTO
//	@Failure		403		{object}	utils.Response	"Forbidden"
//	@Router			/api/admin/withdrawals [get]
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.withdrawalService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewWithdrawalList(withdrawals))
}

// Process godoc
//
//	@Summary		Start paying out a withdrawal (admin)
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Withdrawal ID"
//	@Success		200	{object}	dto.WithdrawalResponseDTO
//	@Failure		404	{object}	utils.Response	"Withdrawal not found"
//	@Failure		409	{object}	utils.Response	"Invalid status transition"
//	@Router			/api/admin/withdrawals/{id}/process [post]
func (h *WithdrawalHandler) Process(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.withdrawalService.Process)
}

// Complete godoc
//
//	@Summary		Mark a withdrawal paid out (admin)
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Withdrawal ID"
//	@Success		200	{object}	dto.WithdrawalResponseDTO
//	@Failure		404	{object}	utils.Response	"Withdrawal not found"
//	@Failure		409	{object}	utils.Response	"Invalid status transition"
//	@Router			/api/admin/withdrawals/{id}/complete [post]
func (h *WithdrawalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.withdrawalService.Complete)
}

// Fail godoc
//
//	@Summary		Fail a withdrawal (admin)
//	@Description	Close the withdrawal and refund the full amount to the user
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Withdrawal ID"
//	@Success		200	{object}	dto.WithdrawalResponseDTO
//	@Failure		404	{object}	utils.Response	"Withdrawal not found"
//	@Failure		409	{object}	utils.Response	"Invalid status transition"
//	@Router			/api/admin/withdrawals/{id}/fail [post]
func (h *WithdrawalHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.withdrawalService.Fail)
}

func (h *WithdrawalHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*domain.Withdrawal, error)) {
	withdrawal, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewWithdrawalResponse(withdrawal))
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, balanceservice.ErrInsufficientBalance):
		utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, withdrawalservice.ErrWithdrawalNotFound), errors.Is(err, balanceservice.ErrUserNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, withdrawalservice.ErrInvalidTransition):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, withdrawalservice.ErrAmountTooSmall),
		errors.Is(err, withdrawalservice.ErrUnknownEWallet),
		errors.Is(err, withdrawalservice.ErrInvalidAccountNumber),
		errors.Is(err, withdrawalservice.ErrAccountNameRequired):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
