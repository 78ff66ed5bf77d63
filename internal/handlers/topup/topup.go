package topup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/dto"
	"github.com/GlebRadaev/qrispay/internal/proofstore"
	"github.com/GlebRadaev/qrispay/internal/service/balanceservice"
	"github.com/GlebRadaev/qrispay/internal/service/topupservice"
	"github.com/GlebRadaev/qrispay/pkg/auth"
	"github.com/GlebRadaev/qrispay/pkg/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:generate mockgen -source=topup.go -destination=mock_topup.go -package=topup

type Service interface {
	Create(ctx context.Context, userID string, draft topupservice.Draft) (*domain.TopUp, error)
	Get(ctx context.Context, id string) (*domain.TopUp, error)
	GetOwned(ctx context.Context, userID, id string) (*domain.TopUp, error)
	ListByUser(ctx context.Context, userID string) ([]domain.TopUp, error)
	List(ctx context.Context, status string) ([]domain.TopUp, error)
	AttachProof(ctx context.Context, userID, id, proofRef string) (topUp *domain.TopUp, replaced string, err error)
	Confirm(ctx context.Context, id string) (*domain.TopUp, error)
	Reject(ctx context.Context, id string) (*domain.TopUp, error)
}

type ProofStore interface {
	Save(r io.Reader) (string, error)
	Open(ref string) (io.ReadCloser, string, error)
	Remove(ref string) error
	MaxSize() int64
}

const (
	proofField = "proof"
	// multipart headers and boundaries on top of the file itself
	formOverhead = 64 << 10
	formMemory   = 1 << 20
)

type TopUpHandler struct {
	topUpService Service
	proofs       ProofStore
}

func New(topUpService Service, proofs ProofStore) *TopUpHandler {
	return &TopUpHandler{
		topUpService: topUpService,
		proofs:       proofs,
	}
}

// Create godoc
//
//	@Summary		Create a top-up
//	@Description	Open a QRIS top-up. The response carries the reference number to put in the payment note.
//	@Tags			Top-ups
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateTopUpRequestDTO	true	"Top-up request"
//	@Success		201		{object}	dto.TopUpResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		422		{object}	utils.Response	"Amount or recipient invalid"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/topups [post]
func (h *TopUpHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	var req dto.CreateTopUpRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	topUp, err := h.topUpService.Create(r.Context(), userID, topupservice.Draft{
		Amount:        req.Amount,
		SenderName:    req.SenderName,
		RecipientName: req.RecipientName,
		Note:          req.Note,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewTopUpResponse(topUp))
}

// ListOwn godoc
//
//	@Summary		List own top-ups
//	@Tags			Top-ups
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.TopUpResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/topups [get]
func (h *TopUpHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	topUps, err := h.topUpService.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTopUpList(topUps))
}

// GetOwn godoc
//
//	@Summary		Get own top-up
//	@Description	Payment page data for one top-up
//	@Tags			Top-ups
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Top-up ID"
//	@Success		200	{object}	dto.TopUpResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		403	{object}	utils.Response	"Top-up belongs to another user"
//	@Failure		404	{object}	utils.Response	"Top-up not found"
//	@Router			/api/user/topups/{id} [get]
func (h *TopUpHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	topUp, err := h.topUpService.GetOwned(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTopUpResponse(topUp))
}

// UploadProof godoc
//
//	@Summary		Upload payment proof
//	@Description	Attach a screenshot of the QRIS payment. Re-uploading replaces the previous proof while the top-up waits for confirmation.
//	@Tags			Top-ups
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Top-up ID"
//	@Param			proof	formData	file	true	"PNG, JPEG, GIF or WebP image"
//	@Success		200		{object}	dto.TopUpResponseDTO
//	@Failure		400		{object}	utils.Response	"Proof file is required"
//	@Failure		403		{object}	utils.Response	"Top-up belongs to another user"
//	@Failure		404		{object}	utils.Response	"Top-up not found"
//	@Failure		409		{object}	utils.Response	"Top-up no longer accepts proofs"
//	@Failure		413		{object}	utils.Response	"Proof file is too large"
//	@Failure		415		{object}	utils.Response	"Proof is not an image"
//	@Router			/api/user/topups/{id}/proof [post]
func (h *TopUpHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)
	id := chi.URLParam(r, "id")

	if _, err := h.topUpService.GetOwned(r.Context(), userID, id); err != nil {
		respondError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.proofs.MaxSize()+formOverhead)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, proofstore.ErrTooLarge.Error())
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, "Proof file is required")
		return
	}
	file, _, err := r.FormFile(proofField)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Proof file is required")
		return
	}
	defer file.Close()

	ref, err := h.proofs.Save(file)
	if err != nil {
		respondError(w, err)
		return
	}

	topUp, replaced, err := h.topUpService.AttachProof(r.Context(), userID, id, ref)
	if err != nil {
		h.removeProof(ref)
		respondError(w, err)
		return
	}
	if replaced != "" && replaced != ref {
		h.removeProof(replaced)
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTopUpResponse(topUp))
}

// DownloadOwnProof godoc
//
//	@Summary		Download own payment proof
//	@Tags			Top-ups
//	@Security		BearerAuth
//	@Produce		image/png,image/jpeg,image/gif,image/webp
//	@Param			id	path		string	true	"Top-up ID"
//	@Success		200	{file}		binary
//	@Failure		403	{object}	utils.Response	"Top-up belongs to another user"
//	@Failure		404	{object}	utils.Response	"Proof not found"
//	@Router			/api/user/topups/{id}/proof [get]
func (h *TopUpHandler) DownloadOwnProof(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(string)

	topUp, err := h.topUpService.GetOwned(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	h.serveProof(w, topUp)
}

// DownloadProof godoc
//
//	@Summary		Download payment proof (admin)
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		image/png,image/jpeg,image/gif,image/webp
//	@Param			id	path		string	true	"Top-up ID"
//	@Success		200	{file}		binary
//	@Failure		403	{object}	utils.Response	"Forbidden"
//	@Failure		404	{object}	utils.Response	"Proof not found"
//	@Router			/api/admin/topups/{id}/proof [get]
func (h *TopUpHandler) DownloadProof(w http.ResponseWriter, r *http.Request) {
	topUp, err := h.topUpService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	h.serveProof(w, topUp)
}

func (h *TopUpHandler) serveProof(w http.ResponseWriter, topUp *domain.TopUp) {
	if topUp.ProofRef == nil {
		utils.RespondWithError(w, http.StatusNotFound, proofstore.ErrNotFound.Error())
		return
	}
	rc, contentType, err := h.proofs.Open(*topUp.ProofRef)
	if err != nil {
		respondError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		zap.L().Error("can't write proof", zap.String("topUpID", topUp.ID), zap.Error(err))
	}
}

func (h *TopUpHandler) removeProof(ref string) {
	if err := h.proofs.Remove(ref); err != nil {
		zap.L().Warn("can't remove proof", zap.String("ref", ref), zap.Error(err))
	}
}

// List godoc
//
//	@Summary		List top-ups (admin)
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(pending, waiting_confirmation, confirmed, failed)
//	@Success		200		{array}		dto.TopUpResponseDTO
//	@Failure		403		{object}	utils.Response	"Forbidden"
//	@Router			/api/admin/topups [get]
func (h *TopUpHandler) List(w http.ResponseWriter, r *http.Request) {
	topUps, err := h.topUpService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTopUpList(topUps))
}

// Confirm godoc
//
//	@Summary		Confirm a top-up (admin)
//	@Description	Mark the payment as received and credit the user balance
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Top-up ID"
//	@Success		200	{object}	dto.TopUpResponseDTO
//	@Failure		404	{object}	utils.Response	"Top-up not found"
//	@Failure		409	{object}	utils.Response	"Top-up is not waiting for confirmation"
//	@Router			/api/admin/topups/{id}/confirm [post]
func (h *TopUpHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	topUp, err := h.topUpService.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTopUpResponse(topUp))
}

// Reject godoc
//
//	@Summary		Reject a top-up (admin)
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Top-up ID"
//	@Success		200	{object}	dto.TopUpResponseDTO
//	@Failure		404	{object}	utils.Response	"Top-up not found"
//	@Failure		409	{object}	utils.Response	"Top-up is not waiting for confirmation"
//	@Router			/api/admin/topups/{id}/reject [post]
func (h *TopUpHandler) Reject(w http.ResponseWriter, r *http.Request) {
	topUp, err := h.topUpService.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTopUpResponse(topUp))
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, topupservice.ErrTopUpNotFound), errors.Is(err, proofstore.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, topupservice.ErrNotOwner):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, topupservice.ErrInvalidTransition):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, topupservice.ErrAmountTooSmall), errors.Is(err, topupservice.ErrRecipientRequired):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, proofstore.ErrTooLarge):
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, proofstore.ErrUnsupportedType):
		utils.RespondWithError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, balanceservice.ErrUserNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
