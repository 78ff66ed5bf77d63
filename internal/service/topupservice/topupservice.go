package topupservice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/internal/notify"
	"github.com/GlebRadaev/qrispay/internal/pg"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:generate mockgen -source=topupservice.go -destination=mock_topupservice.go -package=topupservice

type Repo interface {
	Create(ctx context.Context, topUp *domain.TopUp) (*domain.TopUp, error)
	FindByID(ctx context.Context, id string) (*domain.TopUp, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.TopUp, error)
	List(ctx context.Context, status string) ([]domain.TopUp, error)
	AttachProof(ctx context.Context, id, userID, proofRef string, from []string) (*domain.TopUp, string, error)
	UpdateStatus(ctx context.Context, id string, from []string, to string, confirmedAt *time.Time) (*domain.TopUp, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type BalanceService interface {
	Credit(ctx context.Context, userID string, amount int64) (*domain.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, event notify.Event)
}

var (
	ErrTopUpNotFound      = errors.New("top-up not found")
	ErrNotOwner           = errors.New("top-up belongs to another user")
	ErrInvalidTransition  = errors.New("top-up is not in a state that allows this action")
	ErrAmountTooSmall     = errors.New("amount is below the minimum top-up")
	ErrRecipientRequired  = errors.New("recipient name is required")
	ErrUserNotFound       = errors.New("user not found")
	ErrReferenceExhausted = errors.New("could not allocate a unique reference number")
)

const (
	referencePrefix   = "TU"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceSuffix   = 6
	referenceAttempts = 3
)

// Draft is what a user submits to open a top-up.
type Draft struct {
	Amount        int64
	SenderName    string
	RecipientName string
	Note          string
}

type Service struct {
	repo         Repo
	users        UserRepo
	balance      BalanceService
	txManager    pg.TXManager
	notifier     Notifier
	minAmount    int64
	newID        func() string
	newReference func() string
	now          func() time.Time
}

func New(repo Repo, users UserRepo, balance BalanceService, txManager pg.TXManager, notifier Notifier, minAmount int64) *Service {
	s := &Service{
		repo:      repo,
		users:     users,
		balance:   balance,
		txManager: txManager,
		notifier:  notifier,
		minAmount: minAmount,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	s.newReference = s.reference
	return s
}

// reference builds TU<unix millis><6 random [A-Z0-9]>.
func (s *Service) reference() string {
	var b strings.Builder
	b.WriteString(referencePrefix)
	b.WriteString(strconv.FormatInt(s.now().UnixMilli(), 10))
	for i := 0; i < referenceSuffix; i++ {
		b.WriteByte(referenceAlphabet[rand.IntN(len(referenceAlphabet))])
	}
	return b.String()
}

func (s *Service) Create(ctx context.Context, userID string, draft Draft) (*domain.TopUp, error) {
	if draft.Amount < s.minAmount {
		return nil, ErrAmountTooSmall
	}
	recipient := strings.TrimSpace(draft.RecipientName)
	if recipient == "" {
		return nil, ErrRecipientRequired
	}

	sender := strings.TrimSpace(draft.SenderName)
	if sender == "" {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		sender = user.Name
		if sender == "" {
			sender = user.Email
		}
	}

	for attempt := 1; attempt <= referenceAttempts; attempt++ {
		topUp := &domain.TopUp{
			ID:              s.newID(),
			UserID:          userID,
			Amount:          draft.Amount,
			SenderName:      sender,
			RecipientName:   recipient,
			Note:            strings.TrimSpace(draft.Note),
			ReferenceNumber: s.newReference(),
			Status:          domain.TopUpStatusPending,
		}
		created, err := s.repo.Create(ctx, topUp)
		if err == nil {
			zap.L().Info("top-up created",
				zap.String("id", created.ID),
				zap.String("reference", created.ReferenceNumber),
				zap.Int64("amount", created.Amount))
			s.notify(ctx, notify.TopUpCreated, created)
			return created, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		zap.L().Warn("reference number collision, retrying",
			zap.String("reference", topUp.ReferenceNumber), zap.Int("attempt", attempt))
	}
	return nil, ErrReferenceExhausted
}

func (s *Service) Get(ctx context.Context, id string) (*domain.TopUp, error) {
	topUp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if topUp == nil {
		return nil, ErrTopUpNotFound
	}
	return topUp, nil
}

// GetOwned is Get restricted to the owner of the top-up.
func (s *Service) GetOwned(ctx context.Context, userID, id string) (*domain.TopUp, error) {
	topUp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if topUp.UserID != userID {
		return nil, ErrNotOwner
	}
	return topUp, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.TopUp, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context, status string) ([]domain.TopUp, error) {
	return s.repo.List(ctx, status)
}

// AttachProof records the uploaded proof. Re-uploading while the top-up
// waits for confirmation replaces the previous proof, whose reference is
// returned as replaced so the caller can delete it.
func (s *Service) AttachProof(ctx context.Context, userID, id, proofRef string) (topUp *domain.TopUp, replaced string, err error) {
	from := []string{domain.TopUpStatusPending, domain.TopUpStatusWaitingConfirmation}
	topUp, replaced, err = s.repo.AttachProof(ctx, id, userID, proofRef, from)
	if err != nil {
		return nil, "", err
	}
	if topUp == nil {
		current, err := s.GetOwned(ctx, userID, id)
		if err != nil {
			return nil, "", err
		}
		zap.L().Info("proof rejected for top-up", zap.String("id", id), zap.String("status", current.Status))
		return nil, "", ErrInvalidTransition
	}

	zap.L().Info("top-up proof attached", zap.String("id", id))
	s.notify(ctx, notify.TopUpProofUploaded, topUp)
	return topUp, replaced, nil
}

// Confirm marks the top-up paid and credits the owner in one transaction.
func (s *Service) Confirm(ctx context.Context, id string) (*domain.TopUp, error) {
	var confirmed *domain.TopUp
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		now := s.now()
		topUp, err := s.transition(ctx, id, []string{domain.TopUpStatusWaitingConfirmation}, domain.TopUpStatusConfirmed, &now)
		if err != nil {
			return err
		}
		if _, err := s.balance.Credit(ctx, topUp.UserID, topUp.Amount); err != nil {
			return fmt.Errorf("credit top-up %s: %w", id, err)
		}
		confirmed = topUp
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("top-up confirmed", zap.String("id", id), zap.Int64("amount", confirmed.Amount))
	s.notify(ctx, notify.TopUpConfirmed, confirmed)
	return confirmed, nil
}

func (s *Service) Reject(ctx context.Context, id string) (*domain.TopUp, error) {
	topUp, err := s.transition(ctx, id, []string{domain.TopUpStatusWaitingConfirmation}, domain.TopUpStatusFailed, nil)
	if err != nil {
		return nil, err
	}

	zap.L().Info("top-up rejected", zap.String("id", id))
	s.notify(ctx, notify.TopUpRejected, topUp)
	return topUp, nil
}

func (s *Service) transition(ctx context.Context, id string, from []string, to string, confirmedAt *time.Time) (*domain.TopUp, error) {
	topUp, err := s.repo.UpdateStatus(ctx, id, from, to, confirmedAt)
	if err != nil {
		return nil, err
	}
	if topUp != nil {
		return topUp, nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (s *Service) notify(ctx context.Context, kind string, topUp *domain.TopUp) {
	s.notifier.Notify(ctx, notify.Event{
		Kind:          kind,
		UserID:        topUp.UserID,
		TransactionID: topUp.ID,
		Reference:     topUp.ReferenceNumber,
		Amount:        topUp.Amount,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
