package authservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/pkg/auth"
	"github.com/GlebRadaev/qrispay/pkg/validate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:generate mockgen -source=authservice.go -destination=mock_authservice.go -package=authservice

type Repo interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

type SessionRepo interface {
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*domain.Identity, error)
}

var (
	ErrUserExists         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmptyPassword      = errors.New("password is required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserNotFound       = errors.New("user not found")
)

type Service struct {
	userRepo    Repo
	sessionRepo SessionRepo
	verifier    IdentityVerifier
	hashService auth.HashServiceInterface
	jwtService  auth.JWTServiceInterface
	sessionTTL  time.Duration
	adminEmails map[string]bool
	newID       func() string
	now         func() time.Time
}

func New(
	repo Repo,
	sessionRepo SessionRepo,
	verifier IdentityVerifier,
	hashService auth.HashServiceInterface,
	jwtService auth.JWTServiceInterface,
	sessionTTL time.Duration,
	adminEmails []string,
) *Service {
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		admins[validate.NormalizeEmail(email)] = true
	}
	return &Service{
		userRepo:    repo,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		hashService: hashService,
		jwtService:  jwtService,
		sessionTTL:  sessionTTL,
		adminEmails: admins,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

func (s *Service) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = validate.NormalizeEmail(email)
	if !validate.IsEmail(email) {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		zap.L().Error("can't find user: ", zap.Error(err))
		return nil, err
	}
	if existingUser != nil {
		zap.L().Info("user already exists", zap.String("email", email))
		return nil, ErrUserExists
	}
	hashedPassword, err := s.hashService.HashPassword(password)
	if err != nil {
		zap.L().Error("can't hash password: ", zap.Error(err))
		return nil, err
	}

	newUser, err := s.create(ctx, email, strings.TrimSpace(name), hashedPassword)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	zap.L().Info("user successfully registered", zap.String("email", email))
	return newUser, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = validate.NormalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		zap.L().Error("can't find user: ", zap.Error(err))
		return nil, err
	}
	if user == nil {
		zap.L().Info("invalid credentials", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	if ok := s.hashService.ComparePassword(user.PasswordHash, password); !ok {
		zap.L().Info("invalid credentials", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	zap.L().Info("user successfully authenticated", zap.String("email", email))
	return user, nil
}

// FindOrCreateByEmail returns the account for email, creating a
// zero-balance one without a password if it does not exist yet.
func (s *Service) FindOrCreateByEmail(ctx context.Context, email, name string) (*domain.User, error) {
	email = validate.NormalizeEmail(email)
	if !validate.IsEmail(email) {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		zap.L().Error("can't find user: ", zap.Error(err))
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = s.create(ctx, email, strings.TrimSpace(name), "")
	if err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
		// Lost a race with a concurrent login for the same email.
		user, err = s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			zap.L().Error("user missing after unique violation", zap.String("email", email))
			return nil, ErrUserNotFound
		}
		return user, nil
	}
	zap.L().Info("user created from identity provider", zap.String("email", email))
	return user, nil
}

func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (*domain.User, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		zap.L().Info("identity token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return s.FindOrCreateByEmail(ctx, identity.Email, identity.Name)
}

func (s *Service) create(ctx context.Context, email, name, passwordHash string) (*domain.User, error) {
	user := &domain.User{
		ID:           s.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		IsAdmin:      s.adminEmails[email],
	}
	newUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		zap.L().Error("can't create user: ", zap.Error(err))
		return nil, err
	}
	return newUser, nil
}

// StartSession stores a new session for user and returns its bearer token.
func (s *Service) StartSession(ctx context.Context, user *domain.User) (string, error) {
	now := s.now()
	session := &domain.Session{
		ID:        s.newID(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if _, err := s.sessionRepo.Create(ctx, session); err != nil {
		zap.L().Error("can't create session: ", zap.Error(err))
		return "", err
	}

	token, err := s.jwtService.GenerateJWT(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		zap.L().Error("can't generate token: ", zap.Error(err))
		return "", err
	}
	return token, nil
}

// ResolveSession checks the token signature and that its session is still
// stored and unexpired.
func (s *Service) ResolveSession(ctx context.Context, token string) (*auth.Principal, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.Id)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != claims.UserID {
		return nil, ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return &auth.Principal{
		UserID:    user.ID,
		SessionID: session.ID,
		IsAdmin:   user.IsAdmin,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		zap.L().Error("can't delete session: ", zap.Error(err))
		return err
	}
	zap.L().Info("session closed", zap.String("sessionID", sessionID))
	return nil
}

// PurgeExpiredSessions runs every interval until ctx is done.
func (s *Service) PurgeExpiredSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.sessionRepo.DeleteExpired(ctx)
			if err != nil {
				zap.L().Error("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				zap.L().Info("expired sessions purged", zap.Int64("count", removed))
			}
		}
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
