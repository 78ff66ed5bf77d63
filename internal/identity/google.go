package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/pkg/clients"
	"go.uber.org/zap"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
)

var (
	ErrNotConfigured = errors.New("identity provider is not configured")
	ErrInvalidToken  = errors.New("identity token rejected")
	ErrUnverified    = errors.New("identity email is not verified")
)

var trustedIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

type tokenInfo struct {
	Issuer        string `json:"iss"`
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Expires       string `json:"exp"`
}

// GoogleVerifier checks ID tokens against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	url           string
	clientID      string
	client        clients.HTTPClientI
	retryInterval time.Duration
	now           func() time.Time
}

func NewGoogleVerifier(tokenInfoURL, clientID string, client clients.HTTPClientI) *GoogleVerifier {
	return &GoogleVerifier{
		url:           tokenInfoURL,
		clientID:      clientID,
		client:        client,
		retryInterval: retryInterval,
		now:           time.Now,
	}
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*domain.Identity, error) {
	if v.clientID == "" {
		return nil, ErrNotConfigured
	}
	if idToken == "" {
		return nil, ErrInvalidToken
	}

	endpoint := v.url + "?id_token=" + url.QueryEscape(idToken)
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		statusCode, respBody, respHeaders, err := v.client.Get(ctx, endpoint, nil)
		if err != nil {
			lastErr = err
			if err := v.wait(ctx, v.retryInterval*time.Duration(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case statusCode == http.StatusOK:
			return v.parse(respBody)
		case statusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited by identity provider")
			if err := v.wait(ctx, v.retryAfter(respHeaders, attempt)); err != nil {
				return nil, err
			}
		case statusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("identity provider returned %d", statusCode)
			zap.L().Warn("identity provider unavailable, retrying", zap.Int("status", statusCode), zap.Int("attempt", attempt))
			if err := v.wait(ctx, v.retryInterval*time.Duration(attempt)); err != nil {
				return nil, err
			}
		default:
			return nil, ErrInvalidToken
		}
	}

	return nil, fmt.Errorf("failed to verify identity token after %d retries: %w", maxRetries, lastErr)
}

func (v *GoogleVerifier) parse(body []byte) (*domain.Identity, error) {
	var info tokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse tokeninfo response: %w", err)
	}
	if info.Audience != v.clientID || !trustedIssuers[info.Issuer] {
		return nil, ErrInvalidToken
	}
	exp, err := strconv.ParseInt(info.Expires, 10, 64)
	if err != nil || !v.now().Before(time.Unix(exp, 0)) {
		return nil, ErrInvalidToken
	}
	if info.EmailVerified != "true" || info.Email == "" {
		return nil, ErrUnverified
	}
	return &domain.Identity{Email: info.Email, Name: info.Name}, nil
}

func (v *GoogleVerifier) retryAfter(headers http.Header, attempt int) time.Duration {
	retryAfter := v.retryInterval * time.Duration(attempt)
	if seconds, err := strconv.Atoi(headers.Get("Retry-After")); err == nil {
		retryAfter = time.Duration(seconds) * time.Second
	}
	return retryAfter
}

func (v *GoogleVerifier) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
