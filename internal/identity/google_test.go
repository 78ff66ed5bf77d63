package identity

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/GlebRadaev/qrispay/internal/domain"
	"github.com/GlebRadaev/qrispay/pkg/clients"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

const (
	tokenInfoURL = "https://oauth2.example.test/tokeninfo"
	clientID     = "client-123.apps.googleusercontent.com"
)

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func NewMock(t *testing.T, clientID string) (*GoogleVerifier, *clients.MockHTTPClientI) {
	ctrl := gomock.NewController(t)
	client := clients.NewMockHTTPClientI(ctrl)
	verifier := NewGoogleVerifier(tokenInfoURL, clientID, client)
	verifier.retryInterval = time.Millisecond
	verifier.now = func() time.Time { return now }
	return verifier, client
}

func tokenBody(aud, verified string, exp time.Time) []byte {
	return []byte(`{"iss":"https://accounts.google.com","aud":"` + aud + `","email":"budi@example.com","email_verified":"` + verified + `","name":"Budi","exp":"` + strconv.FormatInt(exp.Unix(), 10) + `"}`)
}

func TestGoogleVerifier_Verify(t *testing.T) {
	endpoint := tokenInfoURL + "?id_token=token-abc"

	tests := []struct {
		name        string
		prepareMock func(client *clients.MockHTTPClientI)
		expected    *domain.Identity
		expectedErr error
		anyErr      bool
	}{
		{
			name: "Verified identity",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), endpoint, nil).
					Return(http.StatusOK, tokenBody(clientID, "true", now.Add(time.Hour)), nil, nil)
			},
			expected: &domain.Identity{Email: "budi@example.com", Name: "Budi"},
		},
		{
			name: "Wrong audience",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), endpoint, nil).
					Return(http.StatusOK, tokenBody("someone-else", "true", now.Add(time.Hour)), nil, nil)
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "Expired token",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), endpoint, nil).
					Return(http.StatusOK, tokenBody(clientID, "true", now.Add(-time.Minute)), nil, nil)
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "Unverified email",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), endpoint, nil).
					Return(http.StatusOK, tokenBody(clientID, "false", now.Add(time.Hour)), nil, nil)
			},
			expectedErr: ErrUnverified,
		},
		{
			name: "Rejected by provider",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), endpoint, nil).
					Return(http.StatusBadRequest, []byte(`{"error":"invalid_token"}`), nil, nil)
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "Retries after rate limit and server error",
			prepareMock: func(client *clients.MockHTTPClientI) {
				gomock.InOrder(
					client.EXPECT().Get(gomock.Any(), endpoint, nil).
						Return(http.StatusTooManyRequests, nil, http.Header{"Retry-After": []string{"0"}}, nil),
					client.EXPECT().Get(gomock.Any(), endpoint, nil).
						Return(http.StatusServiceUnavailable, nil, nil, nil),
					client.EXPECT().Get(gomock.Any(), endpoint, nil).
						Return(http.StatusOK, tokenBody(clientID, "true", now.Add(time.Hour)), nil, nil),
				)
			},
			expected: &domain.Identity{Email: "budi@example.com", Name: "Budi"},
		},
		{
			name: "Gives up after max retries",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), endpoint, nil).
					Return(0, nil, nil, errors.New("connection refused")).Times(maxRetries)
			},
			anyErr: true,
		},
		{
			name: "Malformed body",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Get(gomock.Any(), endpoint, nil).
					Return(http.StatusOK, []byte(`not json`), nil, nil)
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier, client := NewMock(t, clientID)
			tt.prepareMock(client)

			identity, err := verifier.Verify(context.Background(), "token-abc")
			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, identity)
			case tt.anyErr:
				assert.Error(t, err)
				assert.Nil(t, identity)
			default:
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, identity)
			}
		})
	}
}

func TestGoogleVerifier_NotConfigured(t *testing.T) {
	verifier, _ := NewMock(t, "")

	_, err := verifier.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGoogleVerifier_EmptyToken(t *testing.T) {
	verifier, _ := NewMock(t, clientID)

	_, err := verifier.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGoogleVerifier_CanceledWhileWaiting(t *testing.T) {
	verifier, client := NewMock(t, clientID)
	verifier.retryInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	client.EXPECT().Get(gomock.Any(), gomock.Any(), nil).
		DoAndReturn(func(context.Context, string, http.Header) (int, []byte, http.Header, error) {
			cancel()
			return 0, nil, nil, errors.New("connection reset")
		})

	_, err := verifier.Verify(ctx, "token-abc")
	assert.ErrorIs(t, err, context.Canceled)
}
