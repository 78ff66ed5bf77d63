package clients

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestHTTPClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("id_token"))
		assert.Equal(t, "qrispay", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient()
	status, body, headers, err := client.Get(context.Background(), srv.URL+"?id_token=abc", http.Header{"User-Agent": []string{"qrispay"}})

	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.JSONEq(t, `{"error":"slow down"}`, string(body))
	assert.Equal(t, "2", headers.Get("Retry-After"))
}

func TestHTTPClient_GetTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), maxResponseSize+10))
	}))
	defer srv.Close()

	status, body, _, err := NewHTTPClientWithTimeout(time.Second).Get(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body)
}

func TestHTTPClient_GetCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := NewHTTPClient().Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}

func TestHTTPClient_SetClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockHTTPClientI(ctrl)
	mock.EXPECT().Get(gomock.Any(), "http://example.test", nil).Return(http.StatusOK, []byte("ok"), nil, nil)

	client := NewHTTPClient()
	client.SetClient(mock)

	status, body, _, err := client.Get(context.Background(), "http://example.test", nil)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
}
