package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/qrispay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name          string
		config        *config.Config
		expectedError bool
	}{
		{
			name:   "Valid log level info",
			config: &config.Config{LogLvl: "info"},
		},
		{
			name:   "Valid log level warn",
			config: &config.Config{LogLvl: "warn"},
		},
		{
			name:   "Valid log level error",
			config: &config.Config{LogLvl: "error"},
		},
		{
			name:   "Valid log level debug with json",
			config: &config.Config{LogLvl: "debug", LogFormat: "json"},
		},
		{
			name:          "Invalid log level",
			config:        &config.Config{LogLvl: "invalid"},
			expectedError: true,
		},
		{
			name:          "Invalid log format",
			config:        &config.Config{LogLvl: "info", LogFormat: "xml"},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.config)

			if tt.expectedError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	tests := []struct {
		name    string
		status  int
		message string
	}{
		{name: "Success", status: http.StatusOK, message: "request completed"},
		{name: "Server error", status: http.StatusInternalServerError, message: "server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, int64(tt.status), entries[0].ContextMap()["status"])
			assert.Equal(t, "/api/user/me", entries[0].ContextMap()["path"])
		})
	}
}
