package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		payload      interface{}
		expectedBody string
	}{
		{
			name:         "Object payload",
			status:       http.StatusOK,
			payload:      map[string]int64{"balance": 10000},
			expectedBody: "{\"balance\":10000}\n",
		},
		{
			name:         "Nil payload",
			status:       http.StatusOK,
			payload:      nil,
			expectedBody: "",
		},
		{
			name:         "No content drops body",
			status:       http.StatusNoContent,
			payload:      Response{Message: "empty"},
			expectedBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithJSON(w, tt.status, tt.payload)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, http.StatusConflict, "email already registered")

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp Response
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "email already registered", resp.Message)
}
