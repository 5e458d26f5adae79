package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gomoku-arena/internal/model"
)

func TestWriteError_MapsSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"wrapped not found", fmt.Errorf("load room: %w", model.ErrRoomNotFound), http.StatusNotFound, CodeRoomNotFound},
		{"turn", model.ErrNotYourTurn, http.StatusForbidden, CodeNotYourTurn},
		{"occupied", model.ErrCellOccupied, http.StatusConflict, CodeCellOccupied},
		{"oracle", &model.OracleError{Message: "rate limited"}, http.StatusBadGateway, CodeOracleFailed},
		{"retries", fmt.Errorf("%w after 5 attempts", model.ErrRetriesExhausted), http.StatusBadGateway, CodeOracleFailed},
		{"session", model.ErrSessionNotFound, http.StatusUnauthorized, CodeSessionNotFound},
		{"exhausted names", model.ErrUsernameSpaceExhausted, http.StatusServiceUnavailable, CodeUsernamesExhausted},
		{"unauthorized", NewUnauthorizedError(), http.StatusUnauthorized, CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			status := WriteError(rec, tt.err)

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.err.Error(), resp.Message)
		})
	}
}

func TestWriteError_UnknownErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	status := WriteError(rec, errors.New("redis: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, status)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeInternalError, resp.Code)
	assert.NotContains(t, resp.Message, "redis")
}

func TestWriteError_ValidationErrors(t *testing.T) {
	var req struct {
		Color string `validate:"required,oneof=black white"`
	}
	err := validator.New().Struct(req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	assert.Equal(t, http.StatusBadRequest, WriteError(rec, err))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeInvalidRequest, resp.Code)
	assert.Equal(t, "invalid request: Color failed required", resp.Message)
}
