package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/chat-server/internal/models"
)

func TestErrorHandlerMapsSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("content too long: %w", models.ErrValidation), http.StatusBadRequest},
		{"unauthorized", models.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("not the sender: %w", models.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("message: %w", models.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("reaction exists: %w", models.ErrConflict), http.StatusConflict},
		{"echo error", echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			errorHandler()(tc.err, c)

			assert.Equal(t, tc.code, rec.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	errorHandler()(fmt.Errorf("dial tcp 10.0.0.1:27017: i/o timeout"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp.Message)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}
