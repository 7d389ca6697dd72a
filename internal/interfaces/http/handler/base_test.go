package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code, body.Error.Message
}

func TestHandleError(t *testing.T) {
	h := &BaseHandler{}

	run := func(err error) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)
		h.HandleError(c, err)
		return w
	}

	t.Run("domain errors map through the code table", func(t *testing.T) {
		tests := []struct {
			err        error
			wantStatus int
			wantCode   string
		}{
			{shared.ErrNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
			{shared.ErrForbidden, http.StatusForbidden, "ERR_FORBIDDEN"},
			{shared.ErrConcurrencyConflict, http.StatusConflict, "ERR_CONCURRENCY_CONFLICT"},
			{shared.ErrVehicleUnavailable, http.StatusBadRequest, "ERR_VEHICLE_UNAVAILABLE"},
			{shared.ErrContractClosed, http.StatusConflict, "ERR_CONTRACT_CLOSED"},
			{shared.ErrInvalidState, http.StatusUnprocessableEntity, "ERR_INVALID_STATE"},
		}

		for _, tt := range tests {
			w := run(tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
			code, _ := decodeError(t, w)
			assert.Equal(t, tt.wantCode, code)
		}
	})

	t.Run("wrapped domain errors still resolve", func(t *testing.T) {
		w := run(fmt.Errorf("saving contract: %w", shared.ErrConcurrencyConflict))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("plain errors surface as opaque 500", func(t *testing.T) {
		w := run(errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		code, message := decodeError(t, w)
		assert.Equal(t, "ERR_INTERNAL", code)
		assert.NotContains(t, message, "pq:")
	})

	t.Run("forbidden never leaks entity existence", func(t *testing.T) {
		w := run(shared.ErrForbidden)

		_, message := decodeError(t, w)
		assert.Equal(t, "Access to this resource is forbidden", message)
	})
}

func TestParseIDParam(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid uuid", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: "0b9f2a74-6a3f-4df2-a6cc-9a1f5f61c001"}}

		id, ok := h.parseIDParam(c)
		assert.True(t, ok)
		assert.Equal(t, "0b9f2a74-6a3f-4df2-a6cc-9a1f5f61c001", id.String())
	})

	t.Run("garbage is a 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Params = gin.Params{{Key: "id", Value: "42"}}

		_, ok := h.parseIDParam(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSystemHandler(t *testing.T) {
	h := NewSystemHandler()

	t.Run("ping", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/system/ping", nil)

		h.Ping(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pong")
	})

	t.Run("info reports go version", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/system/info", nil)

		h.GetSystemInfo(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_version")
	})
}
