package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeAccountLocked, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeVehicleUnavailable, http.StatusBadRequest},
		{ErrCodeContractClosed, http.StatusConflict},
		{ErrCodeCompanySuspended, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"FORBIDDEN", ErrCodeForbidden},
		{"UNAUTHORIZED", ErrCodeUnauthorized},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"VEHICLE_UNAVAILABLE", ErrCodeVehicleUnavailable},
		{"VEHICLE_RENTED", ErrCodeVehicleUnavailable},
		{"CONTRACT_CLOSED", ErrCodeContractClosed},
		{"EMAIL_TAKEN", ErrCodeAlreadyExists},
		{"INVALID_CREDENTIALS", ErrCodeInvalidCredentials},
		{"INVALID_VEHICLE", ErrCodeInvalidInput},
		// Already normalized codes pass through
		{ErrCodeNotFound, ErrCodeNotFound},
		// Unknown codes pass through
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestDomainErrorStatusChain(t *testing.T) {
	// Every code a domain error can carry resolves to a non-500 status
	// once normalized
	domainCodes := []string{
		"NOT_FOUND", "ALREADY_EXISTS", "INVALID_INPUT", "INVALID_STATE",
		"UNAUTHORIZED", "FORBIDDEN", "CONCURRENCY_CONFLICT",
		"VEHICLE_UNAVAILABLE", "CONTRACT_CLOSED", "BOOKING_NOT_OPEN",
		"BOOKING_FULFILLED", "INVALID_CREDENTIALS", "ACCOUNT_LOCKED",
		"ACCOUNT_INACTIVE", "EMAIL_TAKEN", "COMPANY_SUSPENDED",
		"INVALID_ROLE", "ALREADY_MANAGER",
	}

	for _, code := range domainCodes {
		t.Run(code, func(t *testing.T) {
			status := GetHTTPStatus(NormalizeErrorCode(code))
			assert.NotEqual(t, http.StatusInternalServerError, status,
				"domain code %s should not surface as 500", code)
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", "req-123")

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "email", Message: "Invalid email format"},
		{Field: "password", Message: "Must be at least 8 characters"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-456", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-456", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
}

func TestResponseSerialization(t *testing.T) {
	t.Run("success response omits error", func(t *testing.T) {
		raw, err := json.Marshal(NewSuccessResponse(map[string]string{"id": "abc"}))
		assert.NoError(t, err)
		assert.NotContains(t, string(raw), "\"error\"")
	})

	t.Run("error response omits data and meta", func(t *testing.T) {
		raw, err := json.Marshal(NewErrorResponse(ErrCodeForbidden, "Access denied"))
		assert.NoError(t, err)
		assert.NotContains(t, string(raw), "\"data\"")
		assert.NotContains(t, string(raw), "\"meta\"")
	})

	t.Run("meta computes total pages rounding up", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta([]int{}, 45, 1, 20)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})
}
