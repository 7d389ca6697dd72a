package identity

import (
	"errors"
	"testing"

	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/stretchr/testify/require"
)

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T", err)
	require.Equal(t, code, domainErr.Code)
}
