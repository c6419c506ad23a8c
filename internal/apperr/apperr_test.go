package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("decode route: %w", NewIndexedValidation(3, "lat", "must be between -90 and 90"))
	require.ErrorIs(t, err, ErrValidation)
	require.False(t, errors.Is(err, ErrConfiguration))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "lat", verr.Field)
}

func TestConfigurationErrorMatchesSentinel(t *testing.T) {
	err := &ConfigurationError{Key: "period", Value: "decade"}
	require.ErrorIs(t, err, ErrConfiguration)
	require.Contains(t, err.Error(), "decade")
}
