package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCPF(t *testing.T) {
	t.Run("formatted and unformatted normalize to the same value", func(t *testing.T) {
		formatted, err := NewCPF("123.456.789-09")
		require.NoError(t, err)
		plain, err := NewCPF("12345678909")
		require.NoError(t, err)

		assert.Equal(t, "12345678909", formatted.String())
		assert.Equal(t, plain, formatted)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		for _, raw := range []string{"", "1234567890", "123456789012", "abc"} {
			_, err := NewCPF(raw)
			assert.ErrorIs(t, err, ErrInvalidCPF, "input %q", raw)
		}
	})
}

func TestValidCPF(t *testing.T) {
	assert.True(t, ValidCPF("123.456.789-09"))
	assert.True(t, ValidCPF("12345678909"))
	assert.False(t, ValidCPF("123"))
	assert.False(t, ValidCPF("123456789091"))
}
