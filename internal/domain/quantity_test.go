package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestParseQuantity(t *testing.T) {
	ok := map[string]int32{
		"2":           2,
		" 7 ":         7,
		"0":           0,
		"-3":          -3,
		"2.0":         2,
		"1e2":         100,
		"2147483647":  2147483647,
		"-2147483648": -2147483648,
	}
	for raw, want := range ok {
		got, err := domain.ParseQuantity(raw)
		require.NoError(t, err, "raw=%q", raw)
		require.Equal(t, want, got, "raw=%q", raw)
	}

	for _, raw := range []string{"1.5", "3e9", "2147483648", "-2147483649", "abc", "", "0.0001"} {
		_, err := domain.ParseQuantity(raw)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity, "raw=%q", raw)
		require.Equal(t, domain.KindInvalidQuantity, domain.KindOf(err))
	}

	_, err := domain.ParseQuantity("1.5")
	require.EqualError(t, err, "invalid quantity 1.5")
}
