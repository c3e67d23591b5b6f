package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTokenTypeFlags(t *testing.T) {
	parsed, err := parseTokenTypeFlags([]string{" Full Cream 500ml = 32.50", "Toned=28"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Full Cream 500ml": "32.50", "Toned": "28"}, parsed)

	_, err = parseTokenTypeFlags([]string{"Toned"})
	require.Error(t, err)
	_, err = parseTokenTypeFlags([]string{"Toned=abc"})
	require.Error(t, err)
}

func TestIsWeakSecret(t *testing.T) {
	require.True(t, isWeakSecret("short"))
	require.True(t, isWeakSecret("change-me-in-production-please-0123456789"))
	require.False(t, isWeakSecret("5f0c9d2e8b1a47c3a6e4d7b9f2c1e0a8"))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed"} {
		require.True(t, names[want], "missing command %s", want)
	}
}
