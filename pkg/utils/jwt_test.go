package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.UserID)
	require.Equal(t, "alice", claims.Username)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := ParseToken(token)
		require.Error(t, err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	token, err := GenerateToken(7, "bob")
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	require.Error(t, err)
}
