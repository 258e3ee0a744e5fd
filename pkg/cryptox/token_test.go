package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	a, err := GenerateSecret(SecretSize)
	require.NoError(t, err)
	require.Len(t, a, SecretSize)

	b, err := GenerateSecret(SecretSize)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "secrets should be unique")

	for _, size := range []int{0, -1} {
		s, err := GenerateSecret(size)
		require.Error(t, err)
		require.Nil(t, s)
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	fp1a := Fingerprint("token-1")
	fp1b := Fingerprint("token-1")
	fp2 := Fingerprint("token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, fingerprintLen)
	require.Empty(t, Fingerprint(""))
}
