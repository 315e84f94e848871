package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("device-secret", "session-token")
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("eyJhbGciOiJIUzI1NiJ9.payload.sig"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "eyJhbGci")

	out, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", string(out))
}

func TestSealer_NonceIsFresh(t *testing.T) {
	s, err := NewSealer("device-secret", "session-token")
	require.NoError(t, err)

	a, err := s.Seal([]byte("token"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("token"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_WrongKeyOrPurpose(t *testing.T) {
	s, err := NewSealer("device-secret", "session-token")
	require.NoError(t, err)
	sealed, err := s.Seal([]byte("token"))
	require.NoError(t, err)

	other, err := NewSealer("device-secret", "something-else")
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestSealer_Tampered(t *testing.T) {
	s, err := NewSealer("device-secret", "session-token")
	require.NoError(t, err)
	sealed, err := s.Seal([]byte("token"))
	require.NoError(t, err)

	b := []byte(sealed)
	if b[len(b)-1] == 'A' {
		b[len(b)-1] = 'B'
	} else {
		b[len(b)-1] = 'A'
	}
	_, err = s.Open(string(b))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = s.Open("not base64 !!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = s.Open("c2hvcnQ")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer("", "session-token")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a, err := DeriveKey([]byte("secret"), "p")
	require.NoError(t, err)
	b, err := DeriveKey([]byte("secret"), "p")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
