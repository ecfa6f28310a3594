package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("3f1c2a9e-file", "3f1c2a9e-file.pdf")
	require.NoError(t, err)
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "+")

	signed, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "3f1c2a9e-file", signed.FileID)
	assert.Equal(t, "3f1c2a9e-file.pdf", signed.Name)
	assert.True(t, expiresAt.Equal(signed.ExpiresAt))
}

func TestSignedURLSignerExpiry(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	signer := NewSignedURLSigner("secret", 10*time.Minute)
	signer.now = func() time.Time { return clock }

	token, _, err := signer.Sign("file-1", "file-1.docx")
	require.NoError(t, err)

	clock = clock.Add(10 * time.Minute)
	_, err = signer.Verify(token)
	require.NoError(t, err)

	clock = clock.Add(time.Second)
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("file-1", "file-1.pdf")
	require.NoError(t, err)

	_, err = NewSignedURLSigner("other-secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Verify("file-2" + strings.TrimPrefix(token, "file-1"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	for _, bogus := range []string{"", "nodots", "a.b.c.!!!"} {
		_, err = signer.Verify(bogus)
		assert.ErrorIs(t, err, ErrInvalidToken, bogus)
	}
}

func TestSignedURLSignerSignValidation(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	_, _, err := signer.Sign("file.1", "file.pdf")
	assert.Error(t, err)
	_, _, err = signer.Sign("", "file.pdf")
	assert.Error(t, err)
	_, _, err = NewSignedURLSigner("", time.Hour).Sign("file-1", "file-1.pdf")
	assert.Error(t, err)
}
