package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndVerify(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("file-1", "uploads/1700-notes.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	path, err := signer.Verify("file-1", token)
	require.NoError(t, err)
	require.Equal(t, "uploads/1700-notes.pdf", path)
}

func TestSignedURLSignerBoundToFile(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("file-1", "uploads/a.pdf")
	require.NoError(t, err)

	_, err = signer.Verify("file-2", token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSignedURLSigner("other", time.Hour).Verify("file-1", token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Verify("file-1", "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Now()
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("file-1", "uploads/a.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Verify("file-1", token)
	require.ErrorIs(t, err, ErrTokenExpired)
}
