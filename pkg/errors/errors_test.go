package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrForbidden, "nope"))
	appErr := FromError(wrapped)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "nope", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("db down"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.EqualError(t, appErr, "internal server error: db down")
}

func TestClonesMatchSentinelByCode(t *testing.T) {
	err := Clone(ErrNotFound, "file not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestWithDetailsCopies(t *testing.T) {
	err := WithDetails(ErrValidation, map[string]string{"role": "role is a required field"})
	assert.Equal(t, "role is a required field", err.Details["role"])
	assert.Nil(t, ErrValidation.Details)
}

func TestKeyedErrorsShareCodes(t *testing.T) {
	assert.True(t, errors.Is(ErrTeacherOnly, ErrForbidden))
	assert.Equal(t, http.StatusConflict, ErrEmailTaken.Status)
	assert.Equal(t, "error.notEnrolled", ErrNotEnrolled.Key)
}

func TestCloneDropsKeyOnNewMessage(t *testing.T) {
	same := Clone(ErrNoFile, "")
	assert.Equal(t, "error.noFileProvided", same.Key)

	changed := Clone(ErrNoFile, "attach a PDF")
	assert.Empty(t, changed.Key)
	assert.Equal(t, "error.noFileProvided", ErrNoFile.Key)
}

func TestCausedKeepsMessage(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := Caused(ErrBadDownloadLink, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrBadDownloadLink.Message, err.Message)
	assert.Nil(t, ErrBadDownloadLink.Err)
}
