package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesByCode(t *testing.T) {
	err := Clone(ErrNotFound, "achievement not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "achievement not found", err.Error())
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestInternalKeepsCause(t *testing.T) {
	err := Internal(sql.ErrConnDone, "failed to list achievements")
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "failed to list achievements")
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := Invalid(nil, "year must be an integer")
	assert.Same(t, typed, FromError(typed))

	generic := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, generic.Code)
	assert.Equal(t, http.StatusInternalServerError, generic.Status)
	assert.Equal(t, ErrInternal.Message, generic.Message)
}
