package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwraps(t *testing.T) {
	err := fmt.Errorf("refresh: %w", NewUnauthorizedError(""))
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNetwork(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindNetwork))
}

func TestClientErrorMessages(t *testing.T) {
	assert.Equal(t, MsgUnauthorized, NewUnauthorizedError("").Error())
	assert.Equal(t, MsgValidation, NewValidationError(400, "", nil).Error())
	assert.Equal(t, "Forbidden", NewRejectedError(http.StatusForbidden, "").Error())
	assert.Equal(t, MsgServer, NewServerError(502).Error())
	assert.Equal(t, KindLocalExpiry, KindOf(NewLocalExpiryError()))

	cause := errors.New("dial tcp: refused")
	err := NewNetworkError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), MsgNetwork)
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	de := ToDomainError(fmt.Errorf("wrapped: %w", NewForbidden("nope")))
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	assert.Equal(t, "FORBIDDEN", de.Code)

	de = ToDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.Equal(t, "widget not found", NewNotFound("widget").Error())
}
