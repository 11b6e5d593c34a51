package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("lead not found"), http.StatusNotFound},
		{Validation("bad"), http.StatusBadRequest},
		{AlreadyProcessed("sent"), http.StatusConflict},
		{TransportFailure("busy"), http.StatusBadGateway},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Internal("db", errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.HTTPStatus(), tc.err.Error())
	}
}

func TestGetKindFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("send now: %w", AlreadyProcessed("reminder already sent"))

	assert.True(t, Is(err, KindAlreadyProcessed))
	assert.Equal(t, KindUnknown, GetKind(errors.New("plain")))
}

func TestErrorIncludesOp(t *testing.T) {
	err := NotFound("reminder not found").WithOp("SendNow")

	assert.Equal(t, "SendNow: reminder not found", err.Error())
}
