package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := New(KindSessionExpired, "flights.create", "token expired at %d", 10)
	wrapped := fmt.Errorf("create flight: %w", err)

	assert.True(t, errors.Is(wrapped, ErrSessionExpired))
	assert.False(t, errors.Is(wrapped, ErrInvalidToken))
	assert.Equal(t, KindSessionExpired, KindOf(wrapped))
	assert.True(t, IsAuth(wrapped))
}

func TestHTTP(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{name: "not found", status: 404, body: "Flight not found", kind: KindNotFound, message: "Flight not found"},
		{name: "server error", status: 500, body: "boom", kind: KindNetwork, message: "boom"},
		{name: "empty body", status: 502, body: "", kind: KindNetwork, message: "API request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HTTP("GET /flights", tt.status, tt.body)
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.message, Message(err))
			assert.Equal(t, "GET /flights: "+tt.message, err.Error())
		})
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsAuth(nil))
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
