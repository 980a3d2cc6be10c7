package mocks

import (
	"context"
	"encoding/json"

	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/stretchr/testify/mock"
)

// MockRequester is a mock implementation of gateway.Requester
type MockRequester struct {
	mock.Mock
}

func (m *MockRequester) Request(ctx context.Context, path, method string, body any, authRequired bool) (*gateway.Response, error) {
	args := m.Called(ctx, path, method, body, authRequired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Response), args.Error(1)
}

// JSON builds a 200 response carrying v encoded as JSON
func JSON(v any) *gateway.Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &gateway.Response{Status: 200, Body: data, JSON: true}
}

// Text builds a 200 plain-text response
func Text(s string) *gateway.Response {
	return &gateway.Response{Status: 200, Body: []byte(s), JSON: json.Valid([]byte(s))}
}
