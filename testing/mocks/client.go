package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/branch-remote/httpclient"
)

// MockClient provides a testify-based mock implementation of httpclient.Client.
//
// Example usage:
//
//	client := &mocks.MockClient{}
//	client.On("Get", mock.Anything, mock.Anything).Return(fixtures.ObjectEnvelope("open", payload))
//	client.ExpectPost("https://api.branch.io/v1/url", fixtures.NoConnectivityEnvelope("create"))
type MockClient struct {
	mock.Mock
}

var _ httpclient.Client = (*MockClient)(nil)

// Get implements httpclient.Client
func (m *MockClient) Get(ctx context.Context, req *httpclient.Request) *httpclient.Envelope {
	return envelopeFor(m.Called(ctx, req), req)
}

// Post implements httpclient.Client
func (m *MockClient) Post(ctx context.Context, req *httpclient.Request) *httpclient.Envelope {
	return envelopeFor(m.Called(ctx, req), req)
}

// ExpectGet scripts a GET whose request URL equals url.
func (m *MockClient) ExpectGet(url string, env *httpclient.Envelope) *mock.Call {
	return m.On("Get", mock.Anything, RequestWithURL(url)).Return(env)
}

// ExpectPost scripts a POST whose request URL equals url.
func (m *MockClient) ExpectPost(url string, env *httpclient.Envelope) *mock.Call {
	return m.On("Post", mock.Anything, RequestWithURL(url)).Return(env)
}

// RequestWithURL matches a *httpclient.Request by URL.
func RequestWithURL(url string) any {
	return mock.MatchedBy(func(req *httpclient.Request) bool {
		return req != nil && req.URL == url
	})
}

// envelopeFor accepts either a fixed envelope or a func building one from the request.
func envelopeFor(args mock.Arguments, req *httpclient.Request) *httpclient.Envelope {
	switch v := args.Get(0).(type) {
	case *httpclient.Envelope:
		return v
	case func(*httpclient.Request) *httpclient.Envelope:
		return v(req)
	default:
		return nil
	}
}
