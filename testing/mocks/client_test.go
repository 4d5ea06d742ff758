package mocks

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gaborage/branch-remote/httpclient"
	"github.com/gaborage/branch-remote/testing/fixtures"
)

const testURL = "https://api.branch.io/v1/url"

func TestMockClientScriptedEnvelopes(t *testing.T) {
	client := &MockClient{}
	client.ExpectPost(testURL, fixtures.ObjectEnvelope("create", map[string]any{"url": "https://bnc.lt/x"})).Once()
	client.ExpectGet(testURL, fixtures.NoConnectivityEnvelope("read")).Once()

	post := client.Post(context.Background(), &httpclient.Request{URL: testURL})
	get := client.Get(context.Background(), &httpclient.Request{URL: testURL})

	assert.Equal(t, http.StatusOK, post.StatusCode)
	assert.Equal(t, "https://bnc.lt/x", post.Object()["url"])
	assert.Equal(t, httpclient.StatusNoConnectivity, get.StatusCode)
	assert.False(t, get.HasPayload())
	client.AssertExpectations(t)
}

func TestMockClientComputedEnvelope(t *testing.T) {
	client := &MockClient{}
	client.On("Get", mock.Anything, mock.Anything).Return(func(req *httpclient.Request) *httpclient.Envelope {
		return fixtures.StatusEnvelope(req.Tag, http.StatusAccepted)
	})

	env := client.Get(context.Background(), &httpclient.Request{URL: testURL, Tag: "computed"})

	assert.Equal(t, "computed", env.Tag)
	assert.Equal(t, http.StatusAccepted, env.StatusCode)
}

func TestMockClientNilReturn(t *testing.T) {
	client := &MockClient{}
	client.On("Post", mock.Anything, mock.Anything).Return(nil)

	assert.Nil(t, client.Post(context.Background(), &httpclient.Request{}))
}

func TestRequestWithURLRejectsOtherURLs(t *testing.T) {
	client := &MockClient{}
	client.ExpectGet(testURL, fixtures.IOFailureEnvelope("x"))

	assert.Panics(t, func() {
		client.Get(context.Background(), &httpclient.Request{URL: "https://example.com"})
	})
}

func TestFixtureSentinels(t *testing.T) {
	assert.Equal(t, httpclient.StatusNoBranchKey, fixtures.NoBranchKeyEnvelope("t").StatusCode)
	assert.Zero(t, fixtures.NoBranchKeyEnvelope("t").Stats.Attempts)
	assert.Equal(t, httpclient.StatusIOFailure, fixtures.IOFailureEnvelope("t").StatusCode)

	arr := fixtures.ArrayEnvelope("t", []any{"a"})
	assert.Equal(t, httpclient.PayloadArray, arr.PayloadKind())
}
