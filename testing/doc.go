// Package testing provides testing utilities for code built on branch-remote.
//
// # Mocks
//
// The mocks subpackage provides a testify-based MockClient implementing
// httpclient.Client, so callers can script envelopes without a server.
//
// # Fixtures
//
// The fixtures subpackage builds the envelopes the client returns: success
// payloads and the sentinel statuses for missing connectivity, missing
// credentials and I/O failures.
//
// # Usage
//
//	import (
//		"github.com/gaborage/branch-remote/testing/fixtures"
//		"github.com/gaborage/branch-remote/testing/mocks"
//	)
//
//	client := &mocks.MockClient{}
//	client.ExpectPost("https://api.branch.io/v1/url", fixtures.ObjectEnvelope("create-url", map[string]any{"url": "https://bnc.lt/x"}))
package testing
