// Package httpclient is a synchronous REST client for the Branch API.
//
// Every call blocks until the request completes, the per-call timeout expires
// or the retry budget is spent, and it always returns an *Envelope. Faults are
// folded into sentinel status codes instead of being returned as errors, so
// callers branch on Envelope.StatusCode alone. Do not call it from a goroutine
// that must stay responsive.
//
// The timeout bounds connecting, waiting for response headers and each gap
// between body reads; a slow but steady body is not cut off. Only the first
// body line is read, up to 4 MiB. A longer line is dropped with a warning and
// the envelope keeps the HTTP status without a payload. JSON numbers in
// payloads and decoded Params are json.Number values.
package httpclient

import (
	"context"
	"crypto/tls"
	nethttp "net/http"
	"time"

	"github.com/gaborage/branch-remote/linkdata"
	"github.com/gaborage/branch-remote/trace"
)

const (
	// StatusNoConnectivity reports a failure to reach the API host
	StatusNoConnectivity = -1009
	// StatusNoBranchKey reports that neither a branch key nor an app key is configured
	StatusNoBranchKey = -1234
	// StatusIOFailure reports any other transport failure
	StatusIOFailure = 500

	// DefaultTimeout applies when neither the request nor the client sets one
	DefaultTimeout = 3000 * time.Millisecond
	// DefaultMaxRetries is the retry budget used by NewBuilder
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the pause between retries used by NewBuilder
	DefaultRetryDelay = time.Second
	// DefaultMaxPayloadLogBytes caps logged payloads
	DefaultMaxPayloadLogBytes = 1024

	// SDKVersion is reported in the sdk field of every request
	SDKVersion = "1.10.1"
	// DefaultSDK is the default value of the sdk field
	DefaultSDK = "android" + SDKVersion

	// Mandatory field names
	FieldSDK         = "sdk"
	FieldRetryNumber = "retryNumber"
	FieldBranchKey   = "branch_key"
	FieldAppID       = "app_id"

	// HeaderXRequestID is the header name used for request ID propagation
	HeaderXRequestID = trace.HeaderXRequestID
)

// Client issues Branch API calls. Implementations never return nil.
type Client interface {
	Get(ctx context.Context, req *Request) *Envelope
	Post(ctx context.Context, req *Request) *Envelope
}

// Request describes one logical call. URL is the full endpoint; for GET the
// encoded query string is appended to it.
type Request struct {
	URL    string
	Params *Params
	// Tag is copied to the envelope so callers can route the result
	Tag string
	// Timeout overrides the client timeout when positive
	Timeout time.Duration
	// LinkData is handed back on the envelope untouched
	LinkData *linkdata.LinkData
	Headers  map[string]string
	// Quiet suppresses debug logging of payloads and diagnostics
	Quiet bool
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
}

// Credentials holds the two supported identification keys.
type Credentials struct {
	BranchKey string
	AppKey    string
}

// Sleeper blocks between retries. Tests substitute a recording fake.
type Sleeper func(d time.Duration)

// RequestInterceptor is called on every attempt before it is sent
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// Config holds the REST client configuration
type Config struct {
	Credentials Credentials
	Timeout     time.Duration
	// MaxRetries is the number of retries after the first attempt; negative means zero
	MaxRetries          int
	RetryDelay          time.Duration
	SDK                 string
	Sleep               Sleeper
	TLSConfig           *tls.Config
	DefaultHeaders      map[string]string
	RequestInterceptors []RequestInterceptor
	// LogPayloads enables debug-level logging of posted bodies and returned lines
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
}

// NewRequestIDInterceptor sets X-Request-ID from the context, generating one
// when the context has none. An existing header is left alone.
func NewRequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(HeaderXRequestID) == "" {
			req.Header.Set(HeaderXRequestID, trace.EnsureRequestID(ctx))
		}
		return nil
	}
}

// NewTraceParentInterceptor propagates a W3C traceparent from the context.
func NewTraceParentInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(trace.HeaderTraceParent) != "" {
			return nil
		}
		if tp, ok := trace.TraceParentFromContext(ctx); ok {
			req.Header.Set(trace.HeaderTraceParent, tp)
		}
		return nil
	}
}
