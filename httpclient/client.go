package httpclient

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gaborage/branch-remote/httpclient/internal/tracking"
	"github.com/gaborage/branch-remote/logger"
	"github.com/gaborage/branch-remote/trace"
)

// client implements Client. It holds no mutable state and is safe for
// concurrent use.
type client struct {
	logger logger.Logger
	config *Config
}

var _ Client = (*client)(nil)

// Get sends the mandatory fields and req.Params as an unescaped query string.
func (c *client) Get(ctx context.Context, req *Request) *Envelope {
	return c.run(ctx, nethttp.MethodGet, req)
}

// Post sends req.Params plus the mandatory fields as a JSON body.
func (c *client) Post(ctx context.Context, req *Request) *Envelope {
	return c.run(ctx, nethttp.MethodPost, req)
}

func (c *client) run(ctx context.Context, method string, req *Request) *Envelope {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		req = &Request{}
	}

	// Only the per-call timeout bounds a call.
	ctx = context.WithoutCancel(ctx)
	requestID := trace.EnsureRequestID(ctx)
	ctx = trace.WithRequestID(ctx, requestID)

	cl := &callLog{
		method:    method,
		url:       req.URL,
		tag:       req.Tag,
		requestID: requestID,
		quiet:     req.Quiet,
		start:     time.Now(),
	}
	log := c.logger.WithContext(ctx)

	ctx, span := tracking.StartCall(ctx, method, req.Tag)
	env, outcome := c.attempt(ctx, log, cl, req)
	tracking.RecordOutcome(ctx, method, outcome, env.Stats.ElapsedTime)
	tracking.EndCall(span, env.StatusCode, max(env.Stats.Attempts-1, 0), outcome)
	return env
}

// attempt drives the retry loop. Only responses with status >= 500 are
// retried; transport faults end the call at once.
func (c *client) attempt(ctx context.Context, log logger.Logger, cl *callLog, req *Request) (*Envelope, string) {
	field, value, ok := c.config.Credentials.resolve()
	if !ok {
		return c.fail(log, cl, req, NewCredentialError("no branch key or app key configured"), 0)
	}
	id := identity{field: field, value: value}
	timeout := c.effectiveTimeout(req.Timeout)
	maxRetries := max(c.config.MaxRetries, 0)

	for attempt := 0; ; attempt++ {
		target, params, body, err := c.prepare(cl.method, req, id, attempt)
		if err != nil {
			return c.fail(log, cl, req, NewIOError("encoding request body", err), attempt+1)
		}
		cl.url = target
		c.logRequest(log, cl, attempt, params, body)

		result, err := c.execute(ctx, cl.method, target, body, req, timeout)
		tracking.RecordAttempt(ctx, cl.method, result.status)
		if err != nil {
			return c.fail(log, cl, req, classifyTransportError(err), attempt+1)
		}

		if result.status >= 500 && attempt < maxRetries {
			c.logRetry(log, cl, NewServerError("retrying", result.status), attempt, c.config.RetryDelay)
			c.config.Sleep(c.config.RetryDelay)
			continue
		}

		env := c.finalize(log, cl, req, result, attempt+1)
		return env, tracking.OutcomeForHTTPStatus(env.StatusCode)
	}
}

// prepare assembles the parameters for one attempt and renders the target URL
// and body.
func (c *client) prepare(method string, req *Request, id identity, attempt int) (target string, params *Params, body []byte, err error) {
	if method == nethttp.MethodGet {
		params = c.assembleGet(req.Params, id, attempt)
		return req.URL + EncodeQuery(params), params, nil, nil
	}

	params = c.assemblePost(req.Params, id, attempt)
	body, err = json.Marshal(params)
	if err != nil {
		return "", nil, nil, err
	}
	return req.URL, params, body, nil
}

func (c *client) effectiveTimeout(requested time.Duration) time.Duration {
	switch {
	case requested > 0:
		return requested
	case c.config.Timeout > 0:
		return c.config.Timeout
	default:
		return DefaultTimeout
	}
}

// fail builds the sentinel envelope for a fault. It never carries link data
// or a payload.
func (c *client) fail(log logger.Logger, cl *callLog, req *Request, fault ClientError, attempts int) (*Envelope, string) {
	c.logFault(log, cl, fault)
	env := NewEnvelope(req.Tag, fault.Status())
	cl.stamp(env, attempts)

	switch fault.Type() {
	case ConnectivityError:
		return env, tracking.OutcomeNoConnectivity
	case CredentialError:
		return env, tracking.OutcomeNoCredentials
	default:
		return env, tracking.OutcomeIOError
	}
}

// finalize turns the last observed response into the envelope. Read and parse
// failures keep the HTTP status and leave the payload absent.
func (c *client) finalize(log logger.Logger, cl *callLog, req *Request, result attemptResult, attempts int) *Envelope {
	env := NewEnvelope(req.Tag, result.status)
	env.LinkData = req.LinkData
	if result.status >= 500 {
		c.logFault(log, cl, NewServerError("retries exhausted", result.status))
	}

	switch {
	case result.readErr != nil:
		c.logDiagnostic(log, cl, NewIOError("reading response body", result.readErr))
	case result.truncated:
		c.logTruncated(log, cl)
	case result.hasLine:
		if err := parseFirstLine(env, result.line); err != nil {
			c.logDiagnostic(log, cl, err)
		}
	}

	cl.stamp(env, attempts)
	c.logResponse(log, cl, env, result.line, result.hasLine)
	return env
}
