package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	nethttp "net/http"
	"time"
)

const contentTypeJSON = "application/json"

// attemptResult is what a single round trip observed. readErr is set when the
// status arrived but the body could not be read.
type attemptResult struct {
	status    int
	line      string
	hasLine   bool
	truncated bool
	readErr   error
}

// newTransport builds a single-use transport. Connections are never reused.
func (c *client) newTransport(timeout time.Duration) *nethttp.Transport {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.config.TLSConfig != nil {
		tlsConfig = c.config.TLSConfig.Clone()
	}
	return &nethttp.Transport{
		Proxy:                 nethttp.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		DisableKeepAlives:     true,
	}
}

// execute performs one attempt. A non-nil error means no HTTP status was
// received and is always a ClientError.
func (c *client) execute(ctx context.Context, method, target string, body []byte, req *Request, timeout time.Duration) (attemptResult, error) {
	var reader io.Reader = nethttp.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return attemptResult{}, NewIOError("invalid request", err)
	}

	for k, v := range c.config.DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
		httpReq.Header.Set("Accept", contentTypeJSON)
	}
	for _, interceptor := range c.config.RequestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return attemptResult{}, NewIOError("request interceptor failed", err)
		}
	}

	transport := c.newTransport(timeout)
	defer transport.CloseIdleConnections()
	httpClient := &nethttp.Client{Transport: transport}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return attemptResult{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	// Closing the body unblocks a read that has seen no data for timeout.
	timer := time.AfterFunc(timeout, func() { _ = resp.Body.Close() })
	defer timer.Stop()
	lr := &idleTimeoutReader{r: resp.Body, timer: timer, timeout: timeout}

	result := attemptResult{status: resp.StatusCode}
	result.line, result.hasLine, result.truncated, result.readErr = readFirstLine(lr)
	return result, nil
}

// idleTimeoutReader re-arms timer every time a read returns data, so the
// timeout bounds the gap between chunks rather than the whole body.
type idleTimeoutReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}
