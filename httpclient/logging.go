package httpclient

import (
	"encoding/json"
	"time"

	"github.com/gaborage/branch-remote/logger"
)

// callLog carries the fields shared by every log line of one call.
type callLog struct {
	method    string
	url       string
	tag       string
	requestID string
	quiet     bool
	start     time.Time
}

func (cl *callLog) stamp(env *Envelope, attempts int) {
	env.Stats = Stats{ElapsedTime: time.Since(cl.start), Attempts: attempts}
}

func (c *client) payloadLimit() int {
	if c.config.MaxPayloadLogBytes > 0 {
		return c.config.MaxPayloadLogBytes
	}
	return DefaultMaxPayloadLogBytes
}

func (c *client) payloadLoggingEnabled(cl *callLog) bool {
	return c.config.LogPayloads && !cl.quiet
}

func (c *client) truncate(body []byte) (preview []byte, truncated bool) {
	limit := c.payloadLimit()
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// logRequest logs one attempt. The debug preview is built from a redacted copy
// of params, never from the bytes on the wire.
func (c *client) logRequest(log logger.Logger, cl *callLog, attempt int, params *Params, body []byte) {
	event := log.Info().
		Str("direction", "outbound").
		Str("method", cl.method).
		Str("url", sanitizeURL(cl.url)).
		Str("request_id", cl.requestID).
		Int("retry_number", attempt)
	if cl.tag != "" {
		event = event.Str("tag", cl.tag)
	}
	if len(body) > 0 {
		event = event.Int("body_size", len(body))
	}
	event.Msg("branch request")

	if !c.payloadLoggingEnabled(cl) || len(body) == 0 {
		return
	}
	safe, err := json.Marshal(sanitizeParams(params))
	if err != nil {
		return
	}
	preview, truncated := c.truncate(safe)
	log.Debug().
		Str("direction", "outbound").
		Str("method", cl.method).
		Str("request_id", cl.requestID).
		Int("body_size", len(body)).
		Str("body_truncated", boolString(truncated)).
		Bytes("body_preview", preview).
		Msg("branch request")
}

func (c *client) logResponse(log logger.Logger, cl *callLog, env *Envelope, line string, hasLine bool) {
	log.Info().
		Str("direction", "inbound").
		Str("method", cl.method).
		Str("url", sanitizeURL(cl.url)).
		Str("request_id", cl.requestID).
		Int("status", env.StatusCode).
		Dur("elapsed", env.Stats.ElapsedTime).
		Int("attempts", env.Stats.Attempts).
		Str("payload", env.PayloadKind().String()).
		Msg("branch response")

	if !c.payloadLoggingEnabled(cl) || !hasLine {
		return
	}
	preview, truncated := c.truncate([]byte(line))
	log.Debug().
		Str("direction", "inbound").
		Str("request_id", cl.requestID).
		Int("body_size", len(line)).
		Str("body_truncated", boolString(truncated)).
		Bytes("body_preview", preview).
		Msg("branch response")
}

func (c *client) logRetry(log logger.Logger, cl *callLog, fault ClientError, attempt int, delay time.Duration) {
	log.Warn().
		Err(fault).
		Str("method", cl.method).
		Str("request_id", cl.requestID).
		Str("error_type", string(fault.Type())).
		Int("status", fault.Status()).
		Int("retry_number", attempt+1).
		Dur("delay", delay).
		Msg("branch server error, retrying")
}

func (c *client) logFault(log logger.Logger, cl *callLog, fault ClientError) {
	log.Warn().
		Err(fault).
		Str("method", cl.method).
		Str("url", sanitizeURL(cl.url)).
		Str("request_id", cl.requestID).
		Str("error_type", string(fault.Type())).
		Int("status", fault.Status()).
		Msg("branch request failed")
}

// logTruncated reports a first line cut at maxLineBytes. No payload is parsed
// from it.
func (c *client) logTruncated(log logger.Logger, cl *callLog) {
	log.Warn().
		Str("method", cl.method).
		Str("url", sanitizeURL(cl.url)).
		Str("request_id", cl.requestID).
		Int("limit_bytes", maxLineBytes).
		Msg("branch response line truncated")
}

// logDiagnostic reports body read and parse problems. These never change the
// envelope status, so they stay at debug and honour Quiet.
func (c *client) logDiagnostic(log logger.Logger, cl *callLog, err error) {
	if cl.quiet {
		return
	}
	log.Debug().
		Err(err).
		Str("request_id", cl.requestID).
		Msg("branch response diagnostic")
}
