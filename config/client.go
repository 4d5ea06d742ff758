package config

import (
	"io"
	"strings"

	"github.com/gaborage/branch-remote/httpclient"
	"github.com/gaborage/branch-remote/logger"
)

// Credentials returns the configured Branch keys.
func (c *Config) Credentials() httpclient.Credentials {
	return httpclient.Credentials{
		BranchKey: strings.TrimSpace(c.Branch.Key),
		AppKey:    strings.TrimSpace(c.Branch.AppKey),
	}
}

// RequireCredentials reports a not-configured error when neither key is set.
// Calls still run without credentials and come back with the no-key status.
func (c *Config) RequireCredentials() error {
	if c.Credentials().IsSet() {
		return nil
	}
	return NewNotConfiguredError(KeyBranchKey, EnvVar(KeyBranchKey), KeyBranchKey)
}

// ClientConfig returns the REST client settings derived from the remote section.
func (c *Config) ClientConfig() httpclient.Config {
	sdk := c.Remote.SDK
	if sdk == "" {
		sdk = httpclient.DefaultSDK
	}
	maxBytes := c.Remote.MaxPayloadLogBytes
	if maxBytes <= 0 {
		maxBytes = httpclient.DefaultMaxPayloadLogBytes
	}
	return httpclient.Config{
		Credentials:        c.Credentials(),
		Timeout:            c.Remote.Timeout,
		MaxRetries:         c.Remote.Retry.Count,
		RetryDelay:         c.Remote.Retry.Interval,
		SDK:                sdk,
		LogPayloads:        c.Remote.LogPayloads,
		MaxPayloadLogBytes: maxBytes,
		DefaultHeaders:     map[string]string{},
	}
}

// ClientBuilder returns a builder preloaded from the configuration.
func (c *Config) ClientBuilder(log logger.Logger) *httpclient.Builder {
	cc := c.ClientConfig()
	return httpclient.NewBuilder(log).
		WithCredentials(cc.Credentials.BranchKey, cc.Credentials.AppKey).
		WithTimeout(cc.Timeout).
		WithRetry(cc.MaxRetries, cc.RetryDelay).
		WithSDK(cc.SDK).
		WithPayloadLogging(cc.LogPayloads, cc.MaxPayloadLogBytes)
}

// NewLogger builds the zerolog logger described by the log section, writing to w.
func (c *Config) NewLogger(w io.Writer) *logger.ZeroLogger {
	return logger.NewWithWriter(w, c.Log.Level, c.Log.Pretty, nil)
}

// Masked returns every flattened key with credentials replaced by the log mask.
// It is empty for a Config that was not built by Load.
func (c *Config) Masked() map[string]any {
	out := make(map[string]any)
	if c == nil || c.k == nil {
		return out
	}
	filter := logger.NewSensitiveDataFilter(nil)
	for key, value := range c.k.All() {
		out[key] = filter.FilterValue(strings.ReplaceAll(key, ".", "_"), value)
	}
	return out
}
