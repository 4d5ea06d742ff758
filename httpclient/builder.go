package httpclient

import (
	"crypto/tls"
	"maps"
	"slices"
	"time"

	"github.com/gaborage/branch-remote/logger"
)

// Builder provides a fluent interface for creating REST clients
type Builder struct {
	logger logger.Logger
	config *Config
}

// NewBuilder creates a new REST client builder with the default timeout,
// retry budget and sdk identifier.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		logger: log,
		config: &Config{
			Timeout:            DefaultTimeout,
			MaxRetries:         DefaultMaxRetries,
			RetryDelay:         DefaultRetryDelay,
			SDK:                DefaultSDK,
			Sleep:              time.Sleep,
			DefaultHeaders:     make(map[string]string),
			MaxPayloadLogBytes: DefaultMaxPayloadLogBytes,
		},
	}
}

// WithCredentials sets the branch key and the fallback app key
func (b *Builder) WithCredentials(branchKey, appKey string) *Builder {
	b.config.Credentials = Credentials{BranchKey: branchKey, AppKey: appKey}
	return b
}

// WithTimeout sets the connect and read timeout used when a request sets none
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetry sets how many times a 5xx response is retried and the pause between tries
func (b *Builder) WithRetry(maxRetries int, delay time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = delay
	return b
}

// WithSDK overrides the sdk field sent with every request
func (b *Builder) WithSDK(sdk string) *Builder {
	if sdk != "" {
		b.config.SDK = sdk
	}
	return b
}

// WithSleeper replaces time.Sleep between retries
func (b *Builder) WithSleeper(sleep Sleeper) *Builder {
	if sleep != nil {
		b.config.Sleep = sleep
	}
	return b
}

// WithTLSConfig sets the TLS configuration cloned into every attempt
func (b *Builder) WithTLSConfig(cfg *tls.Config) *Builder {
	b.config.TLSConfig = cfg
	return b
}

// WithDefaultHeader adds a header sent on every request
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds an interceptor run before every attempt
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug logging of bodies, capped at maxBytes
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// Build creates the client. Later changes to the builder do not affect it.
func (b *Builder) Build() Client {
	cfg := *b.config
	cfg.DefaultHeaders = maps.Clone(b.config.DefaultHeaders)
	cfg.RequestInterceptors = slices.Clone(b.config.RequestInterceptors)
	if cfg.TLSConfig != nil {
		cfg.TLSConfig = cfg.TLSConfig.Clone()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.SDK == "" {
		cfg.SDK = DefaultSDK
	}

	log := b.logger
	if log == nil {
		log = logger.NewNop()
	}
	return &client{logger: log, config: &cfg}
}
