package observability

import (
	"maps"
	"strings"
	"time"
)

const (
	// EndpointStdout writes telemetry to the provider's writer instead of a collector.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	CompressionGzip = "gzip"
	CompressionNone = "none"

	// EnvironmentDevelopment is the default deployment environment.
	EnvironmentDevelopment = "development"
)

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

func cloneHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	clone := make(map[string]string, len(headers))
	maps.Copy(clone, headers)
	return clone
}

// Config controls trace and metric export for Branch API calls.
type Config struct {
	// Enabled turns every exporter on or off. When false the provider is a no-op.
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`

	Service     ServiceConfig `koanf:"service" json:"service" yaml:"service"`
	Environment string        `koanf:"environment" json:"environment" yaml:"environment"`

	Trace   TraceConfig   `koanf:"trace" json:"trace" yaml:"trace"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// ServiceConfig identifies the process in exported telemetry.
type ServiceConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
}

// TraceConfig defines span export.
type TraceConfig struct {
	// Enabled is nil when unset and defaults to true while observability is enabled.
	Enabled *bool `koanf:"enabled" json:"enabled" yaml:"enabled"`

	// Endpoint is "stdout" or an OTLP collector address. HTTP endpoints carry
	// a scheme; gRPC endpoints are host:port.
	Endpoint    string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol    string            `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure    bool              `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Headers     map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
	Compression string            `koanf:"compression" json:"compression" yaml:"compression"`

	// SampleRate is the fraction of calls traced, in [0, 1].
	SampleRate *float64 `koanf:"samplerate" json:"sample_rate" yaml:"samplerate"`

	BatchTimeout  time.Duration `koanf:"batchtimeout" json:"batch_timeout" yaml:"batchtimeout"`
	ExportTimeout time.Duration `koanf:"exporttimeout" json:"export_timeout" yaml:"exporttimeout"`
	MaxQueueSize  int           `koanf:"maxqueuesize" json:"max_queue_size" yaml:"maxqueuesize"`
	MaxBatchSize  int           `koanf:"maxbatchsize" json:"max_batch_size" yaml:"maxbatchsize"`
}

// MetricsConfig defines metric export. Protocol, Insecure and Headers fall back
// to the trace settings when unset.
type MetricsConfig struct {
	Enabled       *bool             `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint      string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	Protocol      string            `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure      *bool             `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Headers       map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
	Compression   string            `koanf:"compression" json:"compression" yaml:"compression"`
	Interval      time.Duration     `koanf:"interval" json:"interval" yaml:"interval"`
	ExportTimeout time.Duration     `koanf:"exporttimeout" json:"export_timeout" yaml:"exporttimeout"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	c.applyTraceDefaults()
	c.applyMetricsDefaults()
}

func (c *Config) development() bool {
	return c.Environment == EnvironmentDevelopment
}

func (c *Config) applyTraceDefaults() {
	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	if c.Enabled && c.Trace.Enabled == nil {
		c.Trace.Enabled = BoolPtr(true)
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Trace.Endpoint == EndpointStdout {
		c.Trace.Insecure = true
	}
	if c.Trace.Compression == "" {
		c.Trace.Compression = CompressionGzip
	}
	if c.Trace.SampleRate == nil {
		c.Trace.SampleRate = Float64Ptr(1.0)
	}

	fast := c.development() || c.Trace.Endpoint == EndpointStdout
	if c.Trace.BatchTimeout == 0 {
		c.Trace.BatchTimeout = 5 * time.Second
		if fast {
			c.Trace.BatchTimeout = 500 * time.Millisecond
		}
	}
	if c.Trace.ExportTimeout == 0 {
		c.Trace.ExportTimeout = 60 * time.Second
		if fast {
			c.Trace.ExportTimeout = 10 * time.Second
		}
	}
	if c.Trace.MaxQueueSize == 0 {
		c.Trace.MaxQueueSize = 2048
	}
	if c.Trace.MaxBatchSize == 0 {
		c.Trace.MaxBatchSize = 512
	}
}

func (c *Config) applyMetricsDefaults() {
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = EndpointStdout
	}
	if c.Enabled && c.Metrics.Enabled == nil {
		c.Metrics.Enabled = BoolPtr(true)
	}
	if c.Metrics.Protocol == "" {
		c.Metrics.Protocol = c.Trace.Protocol
	}
	if c.Metrics.Insecure == nil {
		c.Metrics.Insecure = BoolPtr(c.Trace.Insecure)
	}
	if len(c.Metrics.Headers) == 0 {
		c.Metrics.Headers = cloneHeaderMap(c.Trace.Headers)
	}
	if c.Metrics.Compression == "" {
		c.Metrics.Compression = CompressionGzip
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 10 * time.Second
	}
	if c.Metrics.ExportTimeout == 0 {
		c.Metrics.ExportTimeout = 60 * time.Second
		if c.development() || c.Metrics.Endpoint == EndpointStdout {
			c.Metrics.ExportTimeout = 10 * time.Second
		}
	}
}

// Validate checks an enabled configuration. A disabled one is always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}
	if err := c.validateTraceConfig(); err != nil {
		return err
	}
	return c.validateMetricsConfig()
}

// validateEndpointFormat requires a scheme for HTTP and forbids one for gRPC.
func validateEndpointFormat(endpoint, protocol string) error {
	if endpoint == EndpointStdout || endpoint == "" {
		return nil
	}

	hasScheme := strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
	if protocol == ProtocolGRPC && hasScheme {
		return ErrInvalidEndpointFormat
	}
	if protocol == ProtocolHTTP && !hasScheme {
		return ErrInvalidEndpointFormat
	}
	return nil
}

func validateCompression(compression string) error {
	if compression == "" || compression == CompressionGzip || compression == CompressionNone {
		return nil
	}
	return ErrInvalidCompression
}

func validateProtocol(endpoint, protocol string) error {
	if endpoint == EndpointStdout || endpoint == "" {
		return nil
	}
	if protocol == "" {
		protocol = ProtocolHTTP
	}
	if protocol != ProtocolHTTP && protocol != ProtocolGRPC {
		return ErrInvalidProtocol
	}
	return validateEndpointFormat(endpoint, protocol)
}

func (c *Config) validateTraceConfig() error {
	if c.Trace.SampleRate != nil {
		if rate := *c.Trace.SampleRate; rate < 0.0 || rate > 1.0 {
			return ErrInvalidSampleRate
		}
	}
	if err := validateCompression(c.Trace.Compression); err != nil {
		return err
	}
	return validateProtocol(c.Trace.Endpoint, c.Trace.Protocol)
}

func (c *Config) validateMetricsConfig() error {
	if c.Metrics.Enabled == nil || !*c.Metrics.Enabled {
		return nil
	}
	if err := validateCompression(c.Metrics.Compression); err != nil {
		return err
	}
	protocol := c.Metrics.Protocol
	if protocol == "" {
		protocol = c.Trace.Protocol
	}
	return validateProtocol(c.Metrics.Endpoint, protocol)
}
