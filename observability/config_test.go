package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceName = "branchctl"

func TestConfigValidateNilConfig(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrNilConfig)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "disabled config is always valid",
			cfg:  Config{Enabled: false, Trace: TraceConfig{Protocol: "carrier-pigeon", Endpoint: "x"}},
		},
		{
			name:    "missing service name",
			cfg:     Config{Enabled: true},
			wantErr: ErrMissingServiceName,
		},
		{
			name: "stdout endpoint",
			cfg:  Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}, Trace: TraceConfig{Endpoint: EndpointStdout}},
		},
		{
			name:    "sample rate above one",
			cfg:     Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}, Trace: TraceConfig{SampleRate: Float64Ptr(1.5)}},
			wantErr: ErrInvalidSampleRate,
		},
		{
			name:    "negative sample rate",
			cfg:     Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}, Trace: TraceConfig{SampleRate: Float64Ptr(-0.1)}},
			wantErr: ErrInvalidSampleRate,
		},
		{
			name: "zero sample rate is allowed",
			cfg:  Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}, Trace: TraceConfig{SampleRate: Float64Ptr(0)}},
		},
		{
			name:    "unknown protocol",
			cfg:     Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}, Trace: TraceConfig{Endpoint: "localhost:4317", Protocol: "udp"}},
			wantErr: ErrInvalidProtocol,
		},
		{
			name:    "unknown compression",
			cfg:     Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}, Trace: TraceConfig{Compression: "zstd"}},
			wantErr: ErrInvalidCompression,
		},
		{
			name: "metrics compression checked only when enabled",
			cfg: Config{Enabled: true, Service: ServiceConfig{Name: testServiceName},
				Metrics: MetricsConfig{Enabled: BoolPtr(false), Compression: "zstd"}},
		},
		{
			name: "metrics compression rejected when enabled",
			cfg: Config{Enabled: true, Service: ServiceConfig{Name: testServiceName},
				Metrics: MetricsConfig{Enabled: BoolPtr(true), Compression: "zstd"}},
			wantErr: ErrInvalidCompression,
		},
		{
			name: "metrics inherit trace protocol",
			cfg: Config{Enabled: true, Service: ServiceConfig{Name: testServiceName},
				Trace:   TraceConfig{Protocol: ProtocolGRPC},
				Metrics: MetricsConfig{Enabled: BoolPtr(true), Endpoint: "http://collector:4318"}},
			wantErr: ErrInvalidEndpointFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateEndpointFormat(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		protocol string
		wantErr  bool
	}{
		{"stdout skips checks", EndpointStdout, ProtocolGRPC, false},
		{"empty skips checks", "", ProtocolHTTP, false},
		{"http with scheme", "http://localhost:4318", ProtocolHTTP, false},
		{"https with scheme", "https://otlp.example.com", ProtocolHTTP, false},
		{"http without scheme", "localhost:4318", ProtocolHTTP, true},
		{"grpc host port", "localhost:4317", ProtocolGRPC, false},
		{"grpc with scheme", "http://localhost:4317", ProtocolGRPC, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEndpointFormat(tt.endpoint, tt.protocol)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEndpointFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{Enabled: true, Service: ServiceConfig{Name: testServiceName}}
	cfg.ApplyDefaults()

	assert.Equal(t, "unknown", cfg.Service.Version)
	assert.Equal(t, EnvironmentDevelopment, cfg.Environment)

	require.NotNil(t, cfg.Trace.Enabled)
	assert.True(t, *cfg.Trace.Enabled)
	assert.Equal(t, EndpointStdout, cfg.Trace.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Trace.Protocol)
	assert.True(t, cfg.Trace.Insecure)
	assert.Equal(t, CompressionGzip, cfg.Trace.Compression)
	require.NotNil(t, cfg.Trace.SampleRate)
	assert.InDelta(t, 1.0, *cfg.Trace.SampleRate, 0.0001)
	assert.Equal(t, 500*time.Millisecond, cfg.Trace.BatchTimeout)
	assert.Equal(t, 10*time.Second, cfg.Trace.ExportTimeout)
	assert.Equal(t, 2048, cfg.Trace.MaxQueueSize)
	assert.Equal(t, 512, cfg.Trace.MaxBatchSize)

	require.NotNil(t, cfg.Metrics.Enabled)
	assert.True(t, *cfg.Metrics.Enabled)
	assert.Equal(t, EndpointStdout, cfg.Metrics.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Metrics.Protocol)
	assert.Equal(t, 10*time.Second, cfg.Metrics.Interval)
	assert.Equal(t, 10*time.Second, cfg.Metrics.ExportTimeout)
}

func TestConfigApplyDefaultsProduction(t *testing.T) {
	cfg := Config{
		Enabled:     true,
		Service:     ServiceConfig{Name: testServiceName},
		Environment: "production",
		Trace:       TraceConfig{Endpoint: "localhost:4317", Protocol: ProtocolGRPC},
		Metrics:     MetricsConfig{Endpoint: "localhost:4317"},
	}
	cfg.ApplyDefaults()

	assert.False(t, cfg.Trace.Insecure)
	assert.Equal(t, 5*time.Second, cfg.Trace.BatchTimeout)
	assert.Equal(t, 60*time.Second, cfg.Trace.ExportTimeout)
	assert.Equal(t, ProtocolGRPC, cfg.Metrics.Protocol)
	assert.Equal(t, 60*time.Second, cfg.Metrics.ExportTimeout)
	require.NotNil(t, cfg.Metrics.Insecure)
	assert.False(t, *cfg.Metrics.Insecure)
}

func TestConfigApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Enabled: true,
		Service: ServiceConfig{Name: testServiceName, Version: "2.0.0"},
		Trace: TraceConfig{
			Enabled:      BoolPtr(false),
			SampleRate:   Float64Ptr(0),
			BatchTimeout: 3 * time.Second,
			Compression:  CompressionNone,
		},
		Metrics: MetricsConfig{Enabled: BoolPtr(false), Interval: time.Minute},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "2.0.0", cfg.Service.Version)
	assert.False(t, *cfg.Trace.Enabled)
	assert.Zero(t, *cfg.Trace.SampleRate)
	assert.Equal(t, 3*time.Second, cfg.Trace.BatchTimeout)
	assert.Equal(t, CompressionNone, cfg.Trace.Compression)
	assert.False(t, *cfg.Metrics.Enabled)
	assert.Equal(t, time.Minute, cfg.Metrics.Interval)
}

func TestConfigApplyDefaultsDisabledLeavesSignalsUnset(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Nil(t, cfg.Trace.Enabled)
	assert.Nil(t, cfg.Metrics.Enabled)
}

func TestMetricsHeadersInheritTraceHeadersWithoutAliasing(t *testing.T) {
	cfg := Config{
		Enabled: true,
		Service: ServiceConfig{Name: testServiceName},
		Trace:   TraceConfig{Headers: map[string]string{"api-key": "abc"}},
	}
	cfg.ApplyDefaults()

	require.Equal(t, map[string]string{"api-key": "abc"}, cfg.Metrics.Headers)
	cfg.Metrics.Headers["api-key"] = "changed"
	assert.Equal(t, "abc", cfg.Trace.Headers["api-key"])
}

func TestCloneHeaderMap(t *testing.T) {
	assert.Nil(t, cloneHeaderMap(nil))

	original := map[string]string{"a": "1"}
	clone := cloneHeaderMap(original)
	clone["a"] = "2"
	assert.Equal(t, "1", original["a"])
}
