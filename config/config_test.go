package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	appName    = "branchctl"
	appVersion = "v1.0.0"
	testKey    = "key_live_abc123"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithoutEnv())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, appName, cfg.App.Name)
	assert.Equal(t, appVersion, cfg.App.Version)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)

	assert.Empty(t, cfg.Branch.Key)
	assert.Empty(t, cfg.Branch.AppKey)

	assert.Equal(t, "https://api.branch.io/", cfg.Remote.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 3, cfg.Remote.Retry.Count)
	assert.Equal(t, time.Second, cfg.Remote.Retry.Interval)
	assert.Empty(t, cfg.Remote.SDK)
	assert.False(t, cfg.Remote.LogPayloads)
	assert.Equal(t, 1024, cfg.Remote.MaxPayloadLogBytes)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)

	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, appName, cfg.Observability.Service.Name)
	assert.Equal(t, appVersion, cfg.Observability.Service.Version)
	assert.Equal(t, EnvDevelopment, cfg.Observability.Environment)
}

func TestLoadInlineOverridesDefaults(t *testing.T) {
	inline := []byte(`
branch:
  key: key_live_inline
remote:
  timeout: 750ms
  retry:
    count: 1
    interval: 10ms
  sdk: go1.0.0
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(WithoutEnv(), WithInline(inline))
	require.NoError(t, err)

	assert.Equal(t, "key_live_inline", cfg.Branch.Key)
	assert.Equal(t, 750*time.Millisecond, cfg.Remote.Timeout)
	assert.Equal(t, 1, cfg.Remote.Retry.Count)
	assert.Equal(t, 10*time.Millisecond, cfg.Remote.Retry.Interval)
	assert.Equal(t, "go1.0.0", cfg.Remote.SDK)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "https://api.branch.io/", cfg.Remote.BaseURL, "untouched keys keep defaults")
}

func TestLoadLaterInlineWins(t *testing.T) {
	cfg, err := Load(WithoutEnv(),
		WithInline([]byte("log:\n  level: debug\n")),
		WithInline([]byte("log:\n  level: warn\n")),
	)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadInvalidInline(t *testing.T) {
	_, err := Load(WithoutEnv(), WithInline([]byte("remote: [unclosed")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse inline config")
}

func TestLoadFileWithEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "branch.yaml", `
app:
  env: staging
branch:
  appkey: app_123
remote:
  retry:
    count: 2
`)
	writeFile(t, dir, "config.staging.yaml", `
remote:
  retry:
    count: 4
`)

	cfg, err := Load(WithoutEnv(), WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.App.Env)
	assert.Equal(t, "app_123", cfg.Branch.AppKey)
	assert.Equal(t, 4, cfg.Remote.Retry.Count)
	assert.Equal(t, EnvStaging, cfg.Observability.Environment)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	_, err := Load(WithoutEnv(), WithFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadEnvironmentVariables(t *testing.T) {
	t.Setenv("BRANCH_BRANCH_KEY", testKey)
	t.Setenv("BRANCH_REMOTE_RETRY_COUNT", "5")
	t.Setenv("BRANCH_REMOTE_TIMEOUT", "1500ms")
	t.Setenv("BRANCH_REMOTE_LOGPAYLOADS", "true")
	t.Setenv("BRANCH_LOG_LEVEL", "")

	cfg, err := Load(WithInline([]byte("remote:\n  retry:\n    count: 1\n")))
	require.NoError(t, err)

	assert.Equal(t, testKey, cfg.Branch.Key)
	assert.Equal(t, 5, cfg.Remote.Retry.Count, "environment wins over inline config")
	assert.Equal(t, 1500*time.Millisecond, cfg.Remote.Timeout)
	assert.True(t, cfg.Remote.LogPayloads)
	assert.Equal(t, "info", cfg.Log.Level, "empty variables keep the default")
}

func TestLoadWithoutEnvIgnoresVariables(t *testing.T) {
	t.Setenv("BRANCH_REMOTE_RETRY_COUNT", "5")

	cfg, err := Load(WithoutEnv())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Remote.Retry.Count)
}

func TestLoadOverridesWinOverEnvironment(t *testing.T) {
	t.Setenv("BRANCH_LOG_LEVEL", "debug")

	cfg, err := Load(WithOverrides(map[string]any{
		KeyLogLevel:  "error",
		KeyBranchKey: testKey,
	}))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, testKey, cfg.Branch.Key)
}

func TestLoadObservabilitySection(t *testing.T) {
	cfg, err := Load(WithoutEnv(), WithInline([]byte(`
observability:
  enabled: true
  trace:
    endpoint: localhost:4317
    protocol: grpc
    insecure: true
    samplerate: 0.25
  metrics:
    enabled: false
`)))
	require.NoError(t, err)

	obs := cfg.Observability
	assert.True(t, obs.Enabled)
	assert.Equal(t, appName, obs.Service.Name)
	assert.Equal(t, "localhost:4317", obs.Trace.Endpoint)
	assert.Equal(t, "grpc", obs.Trace.Protocol)
	assert.True(t, obs.Trace.Insecure)
	require.NotNil(t, obs.Trace.SampleRate)
	assert.InDelta(t, 0.25, *obs.Trace.SampleRate, 0.0001)
	require.NotNil(t, obs.Metrics.Enabled)
	assert.False(t, *obs.Metrics.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name      string
		inline    string
		field     string
		category  string
		errSubstr string
	}{
		{"unknown log level", "log:\n  level: loud\n", "log.level", "invalid", "must be one of"},
		{"empty base url", "remote:\n  baseurl: \"\"\n", "remote.baseurl", "missing", "BRANCH_REMOTE_BASEURL"},
		{"relative base url", "remote:\n  baseurl: api/v1\n", "remote.baseurl", "invalid", "absolute URL"},
		{"zero timeout", "remote:\n  timeout: 0s\n", "remote.timeout", "invalid", "greater than"},
		{"too many retries", "remote:\n  retry:\n    count: 11\n", "remote.retry.count", "invalid", "at most 10"},
		{"negative retries", "remote:\n  retry:\n    count: -1\n", "remote.retry.count", "invalid", "at least 0"},
		{"unknown environment", "app:\n  env: qa\n", "app.env", "invalid", "staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(WithoutEnv(), WithInline([]byte(tt.inline)))
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, tt.category, cfgErr.Category)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadRejectsInvalidObservability(t *testing.T) {
	_, err := Load(WithoutEnv(), WithInline([]byte(`
observability:
  enabled: true
  trace:
    samplerate: 2
`)))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "observability", cfgErr.Field)
	assert.Contains(t, err.Error(), "sample rate")
}

func TestValidateReportsEveryFailure(t *testing.T) {
	cfg := &Config{
		App:    AppConfig{Name: appName, Version: appVersion, Env: EnvProduction},
		Remote: RemoteConfig{BaseURL: "", Timeout: 0},
		Log:    LogConfig{Level: "info"},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote.baseurl")
	assert.Contains(t, err.Error(), "remote.timeout")
}

func TestValidateNil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is nil")
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "BRANCH_REMOTE_RETRY_COUNT", EnvVar(KeyRemoteRetryCount))
	assert.Equal(t, "BRANCH_BRANCH_KEY", EnvVar(KeyBranchKey))
}

func TestEnvKey(t *testing.T) {
	key, value := envKey("BRANCH_REMOTE_RETRY_COUNT", "5")
	assert.Equal(t, KeyRemoteRetryCount, key)
	assert.Equal(t, "5", value)

	key, value = envKey("BRANCH_LOG_LEVEL", "")
	assert.Empty(t, key)
	assert.Nil(t, value)
}
