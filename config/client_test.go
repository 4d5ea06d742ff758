package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/branch-remote/httpclient"
	"github.com/gaborage/branch-remote/logger"
)

func TestCredentials(t *testing.T) {
	cfg := &Config{Branch: BranchConfig{Key: "  " + testKey + " ", AppKey: "app_1"}}

	creds := cfg.Credentials()
	assert.Equal(t, testKey, creds.BranchKey)
	assert.Equal(t, "app_1", creds.AppKey)
	assert.NoError(t, cfg.RequireCredentials())
}

func TestRequireCredentialsWhenMissing(t *testing.T) {
	cfg := &Config{Branch: BranchConfig{Key: "   "}}

	err := cfg.RequireCredentials()
	require.Error(t, err)
	assert.True(t, IsNotConfigured(err))
	assert.Contains(t, err.Error(), "BRANCH_BRANCH_KEY")
}

func TestClientConfig(t *testing.T) {
	cfg, err := Load(WithoutEnv(), WithOverrides(map[string]any{
		KeyBranchAppKey:             "app_1",
		KeyRemoteRetryCount:         1,
		KeyRemoteRetryInterval:      "5ms",
		KeyRemoteMaxPayloadLogBytes: 0,
		KeyRemoteLogPayloads:        true,
	}))
	require.NoError(t, err)

	cc := cfg.ClientConfig()
	assert.Equal(t, "app_1", cc.Credentials.AppKey)
	assert.Empty(t, cc.Credentials.BranchKey)
	assert.Equal(t, 3*time.Second, cc.Timeout)
	assert.Equal(t, 1, cc.MaxRetries)
	assert.Equal(t, 5*time.Millisecond, cc.RetryDelay)
	assert.Equal(t, httpclient.DefaultSDK, cc.SDK)
	assert.True(t, cc.LogPayloads)
	assert.Equal(t, httpclient.DefaultMaxPayloadLogBytes, cc.MaxPayloadLogBytes)
}

func TestClientBuilderAppliesConfiguration(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		bodies = append(bodies, body)
		n := len(bodies)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"url":"https://bnc.lt/x"}`)
	}))
	defer server.Close()

	cfg, err := Load(WithoutEnv(), WithOverrides(map[string]any{
		KeyBranchKey:           testKey,
		KeyRemoteSDK:           "go9.9.9",
		KeyRemoteRetryCount:    1,
		KeyRemoteRetryInterval: "1ms",
	}))
	require.NoError(t, err)

	var slept []time.Duration
	client := cfg.ClientBuilder(logger.NewNop()).
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }).
		Build()

	env := client.Post(context.Background(), &httpclient.Request{
		URL:    server.URL + "/v1/url",
		Params: httpclient.NewParams().Set("campaign", "launch"),
		Tag:    "create-url",
	})

	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "https://bnc.lt/x", env.Object()["url"])
	assert.Equal(t, []time.Duration{time.Millisecond}, slept)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	assert.Equal(t, testKey, bodies[1]["branch_key"])
	assert.Equal(t, "go9.9.9", bodies[1]["sdk"])
	assert.EqualValues(t, 1, bodies[1]["retryNumber"])
	assert.Equal(t, "launch", bodies[1]["campaign"])
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Log: LogConfig{Level: "warn"}}
	log := cfg.NewLogger(&buf)

	log.Info().Msg("hidden")
	log.Warn().Str("branch_key", testKey).Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), testKey)
}

func TestMaskedHidesCredentials(t *testing.T) {
	cfg, err := Load(WithoutEnv(), WithOverrides(map[string]any{
		KeyBranchKey:    testKey,
		KeyBranchAppKey: "app_1",
	}))
	require.NoError(t, err)

	masked := cfg.Masked()
	assert.Equal(t, logger.DefaultMaskValue, masked[KeyBranchKey])
	assert.Equal(t, logger.DefaultMaskValue, masked[KeyBranchAppKey])
	assert.Equal(t, "https://api.branch.io/", masked[KeyRemoteBaseURL])
	assert.Equal(t, testKey, cfg.Branch.Key, "masking does not touch the loaded values")
}

func TestMaskedWithoutLoad(t *testing.T) {
	var nilCfg *Config
	assert.Empty(t, nilCfg.Masked())
	assert.Empty(t, (&Config{}).Masked())
}
