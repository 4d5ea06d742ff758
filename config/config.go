package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "config.yaml"

// Option customizes Load.
type Option func(*loadOptions)

type loadOptions struct {
	file         string
	fileRequired bool
	inline       [][]byte
	overrides    map[string]any
	skipEnv      bool
}

// WithFile loads path instead of config.yaml. The file must exist.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		if path != "" {
			o.file = path
			o.fileRequired = true
		}
	}
}

// WithInline layers YAML bytes over the file.
func WithInline(data []byte) Option {
	return func(o *loadOptions) {
		if len(data) > 0 {
			o.inline = append(o.inline, data)
		}
	}
}

// WithOverrides applies values above every other source. Keys use dot notation.
func WithOverrides(values map[string]any) Option {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]any, len(values))
		}
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

// WithoutEnv ignores BRANCH_ environment variables.
func WithoutEnv() Option {
	return func(o *loadOptions) {
		o.skipEnv = true
	}
}

// Load loads configuration from multiple sources with priority:
// 1. Overrides (highest priority)
// 2. Environment variables with the BRANCH_ prefix
// 3. Inline YAML
// 4. YAML configuration files, then config.<app.env>.yaml beside them
// 5. Default values (lowest priority)
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{file: DefaultConfigFile}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadFile(k, o.file, o.fileRequired); err != nil {
		return nil, err
	}

	// Environment-specific overlay next to the base file
	if appEnv := k.String(KeyAppEnv); appEnv != "" {
		overlay := filepath.Join(filepath.Dir(o.file), fmt.Sprintf("config.%s.yaml", appEnv))
		if err := loadFile(k, overlay, false); err != nil {
			return nil, err
		}
	}

	for i, data := range o.inline {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse inline config %d: %w", i, err)
		}
	}

	if !o.skipEnv {
		if err := k.Load(env.Provider(".", env.Opt{
			Prefix:        EnvPrefix,
			TransformFunc: envKey,
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if cfg.Observability.Service.Name == "" {
		cfg.Observability.Service.Name = cfg.App.Name
	}
	if cfg.Observability.Service.Version == "" {
		cfg.Observability.Service.Version = cfg.App.Version
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = cfg.App.Env
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey maps BRANCH_REMOTE_RETRY_COUNT to remote.retry.count. Empty values
// are dropped so they cannot blank out a default.
func envKey(key, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		KeyAppName:    "branchctl",
		KeyAppVersion: "v1.0.0",
		KeyAppEnv:     EnvDevelopment,

		KeyRemoteBaseURL:            "https://api.branch.io/",
		KeyRemoteTimeout:            "3s",
		KeyRemoteRetryCount:         3,
		KeyRemoteRetryInterval:      "1s",
		KeyRemoteLogPayloads:        false,
		KeyRemoteMaxPayloadLogBytes: 1024,

		KeyLogLevel:  "info",
		KeyLogPretty: false,

		KeyObservabilityEnabled: false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
