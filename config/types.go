package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/branch-remote/observability"
)

// Config represents the branchctl configuration. The koanf instance is kept
// for access to keys outside the struct.
type Config struct {
	App           AppConfig            `koanf:"app" json:"app" yaml:"app"`
	Branch        BranchConfig         `koanf:"branch" json:"branch" yaml:"branch"`
	Remote        RemoteConfig         `koanf:"remote" json:"remote" yaml:"remote"`
	Log           LogConfig            `koanf:"log" json:"log" yaml:"log"`
	Observability observability.Config `koanf:"observability" json:"observability" yaml:"observability" validate:"-"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig identifies the running tool.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" validate:"required"`
	Version string `koanf:"version" json:"version" yaml:"version" validate:"required"`
	Env     string `koanf:"env" json:"env" yaml:"env" validate:"oneof=development staging production"`
}

// BranchConfig holds the Branch credentials. Key wins over AppKey when both are set.
type BranchConfig struct {
	Key    string `koanf:"key" json:"-" yaml:"key"`
	AppKey string `koanf:"appkey" json:"-" yaml:"appkey"`
}

// RemoteConfig tunes the REST client.
type RemoteConfig struct {
	BaseURL            string        `koanf:"baseurl" json:"base_url" yaml:"baseurl" validate:"required,url"`
	Timeout            time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	Retry              RetryConfig   `koanf:"retry" json:"retry" yaml:"retry"`
	SDK                string        `koanf:"sdk" json:"sdk" yaml:"sdk"`
	LogPayloads        bool          `koanf:"logpayloads" json:"log_payloads" yaml:"logpayloads"`
	MaxPayloadLogBytes int           `koanf:"maxpayloadlogbytes" json:"max_payload_log_bytes" yaml:"maxpayloadlogbytes" validate:"gte=0"`
}

// RetryConfig controls 5xx retries. Count is the number of retries after the
// first attempt.
type RetryConfig struct {
	Count    int           `koanf:"count" json:"count" yaml:"count" validate:"gte=0,lte=10"`
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval" validate:"gte=0"`
}

// LogConfig selects the zerolog level and console output.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}
