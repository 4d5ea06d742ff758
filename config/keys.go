package config

// Configuration keys in koanf dot notation. Environment variables use the
// BRANCH_ prefix with dots replaced by underscores.
const (
	KeyAppName    = "app.name"
	KeyAppVersion = "app.version"
	KeyAppEnv     = "app.env"

	KeyBranchKey    = "branch.key"
	KeyBranchAppKey = "branch.appkey"

	KeyRemoteBaseURL            = "remote.baseurl"
	KeyRemoteTimeout            = "remote.timeout"
	KeyRemoteRetryCount         = "remote.retry.count"
	KeyRemoteRetryInterval      = "remote.retry.interval"
	KeyRemoteSDK                = "remote.sdk"
	KeyRemoteLogPayloads        = "remote.logpayloads"
	KeyRemoteMaxPayloadLogBytes = "remote.maxpayloadlogbytes"

	KeyLogLevel  = "log.level"
	KeyLogPretty = "log.pretty"

	KeyObservabilityEnabled = "observability.enabled"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BRANCH_"
