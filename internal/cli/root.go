// Package cli implements the branchctl commands.
package cli

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gaborage/branch-remote/config"
	"github.com/gaborage/branch-remote/httpclient"
	"github.com/gaborage/branch-remote/logger"
	"github.com/gaborage/branch-remote/observability"
)

// ErrUnsuccessful is returned under --fail when a call does not end in a 2xx status.
var ErrUnsuccessful = errors.New("branch call did not succeed")

// ClientFactory builds the client used by every command.
type ClientFactory func(cfg *config.Config, log logger.Logger) httpclient.Client

// DefaultClientFactory builds the client from configuration and tags every
// attempt with a request ID and traceparent.
func DefaultClientFactory(cfg *config.Config, log logger.Logger) httpclient.Client {
	return cfg.ClientBuilder(log).
		WithRequestInterceptor(httpclient.NewRequestIDInterceptor()).
		WithRequestInterceptor(httpclient.NewTraceParentInterceptor()).
		Build()
}

// Deps are the process-level collaborators of the command tree.
type Deps struct {
	Stdout        io.Writer
	Stderr        io.Writer
	ClientFactory ClientFactory
}

func (d Deps) withDefaults() Deps {
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.ClientFactory == nil {
		d.ClientFactory = DefaultClientFactory
	}
	return d
}

type globalFlags struct {
	configFile   string
	configInline string
	logLevel     string
	pretty       bool
	branchKey    string
	appKey       string
	baseURL      string
	timeout      time.Duration
	retries      int
	telemetry    bool
	fail         bool
}

// overrides maps explicitly set flags to configuration keys.
func (g *globalFlags) overrides(flags *pflag.FlagSet) map[string]any {
	values := map[string]any{}
	set := func(name, key string, value any) {
		if flags.Changed(name) {
			values[key] = value
		}
	}
	set("log-level", config.KeyLogLevel, g.logLevel)
	set("pretty", config.KeyLogPretty, g.pretty)
	set("branch-key", config.KeyBranchKey, g.branchKey)
	set("app-key", config.KeyBranchAppKey, g.appKey)
	set("base-url", config.KeyRemoteBaseURL, g.baseURL)
	set("timeout", config.KeyRemoteTimeout, g.timeout.String())
	set("retries", config.KeyRemoteRetryCount, g.retries)
	set("telemetry", config.KeyObservabilityEnabled, g.telemetry)
	return values
}

// app is built once per invocation by the root pre-run hook.
type app struct {
	deps     Deps
	flags    *globalFlags
	cfg      *config.Config
	log      logger.Logger
	client   httpclient.Client
	provider observability.Provider
}

func (a *app) setup(cmd *cobra.Command) error {
	opts := []config.Option{
		config.WithFile(a.flags.configFile),
		config.WithOverrides(a.flags.overrides(cmd.Flags())),
	}
	if a.flags.configInline != "" {
		opts = append(opts, config.WithInline([]byte(a.flags.configInline)))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log := cfg.NewLogger(a.deps.Stderr)
	a.log = log

	provider, err := observability.NewProvider(&cfg.Observability, observability.WithWriter(a.deps.Stderr))
	if err != nil {
		return err
	}
	a.provider = provider

	if err := cfg.RequireCredentials(); err != nil {
		log.Warn().Str("hint", err.Error()).Msg("no branch credentials configured, calls will fail with the no-key status")
	}

	a.client = a.deps.ClientFactory(cfg, log)
	return nil
}

func (a *app) teardown() error {
	if a.provider == nil {
		return nil
	}
	return observability.Shutdown(a.provider, observability.DefaultShutdownTimeout)
}

// NewRootCommand creates the root command for branchctl.
func NewRootCommand(deps Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults(), flags: &globalFlags{}}

	cmd := &cobra.Command{
		Use:   "branchctl",
		Short: "branchctl - call the Branch REST API",
		Long: `branchctl issues GET and POST calls against the Branch API the same way
the SDK remote interface does: mandatory sdk, retryNumber and key fields,
5xx retries and sentinel statuses for transport failures.

Each call prints one JSON envelope on stdout. Logs go to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipSetup(cmd) {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}
	cmd.SetOut(a.deps.Stdout)
	cmd.SetErr(a.deps.Stderr)

	f := cmd.PersistentFlags()
	f.StringVar(&a.flags.configFile, "config", "", "Path to config file (default: ./config.yaml when present)")
	f.StringVar(&a.flags.configInline, "config-inline", "", "Inline YAML layered over the config file")
	f.StringVar(&a.flags.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	f.BoolVar(&a.flags.pretty, "pretty", false, "Human readable logs")
	f.StringVar(&a.flags.branchKey, "branch-key", "", "Branch key sent as branch_key")
	f.StringVar(&a.flags.appKey, "app-key", "", "App key sent as app_id when no branch key is set")
	f.StringVar(&a.flags.baseURL, "base-url", "", "Base URL that relative paths are resolved against")
	f.DurationVar(&a.flags.timeout, "timeout", httpclient.DefaultTimeout, "Connect and read timeout per attempt")
	f.IntVar(&a.flags.retries, "retries", httpclient.DefaultMaxRetries, "Retries after a 5xx response")
	f.BoolVar(&a.flags.telemetry, "telemetry", false, "Export traces and metrics as configured under observability")
	f.BoolVar(&a.flags.fail, "fail", false, "Exit non-zero when a call does not return 2xx")

	cmd.AddCommand(
		newGetCommand(a),
		newPostCommand(a),
		newReplayCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func skipSetup(cmd *cobra.Command) bool {
	return cmd.Name() == "version" || strings.HasPrefix(cmd.Name(), "__complete") || cmd.Name() == "help"
}
