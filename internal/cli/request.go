package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/branch-remote/httpclient"
	"github.com/gaborage/branch-remote/linkdata"
)

type requestFlags struct {
	tag      string
	timeout  time.Duration
	quiet    bool
	linkData string
}

func (r *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.tag, "tag", "", "Tag echoed on the envelope")
	cmd.Flags().DurationVar(&r.timeout, "request-timeout", 0, "Timeout for this call only (default: --timeout)")
	cmd.Flags().BoolVar(&r.quiet, "quiet", false, "Suppress debug payload logging for this call")
	cmd.Flags().StringVar(&r.linkData, "link-data", "", "Link data JSON attached to the envelope")
}

func (r *requestFlags) request(target string, params *httpclient.Params) (*httpclient.Request, error) {
	req := &httpclient.Request{
		URL:     target,
		Params:  params,
		Tag:     r.tag,
		Timeout: r.timeout,
		Quiet:   r.quiet,
	}
	if r.linkData != "" {
		ld, err := parseLinkData([]byte(r.linkData))
		if err != nil {
			return nil, err
		}
		req.LinkData = ld
	}
	return req, nil
}

func parseLinkData(data []byte) (*linkdata.LinkData, error) {
	var ld linkdata.LinkData
	if err := json.Unmarshal(data, &ld); err != nil {
		return nil, fmt.Errorf("invalid link data: %w", err)
	}
	return &ld, nil
}

// resolveURL joins a relative path to base. Absolute URLs pass through.
func resolveURL(base, target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if base == "" {
		return target
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(target, "/")
}

// parseParams reads k=v pairs in order. Repeated keys keep the last value.
func parseParams(pairs []string) (*httpclient.Params, error) {
	params := httpclient.NewParams()
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params.Set(key, value)
	}
	return params, nil
}

func newGetCommand(a *app) *cobra.Command {
	var (
		rf     requestFlags
		params []string
	)

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Issue a GET call",
		Long: `Issue a GET call. The mandatory fields come first in the query string,
followed by each --param in the order given. Relative URLs are resolved
against remote.baseurl.`,
		Example: `  branchctl get v1/url --param url=https://bnc.lt/m/abc
  branchctl get https://api.branch.io/v1/app/key_live_x --tag app`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			req, err := rf.request(resolveURL(a.cfg.Remote.BaseURL, args[0]), p)
			if err != nil {
				return err
			}
			env := a.client.Get(cmd.Context(), req)
			return a.emit(cmd.OutOrStdout(), env)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func newPostCommand(a *app) *cobra.Command {
	var (
		rf       requestFlags
		body     string
		bodyFile string
		params   []string
	)

	cmd := &cobra.Command{
		Use:   "post <url>",
		Short: "Issue a POST call",
		Long: `Issue a POST call with a JSON object body. The mandatory fields are added
to a copy of the body and overwrite keys of the same name.`,
		Example: `  branchctl post v1/url --body '{"campaign":"launch","data":{"$og_title":"Hi"}}'
  branchctl post v1/url --body-file link.json --link-data '{"alias":"launch"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := postBody(body, bodyFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			extra, err := parseParams(params)
			if err != nil {
				return err
			}
			extra.Each(func(k string, v any) { p.Set(k, v) })

			req, err := rf.request(resolveURL(a.cfg.Remote.BaseURL, args[0]), p)
			if err != nil {
				return err
			}
			env := a.client.Post(cmd.Context(), req)
			return a.emit(cmd.OutOrStdout(), env)
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&body, "body", "", "JSON object body")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Read the JSON body from a file, or - for stdin")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Extra body field as key=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	return cmd
}

func postBody(body, bodyFile string, stdin io.Reader) (*httpclient.Params, error) {
	var data []byte
	switch {
	case bodyFile == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read body from stdin: %w", err)
		}
		data = b
	case bodyFile != "":
		b, err := os.ReadFile(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		data = b
	default:
		data = []byte(body)
	}

	params := httpclient.NewParams()
	if strings.TrimSpace(string(data)) == "" {
		return params, nil
	}
	if err := json.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("body must be a JSON object: %w", err)
	}
	return params, nil
}

// emit prints env as one JSON line and applies --fail.
func (a *app) emit(w io.Writer, env *httpclient.Envelope) error {
	if err := writeJSONLine(w, env); err != nil {
		return err
	}
	if a.flags.fail && !env.IsSuccess() {
		return fmt.Errorf("%w: status %d", ErrUnsuccessful, env.StatusCode)
	}
	return nil
}

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
