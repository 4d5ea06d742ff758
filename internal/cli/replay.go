package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gaborage/branch-remote/httpclient"
	"github.com/gaborage/branch-remote/linkdata"
)

const maxReplayLineBytes = 4 << 20

// ReplayRecord is one line of a replay file.
type ReplayRecord struct {
	Method    string             `json:"method"`
	URL       string             `json:"url"`
	Tag       string             `json:"tag,omitempty"`
	Params    *httpclient.Params `json:"params,omitempty"`
	TimeoutMS int64              `json:"timeout_ms,omitempty"`
	Quiet     bool               `json:"quiet,omitempty"`
	LinkData  *linkdata.LinkData `json:"link_data,omitempty"`
}

// ReplayResult pairs an input line with its envelope or the reason it was skipped.
type ReplayResult struct {
	Line     int                  `json:"line"`
	Envelope *httpclient.Envelope `json:"envelope,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// ReplayOptions bounds the fan-out. Rate is calls per second; zero means unlimited.
type ReplayOptions struct {
	Concurrency int
	Rate        float64
	BaseURL     string
}

type replayItem struct {
	line   int
	record *ReplayRecord
	err    error
}

// readReplayRecords parses JSON lines. Blank lines and lines starting with #
// are skipped; malformed lines are kept with their error.
func readReplayRecords(r io.Reader) ([]replayItem, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLineBytes)

	var items []replayItem
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var rec ReplayRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			items = append(items, replayItem{line: line, err: fmt.Errorf("invalid record: %w", err)})
			continue
		}
		if err := rec.validate(); err != nil {
			items = append(items, replayItem{line: line, err: err})
			continue
		}
		items = append(items, replayItem{line: line, record: &rec})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replay input: %w", err)
	}
	return items, nil
}

func (r *ReplayRecord) validate() error {
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		return fmt.Errorf("unsupported method %q", r.Method)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

func (r *ReplayRecord) request(baseURL string) *httpclient.Request {
	return &httpclient.Request{
		URL:      resolveURL(baseURL, r.URL),
		Params:   r.Params,
		Tag:      r.Tag,
		Timeout:  time.Duration(r.TimeoutMS) * time.Millisecond,
		Quiet:    r.Quiet,
		LinkData: r.LinkData,
	}
}

func limiterFor(perSecond float64) *rate.Limiter {
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// replay issues every valid record through client and returns results in
// input order. Calls run concurrently up to opts.Concurrency.
func replay(ctx context.Context, client httpclient.Client, items []replayItem, opts ReplayOptions) ([]ReplayResult, error) {
	results := make([]ReplayResult, len(items))
	limiter := limiterFor(opts.Rate)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, item := range items {
		results[i].Line = item.line
		if item.err != nil {
			results[i].Error = item.err.Error()
			continue
		}

		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			req := item.record.request(opts.BaseURL)
			if item.record.Method == http.MethodPost {
				results[i].Envelope = client.Post(gctx, req)
			} else {
				results[i].Envelope = client.Get(gctx, req)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("replay interrupted: %w", err)
	}
	return results, nil
}

func newReplayCommand(a *app) *cobra.Command {
	var (
		concurrency int
		perSecond   float64
	)

	cmd := &cobra.Command{
		Use:   "replay <file.jsonl|->",
		Short: "Issue a batch of calls from a JSON lines file",
		Long: `Issue every call described in a JSON lines file. Each line holds
{"method":"GET|POST","url":"...","params":{...},"tag":"...","timeout_ms":N}.
Results are printed one per line in input order.`,
		Example: `  branchctl replay calls.jsonl --concurrency 8 --rate 20`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open replay file: %w", err)
				}
				defer f.Close()
				in = f
			}

			items, err := readReplayRecords(in)
			if err != nil {
				return err
			}

			started := time.Now()
			results, err := replay(cmd.Context(), a.client, items, ReplayOptions{
				Concurrency: concurrency,
				Rate:        perSecond,
				BaseURL:     a.cfg.Remote.BaseURL,
			})

			failed := 0
			out := cmd.OutOrStdout()
			for i := range results {
				if werr := writeJSONLine(out, results[i]); werr != nil {
					return werr
				}
				if results[i].Envelope == nil || !results[i].Envelope.IsSuccess() {
					failed++
				}
			}

			a.log.Info().
				Int("records", len(results)).
				Int("failed", failed).
				Int("concurrency", max(concurrency, 1)).
				Dur("elapsed", time.Since(started)).
				Msg("replay finished")

			if err != nil {
				return err
			}
			if a.flags.fail && failed > 0 {
				return fmt.Errorf("%w: %d of %d calls", ErrUnsuccessful, failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Maximum calls in flight")
	cmd.Flags().Float64Var(&perSecond, "rate", 0, "Maximum calls started per second (0 = unlimited)")
	return cmd
}
