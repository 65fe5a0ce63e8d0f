package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/datamodel/dialect/sql"
)

type pingOptions struct {
	timeout  time.Duration
	parallel int
}

func newPingCmd(root *rootOptions) *cobra.Command {
	opts := &pingOptions{}
	cmd := &cobra.Command{
		Use:   "ping [name...]",
		Short: "Check that data sources are reachable",
		Long: `The ping command opens every named data source (all configured ones when no
name is given) concurrently and runs SELECT 1 on a dedicated connection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = cfg.Names()
			}
			stats := sql.NewStats(sql.WithSlowQueryLog(nil))
			src := sql.NewSources(cfg, sql.WithSourceStats(stats))
			defer src.Close()

			results := ping(cmd.Context(), src, names, *opts)
			out, err := pterm.DefaultTable.WithHasHeader().WithData(pingTable(results)).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			fmt.Fprintln(cmd.OutOrStdout(), stats.Snapshot())
			for _, r := range results {
				if r.err != nil {
					return fmt.Errorf("%d of %d data sources unreachable", failed(results), len(results))
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "timeout per data source")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 4, "number of data sources checked at once")
	return cmd
}

type pingResult struct {
	name    string
	dialect string
	latency time.Duration
	err     error
}

// ping checks every data source. Failures are reported per source and never
// stop the other checks.
func ping(ctx context.Context, src *sql.Sources, names []string, opts pingOptions) []pingResult {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]pingResult, len(names))
	var eg errgroup.Group
	if opts.parallel > 0 {
		eg.SetLimit(opts.parallel)
	}
	for i, name := range names {
		eg.Go(func() error {
			results[i] = pingOne(ctx, src, name, opts.timeout)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func pingOne(ctx context.Context, src *sql.Sources, name string, timeout time.Duration) pingResult {
	r := pingResult{name: name}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	s, err := src.Session(ctx, name)
	if err != nil {
		r.err = err
		return r
	}
	defer s.Close()
	r.dialect = s.Dialect()
	_, r.err = s.Command("SELECT 1").Scalar(ctx)
	r.latency = time.Since(start)
	return r
}

func pingTable(results []pingResult) pterm.TableData {
	data := pterm.TableData{{"Name", "Dialect", "Status", "Latency"}}
	for _, r := range results {
		status := pterm.Green("ok")
		latency := r.latency.Round(time.Millisecond).String()
		if r.err != nil {
			status = pterm.Red(r.err.Error())
			latency = "-"
		}
		data = append(data, []string{r.name, r.dialect, status, latency})
	}
	return data
}

func failed(results []pingResult) int {
	n := 0
	for _, r := range results {
		if r.err != nil {
			n++
		}
	}
	return n
}
