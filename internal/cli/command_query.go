package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/picatz/dohgate/internal/mlog"
	"github.com/picatz/dohgate/pkg/dj"
	"github.com/picatz/dohgate/pkg/gateway"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type result struct {
	Resolver string       `json:"resolver"`
	Name     string       `json:"name"`
	Resp     *dj.Response `json:"resp"`
}

var CommandQuery = &cobra.Command{
	Use:   "query names... [flags]",
	Short: "Resolve names through the gateway",
	Long: `Resolve names through the gateway without starting a server.

Each name is resolved with each of the given resolvers in parallel, using the
same validation and upstream allow-list as the server. Results are streamed to
STDOUT as newline delimited JSON objects, which can be piped to other commands
(e.g. jq) or redirected to a file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		resolvers, err := cmd.Flags().GetStringSlice("resolvers")
		if err != nil {
			return fmt.Errorf("invalid resolvers: %w", err)
		}

		queryType := cmd.Flag("type").Value.String()

		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}

		concurrency, err := cmd.Flags().GetInt64("concurrency")
		if err != nil {
			return fmt.Errorf("invalid concurrency: %w", err)
		}
		if concurrency < 1 {
			return fmt.Errorf("invalid concurrency: %d", concurrency)
		}

		gcfg := cfg.Gateway()
		gcfg.Logger = mlog.L()
		g, err := gateway.New(gcfg)
		if err != nil {
			return err
		}
		if len(resolvers) == 0 {
			resolvers = []string{g.DefaultResolver()}
		}

		var (
			ctx    context.Context    = cmd.Context()
			cancel context.CancelFunc = func() {}
		)

		if timeout != 0 {
			ctx, cancel = context.WithTimeout(cmd.Context(), timeout)
		}

		defer cancel()

		var (
			mu     sync.Mutex
			output = json.NewEncoder(cmd.OutOrStdout())
			sem    = semaphore.NewWeighted(concurrency)
		)

		eg, gtx := errgroup.WithContext(ctx)

		for _, name := range args {
			for _, resolver := range resolvers {
				resolver := strings.TrimSpace(resolver)
				req := gateway.Request{
					Name:     name,
					Type:     queryType,
					Resolver: resolver,
				}
				if err := sem.Acquire(gtx, 1); err != nil {
					eg.Go(func() error { return err })
					break
				}
				eg.Go(func() error {
					defer sem.Release(1)

					resp, err := g.Resolve(gtx, req)
					if err != nil {
						return fmt.Errorf("%s via %s: %w", req.Name, req.Resolver, err)
					}

					mu.Lock()
					defer mu.Unlock()
					return output.Encode(&result{
						Resolver: req.Resolver,
						Name:     req.Name,
						Resp:     resp,
					})
				})
			}
		}

		if err := eg.Wait(); err != nil {
			return fmt.Errorf("encountered error while querying: %w", err)
		}

		return nil
	},
}

func init() {
	CommandQuery.Flags().String("type", "A", "dns record type to query for each name: A, AAAA or CNAME")
	CommandQuery.Flags().StringSlice("resolvers", nil, "allow-listed resolvers to query, defaults to the configured default")
	CommandQuery.Flags().Duration("timeout", 30*time.Second, "timeout for all queries, 0s for no timeout")
	CommandQuery.Flags().Int64("concurrency", 16, "maximum number of queries in flight")
	CommandQuery.Flags().String("config", "", "path of the yaml config file")

	CommandRoot.AddCommand(CommandQuery)
}
