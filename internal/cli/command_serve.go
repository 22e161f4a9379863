package cli

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/picatz/dohgate/internal/config"
	"github.com/picatz/dohgate/internal/mlog"
	"github.com/picatz/dohgate/pkg/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"
)

const (
	serverIdleTimeout     = 30 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

var CommandServe = &cobra.Command{
	Use:   "serve [flags]",
	Short: "Serve the JSON gateway over HTTP",
	Long: `Serve the JSON gateway over HTTP.

GET /resolve?name=example.com&type=A&resolver=cloudflare answers with the JSON
rendering of the DNS response from the selected DoH resolver. The server is
configured by the file given with --config; --listen overrides its address.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			cfg.Listen = cmd.Flag("listen").Value.String()
		}

		logger := mlog.L()
		gcfg := cfg.Gateway()
		gcfg.Logger = logger

		var metricsHandler http.Handler
		if cfg.Metrics.Enabled {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			gcfg.Metrics = reg
			metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		}

		g, err := gateway.New(gcfg)
		if err != nil {
			return err
		}

		hs := &http.Server{
			Handler:           gateway.NewServeMux(g, metricsHandler),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       serverIdleTimeout,
			MaxHeaderBytes:    4096,
			ErrorLog:          log.New(mlog.WriteToLogger(logger, zerolog.WarnLevel, "http server error"), "", 0),
		}
		if cfg.TLS.Enabled() {
			if err := http2.ConfigureServer(hs, &http2.Server{IdleTimeout: serverIdleTimeout}); err != nil {
				return err
			}
		}

		l, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			if cfg.TLS.Enabled() {
				err = hs.ServeTLS(l, cfg.TLS.Cert, cfg.TLS.Key)
			} else {
				err = hs.Serve(l)
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		})

		logger.Info().
			Stringer("addr", l.Addr()).
			Bool("tls", cfg.TLS.Enabled()).
			Str("default_resolver", g.DefaultResolver()).
			Msg("http server started")

		if err := eg.Wait(); err != nil {
			return err
		}
		logger.Info().Msg("http server stopped")
		return nil
	},
}

func init() {
	CommandServe.Flags().String("config", "", "path of the yaml config file")
	CommandServe.Flags().String("listen", config.DefaultListen, "address to listen on")

	CommandRoot.AddCommand(CommandServe)
}
