package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hupe1980/jeeves"
	"github.com/hupe1980/jeeves/config"
	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/gateway"
	"github.com/hupe1980/jeeves/logging"
	"github.com/hupe1980/jeeves/metrics"
)

var (
	eventsPath   string
	skipRegister bool
)

// runCmd starts the relay loop
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relay over a stream of gateway events",
	Long: `Reads newline-delimited gateway dispatch payloads from --events (stdin
by default) and handles them one at a time until the stream ends or the
process is interrupted.

Slash commands are registered with the platform before the first event is
read unless --skip-register is given.`,
	RunE: runRelay,
}

func init() {
	runCmd.Flags().StringVar(&eventsPath, "events", "-", "event stream file ('-' for stdin)")
	runCmd.Flags().BoolVar(&skipRegister, "skip-register", false, "do not register slash commands at startup")
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(cfg, logger.WithComponent("state"))
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Error("closing state store failed", "error", err)
		}
	}()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, m, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	gw := gateway.NewRESTGateway(func(o *gateway.Options) {
		o.BaseURL = cfg.Gateway.BaseURL
		o.BotToken = cfg.Gateway.BotToken
		o.ApplicationID = cfg.Gateway.ApplicationID
		o.Logger = logger.WithComponent("gateway")
	})

	relay := jeeves.New(gw, newRegistry(cfg), relayOptions(cfg, store, logger, m))

	if !skipRegister {
		if err := relay.RegisterCommands(ctx, gw); err != nil {
			return err
		}
	}

	in, err := openEvents(eventsPath)
	if err != nil {
		return err
	}
	defer in.Close()

	return relay.Run(ctx, gateway.NewStreamSource(in))
}

// relayOptions maps the configuration onto relay options.
func relayOptions(cfg *config.Config, store core.StateStore, logger logging.Logger, m *metrics.Metrics) func(o *jeeves.Options) {
	return func(o *jeeves.Options) {
		o.Persona = cfg.Persona
		o.AllowedModels = cfg.AllowedModels
		o.Defaults = cfg.Defaults()
		o.CompletionTimeout = cfg.GetCompletionTimeout()
		o.MaxTokens = cfg.Completion.MaxTokens
		o.Temperature = cfg.Completion.Temperature
		o.ChunkSize = cfg.Dispatch.ChunkSize
		o.AckTimeout = cfg.GetAckTimeout()
		if cfg.Dispatch.RatePerSecond > 0 {
			o.Limiter = rate.NewLimiter(rate.Limit(cfg.Dispatch.RatePerSecond), max(cfg.Dispatch.Burst, 1))
		}
		o.Store = store
		o.Logger = logger
		o.Metrics = m
	}
}

// serveMetrics exposes the Prometheus registry at /metrics.
func serveMetrics(addr string, m *metrics.Metrics, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", "error", err)
		}
	}()
	return srv
}

// openEvents opens the event stream; "-" selects stdin.
func openEvents(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event stream: %w", err)
	}
	return f, nil
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
