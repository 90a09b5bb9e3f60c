package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/loopholelabs/logging/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-astribank/astribank"
	"github.com/moffa90/go-astribank/internal/config"
	"github.com/moffa90/go-astribank/internal/logging"
	"github.com/moffa90/go-astribank/metrics"
	astriprom "github.com/moffa90/go-astribank/metrics/prometheus"
	"github.com/moffa90/go-astribank/xusb"
)

// Debug mask bit that turns on frame dumps.
const debugFrames = 0x80

type toolEnv struct {
	cfg      *config.Config
	log      types.RootLogger
	logger   *logging.Adapter
	metrics  metrics.Metrics
	xusbOpts xusb.Options
}

var env toolEnv

var errNoDevice = errors.New("missing device path (-D)")

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, !cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.Log.Verbosity += verbosity
	if debugMask&debugFrames != 0 {
		cfg.Log.DumpFrames = true
		if cfg.Log.Verbosity < logging.VerbosityDebug {
			cfg.Log.Verbosity = logging.VerbosityDebug
		}
	}
	if metricsAddr != "" {
		cfg.Metrics.Listen = metricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	env.cfg = cfg
	env.log = logging.New("astribank", os.Stderr, cfg.Log.Verbosity)
	env.logger = logging.NewAdapter(env.log)
	env.metrics = metrics.Noop{}

	env.xusbOpts, err = cfg.Transport.XusbOptions(os.LookupEnv)
	if err != nil {
		return err
	}

	if cfg.Metrics.Listen != "" {
		env.metrics = serveMetrics(cfg.Metrics.Listen)
	}
	env.log.Debug().Str("command", cmd.Name()).Str("device", devPath).Msg("startup")
	return nil
}

func serveMetrics(addr string) metrics.Metrics {
	reg := prometheus.NewRegistry()
	m := astriprom.New(reg, nil)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          reg,
	}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	return m
}

func busOptions() []xusb.Option {
	opts := []xusb.Option{xusb.WithLogger(env.logger), xusb.WithOptions(env.xusbOpts)}
	if lf := env.cfg.Transport.LockFile; lf != "" {
		opts = append(opts, xusb.WithLockPath(lf))
	}
	return opts
}

func astribankOptions() []astribank.Option {
	return []astribank.Option{
		astribank.WithLogger(env.logger),
		astribank.WithMetrics(env.metrics),
		astribank.WithTimeout(env.cfg.Transport.Timeout()),
		astribank.WithFrameDump(env.cfg.Log.DumpFrames),
		astribank.WithBusOptions(busOptions()...),
	}
}

func openAstribank(ctx context.Context) (*astribank.Astribank, error) {
	if devPath == "" {
		return nil, errNoDevice
	}
	ab, err := astribank.Open(ctx, devPath, astribankOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed initializing Astribank: %w", err)
	}
	return ab, nil
}
