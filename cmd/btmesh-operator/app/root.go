// Package app assembles the btmesh-operator cobra command, following
// the teacher's cmd/cpeer-controller-manager/app.NewControllerManagerCommand
// shape: build options, bind flags, run under a cancellable context.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/btmesh-io/btmesh-operator/internal/bus"
	"github.com/btmesh-io/btmesh-operator/internal/config"
	"github.com/btmesh-io/btmesh-operator/internal/health"
	"github.com/btmesh-io/btmesh-operator/internal/metrics"
	"github.com/btmesh-io/btmesh-operator/internal/operator"
	"github.com/btmesh-io/btmesh-operator/internal/registry/httpregistry"
	"github.com/btmesh-io/btmesh-operator/pkg/log"
	"github.com/btmesh-io/btmesh-operator/pkg/mqtt"
)

// NewRootCommand builds the btmesh-operator command tree.
func NewRootCommand() *cobra.Command {
	var configFile string
	cfg := config.New()

	cmd := &cobra.Command{
		Use:   "btmesh-operator",
		Short: "Reconciles BT-Mesh device provisioning state against a gateway fleet",
		Long: `btmesh-operator mediates between a cloud-side device registry and a
fleet of BT-Mesh gateways: it commands gateways to provision or reset
devices per their declared spec, and merges gateway-reported state
transitions back into the registry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, cmd.Flags(), configFile)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file (optional; flags and env vars also apply).")
	cfg.AddFlags(cmd.Flags())

	return cmd
}

func run(ctx context.Context, cfg *config.Config, fs *pflag.FlagSet, configFile string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	live, err := config.LoadAndWatch(cfg, fs, configFile, func(err error) {
		log.Warn("config reload failed, keeping previous values", "error", err.Error())
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %v", errs)
	}

	log.Init(cfg.Log)
	log.Info("starting btmesh-operator", "application", cfg.Operator.Application, "interval", cfg.Operator.Interval)

	mqttClient, err := mqtt.NewClient(cfg.Mqtt.ToClientConfig())
	if err != nil {
		return fmt.Errorf("create mqtt client: %w", err)
	}
	b := bus.New(mqttClient)
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt client: %w", err)
	}
	defer b.Disconnect(ctx)

	checker := &health.Checker{}
	go func() {
		if err := b.AwaitConnection(ctx); err != nil {
			log.Warn("mqtt connection wait failed", "error", err.Error())
			return
		}
		checker.MarkReady()
	}()

	reg := httpregistry.New(cfg.Registry.Endpoint, cfg.Registry.Token)
	m := metrics.New()

	op := operator.New(operator.Config{
		Application:  cfg.Operator.Application,
		GroupID:      cfg.Operator.GroupID,
		Interval:     cfg.Operator.Interval,
		IntervalFunc: live.Interval,
	}, b, reg, m)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "metrics server stopped unexpectedly")
		}
	}()
	defer metricsSrv.Close()

	healthMux := http.NewServeMux()
	healthMux.Handle("/healthz", checker.Handler())
	healthSrv := &http.Server{Addr: cfg.Health.Addr, Handler: healthMux}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "health server stopped unexpectedly")
		}
	}()
	defer healthSrv.Close()

	return op.Run(ctx)
}
