package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/webtrace/deploycheck/pkg/config"
	"github.com/webtrace/deploycheck/pkg/inspect"
	"github.com/webtrace/deploycheck/pkg/k8s"
	"github.com/webtrace/deploycheck/pkg/probe"
	"github.com/webtrace/deploycheck/pkg/telemetry"
	"github.com/webtrace/deploycheck/pkg/verify"
)

// harness bundles everything a mode needs: config, cluster clients, and
// telemetry shutdown hooks.
type harness struct {
	cfg       *config.Config
	clients   *k8s.Clients
	meters    *telemetry.Meters
	shutdowns []func(context.Context) error
}

func setup(ctx context.Context) (*harness, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg.LogLevel)

	traceShutdown, err := telemetry.InitTracer(ctx, cfg.Namespace)
	if err != nil {
		return nil, err
	}
	metricShutdown, err := telemetry.InitMetrics(ctx)
	if err != nil {
		return nil, err
	}
	meters, err := telemetry.NewMeters()
	if err != nil {
		return nil, err
	}

	clients, err := k8s.NewClients(cfg.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to cluster: %w", err)
	}

	return &harness{
		cfg:       cfg,
		clients:   clients,
		meters:    meters,
		shutdowns: []func(context.Context) error{traceShutdown, metricShutdown},
	}, nil
}

func (h *harness) close() {
	for _, shutdown := range h.shutdowns {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := shutdown(ctx); err != nil {
			slog.Error("telemetry shutdown error", "error", err)
		}
		cancel()
	}
}

func (h *harness) runChecks(ctx context.Context) verify.Summary {
	exec := &probe.Executor{
		Dynamic:        h.clients.Dynamic,
		Exec:           h.clients,
		Namespace:      h.cfg.Namespace,
		ExecDeployment: h.cfg.ExecDeployment,
		Timeout:        h.cfg.ProbeTimeout,
		Meters:         h.meters,
	}
	runner := &verify.Runner{Exec: exec, Out: os.Stdout, Meters: h.meters}

	fmt.Printf("Verifying deployment in namespace %s\n", h.cfg.Namespace)
	return runner.Run(ctx, verify.BuildRegistry(h.cfg))
}

func (h *harness) runStatus(ctx context.Context) {
	ins := &inspect.StatusInspector{
		Clientset: h.clients.Clientset,
		Namespace: h.cfg.Namespace,
		Out:       os.Stdout,
	}
	ins.Dump(ctx)
}

func (h *harness) runNetwork(ctx context.Context) {
	apiPort := h.cfg.Catalog.ServicePort(h.cfg.ExecDeployment, 8080)
	diag := &inspect.NetworkDiagnostic{
		Exec:       h.clients,
		Namespace:  h.cfg.Namespace,
		Deployment: h.cfg.ExecDeployment,
		MetricsURL: fmt.Sprintf("http://localhost:%d/api/system-metrics", apiPort),
		Timeout:    h.cfg.ProbeTimeout,
		Out:        os.Stdout,
	}
	diag.Run(ctx)
}
