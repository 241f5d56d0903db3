package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Namespace      string
	Kubeconfig     string
	ExecDeployment string
	ProbeTimeout   time.Duration
	LogLevel       string
	CatalogFile    string
	Catalog        Catalog
}

func Load() (*Config, error) {
	namespace := os.Getenv("NAMESPACE")
	if namespace == "" {
		namespace = "webtrace"
	}

	kubeconfig := os.Getenv("KUBECONFIG")

	execDeployment := os.Getenv("EXEC_DEPLOYMENT")
	if execDeployment == "" {
		execDeployment = "crawler-api"
	}

	probeTimeout := 15 * time.Second
	if v := os.Getenv("PROBE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PROBE_TIMEOUT %q: %w", v, err)
		}
		probeTimeout = d
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	catalog := DefaultCatalog()
	catalogFile := os.Getenv("CATALOG_FILE")
	if catalogFile != "" {
		c, err := LoadCatalog(catalogFile)
		if err != nil {
			return nil, fmt.Errorf("loading catalog from %s: %w", catalogFile, err)
		}
		catalog = c
	}

	return &Config{
		Namespace:      namespace,
		Kubeconfig:     kubeconfig,
		ExecDeployment: execDeployment,
		ProbeTimeout:   probeTimeout,
		LogLevel:       logLevel,
		CatalogFile:    catalogFile,
		Catalog:        catalog,
	}, nil
}

// SetupLogging initializes the global slog logger with JSON output at the specified level.
// Logs go to stderr; stdout is reserved for the human-readable report.
func SetupLogging(level string) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
