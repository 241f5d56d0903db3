package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"NAMESPACE", "EXEC_DEPLOYMENT", "PROBE_TIMEOUT", "LOG_LEVEL", "CATALOG_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.Namespace, "webtrace")
	assert.Equal(t, cfg.ExecDeployment, "crawler-api")
	assert.Equal(t, cfg.ProbeTimeout, 15*time.Second)
	assert.Equal(t, cfg.LogLevel, "info")
	assert.Equal(t, len(cfg.Catalog.Services), 6)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NAMESPACE", "staging")
	t.Setenv("EXEC_DEPLOYMENT", "api")
	t.Setenv("PROBE_TIMEOUT", "5s")

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.Namespace, "staging")
	assert.Equal(t, cfg.ExecDeployment, "api")
	assert.Equal(t, cfg.ProbeTimeout, 5*time.Second)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("PROBE_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "PROBE_TIMEOUT")
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
services:
  - name: postgres
    port: 5432
deployments:
  - name: postgres
dependencies:
  - host: postgres
    port: 5432
`
	assert.NilError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Setenv("CATALOG_FILE", path)

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, len(cfg.Catalog.Services), 1)
	assert.Equal(t, cfg.Catalog.Services[0].Name, "postgres")
	assert.Equal(t, cfg.Catalog.Services[0].Port, 5432)
	assert.Equal(t, len(cfg.Catalog.Dependencies), 1)
}

func TestLoadCatalogFileMissing(t *testing.T) {
	t.Setenv("CATALOG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "loading catalog")
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		errMsg  string
	}{
		{"empty catalog", Catalog{}, "no services or deployments"},
		{"unnamed service", Catalog{Services: []ServiceEntry{{Port: 80}}}, "empty name"},
		{"bad service port", Catalog{Services: []ServiceEntry{{Name: "web", Port: 0}}}, "invalid port"},
		{"unnamed deployment", Catalog{Deployments: []DeploymentEntry{{}}}, "empty name"},
		{"bad dependency port", Catalog{
			Deployments:  []DeploymentEntry{{Name: "api"}},
			Dependencies: []DependencyEntry{{Host: "db", Port: 99999}},
		}, "invalid port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}

	assert.NilError(t, DefaultCatalog().Validate())
}

func TestServicePort(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, c.ServicePort("mariadb", 1), 3306)
	assert.Equal(t, c.ServicePort("unlisted", 8080), 8080)
}
