package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog describes the deployment under test: which services must be
// reachable, which deployments must report ready replicas, and which
// backend dependencies the application pod must be able to reach.
type Catalog struct {
	Services     []ServiceEntry    `yaml:"services"`
	Deployments  []DeploymentEntry `yaml:"deployments"`
	Dependencies []DependencyEntry `yaml:"dependencies"`
}

// ServiceEntry is a cluster service expected to accept TCP connections.
type ServiceEntry struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

// DeploymentEntry is a deployment expected to have at least one ready replica.
type DeploymentEntry struct {
	Name string `yaml:"name"`
}

// DependencyEntry is a host:port the application pod depends on at runtime.
type DependencyEntry struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DefaultCatalog returns the built-in catalog for the crawling platform.
func DefaultCatalog() Catalog {
	return Catalog{
		Services: []ServiceEntry{
			{Name: "mariadb", Port: 3306},
			{Name: "minio", Port: 9000},
			{Name: "tor-proxy-1", Port: 9050},
			{Name: "tor-proxy-2", Port: 9050},
			{Name: "portal", Port: 80},
			{Name: "crawler-api", Port: 8080},
		},
		Deployments: []DeploymentEntry{
			{Name: "mariadb"},
			{Name: "minio"},
			{Name: "tor-proxy-1"},
			{Name: "tor-proxy-2"},
			{Name: "portal"},
			{Name: "crawler-api"},
		},
		Dependencies: []DependencyEntry{
			{Host: "mariadb", Port: 3306},
			{Host: "minio", Port: 9000},
			{Host: "tor-proxy-1", Port: 9050},
			{Host: "tor-proxy-2", Port: 9050},
		},
	}
}

// Service returns the catalog entry for the named service.
func (c Catalog) Service(name string) (ServiceEntry, bool) {
	for _, s := range c.Services {
		if s.Name == name {
			return s, true
		}
	}
	return ServiceEntry{}, false
}

// ServicePort returns the catalog port for the named service, or def when
// the service is not listed.
func (c Catalog) ServicePort(name string, def int) int {
	for _, s := range c.Services {
		if s.Name == name {
			return s.Port
		}
	}
	return def
}

// LoadCatalog reads a catalog override from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate rejects catalogs with missing names or out-of-range ports.
func (c Catalog) Validate() error {
	if len(c.Services) == 0 && len(c.Deployments) == 0 {
		return fmt.Errorf("catalog defines no services or deployments")
	}
	for _, s := range c.Services {
		if s.Name == "" {
			return fmt.Errorf("catalog service with empty name")
		}
		if s.Port < 1 || s.Port > 65535 {
			return fmt.Errorf("catalog service %s: invalid port %d", s.Name, s.Port)
		}
	}
	for _, d := range c.Deployments {
		if d.Name == "" {
			return fmt.Errorf("catalog deployment with empty name")
		}
	}
	for _, dep := range c.Dependencies {
		if dep.Host == "" {
			return fmt.Errorf("catalog dependency with empty host")
		}
		if dep.Port < 1 || dep.Port > 65535 {
			return fmt.Errorf("catalog dependency %s: invalid port %d", dep.Host, dep.Port)
		}
	}
	return nil
}
