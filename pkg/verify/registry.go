package verify

import (
	"fmt"

	"github.com/webtrace/deploycheck/pkg/config"
	"github.com/webtrace/deploycheck/pkg/probe"
)

// Tier orders test cases by dependency. A failure in a lower tier makes
// higher-tier failures expected rather than independently meaningful, but
// execution never gates on it: every case runs and is reported.
type Tier int

const (
	TierNamespace Tier = iota
	TierDeployments
	TierServices
	TierApplication
	TierConnectivity
)

func (t Tier) String() string {
	switch t {
	case TierNamespace:
		return "namespace"
	case TierDeployments:
		return "deployment readiness"
	case TierServices:
		return "service reachability"
	case TierApplication:
		return "application health"
	case TierConnectivity:
		return "cross-dependency connectivity"
	}
	return "unknown"
}

// TestCase is one named check. Identity is the name, unique within a run;
// cases are immutable once the registry is built.
type TestCase struct {
	Name string
	Tier Tier
	Spec probe.Spec
}

// readyPattern accepts any positive integer rendered by the readyReplicas
// JSONPath. An absent field renders empty and fails the match.
const readyPattern = `^[1-9][0-9]*$`

// BuildRegistry assembles the tier-ordered case list for one run. The
// registry is rebuilt fresh on every invocation; nothing persists across
// runs.
func BuildRegistry(cfg *config.Config) []TestCase {
	cases := []TestCase{
		{
			Name: fmt.Sprintf("namespace %s exists", cfg.Namespace),
			Tier: TierNamespace,
			Spec: probe.ResourceQuery{
				Kind:     "namespaces",
				Name:     cfg.Namespace,
				JSONPath: "{.status.phase}",
				Pattern:  "Active",
			},
		},
	}

	for _, d := range cfg.Catalog.Deployments {
		cases = append(cases, TestCase{
			Name: fmt.Sprintf("deployment %s ready", d.Name),
			Tier: TierDeployments,
			Spec: probe.ResourceQuery{
				Kind:     "deployments",
				Name:     d.Name,
				JSONPath: "{.status.readyReplicas}",
				Pattern:  readyPattern,
			},
		})
	}

	for _, s := range cfg.Catalog.Services {
		cases = append(cases, TestCase{
			Name: fmt.Sprintf("service %s:%d reachable", s.Name, s.Port),
			Tier: TierServices,
			Spec: probe.PortReachability{
				Host: fmt.Sprintf("%s.%s.svc.cluster.local", s.Name, cfg.Namespace),
				Port: s.Port,
			},
		})
	}

	apiBase := fmt.Sprintf("http://%s:%d", cfg.ExecDeployment, cfg.Catalog.ServicePort(cfg.ExecDeployment, 8080))
	cases = append(cases,
		TestCase{
			Name: fmt.Sprintf("%s health endpoint", cfg.ExecDeployment),
			Tier: TierApplication,
			Spec: probe.HTTPCheck{URL: apiBase + "/api/health", ExpectedSubstring: `"status"`},
		},
		TestCase{
			Name: fmt.Sprintf("%s system metrics", cfg.ExecDeployment),
			Tier: TierApplication,
			Spec: probe.HTTPCheck{URL: apiBase + "/api/system-metrics", ExpectedSubstring: `"network"`},
		},
	)
	for _, s := range cfg.Catalog.Services {
		if s.Name == "portal" {
			cases = append(cases, TestCase{
				Name: "portal serves http",
				Tier: TierApplication,
				Spec: probe.HTTPCheck{URL: fmt.Sprintf("http://portal:%d/", s.Port)},
			})
		}
	}

	for _, dep := range cfg.Catalog.Dependencies {
		cases = append(cases, TestCase{
			Name: fmt.Sprintf("%s -> %s:%d", cfg.ExecDeployment, dep.Host, dep.Port),
			Tier: TierConnectivity,
			Spec: probe.PortReachability{Host: dep.Host, Port: dep.Port},
		})
	}

	return cases
}
