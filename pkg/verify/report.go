package verify

import (
	"fmt"
	"io"

	"github.com/webtrace/deploycheck/pkg/config"
)

// Report prints the final tally and, depending on the outcome, either
// connection instructions or follow-up diagnostics. Failures are grouped
// by tier so the dependency relationship stays legible: a reachability
// failure under a not-ready deployment is expected, not a separate fault.
func Report(w io.Writer, cfg *config.Config, sum Summary) {
	fmt.Fprintf(w, "\nResults: %d/%d passed, %d failed\n", sum.Passed, sum.Total, sum.Failed())

	if sum.AllPassed() {
		printConnectionInstructions(w, cfg)
		return
	}

	fmt.Fprintln(w, "\nFailures by tier (lower tiers explain higher ones):")
	lastTier := Tier(-1)
	for _, res := range sum.Results {
		if res.Outcome == Pass {
			continue
		}
		if res.Case.Tier != lastTier {
			fmt.Fprintf(w, "  %s:\n", res.Case.Tier)
			lastTier = res.Case.Tier
		}
		fmt.Fprintf(w, "    - %s\n", res.Case.Name)
	}

	fmt.Fprintln(w, "\nSuggested follow-up:")
	fmt.Fprintf(w, "  deploycheck status\n")
	fmt.Fprintf(w, "  kubectl -n %s get pods\n", cfg.Namespace)
	fmt.Fprintf(w, "  kubectl -n %s describe deployment <name>\n", cfg.Namespace)
	fmt.Fprintf(w, "  kubectl -n %s logs deployment/<name> --tail=100\n", cfg.Namespace)
}

// printConnectionInstructions emits port-forward commands for the services
// the catalog actually lists, so overridden catalogs never advertise
// services that do not exist.
func printConnectionInstructions(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "\nAll checks passed. To reach the platform:")

	localPort := 8080
	portalLocal := 0
	seen := map[string]bool{}
	for _, name := range []string{"portal", cfg.ExecDeployment} {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		svc, listed := cfg.Catalog.Service(name)
		if !listed {
			continue
		}
		fmt.Fprintf(w, "  kubectl -n %s port-forward svc/%s %d:%d\n", cfg.Namespace, svc.Name, localPort, svc.Port)
		if name == "portal" {
			portalLocal = localPort
		}
		localPort++
	}

	if portalLocal != 0 {
		fmt.Fprintf(w, "then open http://localhost:%d\n", portalLocal)
	} else if localPort == 8080 {
		// Nothing in the catalog to forward; point at the service list instead.
		fmt.Fprintf(w, "  kubectl -n %s get svc\n", cfg.Namespace)
	}
}
