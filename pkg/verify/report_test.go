package verify

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/webtrace/deploycheck/pkg/config"
)

func summaryOf(outcomes map[string]Outcome, cases []TestCase) Summary {
	var sum Summary
	for _, tc := range cases {
		o := outcomes[tc.Name]
		sum.Results = append(sum.Results, Result{Case: tc, Outcome: o, ObservedAt: time.Now()})
		sum.Total++
		if o == Pass {
			sum.Passed++
		}
	}
	return sum
}

func TestReportFullSuccessPrintsConnectionInstructions(t *testing.T) {
	cases := scenarioCases()
	sum := summaryOf(map[string]Outcome{
		cases[0].Name: Pass, cases[1].Name: Pass, cases[2].Name: Pass, cases[3].Name: Pass,
	}, cases)

	var out bytes.Buffer
	Report(&out, testConfig(), sum)

	text := out.String()
	assert.Assert(t, strings.Contains(text, "4/4 passed"))
	assert.Assert(t, strings.Contains(text, "port-forward svc/portal 8080:80"))
	assert.Assert(t, strings.Contains(text, "port-forward svc/crawler-api 8081:8080"))
	assert.Assert(t, strings.Contains(text, "open http://localhost:8080"))
	assert.Assert(t, !strings.Contains(text, "Suggested follow-up"))
}

func TestReportSuccessFollowsCatalogOverride(t *testing.T) {
	// A replacement catalog without portal or crawler-api must not print
	// port-forward commands for services that do not exist.
	cfg := &config.Config{
		Namespace:      "staging",
		ExecDeployment: "api",
		Catalog: config.Catalog{
			Services:    []config.ServiceEntry{{Name: "postgres", Port: 5432}, {Name: "api", Port: 9090}},
			Deployments: []config.DeploymentEntry{{Name: "postgres"}, {Name: "api"}},
		},
	}
	cases := scenarioCases()
	sum := summaryOf(map[string]Outcome{
		cases[0].Name: Pass, cases[1].Name: Pass, cases[2].Name: Pass, cases[3].Name: Pass,
	}, cases)

	var out bytes.Buffer
	Report(&out, cfg, sum)

	text := out.String()
	assert.Assert(t, !strings.Contains(text, "svc/portal"))
	assert.Assert(t, !strings.Contains(text, "svc/crawler-api"))
	assert.Assert(t, strings.Contains(text, "kubectl -n staging port-forward svc/api 8080:9090"))
}

func TestReportSuccessWithNoForwardableService(t *testing.T) {
	cfg := &config.Config{
		Namespace:      "staging",
		ExecDeployment: "worker",
		Catalog: config.Catalog{
			Services: []config.ServiceEntry{{Name: "postgres", Port: 5432}},
		},
	}
	cases := scenarioCases()[:1]
	sum := summaryOf(map[string]Outcome{cases[0].Name: Pass}, cases)

	var out bytes.Buffer
	Report(&out, cfg, sum)

	text := out.String()
	assert.Assert(t, !strings.Contains(text, "port-forward"))
	assert.Assert(t, strings.Contains(text, "kubectl -n staging get svc"))
}

func TestReportFailureGroupsByTier(t *testing.T) {
	cases := scenarioCases()
	sum := summaryOf(map[string]Outcome{
		cases[0].Name: Pass, cases[1].Name: Fail, cases[2].Name: Fail, cases[3].Name: Pass,
	}, cases)

	var out bytes.Buffer
	Report(&out, testConfig(), sum)

	text := out.String()
	assert.Assert(t, strings.Contains(text, "2/4 passed, 2 failed"))
	assert.Assert(t, strings.Contains(text, "deployment readiness:"))
	assert.Assert(t, strings.Contains(text, "service reachability:"))
	assert.Assert(t, strings.Contains(text, "- deployment mariadb ready"))
	assert.Assert(t, strings.Contains(text, "kubectl -n webtrace get pods"))
	assert.Assert(t, !strings.Contains(text, "port-forward"))

	// The readiness failure must be reported before the reachability one it explains.
	assert.Assert(t, strings.Index(text, "deployment readiness:") < strings.Index(text, "service reachability:"))
}
