package verify

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/webtrace/deploycheck/pkg/probe"
	"github.com/webtrace/deploycheck/pkg/telemetry"
)

// Outcome of a single test case.
type Outcome int

const (
	Fail Outcome = iota
	Pass
)

func (o Outcome) String() string {
	if o == Pass {
		return "PASS"
	}
	return "FAIL"
}

// Result records one test case evaluation. Results are created once per
// case per run, never mutated, and owned by the run's Summary.
type Result struct {
	Case       TestCase
	Outcome    Outcome
	ObservedAt time.Time
}

// Summary is the aggregate tally for one run. Failed is derived from
// Total and Passed so the tally cannot drift.
type Summary struct {
	Total   int
	Passed  int
	Results []Result
}

func (s Summary) Failed() int { return s.Total - s.Passed }

func (s Summary) AllPassed() bool { return s.Passed == s.Total }

// ProbeRunner reduces a probe spec to pass/fail. *probe.Executor satisfies it.
type ProbeRunner interface {
	Run(ctx context.Context, spec probe.Spec) bool
}

// Runner executes a registry strictly in order, one attempt per case.
// Execution is sequential: probes share the single in-pod exec channel and
// the per-case output lines must stay attributable.
type Runner struct {
	Exec   ProbeRunner
	Out    io.Writer
	Meters *telemetry.Meters
}

// Run evaluates every case and returns the Summary. Probe failures never
// halt the run; there is no retry and no short-circuit across tiers.
func (r *Runner) Run(ctx context.Context, cases []TestCase) Summary {
	ctx, span := otel.Tracer("deploycheck").Start(ctx, "verification_run")
	defer span.End()

	var sum Summary
	lastTier := Tier(-1)
	for _, tc := range cases {
		if tc.Tier != lastTier {
			fmt.Fprintf(r.Out, "\n--- %s ---\n", tc.Tier)
			lastTier = tc.Tier
		}

		outcome := Fail
		if r.Exec.Run(ctx, tc.Spec) {
			outcome = Pass
		}
		fmt.Fprintf(r.Out, "[%s] %s\n", outcome, tc.Name)

		sum.Results = append(sum.Results, Result{
			Case:       tc,
			Outcome:    outcome,
			ObservedAt: time.Now(),
		})
		sum.Total++
		if outcome == Pass {
			sum.Passed++
		}
	}

	span.SetAttributes(
		attribute.Int("run.total", sum.Total),
		attribute.Int("run.passed", sum.Passed),
		attribute.Int("run.failed", sum.Failed()),
	)
	if r.Meters != nil {
		r.Meters.RunsTotal.Add(ctx, 1, telemetry.WithAttrs(
			attribute.Bool("passed", sum.AllPassed()),
		))
	}
	return sum
}
