package probe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/util/jsonpath"

	"github.com/webtrace/deploycheck/pkg/k8s"
	"github.com/webtrace/deploycheck/pkg/telemetry"
)

var resourceGVRs = map[string]schema.GroupVersionResource{
	"namespaces":             {Group: "", Version: "v1", Resource: "namespaces"},
	"pods":                   {Group: "", Version: "v1", Resource: "pods"},
	"services":               {Group: "", Version: "v1", Resource: "services"},
	"persistentvolumeclaims": {Group: "", Version: "v1", Resource: "persistentvolumeclaims"},
	"deployments":            {Group: "apps", Version: "v1", Resource: "deployments"},
}

// Executor evaluates probe specs against the live cluster. Reachability and
// HTTP probes run through the single in-pod execution channel; resource
// queries go straight to the API server.
type Executor struct {
	Dynamic        dynamic.Interface
	Exec           k8s.PodExecutor
	Namespace      string
	ExecDeployment string
	Timeout        time.Duration
	Meters         *telemetry.Meters
}

// Run evaluates one spec and reduces every failure mode (timeout, refused
// connection, missing resource, malformed output, missing binary) to false.
func (e *Executor) Run(ctx context.Context, spec Spec) bool {
	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	ctx, span := otel.Tracer("deploycheck").Start(ctx, "probe")
	defer span.End()

	start := time.Now()
	var kind string
	var ok bool
	switch s := spec.(type) {
	case ResourceQuery:
		kind, ok = "resource_query", e.resourceQuery(ctx, s)
	case PortReachability:
		kind, ok = "port_reachability", e.portReachable(ctx, s)
	case HTTPCheck:
		kind, ok = "http_check", e.httpCheck(ctx, s)
	default:
		kind, ok = "unknown", false
	}

	span.SetAttributes(
		attribute.String("probe.kind", kind),
		attribute.Bool("probe.passed", ok),
	)
	if e.Meters != nil {
		e.Meters.ProbesTotal.Add(ctx, 1, telemetry.WithAttrs(
			attribute.String("kind", kind),
			attribute.Bool("passed", ok),
		))
		e.Meters.ProbeDuration.Record(ctx, time.Since(start).Seconds(), telemetry.WithAttrs(
			attribute.String("kind", kind),
		))
	}

	slog.Debug("probe finished", "kind", kind, "spec", spec.Describe(), "passed", ok, "duration", time.Since(start))
	return ok
}

func (e *Executor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return 15 * time.Second
}

// timeoutSeconds is the value handed to nc -w and wget -T; the remote
// command should not outlive the local context by much.
func (e *Executor) timeoutSeconds() int {
	secs := int(e.timeout().Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (e *Executor) resourceQuery(ctx context.Context, q ResourceQuery) bool {
	gvr, known := resourceGVRs[q.Kind]
	if !known {
		slog.Warn("probe: unknown resource kind", "kind", q.Kind)
		return false
	}

	ri := e.Dynamic.Resource(gvr).Namespace(e.Namespace)
	if q.Kind == "namespaces" {
		ri = e.Dynamic.Resource(gvr)
	}
	obj, err := ri.Get(ctx, q.Name, metav1.GetOptions{})
	if err != nil {
		slog.Debug("probe: resource fetch failed", "kind", q.Kind, "name", q.Name, "error", err)
		return false
	}

	value, err := evalJSONPath(q.JSONPath, obj.UnstructuredContent())
	if err != nil {
		slog.Debug("probe: jsonpath evaluation failed", "expr", q.JSONPath, "error", err)
		return false
	}

	matched, err := regexp.MatchString(q.Pattern, value)
	if err != nil {
		slog.Warn("probe: invalid pattern", "pattern", q.Pattern, "error", err)
		return false
	}
	return matched
}

func (e *Executor) portReachable(ctx context.Context, p PortReachability) bool {
	cmd := []string{
		"sh", "-c",
		fmt.Sprintf("nc -z -w %d %s %d && echo 'CONNECTION_SUCCESS' || echo 'CONNECTION_FAILED'",
			e.timeoutSeconds(), p.Host, p.Port),
	}
	out, err := e.Exec.ExecInDeployment(ctx, e.Namespace, e.ExecDeployment, cmd)
	if err != nil {
		return false
	}
	return strings.Contains(out, "CONNECTION_SUCCESS")
}

func (e *Executor) httpCheck(ctx context.Context, h HTTPCheck) bool {
	cmd := []string{
		"sh", "-c",
		fmt.Sprintf("wget -q -O - -T %d %s", e.timeoutSeconds(), h.URL),
	}
	out, err := e.Exec.ExecInDeployment(ctx, e.Namespace, e.ExecDeployment, cmd)
	if err != nil {
		return false
	}
	return strings.Contains(out, h.ExpectedSubstring)
}

func evalJSONPath(expr string, data interface{}) (string, error) {
	jp := jsonpath.New("probe")
	if err := jp.Parse(expr); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := jp.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
