package probe

import "fmt"

// Spec is one verifiable condition against the live cluster. The set of
// variants is closed: each carries everything its execution needs, and the
// Executor reduces every outcome to pass/fail.
type Spec interface {
	// Describe returns a short human-readable form for log lines.
	Describe() string
	isSpec()
}

// ResourceQuery fetches a single resource and matches a JSONPath projection
// of it against a regular expression.
type ResourceQuery struct {
	Kind     string // lowercase plural resource, e.g. "deployments"
	Name     string
	JSONPath string // e.g. "{.status.readyReplicas}"
	Pattern  string // regexp the rendered value must match
}

// PortReachability tests a TCP connect from inside the application pod.
type PortReachability struct {
	Host string
	Port int
}

// HTTPCheck performs an HTTP GET from inside the application pod and looks
// for a substring in the response body. An empty ExpectedSubstring passes
// on any successful fetch.
type HTTPCheck struct {
	URL               string
	ExpectedSubstring string
}

func (ResourceQuery) isSpec()    {}
func (PortReachability) isSpec() {}
func (HTTPCheck) isSpec()        {}

func (q ResourceQuery) Describe() string {
	return fmt.Sprintf("%s/%s %s matches %q", q.Kind, q.Name, q.JSONPath, q.Pattern)
}

func (p PortReachability) Describe() string {
	return fmt.Sprintf("tcp %s:%d reachable", p.Host, p.Port)
}

func (h HTTPCheck) Describe() string {
	if h.ExpectedSubstring == "" {
		return fmt.Sprintf("GET %s", h.URL)
	}
	return fmt.Sprintf("GET %s contains %q", h.URL, h.ExpectedSubstring)
}
