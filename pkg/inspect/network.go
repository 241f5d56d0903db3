package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/webtrace/deploycheck/pkg/k8s"
)

// NetworkDiagnostic fetches live network telemetry from the application's
// metrics endpoint through the in-pod exec channel and pretty-prints it.
// Every failure is terminal for this mode only and never sets exit status.
type NetworkDiagnostic struct {
	Exec       k8s.PodExecutor
	Namespace  string
	Deployment string
	MetricsURL string
	Timeout    time.Duration
	Out        io.Writer
}

// Run fetches /api/system-metrics and prints the network-status structure.
func (n *NetworkDiagnostic) Run(ctx context.Context) {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	cmd := []string{"sh", "-c", fmt.Sprintf("wget -q -O - -T %d %s", secs, n.MetricsURL)}

	out, err := n.Exec.ExecInDeployment(ctx, n.Namespace, n.Deployment, cmd)
	if err != nil {
		fmt.Fprintf(n.Out, "API not responding (%s)\n", n.MetricsURL)
		return
	}

	var metrics map[string]interface{}
	if err := json.Unmarshal([]byte(out), &metrics); err != nil {
		fmt.Fprintln(n.Out, "warning: metrics response is not valid JSON")
		return
	}

	network, ok := metrics["network"]
	if !ok {
		fmt.Fprintln(n.Out, "warning: network metrics not found in response")
		return
	}

	fmt.Fprintln(n.Out, "Network status:")
	printIndented(n.Out, network)

	if system, ok := metrics["system"].(map[string]interface{}); ok {
		if sysNet, ok := system["network"]; ok {
			fmt.Fprintln(n.Out, "\nSystem network interfaces:")
			printIndented(n.Out, sysNet)
		}
	}
}

func printIndented(w io.Writer, v interface{}) {
	data, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		fmt.Fprintf(w, "  (unprintable: %v)\n", err)
		return
	}
	fmt.Fprintf(w, "  %s\n", data)
}
