package k8s

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
)

// syncBuffer serializes writes to one buffer. The exec stream protocol
// copies stdout and stderr in separate goroutines, so sharing a plain
// bytes.Buffer between the two streams would race.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// PodExecutor runs a command inside a pod of a named deployment. It is the
// single execution channel shared by reachability and HTTP probes.
type PodExecutor interface {
	// ExecInDeployment returns combined stdout+stderr of the command. A
	// non-zero remote exit status is returned as an error alongside the
	// output captured so far.
	ExecInDeployment(ctx context.Context, namespace, deployment string, command []string) (string, error)
}

// ExecInDeployment resolves a running pod of the deployment via its label
// selector and execs the command over SPDY.
func (c *Clients) ExecInDeployment(ctx context.Context, namespace, deployment string, command []string) (string, error) {
	podName, err := c.runningPodFor(ctx, namespace, deployment)
	if err != nil {
		return "", err
	}

	req := c.Clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Command: command,
			Stdin:   false,
			Stdout:  true,
			Stderr:  true,
			TTY:     false,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(c.RESTConfig, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("creating executor for pod %s/%s: %w", namespace, podName, err)
	}

	var buf syncBuffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &buf,
		Stderr: &buf,
	})
	if err != nil {
		slog.Debug("exec failed", "pod", podName, "command", command, "error", err)
		return buf.String(), err
	}
	return buf.String(), nil
}

// runningPodFor picks the first pod of the deployment in phase Running.
func (c *Clients) runningPodFor(ctx context.Context, namespace, deployment string) (string, error) {
	dep, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, deployment, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("getting deployment %s/%s: %w", namespace, deployment, err)
	}

	selector, err := metav1.LabelSelectorAsSelector(dep.Spec.Selector)
	if err != nil {
		return "", fmt.Errorf("deployment %s/%s has invalid selector: %w", namespace, deployment, err)
	}

	pods, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector.String(),
	})
	if err != nil {
		return "", fmt.Errorf("listing pods for %s/%s: %w", namespace, deployment, err)
	}

	for _, pod := range pods.Items {
		if pod.Status.Phase == corev1.PodRunning {
			return pod.Name, nil
		}
	}
	return "", fmt.Errorf("no running pod found for deployment %s/%s", namespace, deployment)
}
