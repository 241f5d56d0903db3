package inspect

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// recentEventCount bounds the event dump to the most recent entries.
const recentEventCount = 10

// StatusInspector dumps raw resource state for human triage. It makes no
// pass/fail judgement: every query failure is printed inline and the dump
// continues, because this mode exists for reading the wreckage after a
// failed run.
type StatusInspector struct {
	Clientset kubernetes.Interface
	Namespace string
	Out       io.Writer
}

// Dump prints pods, services, deployments, persistent volume claims, and
// the most recent events in the target namespace.
func (s *StatusInspector) Dump(ctx context.Context) {
	fmt.Fprintf(s.Out, "Namespace: %s\n", s.Namespace)

	s.dumpPods(ctx)
	s.dumpServices(ctx)
	s.dumpDeployments(ctx)
	s.dumpPVCs(ctx)
	s.dumpEvents(ctx)
}

func (s *StatusInspector) dumpPods(ctx context.Context) {
	fmt.Fprintln(s.Out, "\nPods:")
	pods, err := s.Clientset.CoreV1().Pods(s.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(s.Out, "  (failed to list pods: %v)\n", err)
		return
	}
	if len(pods.Items) == 0 {
		fmt.Fprintln(s.Out, "  (none)")
		return
	}
	for _, pod := range pods.Items {
		ready := 0
		restarts := int32(0)
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.Ready {
				ready++
			}
			restarts += cs.RestartCount
		}
		fmt.Fprintf(s.Out, "  %-40s %-10s ready=%d/%d restarts=%d\n",
			pod.Name, pod.Status.Phase, ready, len(pod.Spec.Containers), restarts)
	}
}

func (s *StatusInspector) dumpServices(ctx context.Context) {
	fmt.Fprintln(s.Out, "\nServices:")
	svcs, err := s.Clientset.CoreV1().Services(s.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(s.Out, "  (failed to list services: %v)\n", err)
		return
	}
	if len(svcs.Items) == 0 {
		fmt.Fprintln(s.Out, "  (none)")
		return
	}
	for _, svc := range svcs.Items {
		ports := make([]string, 0, len(svc.Spec.Ports))
		for _, p := range svc.Spec.Ports {
			ports = append(ports, fmt.Sprintf("%d/%s", p.Port, p.Protocol))
		}
		fmt.Fprintf(s.Out, "  %-40s %-12s %-16s %s\n",
			svc.Name, svc.Spec.Type, svc.Spec.ClusterIP, strings.Join(ports, ","))
	}
}

func (s *StatusInspector) dumpDeployments(ctx context.Context) {
	fmt.Fprintln(s.Out, "\nDeployments:")
	deps, err := s.Clientset.AppsV1().Deployments(s.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(s.Out, "  (failed to list deployments: %v)\n", err)
		return
	}
	if len(deps.Items) == 0 {
		fmt.Fprintln(s.Out, "  (none)")
		return
	}
	for _, dep := range deps.Items {
		desired := int32(1)
		if dep.Spec.Replicas != nil {
			desired = *dep.Spec.Replicas
		}
		fmt.Fprintf(s.Out, "  %-40s ready=%d/%d\n", dep.Name, dep.Status.ReadyReplicas, desired)
	}
}

func (s *StatusInspector) dumpPVCs(ctx context.Context) {
	fmt.Fprintln(s.Out, "\nPersistentVolumeClaims:")
	pvcs, err := s.Clientset.CoreV1().PersistentVolumeClaims(s.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(s.Out, "  (failed to list pvcs: %v)\n", err)
		return
	}
	if len(pvcs.Items) == 0 {
		fmt.Fprintln(s.Out, "  (none)")
		return
	}
	for _, pvc := range pvcs.Items {
		capacity := ""
		if qty, ok := pvc.Status.Capacity[corev1.ResourceStorage]; ok {
			capacity = qty.String()
		}
		fmt.Fprintf(s.Out, "  %-40s %-10s %s\n", pvc.Name, pvc.Status.Phase, capacity)
	}
}

func (s *StatusInspector) dumpEvents(ctx context.Context) {
	fmt.Fprintf(s.Out, "\nRecent events (last %d):\n", recentEventCount)
	events, err := s.Clientset.CoreV1().Events(s.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(s.Out, "  (failed to list events: %v)\n", err)
		return
	}
	if len(events.Items) == 0 {
		fmt.Fprintln(s.Out, "  (none)")
		return
	}

	items := events.Items
	sort.Slice(items, func(i, j int) bool {
		return eventTime(items[i]).After(eventTime(items[j]).Time)
	})
	if len(items) > recentEventCount {
		items = items[:recentEventCount]
	}
	for _, ev := range items {
		fmt.Fprintf(s.Out, "  %s %-8s %s/%s: %s\n",
			eventTime(ev).Format("15:04:05"), ev.Type, ev.InvolvedObject.Kind, ev.InvolvedObject.Name, ev.Message)
	}
}

// eventTime prefers LastTimestamp but falls back to the creation time,
// which is all some API servers populate for series events.
func eventTime(ev corev1.Event) metav1.Time {
	if !ev.LastTimestamp.IsZero() {
		return ev.LastTimestamp
	}
	return ev.CreationTimestamp
}
