package k8s

import (
	"context"
	"strings"
	"sync"
	"testing"

	"gotest.tools/assert"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func testDeployment(name string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "webtrace"},
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{"app": name},
			},
		},
	}
}

func testPod(name, app string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "webtrace",
			Labels:    map[string]string{"app": app},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
}

func TestRunningPodForPicksRunningPod(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		testDeployment("crawler-api"),
		testPod("crawler-api-a", "crawler-api", corev1.PodPending),
		testPod("crawler-api-b", "crawler-api", corev1.PodRunning),
		testPod("mariadb-a", "mariadb", corev1.PodRunning),
	)
	c := &Clients{Clientset: clientset}

	pod, err := c.runningPodFor(context.Background(), "webtrace", "crawler-api")
	assert.NilError(t, err)
	assert.Equal(t, pod, "crawler-api-b")
}

func TestRunningPodForNoRunningPod(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		testDeployment("crawler-api"),
		testPod("crawler-api-a", "crawler-api", corev1.PodPending),
	)
	c := &Clients{Clientset: clientset}

	_, err := c.runningPodFor(context.Background(), "webtrace", "crawler-api")
	assert.ErrorContains(t, err, "no running pod")
}

func TestSyncBufferConcurrentStreams(t *testing.T) {
	// The exec stream copies stdout and stderr in separate goroutines
	// writing the same buffer; interleaved writes must all land intact.
	var buf syncBuffer
	var wg sync.WaitGroup

	const writes = 200
	for _, chunk := range []string{"out", "err"} {
		wg.Add(1)
		go func(chunk string) {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				buf.Write([]byte(chunk))
			}
		}(chunk)
	}
	wg.Wait()

	got := buf.String()
	assert.Equal(t, len(got), 2*writes*3)
	assert.Equal(t, strings.Count(got, "out"), writes)
	assert.Equal(t, strings.Count(got, "err"), writes)
}

func TestRunningPodForMissingDeployment(t *testing.T) {
	c := &Clients{Clientset: fake.NewSimpleClientset()}

	_, err := c.runningPodFor(context.Background(), "webtrace", "crawler-api")
	assert.ErrorContains(t, err, "getting deployment")
}
