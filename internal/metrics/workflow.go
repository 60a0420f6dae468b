package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var Workflow = WorkflowExporter{
	total: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lake",
			Name:      "steps_total",
			Help:      "How many workflow steps were processed.",
		},
		[]string{"workflow", "step", "status"},
	),
	duration: promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lake",
			Name:      "step_duration_seconds",
			Help:      "How long it took to process a workflow step.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"workflow", "step"},
	),
}

type WorkflowExporter struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func (w *WorkflowExporter) StepProcessed(workflow string, step string, status string, duration time.Duration) {
	w.total.With(prometheus.Labels{
		"workflow": workflow,
		"step":     step,
		"status":   status,
	}).Inc()

	w.duration.With(prometheus.Labels{
		"workflow": workflow,
		"step":     step,
	}).Observe(duration.Seconds())
}

// Push sends all registered metrics to a Prometheus Pushgateway.
// The commands are short-lived, so there is nothing to scrape.
func Push(gatewayURL string, job string) error {
	err := push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		return errors.Wrap(err, "push failed")
	}

	return nil
}
