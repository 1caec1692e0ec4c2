package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gaedeploy"

// Metrics are the deploy counters of one process. They live on a private
// registry because the process is a short-lived CLI; WriteTextfile exports
// them for the node_exporter textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	DeploymentsTotal  *prometheus.CounterVec
	DeploymentsFailed *prometheus.CounterVec
	DeployDuration    *prometheus.HistogramVec
	LastSuccess       *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DeploymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deployments_total",
				Help:      "Deploy attempts per application",
			},
			[]string{"app"},
		),
		DeploymentsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deployments_failed_total",
				Help:      "Failed deploys per application and reason",
			},
			[]string{"app", "reason"},
		),
		DeployDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "deploy_duration_seconds",
				Help:      "Wall time of a deploy from staging to cleanup",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"app"},
		),
		LastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful deploy",
			},
			[]string{"app"},
		),
	}
	m.registry.MustRegister(m.DeploymentsTotal, m.DeploymentsFailed, m.DeployDuration, m.LastSuccess)
	return m
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
