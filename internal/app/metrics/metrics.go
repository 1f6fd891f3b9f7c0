package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects overlay counters exposed on the bridge /metrics endpoint.
type Metrics struct {
	ScansTotal     prometheus.Counter
	BindingsTotal  prometheus.Counter
	PollTicksTotal prometheus.Counter
	JobsTotal      *prometheus.CounterVec
	ActiveJobs     prometheus.Gauge
}

// New registers the overlay metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "vmstt_scans_total",
			Help: "Number of host snapshot scans executed",
		}),
		BindingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "vmstt_bindings_total",
			Help: "Number of UI elements bound to voicemail records",
		}),
		PollTicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "vmstt_poll_ticks_total",
			Help: "Number of job status checks issued",
		}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vmstt_jobs_total",
			Help: "Number of transcription jobs by terminal outcome",
		}, []string{"outcome"}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vmstt_active_jobs",
			Help: "Number of transcription jobs currently polled",
		}),
	}
}

// NewDefault registers against the default prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// Nop returns metrics bound to a throwaway registry, for tests and callers
// that do not expose an endpoint.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
