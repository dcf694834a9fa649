package observers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anggasct/transit"
)

// PrometheusObserver exports transition metrics to Prometheus.
//
// Metrics (labels in brackets):
//   - transit_transitions_total [machine, event, from, to]
//   - transit_transition_duration_seconds [machine, event]
//   - transit_halts_total [machine, event]
//   - transit_defused_errors_total [machine, event]
//   - transit_errors_total [machine, event, handled]
type PrometheusObserver struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	halts       *prometheus.CounterVec
	defused     *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "transit"
	}
	o := &PrometheusObserver{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Completed transitions.",
		}, []string{"machine", "event", "from", "to"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time spent in the transition pipeline.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"machine", "event"}),
		halts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "halts_total",
			Help:      "Halted transitions.",
		}, []string{"machine", "event"}),
		defused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defused_errors_total",
			Help:      "Errors swallowed by defuse rules.",
		}, []string{"machine", "event"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors leaving the transition pipeline.",
		}, []string{"machine", "event", "handled"}),
	}

	if reg != nil {
		for _, c := range o.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

// MustNewPrometheusObserver is like NewPrometheusObserver but panics on
// registration errors
func MustNewPrometheusObserver(reg prometheus.Registerer, namespace string) *PrometheusObserver {
	o, err := NewPrometheusObserver(reg, namespace)
	if err != nil {
		panic(err)
	}
	return o
}

// Collectors returns every collector of the observer
func (o *PrometheusObserver) Collectors() []prometheus.Collector {
	return []prometheus.Collector{o.transitions, o.duration, o.halts, o.defused, o.errors}
}

// OnTransitionStart implements transit.ExtendedObserver
func (o *PrometheusObserver) OnTransitionStart(ctx context.Context, info transit.TransitionInfo) {}

// OnTransition implements transit.Observer
func (o *PrometheusObserver) OnTransition(ctx context.Context, info transit.TransitionInfo) {
	o.transitions.WithLabelValues(info.Machine, info.Event, info.From, info.To).Inc()
	o.duration.WithLabelValues(info.Machine, info.Event).Observe(info.Duration.Seconds())
}

// OnHalt implements transit.ExtendedObserver
func (o *PrometheusObserver) OnHalt(ctx context.Context, info transit.TransitionInfo, halt *transit.TransitionHalted) {
	o.halts.WithLabelValues(info.Machine, info.Event).Inc()
}

// OnDefuse implements transit.ExtendedObserver
func (o *PrometheusObserver) OnDefuse(ctx context.Context, info transit.TransitionInfo, err error) {
	o.defused.WithLabelValues(info.Machine, info.Event).Inc()
}

// OnError implements transit.ExtendedObserver
func (o *PrometheusObserver) OnError(ctx context.Context, info transit.TransitionInfo, err error, handled bool) {
	label := "false"
	if handled {
		label = "true"
	}
	o.errors.WithLabelValues(info.Machine, info.Event, label).Inc()
}
