package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/theref/dkg-coordinator/model/ritual"
)

const namespaceCoordinator = "coordinator"

// CoordinatorCollector reports ritual lifecycle metrics to prometheus.
type CoordinatorCollector struct {
	ritualsInitiated   prometheus.Counter
	ritualSize         prometheus.Histogram
	transcriptsPosted  prometheus.Counter
	aggregationsPosted prometheus.Counter
	ritualsEnded       *prometheus.CounterVec
	admissionsRejected prometheus.Counter
}

func NewCoordinatorCollector() *CoordinatorCollector {

	cc := &CoordinatorCollector{

		ritualsInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceCoordinator,
			Name:      "rituals_initiated_total",
			Help:      "count of rituals created in the registry",
		}),

		ritualSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceCoordinator,
			Buckets:   []float64{2, 4, 8, 16, 32, 64},
			Name:      "ritual_size_participants",
			Help:      "number of participants in initiated rituals",
		}),

		transcriptsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceCoordinator,
			Name:      "transcripts_posted_total",
			Help:      "count of admitted transcript submissions",
		}),

		aggregationsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceCoordinator,
			Name:      "aggregations_posted_total",
			Help:      "count of admitted aggregation submissions",
		}),

		ritualsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceCoordinator,
			Name:      "rituals_ended_total",
			Help:      "count of rituals reaching a terminal state, by final state",
		}, []string{"state"}),

		admissionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceCoordinator,
			Name:      "admissions_rejected_total",
			Help:      "count of submissions rejected by an admission check",
		}),
	}

	return cc
}

func (cc *CoordinatorCollector) RitualInitiated(dkgSize uint32) {
	cc.ritualsInitiated.Inc()
	cc.ritualSize.Observe(float64(dkgSize))
}

func (cc *CoordinatorCollector) TranscriptPosted() {
	cc.transcriptsPosted.Inc()
}

func (cc *CoordinatorCollector) AggregationPosted() {
	cc.aggregationsPosted.Inc()
}

func (cc *CoordinatorCollector) RitualEnded(finalState ritual.State) {
	cc.ritualsEnded.With(prometheus.Labels{"state": finalState.String()}).Inc()
}

func (cc *CoordinatorCollector) AdmissionRejected() {
	cc.admissionsRejected.Inc()
}
