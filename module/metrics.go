package module

import (
	"github.com/theref/dkg-coordinator/model/ritual"
)

// CoordinatorMetrics exposes the instrumentation hooks of the ritual
// coordinator.
type CoordinatorMetrics interface {

	// RitualInitiated reports a newly created ritual and its participant
	// count.
	RitualInitiated(dkgSize uint32)

	// TranscriptPosted reports an admitted transcript submission.
	TranscriptPosted()

	// AggregationPosted reports an admitted aggregation submission.
	AggregationPosted()

	// RitualEnded reports a ritual reaching a terminal state.
	RitualEnded(finalState ritual.State)

	// AdmissionRejected reports a rejected admission call.
	AdmissionRejected()
}
