package metrics

import (
	"github.com/theref/dkg-coordinator/model/ritual"
)

// NoopCollector implements the metrics interfaces with no-ops, for tests and
// for nodes running without a metrics server.
type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) RitualInitiated(dkgSize uint32)      {}
func (nc *NoopCollector) TranscriptPosted()                   {}
func (nc *NoopCollector) AggregationPosted()                  {}
func (nc *NoopCollector) RitualEnded(finalState ritual.State) {}
func (nc *NoopCollector) AdmissionRejected()                  {}
