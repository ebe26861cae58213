package events

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/state/rituals"
)

// Noop is a no-op implementation of rituals.Consumer.
type Noop struct{}

var _ rituals.Consumer = (*Noop)(nil)

func NewNoop() *Noop {
	return &Noop{}
}

func (n Noop) RitualStarted(ritual.ID, common.Address, common.Address, []common.Address) {}

func (n Noop) TranscriptRoundStarted(ritual.ID) {}

func (n Noop) TranscriptPosted(ritual.ID, common.Address, common.Hash) {}

func (n Noop) AggregationRoundStarted(ritual.ID) {}

func (n Noop) AggregationPosted(ritual.ID, common.Address, common.Hash) {}

func (n Noop) RitualEnded(ritual.ID, ritual.State) {}

func (n Noop) ParticipantPublicKeySet(ritual.ID, common.Address, ritual.G2Point) {}

func (n Noop) ParameterChanged(string, any, any) {}
