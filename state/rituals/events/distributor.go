// Package events provides implementations of the rituals.Consumer interface.
package events

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/theref/dkg-coordinator/model/ritual"
	"github.com/theref/dkg-coordinator/state/rituals"
)

// Distributor distributes events to a list of subscribers concurrently safe.
type Distributor struct {
	subscribers []rituals.Consumer
	mu          sync.RWMutex
}

var _ rituals.Consumer = (*Distributor)(nil)

// NewDistributor returns a new events distributor.
func NewDistributor() *Distributor {
	return &Distributor{}
}

// AddConsumer adds a consumer to the distribution list.
func (d *Distributor) AddConsumer(consumer rituals.Consumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, consumer)
}

func (d *Distributor) RitualStarted(id ritual.ID, initiator, authority common.Address, participants []common.Address) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.RitualStarted(id, initiator, authority, participants)
	}
}

func (d *Distributor) TranscriptRoundStarted(id ritual.ID) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.TranscriptRoundStarted(id)
	}
}

func (d *Distributor) TranscriptPosted(id ritual.ID, node common.Address, digest common.Hash) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.TranscriptPosted(id, node, digest)
	}
}

func (d *Distributor) AggregationRoundStarted(id ritual.ID) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.AggregationRoundStarted(id)
	}
}

func (d *Distributor) AggregationPosted(id ritual.ID, node common.Address, digest common.Hash) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.AggregationPosted(id, node, digest)
	}
}

func (d *Distributor) RitualEnded(id ritual.ID, finalState ritual.State) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.RitualEnded(id, finalState)
	}
}

func (d *Distributor) ParticipantPublicKeySet(fromRitual ritual.ID, participant common.Address, key ritual.G2Point) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.ParticipantPublicKeySet(fromRitual, participant, key)
	}
}

func (d *Distributor) ParameterChanged(name string, oldValue, newValue any) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subscribers {
		sub.ParameterChanged(name, oldValue, newValue)
	}
}
