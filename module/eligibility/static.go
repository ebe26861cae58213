// Package eligibility provides a table-backed EligibilityOracle for
// deployments without a live stake ledger connection. The table is loaded at
// startup and kept current by relayed stake updates.
package eligibility

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"

	"github.com/theref/dkg-coordinator/module"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry declares one provider's authorization: its current stake weight and
// the operator bonded to it. A missing operator means the provider operates
// for itself.
type Entry struct {
	Provider common.Address `json:"provider"`
	Operator common.Address `json:"operator,omitempty"`
	Weight   *big.Int       `json:"weight"`
}

// Static serves authorization weights and operator bonds from an in-memory
// table. It doubles as the destination ledger of the stake relay, so relayed
// updates are visible to subsequent admission checks.
type Static struct {
	mu        sync.RWMutex
	weights   map[common.Address]*big.Int
	operators map[common.Address]common.Address
}

var _ module.EligibilityOracle = (*Static)(nil)

func NewStatic(entries []Entry) *Static {
	s := &Static{
		weights:   make(map[common.Address]*big.Int),
		operators: make(map[common.Address]common.Address),
	}
	for _, entry := range entries {
		weight := entry.Weight
		if weight == nil {
			weight = big.NewInt(0)
		}
		s.weights[entry.Provider] = weight
		if entry.Operator != (common.Address{}) {
			s.operators[entry.Operator] = entry.Provider
		}
	}
	return s
}

// NewStaticFromFile loads the table from a JSON file holding a list of
// entries.
func NewStaticFromFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read eligibility table %s: %w", path, err)
	}
	var entries []Entry
	err = json.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("could not parse eligibility table %s: %w", path, err)
	}
	return NewStatic(entries), nil
}

func (s *Static) AuthorizedWeight(provider common.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	weight, ok := s.weights[provider]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(weight), nil
}

func (s *Static) ResolveProvider(operator common.Address) (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if provider, ok := s.operators[operator]; ok {
		return provider, nil
	}
	// self-operated providers submit under their own address
	if _, ok := s.weights[operator]; ok {
		return operator, nil
	}
	return common.Address{}, nil
}

// UpdateStake applies a relayed stake update to the table, implementing the
// stake relay's destination ledger.
func (s *Static) UpdateStake(_ context.Context, provider common.Address, amount *big.Int, operator common.Address) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid stake amount for provider %s", provider)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[provider] = new(big.Int).Set(amount)
	if operator != (common.Address{}) {
		s.operators[operator] = provider
	}
	return nil
}
