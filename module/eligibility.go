// Package module defines the interfaces between the coordinator's components
// and the external collaborators they depend on.
package module

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EligibilityOracle is the external stake/authorization query service gating
// participation. Ritual creation and both admission paths require a positive
// authorized weight for the provider involved.
type EligibilityOracle interface {

	// AuthorizedWeight returns the non-negative authorization weight (stake)
	// currently backing the given provider.
	// No errors expected during normal operation.
	AuthorizedWeight(provider common.Address) (*big.Int, error)

	// ResolveProvider maps a submitting operator address to the provider
	// identity it operates for. The zero address is returned for operators
	// not bonded to any provider.
	// No errors expected during normal operation.
	ResolveProvider(operator common.Address) (common.Address, error)
}
