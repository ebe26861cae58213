package relay

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// retryMax is the maximum number of times the relay will attempt to deliver a
// stake update to the destination ledger.
const retryMax = 8

// retryBaseWait is the initial wait between delivery attempts; subsequent
// waits grow along the fibonacci sequence.
const retryBaseWait = time.Second

// StakeUpdate is a stake-amount/operator update emitted by the source ledger.
type StakeUpdate struct {
	Sender   common.Address
	Provider common.Address
	Operator common.Address
	Amount   *big.Int
}

// DestinationLedger applies relayed stake updates on the receiving domain.
type DestinationLedger interface {
	UpdateStake(ctx context.Context, provider common.Address, amount *big.Int, operator common.Address) error
}

// Tunnel carries stake updates from the source-ledger listener to the relay.
// The same Tunnel is intended to be reused across reconnects of the listener.
type Tunnel struct {
	Updates chan StakeUpdate
}

// NewTunnel instantiates a new Tunnel
func NewTunnel() *Tunnel {
	return &Tunnel{
		Updates: make(chan StakeUpdate),
	}
}

// SendIn pushes an update into the Updates channel to be received by the
// relay.
func (t *Tunnel) SendIn(update StakeUpdate) {
	t.Updates <- update
}

// Relay forwards stake updates one way, from a configured source ledger to a
// destination ledger. It is purely a transport: it never inspects or alters
// the coordination state.
type Relay struct {
	log      zerolog.Logger
	source   common.Address
	dest     DestinationLedger
	tunnel   *Tunnel
	baseWait time.Duration
}

// Option applies an optional configuration to the Relay.
type Option func(*Relay)

// WithBaseWait overrides the initial retry wait, used by tests to avoid
// sleeping through the backoff schedule.
func WithBaseWait(wait time.Duration) Option {
	return func(r *Relay) {
		r.baseWait = wait
	}
}

// New instantiates a relay forwarding updates asserted by source to dest.
func New(log zerolog.Logger, source common.Address, dest DestinationLedger, tunnel *Tunnel, opts ...Option) *Relay {
	r := &Relay{
		log:      log.With().Str("component", "stake_relay").Logger(),
		source:   source,
		dest:     dest,
		tunnel:   tunnel,
		baseWait: retryBaseWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run consumes updates from the tunnel until the context is cancelled.
// Delivery failures are logged and do not stop the loop.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-r.tunnel.Updates:
			err := r.Forward(ctx, update)
			if err != nil {
				r.log.Error().Err(err).
					Str("provider", update.Provider.Hex()).
					Msg("could not forward stake update")
			}
		}
	}
}

// Forward delivers a single update to the destination ledger, retrying with
// fibonacci backoff. An update whose asserted sender differs from the
// configured source is acknowledged and dropped without error.
func (r *Relay) Forward(ctx context.Context, update StakeUpdate) error {
	if update.Sender != r.source {
		r.log.Warn().
			Str("sender", update.Sender.Hex()).
			Str("source", r.source.Hex()).
			Msg("dropping stake update from unrecognized sender")
		return nil
	}

	fibRetry, err := retry.NewFibonacci(r.baseWait)
	if err != nil {
		return fmt.Errorf("could not create retry mechanism: %w", err)
	}
	maxedFibRetry := retry.WithMaxRetries(retryMax, fibRetry)

	err = retry.Do(ctx, maxedFibRetry, func(ctx context.Context) error {
		err := r.dest.UpdateStake(ctx, update.Provider, update.Amount, update.Operator)
		if err != nil {
			r.log.Error().Err(err).Msg("error delivering stake update, retrying")
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("could not deliver stake update: %w", err)
	}

	r.log.Debug().
		Str("provider", update.Provider.Hex()).
		Str("operator", update.Operator.Hex()).
		Str("amount", update.Amount.String()).
		Msg("stake update forwarded")

	return nil
}
