package updatable_configs

import (
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/theref/dkg-coordinator/state/rituals"
)

const (
	// FieldRitualTimeout is the registered name of the global ritual timeout.
	FieldRitualTimeout = "ritual-timeout"
	// FieldMaxDkgSize is the registered name of the maximum ritual size.
	FieldMaxDkgSize = "max-dkg-size"
)

const (
	DefaultRitualTimeout = time.Hour
	DefaultMaxDkgSize    = uint32(32)
)

// RitualParams holds the global ritual coordination parameters. Both values
// are process-wide and mutable only through the admin role; every read
// observes the current value, so a change applies to all in-flight rituals
// immediately. Every change is written to the audit log and distributed as a
// ParameterChanged notification.
type RitualParams struct {
	log      zerolog.Logger
	consumer rituals.Consumer

	timeout    *atomic.Duration
	maxDkgSize *atomic.Uint32
}

// NewRitualParams validates and wraps the initial parameter values.
func NewRitualParams(timeout time.Duration, maxDkgSize uint32, log zerolog.Logger, consumer rituals.Consumer) (*RitualParams, error) {
	err := validateTimeout(timeout)
	if err != nil {
		return nil, err
	}
	err = validateMaxDkgSize(maxDkgSize)
	if err != nil {
		return nil, err
	}
	return &RitualParams{
		log:        log.With().Str("component", "ritual_params").Logger(),
		consumer:   consumer,
		timeout:    atomic.NewDuration(timeout),
		maxDkgSize: atomic.NewUint32(maxDkgSize),
	}, nil
}

// Timeout returns the current global ritual timeout. A ritual's deadline is
// its init timestamp plus this value, evaluated at read time.
func (p *RitualParams) Timeout() time.Duration {
	return p.timeout.Load()
}

// SetTimeout updates the global ritual timeout.
func (p *RitualParams) SetTimeout(timeout time.Duration) error {
	err := validateTimeout(timeout)
	if err != nil {
		return err
	}
	old := p.timeout.Swap(timeout)
	if old != timeout {
		p.log.Info().Dur("old", old).Dur("new", timeout).Msg("ritual timeout updated")
		p.consumer.ParameterChanged(FieldRitualTimeout, old.String(), timeout.String())
	}
	return nil
}

// MaxDkgSize returns the current maximum ritual size.
func (p *RitualParams) MaxDkgSize() uint32 {
	return p.maxDkgSize.Load()
}

// SetMaxDkgSize updates the maximum ritual size.
func (p *RitualParams) SetMaxDkgSize(size uint32) error {
	err := validateMaxDkgSize(size)
	if err != nil {
		return err
	}
	old := p.maxDkgSize.Swap(size)
	if old != size {
		p.log.Info().Uint32("old", old).Uint32("new", size).Msg("max dkg size updated")
		p.consumer.ParameterChanged(FieldMaxDkgSize, old, size)
	}
	return nil
}

// Register registers both parameters as updatable fields with the manager.
func (p *RitualParams) Register(manager *Manager) {
	manager.RegisterField(Field{
		Name: FieldRitualTimeout,
		Get: func() any {
			return p.Timeout().String()
		},
		Set: func(val any) error {
			timeout, err := toDuration(val)
			if err != nil {
				return err
			}
			return p.SetTimeout(timeout)
		},
	})
	manager.RegisterField(Field{
		Name: FieldMaxDkgSize,
		Get: func() any {
			return p.MaxDkgSize()
		},
		Set: func(val any) error {
			size, err := toUint32(val)
			if err != nil {
				return err
			}
			return p.SetMaxDkgSize(size)
		},
	})
}

func validateTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return NewValidationErrorf("ritual timeout must be positive (got %s)", timeout)
	}
	return nil
}

func validateMaxDkgSize(size uint32) error {
	if size == 0 {
		return NewValidationErrorf("max dkg size must be positive")
	}
	return nil
}

// toDuration converts an admin request value to a duration. JSON decoding
// yields strings ("30m") or numbers (seconds).
func toDuration(val any) (time.Duration, error) {
	switch v := val.(type) {
	case string:
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return 0, NewValidationErrorf("could not parse duration %q: %s", v, err)
		}
		return timeout, nil
	case float64:
		return time.Duration(v) * time.Second, nil
	default:
		return 0, NewValidationErrorf("expected duration string or number of seconds, got %T", val)
	}
}

func toUint32(val any) (uint32, error) {
	switch v := val.(type) {
	case float64:
		if v < 0 || v != float64(uint32(v)) {
			return 0, NewValidationErrorf("value out of range: %v", v)
		}
		return uint32(v), nil
	case int:
		if v < 0 {
			return 0, NewValidationErrorf("value out of range: %v", v)
		}
		return uint32(v), nil
	default:
		return 0, NewValidationErrorf("expected number, got %T", val)
	}
}
