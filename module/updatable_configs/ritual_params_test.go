package updatable_configs

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theref/dkg-coordinator/state/rituals/events"
)

func newParams(t *testing.T) *RitualParams {
	t.Helper()
	params, err := NewRitualParams(DefaultRitualTimeout, DefaultMaxDkgSize, zerolog.Nop(), events.NewNoop())
	require.NoError(t, err)
	return params
}

func TestRitualParamsDefaults(t *testing.T) {
	params := newParams(t)
	assert.Equal(t, DefaultRitualTimeout, params.Timeout())
	assert.Equal(t, DefaultMaxDkgSize, params.MaxDkgSize())
}

func TestRitualParamsValidation(t *testing.T) {
	_, err := NewRitualParams(0, DefaultMaxDkgSize, zerolog.Nop(), events.NewNoop())
	require.True(t, IsValidationError(err))

	_, err = NewRitualParams(DefaultRitualTimeout, 0, zerolog.Nop(), events.NewNoop())
	require.True(t, IsValidationError(err))

	params := newParams(t)
	require.True(t, IsValidationError(params.SetTimeout(-time.Second)))
	require.True(t, IsValidationError(params.SetMaxDkgSize(0)))

	// failed updates leave the current values untouched
	assert.Equal(t, DefaultRitualTimeout, params.Timeout())
	assert.Equal(t, DefaultMaxDkgSize, params.MaxDkgSize())
}

func TestRitualParamsUpdate(t *testing.T) {
	params := newParams(t)

	require.NoError(t, params.SetTimeout(30*time.Minute))
	assert.Equal(t, 30*time.Minute, params.Timeout())

	require.NoError(t, params.SetMaxDkgSize(8))
	assert.Equal(t, uint32(8), params.MaxDkgSize())
}

func TestRitualParamsFields(t *testing.T) {
	params := newParams(t)
	manager := NewManager()
	params.Register(manager)

	timeoutField, ok := manager.GetField(FieldRitualTimeout)
	require.True(t, ok)
	assert.Equal(t, DefaultRitualTimeout.String(), timeoutField.Get())

	// duration string input
	require.NoError(t, timeoutField.Set("45m"))
	assert.Equal(t, 45*time.Minute, params.Timeout())

	// numeric input is interpreted as seconds
	require.NoError(t, timeoutField.Set(float64(120)))
	assert.Equal(t, 2*time.Minute, params.Timeout())

	require.True(t, IsValidationError(timeoutField.Set("bogus")))
	require.True(t, IsValidationError(timeoutField.Set(true)))

	sizeField, ok := manager.GetField(FieldMaxDkgSize)
	require.True(t, ok)
	require.NoError(t, sizeField.Set(float64(16)))
	assert.Equal(t, uint32(16), params.MaxDkgSize())
	require.True(t, IsValidationError(sizeField.Set(float64(-1))))
	require.True(t, IsValidationError(sizeField.Set(float64(1.5))))

	_, ok = manager.GetField("unknown")
	require.False(t, ok)
}
