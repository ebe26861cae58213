// Package updatable_configs provides process-wide configuration values which
// may be updated at runtime, typically through the admin server. Reads always
// observe the current value: a parameter change applies instantly to all
// in-flight rituals on their next read, never a value captured at another
// entity's creation time.
package updatable_configs

import (
	"errors"
	"fmt"
	"sync"
)

// ValidationError is returned by a config setter when the candidate value is
// rejected.
type ValidationError struct {
	Err error
}

func (err ValidationError) Error() string {
	return err.Err.Error()
}

func IsValidationError(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func NewValidationErrorf(msg string, args ...any) ValidationError {
	return ValidationError{
		Err: fmt.Errorf(msg, args...),
	}
}

// Field represents one dynamically updatable config field.
type Field struct {
	// Name is the identifier under which the field is registered.
	Name string
	// Get returns the current value of the field.
	Get func() any
	// Set updates the field. It returns a ValidationError if the candidate
	// value is invalid.
	Set func(any) error
}

// Manager maintains the list of registered updatable config fields.
type Manager struct {
	mu     sync.Mutex
	fields map[string]Field
}

func NewManager() *Manager {
	return &Manager{
		fields: make(map[string]Field),
	}
}

// GetField returns the updatable config field with the given name, if one is
// registered.
func (m *Manager) GetField(name string) (Field, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	field, ok := m.fields[name]
	return field, ok
}

// AllFields returns all registered fields.
func (m *Manager) AllFields() []Field {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields := make([]Field, 0, len(m.fields))
	for _, field := range m.fields {
		fields = append(fields, field)
	}
	return fields
}

// RegisterField registers a field. Registering a name twice is a fatal
// programming error.
func (m *Manager) RegisterField(field Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.fields[field.Name]; exists {
		panic(fmt.Sprintf("config field already registered: %s", field.Name))
	}
	m.fields[field.Name] = field
}
