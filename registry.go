package canopy

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
)

// Manager is a long-lived engine service (scene manager, save manager,
// injector, ...) owned by a Registry.
type Manager interface {
	Setup() error
	Teardown() error
}

// Registry holds at most one manager per concrete type. It is built once at
// startup and passed explicitly to whatever needs it.
type Registry struct {
	logger *slog.Logger
	order  []Manager
	byType map[reflect.Type]Manager
	setUp  bool
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = NopLogger()
	}
	return &Registry{logger: logger, byType: make(map[reflect.Type]Manager)}
}

// Register adds m. Fails with ErrManagerExists if a manager of the same
// concrete type is registered. A manager registered after Setup is set up
// immediately.
func (r *Registry) Register(m Manager) error {
	t := reflect.TypeOf(m)
	if _, ok := r.byType[t]; ok {
		return fmt.Errorf("register manager %s: %w", t, ErrManagerExists)
	}
	if r.setUp {
		if err := m.Setup(); err != nil {
			return fmt.Errorf("setup manager %s: %w", t, err)
		}
	}
	r.byType[t] = m
	r.order = append(r.order, m)
	r.logger.Debug("registered manager", "event", "manager.register", "manager", t.String())
	return nil
}

// Get returns the manager of type T.
func Get[T Manager](r *Registry) (T, error) {
	if m, ok := r.byType[reflect.TypeFor[T]()].(T); ok {
		return m, nil
	}
	var zero T
	return zero, fmt.Errorf("get manager %s: %w", reflect.TypeFor[T](), ErrManagerNotFound)
}

// MustGet is like Get but panics if no manager of type T is registered.
func MustGet[T Manager](r *Registry) T {
	m, err := Get[T](r)
	if err != nil {
		panic("canopy: " + err.Error())
	}
	return m
}

// Has reports whether a manager of type T is registered.
func Has[T Manager](r *Registry) bool {
	_, ok := r.byType[reflect.TypeFor[T]()]
	return ok
}

// Unregister removes the manager of type T, tearing it down first if the
// registry has been set up.
func Unregister[T Manager](r *Registry) error {
	t := reflect.TypeFor[T]()
	m, ok := r.byType[t]
	if !ok {
		return fmt.Errorf("unregister manager %s: %w", t, ErrManagerNotFound)
	}
	delete(r.byType, t)
	r.order = slices.DeleteFunc(r.order, func(o Manager) bool { return o == m })
	if r.setUp {
		if err := m.Teardown(); err != nil {
			return fmt.Errorf("teardown manager %s: %w", t, err)
		}
	}
	return nil
}

// Managers returns the registered managers in registration order.
func (r *Registry) Managers() []Manager { return slices.Clone(r.order) }

// Setup runs Setup on every manager in registration order, stopping at the
// first error.
func (r *Registry) Setup() error {
	for _, m := range r.order {
		if err := m.Setup(); err != nil {
			return fmt.Errorf("setup manager %s: %w", reflect.TypeOf(m), err)
		}
	}
	r.setUp = true
	r.logger.Info("managers set up", "event", "managers.setup", "count", len(r.order))
	return nil
}

// Teardown runs Teardown on every manager in reverse registration order.
// All managers are torn down; their errors are joined.
func (r *Registry) Teardown() error {
	var errs []error
	for _, m := range slices.Backward(r.order) {
		if err := m.Teardown(); err != nil {
			errs = append(errs, fmt.Errorf("teardown manager %s: %w", reflect.TypeOf(m), err))
		}
	}
	r.setUp = false
	r.logger.Info("managers torn down", "event", "managers.teardown", "count", len(r.order))
	return errors.Join(errs...)
}
