// Package save persists application state in numbered slots.
//
// A Manager owns named destinations, each backed by a Store. Modules
// register under a destination with an id and a pair of callbacks: OnSave
// produces the value written under that id, OnLoad receives the value read
// back. Values are normalized with mapstructure, so any Store codec that
// round-trips maps, slices and scalars can hold them.
package save

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/phanxgames/canopy"
)

var (
	// ErrNotFound is returned when a slot has never been saved.
	ErrNotFound = errors.New("save not found")
	// ErrUnknownDestination is returned for a destination that was never added.
	ErrUnknownDestination = errors.New("unknown save destination")
	// ErrDestinationExists is returned when adding a destination twice.
	ErrDestinationExists = errors.New("save destination already exists")
	// ErrModuleExists is returned when a module id is reused within a destination.
	ErrModuleExists = errors.New("save module already registered")
)

// Document is the persisted form of one destination slot: module id to
// normalized module data.
type Document map[string]any

// KeyFunc maps a destination name and slot to a store key.
type KeyFunc func(destination string, slot int) string

// DefaultKey returns "destination-slot".
func DefaultKey(destination string, slot int) string {
	return destination + "-" + strconv.Itoa(slot)
}

type module interface {
	id() string
	save() (any, error)
	load(raw any) error
}

type destination struct {
	name    string
	store   Store
	key     KeyFunc
	modules []module
}

// Manager saves and loads registered modules. It implements canopy.Manager
// so it can live in a canopy.Registry.
type Manager struct {
	destinations map[string]*destination
	order        []string
	logger       *slog.Logger
}

// NewManager returns a Manager with no destinations. A nil logger discards
// output.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = canopy.NopLogger()
	}
	return &Manager{destinations: make(map[string]*destination), logger: logger}
}

// FromRegistry returns the Manager registered in r.
func FromRegistry(r *canopy.Registry) (*Manager, error) {
	return canopy.Get[*Manager](r)
}

// AddDestination adds a destination backed by store. A nil key uses
// DefaultKey.
func (m *Manager) AddDestination(name string, store Store, key KeyFunc) error {
	if _, ok := m.destinations[name]; ok {
		return fmt.Errorf("add destination %q: %w", name, ErrDestinationExists)
	}
	if key == nil {
		key = DefaultKey
	}
	m.destinations[name] = &destination{name: name, store: store, key: key}
	m.order = append(m.order, name)
	return nil
}

// Destinations returns the destination names in the order they were added.
func (m *Manager) Destinations() []string { return slices.Clone(m.order) }

// CleanModules drops every module registered under destination.
func (m *Manager) CleanModules(dest string) {
	if d, ok := m.destinations[dest]; ok {
		d.modules = nil
	}
}

func (m *Manager) destination(name string) (*destination, error) {
	d, ok := m.destinations[name]
	if !ok {
		return nil, fmt.Errorf("destination %q: %w", name, ErrUnknownDestination)
	}
	return d, nil
}

// Save writes every module of dest into slot. Modules are asked for their
// data in registration order.
func (m *Manager) Save(ctx context.Context, dest string, slot int) error {
	d, err := m.destination(dest)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	doc := make(Document, len(d.modules))
	for _, mod := range d.modules {
		v, err := mod.save()
		if err != nil {
			return fmt.Errorf("save %s module %q: %w", dest, mod.id(), err)
		}
		doc[mod.id()] = v
	}
	key := d.key(dest, slot)
	if err := d.store.Write(ctx, key, doc); err != nil {
		return fmt.Errorf("save %s slot %d: %w", dest, slot, err)
	}
	m.logger.Info("saved slot",
		"event", "save.write",
		"destination", dest,
		"slot", slot,
		"key", key,
		"modules", len(doc))
	return nil
}

// Load reads slot of dest and hands each module its data. Modules with no
// entry in the slot are skipped. A slot that was never saved returns
// ErrNotFound.
func (m *Manager) Load(ctx context.Context, dest string, slot int) error {
	d, err := m.destination(dest)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	key := d.key(dest, slot)
	doc, err := d.store.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s slot %d: %w", dest, slot, err)
	}
	loaded := 0
	for _, mod := range d.modules {
		raw, ok := doc[mod.id()]
		if !ok {
			continue
		}
		if err := mod.load(raw); err != nil {
			return fmt.Errorf("load %s module %q: %w", dest, mod.id(), err)
		}
		loaded++
	}
	m.logger.Info("loaded slot",
		"event", "save.read",
		"destination", dest,
		"slot", slot,
		"key", key,
		"modules", loaded)
	return nil
}

// Delete removes slot of dest from its store.
func (m *Manager) Delete(ctx context.Context, dest string, slot int) error {
	d, err := m.destination(dest)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return d.store.Delete(ctx, d.key(dest, slot))
}

// SaveAll saves slot for every destination and joins the errors.
func (m *Manager) SaveAll(ctx context.Context, slot int) error {
	var errs []error
	for _, name := range m.order {
		errs = append(errs, m.Save(ctx, name, slot))
	}
	return errors.Join(errs...)
}

// LoadAll loads slot for every destination. Destinations without the slot
// are skipped; other errors are joined.
func (m *Manager) LoadAll(ctx context.Context, slot int) error {
	var errs []error
	for _, name := range m.order {
		if err := m.Load(ctx, name, slot); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup implements canopy.Manager.
func (m *Manager) Setup() error { return nil }

// Teardown implements canopy.Manager. Stores that implement io.Closer are
// closed.
func (m *Manager) Teardown() error {
	var errs []error
	for _, name := range m.order {
		if c, ok := m.destinations[name].store.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Module is a typed save module.
type Module[T any] struct {
	name   string
	onSave func() T
	onLoad func(T)
	last   T
}

// Register adds a module with the given id to destination dest of m. onLoad
// may be nil.
func Register[T any](m *Manager, dest, id string, onSave func() T, onLoad func(T)) (*Module[T], error) {
	d, err := m.destination(dest)
	if err != nil {
		return nil, fmt.Errorf("register module %q: %w", id, err)
	}
	if slices.ContainsFunc(d.modules, func(mod module) bool { return mod.id() == id }) {
		return nil, fmt.Errorf("register module %q in %s: %w", id, dest, ErrModuleExists)
	}
	mod := &Module[T]{name: id, onSave: onSave, onLoad: onLoad}
	d.modules = append(d.modules, mod)
	m.logger.Debug("registered save module", "event", "save.register", "destination", dest, "module", id)
	return mod, nil
}

// ID returns the module id.
func (mod *Module[T]) ID() string { return mod.name }

// Data returns the value most recently saved or loaded.
func (mod *Module[T]) Data() T { return mod.last }

func (mod *Module[T]) id() string { return mod.name }

func (mod *Module[T]) save() (any, error) {
	v := mod.onSave()
	mod.last = v
	return normalize(v)
}

func (mod *Module[T]) load(raw any) error {
	var v T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &v,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	mod.last = v
	if mod.onLoad != nil {
		mod.onLoad(v)
	}
	return nil
}

// normalize turns structs into nested maps keyed by field name (or
// mapstructure tag) so every codec writes the same shape.
func normalize(v any) (any, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return v, nil
	}
	var out map[string]any
	if err := mapstructure.Decode(rv.Interface(), &out); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}
