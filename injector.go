package canopy

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Token names an injectable value of type T. Tokens with the same name but
// different T are distinct.
type Token[T any] struct {
	name string
}

// NewToken returns a token for values of type T.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// String returns "name(T)".
func (t Token[T]) String() string {
	return t.name + "(" + reflect.TypeFor[T]().String() + ")"
}

// Injector maps tokens to providers. Providers run on every Inject, so a
// provider may return a fresh value or a shared one. Safe for concurrent use.
type Injector struct {
	mu        sync.RWMutex
	providers map[any]any
	logger    *slog.Logger
}

// NewInjector returns an empty injector. A nil logger discards output.
func NewInjector(logger *slog.Logger) *Injector {
	if logger == nil {
		logger = NopLogger()
	}
	return &Injector{providers: make(map[any]any), logger: logger}
}

// Provide registers fn as the provider for tok. Fails with
// ErrInjectableExists if tok already has a provider.
func Provide[T any](inj *Injector, tok Token[T], fn func() (T, error)) error {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	if _, ok := inj.providers[tok]; ok {
		return fmt.Errorf("provide %s: %w", tok, ErrInjectableExists)
	}
	inj.providers[tok] = fn
	inj.logger.Debug("registered injectable", "event", "inject.provide", "token", tok.String())
	return nil
}

// ProvideValue registers v as the value for tok.
func ProvideValue[T any](inj *Injector, tok Token[T], v T) error {
	return Provide(inj, tok, func() (T, error) { return v, nil })
}

// Inject runs the provider for tok. Fails with ErrInjectableNotFound if tok
// has no provider.
func Inject[T any](inj *Injector, tok Token[T]) (T, error) {
	inj.mu.RLock()
	p, ok := inj.providers[tok]
	inj.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("inject %s: %w", tok, ErrInjectableNotFound)
	}
	v, err := p.(func() (T, error))()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("inject %s: %w", tok, err)
	}
	return v, nil
}

// MustInject is like Inject but panics on error.
func MustInject[T any](inj *Injector, tok Token[T]) T {
	v, err := Inject(inj, tok)
	if err != nil {
		panic("canopy: " + err.Error())
	}
	return v
}

// Revoke removes the provider for tok. Reports whether one was registered.
func Revoke[T any](inj *Injector, tok Token[T]) bool {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	_, ok := inj.providers[tok]
	delete(inj.providers, tok)
	return ok
}

// Setup implements Manager.
func (inj *Injector) Setup() error { return nil }

// Teardown implements Manager. It drops every provider.
func (inj *Injector) Teardown() error {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	clear(inj.providers)
	return nil
}
