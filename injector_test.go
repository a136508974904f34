package canopy

import (
	"errors"
	"testing"
)

type gravity struct{ y float64 }

var (
	gravityToken = NewToken[*gravity]("gravity")
	titleToken   = NewToken[string]("title")
)

func TestInjectorProvideInject(t *testing.T) {
	inj := NewInjector(nil)
	g := &gravity{y: 9.8}
	if err := ProvideValue(inj, gravityToken, g); err != nil {
		t.Fatal(err)
	}
	got, err := Inject(inj, gravityToken)
	if err != nil || got != g {
		t.Errorf("Inject = %v, %v", got, err)
	}
	if err := ProvideValue(inj, gravityToken, &gravity{}); !errors.Is(err, ErrInjectableExists) {
		t.Errorf("duplicate err = %v, want ErrInjectableExists", err)
	}
	if _, err := Inject(inj, titleToken); !errors.Is(err, ErrInjectableNotFound) {
		t.Errorf("missing err = %v, want ErrInjectableNotFound", err)
	}
}

func TestInjectorTokensAreTyped(t *testing.T) {
	inj := NewInjector(nil)
	_ = ProvideValue(inj, NewToken[string]("x"), "str")
	if err := ProvideValue(inj, NewToken[int]("x"), 7); err != nil {
		t.Errorf("same name, different type: %v", err)
	}
	if MustInject(inj, NewToken[int]("x")) != 7 || MustInject(inj, NewToken[string]("x")) != "str" {
		t.Error("typed tokens collided")
	}
	if s := NewToken[int]("x").String(); s != "x(int)" {
		t.Errorf("String = %q, want x(int)", s)
	}
}

func TestInjectorProviderRunsEachTime(t *testing.T) {
	inj := NewInjector(nil)
	calls := 0
	_ = Provide(inj, NewToken[int]("counter"), func() (int, error) {
		calls++
		return calls, nil
	})
	a := MustInject(inj, NewToken[int]("counter"))
	b := MustInject(inj, NewToken[int]("counter"))
	if a != 1 || b != 2 {
		t.Errorf("got %d, %d; want 1, 2", a, b)
	}
}

func TestInjectorProviderError(t *testing.T) {
	inj := NewInjector(nil)
	tok := NewToken[int]("broken")
	_ = Provide(inj, tok, func() (int, error) { return 0, errBoom })
	if _, err := Inject(inj, tok); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustInject did not panic")
		}
	}()
	MustInject(inj, tok)
}

func TestInjectorRevokeAndTeardown(t *testing.T) {
	inj := NewInjector(nil)
	_ = ProvideValue(inj, titleToken, "canopy")
	if !Revoke(inj, titleToken) || Revoke(inj, titleToken) {
		t.Error("Revoke should report only the first removal")
	}
	_ = ProvideValue(inj, titleToken, "canopy")
	_ = ProvideValue(inj, gravityToken, &gravity{})
	if err := inj.Teardown(); err != nil {
		t.Fatal(err)
	}
	if _, err := Inject(inj, titleToken); !errors.Is(err, ErrInjectableNotFound) {
		t.Errorf("err after Teardown = %v, want ErrInjectableNotFound", err)
	}
}

func TestInjectorAsManager(t *testing.T) {
	r := NewRegistry(nil)
	inj := NewInjector(nil)
	if err := r.Register(inj); err != nil {
		t.Fatal(err)
	}
	if err := r.Setup(); err != nil {
		t.Fatal(err)
	}
	if MustGet[*Injector](r) != inj {
		t.Error("registry returned another injector")
	}
}
