package di

import "testing"

func TestContainer_RegisterGet(t *testing.T) {
	c := NewContainer()

	if c.Has("missing") {
		t.Error("empty container should not have tokens")
	}
	if got := c.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}

	c.Register("answer", 42)
	if !c.Has("answer") {
		t.Error("registered token should be visible")
	}
	if got := c.Get("answer"); got != 42 {
		t.Errorf("Get(answer) = %v, want 42", got)
	}
}

func TestGetToken_LazySingleton(t *testing.T) {
	c := NewContainer()
	token := NewToken[*struct{ n int }]("counter")

	calls := 0
	RegisterToken(c, token, func(ServiceRegistry) *struct{ n int } {
		calls++
		return &struct{ n int }{n: 7}
	})

	if calls != 0 {
		t.Fatal("factory should not run before first resolution")
	}

	first := GetToken(c, token)
	second := GetToken(c, token)
	if first == nil || first.n != 7 {
		t.Fatalf("resolved value = %+v", first)
	}
	if first != second {
		t.Error("token should resolve to a singleton")
	}
	if calls != 1 {
		t.Errorf("factory ran %d times, want 1", calls)
	}
}

func TestGetToken_DirectValue(t *testing.T) {
	c := NewContainer()
	token := NewToken[string]("greeting")

	c.Register(token.Name(), "hello")
	if got := GetToken(c, token); got != "hello" {
		t.Errorf("GetToken() = %q, want hello", got)
	}
}

func TestGetToken_MissingYieldsZero(t *testing.T) {
	c := NewContainer()

	if got := GetToken(c, NewToken[int]("absent")); got != 0 {
		t.Errorf("GetToken(absent int) = %d, want 0", got)
	}
	if got := GetToken(c, NewToken[*container]("absent")); got != nil {
		t.Errorf("GetToken(absent pointer) = %v, want nil", got)
	}
}

func TestGetToken_FactorySeesRegistry(t *testing.T) {
	c := NewContainer()
	base := NewToken[int]("base")
	derived := NewToken[int]("derived")

	c.Register(base.Name(), 20)
	RegisterToken(c, derived, func(sr ServiceRegistry) int {
		return GetToken(sr, base) + 1
	})

	if got := GetToken(c, derived); got != 21 {
		t.Errorf("GetToken(derived) = %d, want 21", got)
	}
}
