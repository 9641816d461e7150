package di

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type singletonThing struct{ id int }

func TestGetMemoizesSingleton(t *testing.T) {
	calls := 0
	p := New()
	RegisterConstructor[*singletonThing](p, func() *singletonThing {
		calls++
		return &singletonThing{id: calls}
	})
	c := MustSeal(p)
	inj := MustNewInjector(c)
	a := Get[*singletonThing](inj)
	b := Get[*singletonThing](inj)
	require.Same(t, a, b)
	require.Equal(t, 1, calls)
}

type teardownLeaf struct{ closed *[]string }

func (l *teardownLeaf) Close() error { *l.closed = append(*l.closed, "leaf"); return nil }

type teardownRoot struct {
	leaf   *teardownLeaf
	closed *[]string
}

func (r *teardownRoot) Close() error { *r.closed = append(*r.closed, "root"); return nil }

func TestCloseTearsDownInReverseOrder(t *testing.T) {
	var closed []string
	p := New()
	RegisterConstructor[*teardownLeaf](p, func() *teardownLeaf { return &teardownLeaf{closed: &closed} })
	RegisterConstructor[*teardownRoot](p, func(l *teardownLeaf) *teardownRoot {
		return &teardownRoot{leaf: l, closed: &closed}
	})
	c := MustSeal(p)
	inj := MustNewInjector(c)
	Get[*teardownRoot](inj)

	err := inj.Close()
	require.NoError(t, err)
	require.Equal(t, []string{"root", "leaf"}, closed)
}

func TestCloseSkipsInstanceBindings(t *testing.T) {
	var closed []string
	owned := &teardownLeaf{closed: &closed}
	p := New()
	BindInstance[*teardownLeaf](p, owned)
	c := MustSeal(p)
	inj := MustNewInjector(c)
	Get[*teardownLeaf](inj)
	require.NoError(t, inj.Close())
	require.Empty(t, closed)
}

func TestChildInjectorOverlaysParent(t *testing.T) {
	p := New()
	RegisterConstructor[string](p, func() string { return "parent" })
	parentComp := MustSeal(p)
	parent := MustNewInjector(parentComp)

	cp := New()
	RegisterConstructor[int](cp, func() int { return 99 })
	childComp := MustSeal(cp)

	child := parent.MustChild(childComp)
	require.Equal(t, "parent", Get[string](child))
	require.Equal(t, 99, Get[int](child))
}

func TestChildInjectorDoesNotMutateParent(t *testing.T) {
	p := New()
	RegisterConstructor[string](p, func() string { return "parent" })
	parentComp := MustSeal(p)
	parent := MustNewInjector(parentComp)

	cp := New()
	RegisterConstructor[int](cp, func() int { return 1 })
	child := parent.MustChild(MustSeal(cp))
	Get[int](child)

	_, err := parent.get(TypeOf[int]())
	require.Error(t, err)
}

func TestProviderReturningNilPointerIsRuntimeError(t *testing.T) {
	p := New()
	RegisterConstructor[*singletonThing](p, func() *singletonThing { return nil })
	c := MustSeal(p)
	inj := MustNewInjector(c)
	_, err := inj.get(TypeOf[*singletonThing]())
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, ProviderReturnedNil, rerr.Kind)
}

func TestConstructorErrorPropagates(t *testing.T) {
	p := New()
	RegisterConstructor[int](p, func() (int, error) { return 0, fmt.Errorf("boom") })
	c := MustSeal(p)
	inj := MustNewInjector(c)
	_, err := inj.get(TypeOf[int]())
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

// The constructor registered here closes over inj and calls back into it, simulating
// a dependency edge the static graph can never see (a provider that is, in
// effect, its own caller). This is exactly the re-entrancy the runtime
// defense in get() exists to catch.
func TestRuntimeCycleDefense(t *testing.T) {
	p := New()
	var inj *Injector
	RegisterConstructor[*singletonThing](p, func() *singletonThing {
		return Get[*singletonThing](inj)
	})
	c := MustSeal(p)
	inj = MustNewInjector(c)
	require.Panics(t, func() {
		Get[*singletonThing](inj)
	})
}
