package di

import (
	"fmt"
	"reflect"
)

// Injector owns realized instances drawn from a Component. It is the
// runtime of the data model (§4.E): it instantiates bindings on demand,
// memoizes singletons, composes multibindings, resolves assisted factories,
// and tears everything down in reverse construction order.
//
// An Injector is single-threaded cooperative: it is owned by one logical
// caller at a time and performs no internal locking, matching the source's
// concurrency model (§5). Distinct Injectors, even ones sharing a
// Component, may be used concurrently by different owners.
type Injector struct {
	component *Component
	parent    *Injector

	memo         map[TypeId]reflect.Value
	multiMemo    map[*resolvedBinding]reflect.Value
	constructing map[TypeId]bool
	stack        []TypeId

	// constructOrder records the first-construction order of owned,
	// destroyable instances (Instance bindings, BindTo aliases and
	// multibinding contributions are never appended here) so Close can tear
	// down in reverse order.
	constructOrder []TypeId
}

// NewInjector creates an Injector from a sealed Component. The Component's required
// set must be empty.
func NewInjector(c *Component) (*Injector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Injector{
		component:    c,
		memo:         map[TypeId]reflect.Value{},
		multiMemo:    map[*resolvedBinding]reflect.Value{},
		constructing: map[TypeId]bool{},
	}, nil
}

// MustNewInjector is like NewInjector except it panics on error.
func MustNewInjector(c *Component) *Injector {
	inj, err := NewInjector(c)
	if err != nil {
		panic(err)
	}
	return inj
}

// Child creates a child Injector whose bindings overlay extra's on top of
// inj's. The parent is never modified by the child, and bindings the child
// declares shadow the parent's for the lifetime of the child only.
func (inj *Injector) Child(extra *Component) (*Injector, error) {
	child, err := NewInjector(extra)
	if err != nil {
		return nil, err
	}
	child.parent = inj
	return child, nil
}

// MustChild is like Child except it panics on error.
func (inj *Injector) MustChild(extra *Component) *Injector {
	child, err := inj.Child(extra)
	if err != nil {
		panic(err)
	}
	return child
}

// Get resolves a value of type T from inj, constructing and memoizing it
// (and its transitive dependencies) if this is the first request.
func Get[T any](inj *Injector) T {
	id := TypeOf[T]()
	v, err := inj.get(id)
	if err != nil {
		panic(err)
	}
	out, ok := v.Interface().(T)
	if !ok {
		panic(fmt.Sprintf("internal error: resolved value for %s does not assert to the requested type", id))
	}
	return out
}

// GetMultibindings returns every contribution registered for T via a
// multibinding declaration, in the flatten-order of their declarations. It
// never consults T's ordinary (non-multibinding) binding.
func GetMultibindings[T any](inj *Injector) []T {
	id := TypeOf[T]()
	vals, err := inj.getMulti(id)
	if err != nil {
		panic(err)
	}
	out := make([]T, len(vals))
	for i, v := range vals {
		out[i] = v.Interface().(T)
	}
	return out
}

// Factory retrieves the partially-applied callable exposed by a Factory
// binding for T, typed as F (e.g. func(int) *Request). Invoking the
// returned closure resolves injected dependencies afresh through inj (so
// singletons are shared across calls) and returns a fresh, non-memoized T.
func Factory[T any, F any](inj *Injector) F {
	id := TypeId{rt: typeOf[F](), tag: "factory:" + TypeOf[T]().String()}
	v, err := inj.get(id)
	if err != nil {
		panic(err)
	}
	out, ok := v.Interface().(F)
	if !ok {
		panic(fmt.Sprintf("internal error: factory for %s does not match requested signature", TypeOf[T]()))
	}
	return out
}

// findOwner walks up the parent chain for the Injector whose Component
// binds id, returning the owning Injector and its resolvedBinding.
func (inj *Injector) findOwner(id TypeId) (*resolvedBinding, *Injector) {
	for owner := inj; owner != nil; owner = owner.parent {
		if rb, ok := owner.component.bindingMap.normal[id]; ok {
			return rb, owner
		}
	}
	return nil, nil
}

func (inj *Injector) get(id TypeId) (reflect.Value, error) {
	if v, ok := inj.memo[id]; ok {
		return v, nil
	}
	rb, owner := inj.findOwner(id)
	if owner == nil {
		return reflect.Value{}, fmt.Errorf("unbound type %s", id)
	}
	if owner != inj {
		return owner.get(id)
	}
	if inj.constructing[id] {
		path := append(append([]TypeId{}, inj.stack...), id)
		return reflect.Value{}, &RuntimeError{Kind: CycleAtRuntime, Type: id, Path: path}
	}
	inj.constructing[id] = true
	inj.stack = append(inj.stack, id)
	v, err := inj.buildValue(rb)
	inj.stack = inj.stack[:len(inj.stack)-1]
	delete(inj.constructing, id)
	if err != nil {
		return reflect.Value{}, err
	}
	inj.memo[id] = v
	if rb.kind != resolvedBindTo && rb.kind != resolvedInstance {
		inj.constructOrder = append(inj.constructOrder, id)
	}
	return v, nil
}

func (inj *Injector) getMulti(id TypeId) ([]reflect.Value, error) {
	var owner *Injector
	var rbs []*resolvedBinding
	for o := inj; o != nil; o = o.parent {
		if list, ok := o.component.bindingMap.multi[id]; ok {
			owner, rbs = o, list
			break
		}
	}
	if owner == nil {
		return nil, nil
	}
	out := make([]reflect.Value, len(rbs))
	for i, rb := range rbs {
		if v, ok := owner.multiMemo[rb]; ok {
			out[i] = v
			continue
		}
		v, err := owner.buildValue(rb)
		if err != nil {
			return nil, err
		}
		owner.multiMemo[rb] = v
		out[i] = v
	}
	return out, nil
}

// buildValue constructs rb's value without touching memoization or the
// construction stack; callers (get and getMulti) own those concerns.
func (inj *Injector) buildValue(rb *resolvedBinding) (reflect.Value, error) {
	switch rb.kind {
	case resolvedInstance:
		return rb.instance, nil
	case resolvedBindTo:
		v, err := inj.get(rb.aliasOf)
		if err != nil {
			return reflect.Value{}, err
		}
		if t := rb.id.Type(); t.Kind() != reflect.Interface && v.Type() != t && v.Type().ConvertibleTo(t) {
			v = v.Convert(t)
		}
		return v, nil
	case resolvedConstructor, resolvedProvider:
		args := make([]reflect.Value, len(rb.deps))
		for i, dep := range rb.deps {
			v, err := inj.get(dep)
			if err != nil {
				return reflect.Value{}, err
			}
			args[i] = v
		}
		out := rb.thunk.Call(args)
		result, err := splitResult(out)
		if err != nil {
			return reflect.Value{}, err
		}
		if isNilable(result) && result.IsNil() {
			return reflect.Value{}, &RuntimeError{Kind: ProviderReturnedNil, Type: rb.id}
		}
		return result, nil
	case resolvedFactory:
		return inj.buildFactory(rb)
	}
	return reflect.Value{}, fmt.Errorf("unknown binding kind for %s", rb.id)
}

func (inj *Injector) buildFactory(rb *resolvedBinding) (reflect.Value, error) {
	thunkType := rb.factoryThunk.Type()
	callable := reflect.MakeFunc(rb.factoryCallableT, func(callArgs []reflect.Value) []reflect.Value {
		full := make([]reflect.Value, len(rb.factoryParams))
		assistedIdx := 0
		for idx, p := range rb.factoryParams {
			if p.Assisted {
				wrapper := reflect.New(thunkType.In(idx)).Elem()
				wrapper.FieldByName("Value").Set(callArgs[assistedIdx])
				full[idx] = wrapper
				assistedIdx++
				continue
			}
			v, err := inj.get(p.ID)
			if err != nil {
				panic(err)
			}
			full[idx] = v
		}
		out := rb.factoryThunk.Call(full)
		result, err := splitResult(out)
		if err != nil {
			panic(err)
		}
		if isNilable(result) && result.IsNil() {
			panic(&RuntimeError{Kind: ProviderReturnedNil, Type: rb.factoryTarget})
		}
		return []reflect.Value{result}
	})
	return callable, nil
}

func splitResult(out []reflect.Value) (reflect.Value, error) {
	if len(out) == 2 {
		if errv := out[1]; !errv.IsNil() {
			return reflect.Value{}, errv.Interface().(error)
		}
	}
	return out[0], nil
}

func isNilable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

// Close tears down every instance inj constructed through Get, in reverse
// construction order. Instance bindings are never destroyed since the
// container never owned them. Values built for multibinding contributions
// are not recorded for teardown and are never closed. A constructed value implementing io.Closer-shaped Close
// methods has them called; any error from a Close() error method is
// reported as Close's own error (the first one encountered).
func (inj *Injector) Close() error {
	var firstErr error
	for i := len(inj.constructOrder) - 1; i >= 0; i-- {
		id := inj.constructOrder[i]
		v, ok := inj.memo[id]
		if !ok || !v.IsValid() {
			continue
		}
		iface := v.Interface()
		if closer, ok := iface.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}
		if closer, ok := iface.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	inj.constructOrder = nil
	inj.memo = map[TypeId]reflect.Value{}
	inj.multiMemo = map[*resolvedBinding]reflect.Value{}
	return firstErr
}
