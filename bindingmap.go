package di

import "reflect"

type resolvedKind int

const (
	resolvedConstructor resolvedKind = iota
	resolvedProvider
	resolvedInstance
	resolvedBindTo
	resolvedFactory
)

// resolvedBinding is the compiled, immutable production strategy for one
// BindingMap key. deps lists the injected dependencies in the thunk's own
// parameter order, which is the order they are constructed and passed in.
type resolvedBinding struct {
	id   TypeId
	kind resolvedKind
	deps []TypeId
	idx  int // source index, for deterministic ordering

	// resolvedConstructor / resolvedProvider
	thunk reflect.Value

	// resolvedInstance
	instance reflect.Value

	// resolvedBindTo
	aliasOf TypeId

	// resolvedFactory
	factoryTarget    TypeId
	factoryThunk     reflect.Value
	factoryParams    []Param // full signature order (injected + assisted)
	factoryInjected  []TypeId
	factoryAssisted  []reflect.Type
	factoryCallableT reflect.Type
}

// bindingMap is the normalized output of the compiler: a TypeId -> binding
// table for ordinary bindings, plus a parallel TypeId -> []binding table for
// multibindings. Retrieving the ordinary binding for T never consults the
// multibinding table and vice versa.
type bindingMap struct {
	normal map[TypeId]*resolvedBinding
	multi  map[TypeId][]*resolvedBinding
}

func newBindingMap() *bindingMap {
	return &bindingMap{
		normal: map[TypeId]*resolvedBinding{},
		multi:  map[TypeId][]*resolvedBinding{},
	}
}
