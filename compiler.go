package di

import (
	"reflect"
	"sort"
)

// Seal validates p and compiles it into an immutable Component. This is
// the Component compiler of the data model (§4.D): flatten installs, index
// declarations, detect duplicates, resolve BindTo aliases, check closure,
// detect cycles, and emit a BindingMap with deterministic construction
// order.
func Seal(p *Partial) (*Component, error) {
	decls := flatten(p)

	normalByType := map[TypeId][]Declaration{}
	multiByType := map[TypeId][]Declaration{}
	for _, d := range decls {
		id := d.provides()
		if id.IsZero() { // installDecl, already flattened away
			continue
		}
		if d.multi() {
			multiByType[id] = append(multiByType[id], d)
		} else {
			normalByType[id] = append(normalByType[id], d)
		}
	}

	declByType := map[TypeId]Declaration{}
	for id, group := range normalByType {
		kept, err := dedupOrFail(id, group)
		if err != nil {
			return nil, err
		}
		declByType[id] = kept
	}

	// Resolve BindTo aliasing, collapsing chains and rejecting self-loops
	// and indirect cycles among aliases.
	aliasOf := map[TypeId]TypeId{}
	for id, d := range declByType {
		if bt, ok := d.(*bindToDecl); ok {
			aliasOf[id] = bt.impl
		}
	}
	resolvedAlias := map[TypeId]TypeId{}
	for id := range aliasOf {
		target, err := collapseAlias(id, aliasOf, resolvedAlias, map[TypeId]bool{})
		if err != nil {
			return nil, err
		}
		resolvedAlias[id] = target
	}

	// Closure check: every injected dependency must be bound by a
	// non-multibinding declaration.
	allProvided := map[TypeId]bool{}
	for id := range declByType {
		allProvided[id] = true
	}
	for id, d := range declByType {
		for _, req := range d.requires() {
			if !allProvided[req] {
				return nil, &ConfigError{Kind: UnsatisfiedDependency, Type: req, Type2: id, SourceA: d.index()}
			}
		}
	}
	for id, group := range multiByType {
		for _, d := range group {
			for _, req := range d.requires() {
				if !allProvided[req] {
					return nil, &ConfigError{Kind: UnsatisfiedDependency, Type: req, Type2: id, SourceA: d.index()}
				}
			}
		}
	}

	// Cycle detection over the injected-dependency graph. BindTo nodes are
	// pass-throughs to their resolved alias target; multibindings never
	// participate since nothing may depend on a multi-only type (enforced
	// by the closure check above).
	if cyc := findCycle(declByType, resolvedAlias); cyc != nil {
		return nil, cyc
	}

	bm := newBindingMap()
	for id, d := range declByType {
		rb, err := emit(id, d, declByType, resolvedAlias)
		if err != nil {
			return nil, err
		}
		bm.normal[id] = rb
	}
	for id, group := range multiByType {
		// group is already in flatten order; source indices restart in each
		// installed Partial, so they are not re-sorted here.
		for _, d := range group {
			rb, err := emit(d.provides(), d, declByType, resolvedAlias)
			if err != nil {
				return nil, err
			}
			bm.multi[id] = append(bm.multi[id], rb)
		}
	}

	required := cloneSet(p.required)
	for id := range required {
		if allProvided[id] && declByType[id] != nil {
			delete(required, id)
		}
	}

	return &Component{
		bindingMap: bm,
		provided:   cloneSet(allProvided),
		required:   required,
		source:     p,
	}, nil
}

// MustSeal is like Seal except it panics on error.
func MustSeal(p *Partial) *Component {
	c, err := Seal(p)
	if err != nil {
		panic(err)
	}
	return c
}

// flatten performs a depth-first collection of declarations, expanding
// installDecl references. The same source Partial encountered twice
// (by pointer identity) contributes its declarations only once.
func flatten(p *Partial) []Declaration {
	visited := map[*Partial]bool{}
	var out []Declaration
	var walk func(*Partial)
	walk = func(cur *Partial) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		for _, d := range cur.decls {
			if inst, ok := d.(*installDecl); ok {
				walk(inst.other)
				continue
			}
			out = append(out, d)
		}
	}
	walk(p)
	return out
}

// dedupOrFail resolves a group of same-typed non-multibinding declarations.
// Two BindTo declarations with an identical (iface, impl) pair are
// idempotent; any other duplicate is a configuration error.
func dedupOrFail(id TypeId, group []Declaration) (Declaration, error) {
	sort.Slice(group, func(i, j int) bool { return group[i].index() < group[j].index() })
	kept := group[0]
	for _, d := range group[1:] {
		if bt1, ok1 := kept.(*bindToDecl); ok1 {
			if bt2, ok2 := d.(*bindToDecl); ok2 && bt1.impl == bt2.impl {
				continue // idempotent duplicate
			}
		}
		return nil, &ConfigError{Kind: DuplicateBinding, Type: id, SourceA: kept.index(), SourceB: d.index()}
	}
	return kept, nil
}

// collapseAlias follows a BindTo chain I -> C -> ... to its final,
// non-aliased target, rejecting self-loops and alias cycles.
func collapseAlias(id TypeId, aliasOf map[TypeId]TypeId, memo map[TypeId]TypeId, seen map[TypeId]bool) (TypeId, error) {
	if t, ok := memo[id]; ok {
		return t, nil
	}
	if seen[id] {
		return TypeId{}, &ConfigError{Kind: CyclicDependency, Type: id, Path: []TypeId{id, id}}
	}
	seen[id] = true
	next, isAlias := aliasOf[id]
	if next == id {
		return TypeId{}, &ConfigError{Kind: NotABaseClassOf, Type: id, Type2: next, Message: "bind<I,C>() self-loop"}
	}
	if !isAlias {
		return id, nil
	}
	target, err := collapseAlias(next, aliasOf, memo, seen)
	if err != nil {
		return TypeId{}, err
	}
	memo[id] = target
	return target, nil
}

type color int

const (
	white color = iota
	gray
	black
)

// findCycle runs a gray/black DFS over the injected-dependency graph formed
// by declByType, following BindTo nodes through their resolved alias.
func findCycle(declByType map[TypeId]Declaration, aliasResolved map[TypeId]TypeId) *ConfigError {
	colors := map[TypeId]color{}
	var path []TypeId
	var dfs func(id TypeId) *ConfigError
	dfs = func(id TypeId) *ConfigError {
		switch colors[id] {
		case black:
			return nil
		case gray:
			cyc := append(append([]TypeId{}, path...), id)
			// trim the path to start at the repeated node
			start := 0
			for i, v := range cyc[:len(cyc)-1] {
				if v == id {
					start = i
					break
				}
			}
			return &ConfigError{Kind: CyclicDependency, Path: append([]TypeId{}, cyc[start:]...)}
		}
		colors[id] = gray
		path = append(path, id)

		var edges []TypeId
		if target, ok := aliasResolved[id]; ok {
			edges = []TypeId{target}
		} else if d, ok := declByType[id]; ok {
			edges = d.requires()
		}
		for _, e := range edges {
			if _, isDecl := declByType[e]; !isDecl {
				continue // external requirement, not part of this graph
			}
			if err := dfs(e); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		colors[id] = black
		return nil
	}

	ids := make([]TypeId, 0, len(declByType))
	for id := range declByType {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return declByType[ids[i]].index() < declByType[ids[j]].index() })
	for _, id := range ids {
		if err := dfs(id); err != nil {
			return err
		}
	}
	return nil
}

// emit builds the runtime production strategy for one declaration. deps is
// kept in the signature's own parameter order (not re-sorted by source
// index or any other key): buildValue calls the thunk positionally against
// deps, so this order must match the thunk's argument list exactly.
func emit(id TypeId, d Declaration, declByType map[TypeId]Declaration, aliasResolved map[TypeId]TypeId) (*resolvedBinding, error) {
	deps := d.requires()
	switch v := d.(type) {
	case *constructorDecl:
		return &resolvedBinding{id: id, kind: resolvedConstructor, deps: deps, idx: d.index(), thunk: v.ctor}, nil
	case *providerDecl:
		return &resolvedBinding{id: id, kind: resolvedProvider, deps: deps, idx: d.index(), thunk: v.thunk}, nil
	case *instanceDecl:
		return &resolvedBinding{id: id, kind: resolvedInstance, deps: deps, idx: d.index(), instance: v.handle}, nil
	case *bindToDecl:
		return &resolvedBinding{id: id, kind: resolvedBindTo, deps: deps, idx: d.index(), aliasOf: aliasResolved[id]}, nil
	case *factoryDecl:
		return emitFactory(id, v, d.index())
	}
	return nil, &ConfigError{Kind: ConstructorDoesNotExist, Type: id}
}

// emitFactory builds the resolvedBinding for a Factory declaration. deps
// holds only the injected parameters in canonical order; assisted
// parameters are supplied by the caller of the generated callable, never
// by the Injector.
func emitFactory(callableID TypeId, v *factoryDecl, idx int) (*resolvedBinding, error) {
	injected := make([]TypeId, 0, len(v.sig.Params))
	assistedTypes := make([]reflect.Type, 0, len(v.sig.Params))
	for _, param := range v.sig.Params {
		if param.Assisted {
			assistedTypes = append(assistedTypes, param.ID.Type())
		} else {
			injected = append(injected, param.ID)
		}
	}
	return &resolvedBinding{
		id:               callableID,
		kind:             resolvedFactory,
		deps:             injected,
		idx:              idx,
		factoryTarget:    v.target,
		factoryThunk:     v.thunk,
		factoryParams:    v.sig.Params,
		factoryInjected:  injected,
		factoryAssisted:  assistedTypes,
		factoryCallableT: callableID.Type(),
	}, nil
}

