package di

import "reflect"

// Declaration is a single binding rule accumulated by a Partial. Each
// concrete kind below corresponds to one row of BindingKind in the data
// model: Constructor, Instance, Provider, BindTo, Factory, Install. A
// Declaration tagged multi contributes to the multibinding namespace
// instead of the normal one.
//
// Declaration is a sealed interface: only the kinds in this file implement
// it. This mirrors the teacher's Annotation interface (Build/Is), but
// exposes the static provides/requires shape the compiler needs instead of
// eagerly building a runtime strategy.
type Declaration interface {
	provides() TypeId
	requires() []TypeId
	index() int
	setIndex(int)
	multi() bool
}

type declBase struct {
	idx int
	mul bool
}

func (d *declBase) index() int      { return d.idx }
func (d *declBase) setIndex(i int)  { d.idx = i }
func (d *declBase) multi() bool     { return d.mul }

// constructorDecl registers the canonical constructor for a target type.
type constructorDecl struct {
	declBase
	target TypeId
	sig    Signature
	ctor   reflect.Value
}

func (d *constructorDecl) provides() TypeId   { return d.target }
func (d *constructorDecl) requires() []TypeId { return d.sig.Requires() }

// instanceDecl adopts a caller-owned value. The container never destroys it.
type instanceDecl struct {
	declBase
	target TypeId
	handle reflect.Value
}

func (d *instanceDecl) provides() TypeId   { return d.target }
func (d *instanceDecl) requires() []TypeId { return nil }

// providerDecl registers a stateless callable that produces a target type.
type providerDecl struct {
	declBase
	target TypeId
	sig    Signature
	thunk  reflect.Value
}

func (d *providerDecl) provides() TypeId   { return d.target }
func (d *providerDecl) requires() []TypeId { return d.sig.Requires() }

// bindToDecl aliases an interface TypeId to an implementation TypeId that
// must itself be bound. Duplicate BindTo declarations with an identical
// (iface, impl) pair are idempotent; see the compiler's duplicate check.
type bindToDecl struct {
	declBase
	iface TypeId
	impl  TypeId
}

func (d *bindToDecl) provides() TypeId   { return d.iface }
func (d *bindToDecl) requires() []TypeId { return []TypeId{d.impl} }

// factoryDecl registers an assisted factory: a thunk whose signature mixes
// injected and assisted parameters. It provides a synthetic func-type
// TypeId (the "Callable<target(assisted...)>" of the source) rather than
// target itself.
type factoryDecl struct {
	declBase
	target   TypeId
	callable TypeId // TypeId of the exposed func(assisted...) T type
	sig      Signature
	thunk    reflect.Value
}

func (d *factoryDecl) provides() TypeId   { return d.callable }
func (d *factoryDecl) requires() []TypeId { return d.sig.Requires() }

// installDecl merges another Partial's declarations at compile time.
// Recursive installs are allowed; the flatten step dedups by the identity
// of the referenced Partial.
type installDecl struct {
	declBase
	other *Partial
}

func (d *installDecl) provides() TypeId   { return TypeId{} }
func (d *installDecl) requires() []TypeId { return nil }
