package di

import (
	"reflect"
	"runtime"
	"strings"
)

// Partial accumulates binding declarations while tracking the set of types
// it will provide once sealed and the set it still requires the caller to
// satisfy. Partials are meant for linear use: every builder function below
// mutates the receiver in place and returns it, so there is never more than
// one live reference in well-behaved code, matching the source's
// consume-and-return-a-new-value contract under the dynamic-capture
// strategy described in SPEC_FULL.md.
type Partial struct {
	decls    []Declaration
	provided map[TypeId]bool
	required map[TypeId]bool

	// nextIndex is the source-order counter used for diagnostics. It counts
	// this Partial's own declarations only: an Install takes one index, and
	// the installed Partial's declarations keep the indices they were given
	// there, so indices from two merged Partials can coincide.
	nextIndex int

	// modules tracks installed Module values by their underlying struct
	// type, so a second Install of the same module type can be merged
	// instead of rejected outright (see module.go).
	modules map[reflect.Type]reflect.Value
}

// New returns an empty Partial with no provided or required types.
func New() *Partial {
	return &Partial{
		provided: map[TypeId]bool{},
		required: map[TypeId]bool{},
		modules:  map[reflect.Type]reflect.Value{},
	}
}

func (p *Partial) append(d Declaration) {
	d.setIndex(p.nextIndex)
	p.nextIndex++
	p.decls = append(p.decls, d)
	if !d.multi() {
		id := d.provides()
		if !id.IsZero() {
			p.provided[id] = true
			delete(p.required, id)
		}
	} else {
		id := d.provides()
		if !id.IsZero() {
			p.provided[id] = true
		}
	}
	for _, req := range d.requires() {
		if !p.provided[req] {
			p.required[req] = true
		}
	}
}

// Provided returns the set of TypeIds this Partial will provide once sealed.
func (p *Partial) Provided() map[TypeId]bool { return cloneSet(p.provided) }

// Required returns the set of TypeIds this Partial still needs satisfied
// before it can be sealed with an empty contract.
func (p *Partial) Required() map[TypeId]bool { return cloneSet(p.required) }

func cloneSet(m map[TypeId]bool) map[TypeId]bool {
	out := make(map[TypeId]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Bind declares that I is satisfied by C, where C must itself be bound
// (by a constructor, provider, instance, or another Bind). I must be a base
// of C: either an interface C implements, or a type C converts to.
func Bind[I any, C any](p *Partial) *Partial {
	var zeroC C
	implRt := reflect.TypeOf(zeroC)
	if implRt == nil {
		implRt = reflect.TypeOf((*C)(nil)).Elem()
	}
	ifaceID := TypeOf[I]()
	implID := TypeOf[C]()

	ifaceRt := ifaceID.Type()
	ok := false
	if ifaceRt.Kind() == reflect.Interface {
		ok = implRt.Implements(ifaceRt)
	} else {
		ok = implRt.ConvertibleTo(ifaceRt)
	}
	if !ok {
		panic(&ConfigError{Kind: NotABaseClassOf, Type: ifaceID, Type2: implID})
	}
	p.append(&bindToDecl{iface: ifaceID, impl: implID})
	return p
}

// RegisterConstructor registers ctor as the canonical constructor for T.
// ctor's return type must be T (or T plus a trailing error).
func RegisterConstructor[T any](p *Partial, ctor interface{}) *Partial {
	return registerProducer[T](p, ctor, false, false)
}

// RegisterConstructorMulti is the multibinding form of RegisterConstructor.
func RegisterConstructorMulti[T any](p *Partial, ctor interface{}) *Partial {
	return registerProducer[T](p, ctor, false, true)
}

// RegisterProvider registers a stateless callable fn that produces T. The
// callable must not be a bound method value closing over receiver state.
func RegisterProvider[T any](p *Partial, fn interface{}) *Partial {
	return registerProducer[T](p, fn, true, false)
}

// RegisterProviderMulti is the multibinding form of RegisterProvider.
func RegisterProviderMulti[T any](p *Partial, fn interface{}) *Partial {
	return registerProducer[T](p, fn, true, true)
}

func registerProducer[T any](p *Partial, fn interface{}, statelessRequired, multi bool) *Partial {
	if statelessRequired {
		requireStateless(fn)
	}
	sig, fv, err := signatureOf(fn)
	if err != nil {
		panic(err)
	}
	want := TypeOf[T]()
	if sig.Return != want {
		panic(&ConfigError{Kind: ParameterIsNotASignature, Type: want, Type2: sig.Return,
			Message: "constructor/provider return type does not match the registered target"})
	}
	var d Declaration
	if statelessRequired {
		d = &providerDecl{target: want, sig: sig, thunk: fv, declBase: declBase{mul: multi}}
	} else {
		d = &constructorDecl{target: want, sig: sig, ctor: fv, declBase: declBase{mul: multi}}
	}
	p.append(d)
	return p
}

// requireStateless rejects bound method values, which close over a
// receiver and are therefore not the stateless callables the contract
// demands. Go exposes no reflection API over a closure's captured
// variables, so an ordinary state-capturing closure cannot be detected
// this way and is not rejected; only the common case of accidentally
// binding `obj.Method` instead of a free function or literal is caught,
// via the "-fm" suffix the compiler gives a method value's synthesized
// wrapper function. This is a scoped, documented deviation from the
// "reject callables that carry captured state" contract — see
// DESIGN.md's Open Question resolutions.
func requireStateless(fn interface{}) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return
	}
	if fv.Pointer() == 0 {
		return
	}
	name := runtime.FuncForPC(fv.Pointer()).Name()
	if strings.HasSuffix(name, "-fm") {
		panic(&ConfigError{Kind: StatefulCallableRejected, Message: name + " is a bound method value, not a stateless callable"})
	}
}

// BindInstance adopts instance as the realized value for C. The caller
// retains ownership; the container never destroys it.
func BindInstance[C any](p *Partial, instance C) *Partial {
	return bindInstance[C](p, instance, false)
}

// BindInstanceMulti is the multibinding form of BindInstance.
func BindInstanceMulti[C any](p *Partial, instance C) *Partial {
	return bindInstance[C](p, instance, true)
}

func bindInstance[C any](p *Partial, instance C, multi bool) *Partial {
	id := TypeOf[C]()
	p.append(&instanceDecl{target: id, handle: reflect.ValueOf(instance), declBase: declBase{mul: multi}})
	return p
}

// RegisterFactory registers fn as an assisted factory for T. Parameters of
// fn wrapped in Assisted[X] are supplied by the caller when the factory
// callable is invoked; all other parameters are injected. The resulting
// callable is retrieved from an Injector with Factory, not with Get.
func RegisterFactory[T any](p *Partial, fn interface{}) *Partial {
	return registerFactory[T](p, fn, false)
}

// RegisterFactoryMulti is the multibinding form of RegisterFactory. Its
// contributions are stored under the factory's tagged callable TypeId, which
// GetMultibindings never looks up, so GetMultibindings does not return them.
func RegisterFactoryMulti[T any](p *Partial, fn interface{}) *Partial {
	return registerFactory[T](p, fn, true)
}

func registerFactory[T any](p *Partial, fn interface{}, multi bool) *Partial {
	requireStateless(fn)
	sig, fv, err := signatureOf(fn)
	if err != nil {
		panic(err)
	}
	want := TypeOf[T]()
	if sig.Return != want {
		panic(&ConfigError{Kind: ParameterIsNotASignature, Type: want, Type2: sig.Return,
			Message: "factory return type does not match the registered target"})
	}
	assistedTypes := make([]reflect.Type, 0, len(sig.Params))
	for _, param := range sig.Params {
		if param.Assisted {
			assistedTypes = append(assistedTypes, param.ID.Type())
		}
	}
	callableRt := reflect.FuncOf(assistedTypes, []reflect.Type{want.Type()}, false)
	callableID := TypeId{rt: callableRt, tag: "factory:" + want.String()}

	p.append(&factoryDecl{target: want, callable: callableID, sig: sig, thunk: fv, declBase: declBase{mul: multi}})
	return p
}

// Install merges other's declarations into p. Composition is
// order-independent for the set of provided keys but preserves each
// origin's declaration order for diagnostics; installing the same Partial
// more than once (directly or transitively) contributes its declarations
// only once.
func Install(p *Partial, other *Partial) *Partial {
	for id := range other.provided {
		p.provided[id] = true
		delete(p.required, id)
	}
	for id := range other.required {
		if !p.provided[id] {
			p.required[id] = true
		}
	}
	p.append(&installDecl{other: other})
	return p
}

// InstallComponent merges an already-sealed Component's bindings into p,
// using the Component's known provided/required sets directly rather than
// re-deriving them from its originating Partial.
func InstallComponent(p *Partial, c *Component) *Partial {
	for id := range c.provided {
		p.provided[id] = true
		delete(p.required, id)
	}
	for id := range c.required {
		if !p.provided[id] {
			p.required[id] = true
		}
	}
	p.append(&installDecl{other: c.source})
	return p
}

// CanSeal reports whether p could be sealed against the given required
// contract (an empty contract means "no required types may remain"). This
// lets host code validate composition before paying for a full Seal.
func (p *Partial) CanSeal(contract ...TypeId) error {
	allowed := make(map[TypeId]bool, len(contract))
	for _, id := range contract {
		allowed[id] = true
	}
	for id := range p.required {
		if !allowed[id] {
			return &ConfigError{Kind: RequirementsNotSatisfied, Type: id}
		}
	}
	return nil
}
