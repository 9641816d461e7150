// Package di implements a dependency-injection container for Go: a
// composable builder for describing how types are produced, a compiler that
// validates the resulting graph, and an injector that realizes instances on
// demand.
//
// A typical application builds a Partial, seals it into a Component, and
// then creates one or more Injectors from that Component:
//
//	type Writer interface{ Write(string) }
//
//	type StdoutWriter struct{}
//
//	func NewStdoutWriter() *StdoutWriter { return &StdoutWriter{} }
//	func (w *StdoutWriter) Write(s string) { fmt.Println(s) }
//
//	type Greeter struct{ W Writer }
//
//	func NewGreeter(w Writer) *Greeter { return &Greeter{W: w} }
//
//	p := di.New()
//	di.Bind[Writer, *StdoutWriter](p)
//	di.RegisterConstructor[*StdoutWriter](p, NewStdoutWriter)
//	di.RegisterConstructor[*Greeter](p, NewGreeter)
//
//	c := di.MustSeal(p)
//	inj := di.MustNewInjector(c)
//	g := di.Get[*Greeter](inj)
//
// Components are immutable after sealing and may be shared between many
// Injectors. Injectors own the instances they construct and are not safe for
// concurrent use by more than one logical owner; different Injectors built
// from the same Component may be used concurrently by different owners.
//
// Bindings come in several shapes: RegisterConstructor/RegisterProvider infer
// their Signature via reflection over the supplied function; Bind declares an
// interface-to-implementation alias; BindInstance adopts an externally owned
// value; RegisterFactory exposes a partially-applied callable whose assisted
// parameters (wrapped in Assisted[T]) are supplied by the caller at
// invocation time rather than by the container. Multibinding variants of the
// above contribute to a parallel, set-valued namespace retrieved with
// GetMultibindings, never with Get.
package di
