package di

import (
	"fmt"
	"reflect"
)

// TypeId is an opaque, comparable identifier for a host type. Two TypeIds
// are equal iff they denote the same underlying reflect.Type and carry the
// same annotation tag; the zero tag means "unannotated". Annotating a type
// with a tag produces a distinct TypeId from the bare type, mirroring the
// source's Annotated<Tag, T> types.
type TypeId struct {
	rt  reflect.Type
	tag string
}

// TypeOf returns the TypeId for T.
func TypeOf[T any]() TypeId {
	return TypeId{rt: typeOf[T]()}
}

// AnnotatedTypeOf returns the TypeId for T distinguished by tag. The same T
// with a different tag (or no tag) is a different TypeId.
func AnnotatedTypeOf[T any](tag string) TypeId {
	return TypeId{rt: typeOf[T](), tag: tag}
}

// typeOf resolves the reflect.Type of T even when T is an interface type, in
// which case the zero value carries no dynamic type and reflect.TypeOf would
// return nil.
func typeOf[T any]() reflect.Type {
	var zero T
	if rt := reflect.TypeOf(zero); rt != nil {
		return rt
	}
	return reflect.TypeOf((*T)(nil)).Elem()
}

func idOfReflectType(rt reflect.Type) TypeId {
	return TypeId{rt: rt}
}

// Type returns the underlying reflect.Type.
func (t TypeId) Type() reflect.Type { return t.rt }

// Tag returns the annotation tag, or "" if the TypeId is unannotated.
func (t TypeId) Tag() string { return t.tag }

// IsZero reports whether t is the zero TypeId (no type recorded).
func (t TypeId) IsZero() bool { return t.rt == nil }

func (t TypeId) String() string {
	if t.rt == nil {
		return "<none>"
	}
	if t.tag == "" {
		return t.rt.String()
	}
	return fmt.Sprintf("%s@%s", t.rt.String(), t.tag)
}

// Param is one parameter of a Signature: a TypeId plus whether it is
// supplied by the container (injected) or by the caller of a factory
// (assisted).
type Param struct {
	ID       TypeId
	Assisted bool
}

// Signature describes a callable's return type and ordered parameter list,
// as produced by the host's static reflection capability. The core only
// consumes Signatures; it never invents them.
type Signature struct {
	Return TypeId
	Params []Param
}

// Requires returns the injected (non-assisted) parameter TypeIds, in
// declaration order. Assisted parameters are never dependency edges.
func (s Signature) Requires() []TypeId {
	out := make([]TypeId, 0, len(s.Params))
	for _, p := range s.Params {
		if !p.Assisted {
			out = append(out, p.ID)
		}
	}
	return out
}

// signatureOf reflects over fn (expected to be a func value) and builds its
// Signature. fn must return exactly one value, or two values where the
// second is an error. Assisted parameters are detected via the Assisted[T]
// marker type.
func signatureOf(fn interface{}) (Signature, reflect.Value, error) {
	if fn == nil {
		return Signature{}, reflect.Value{}, &ConfigError{Kind: ParameterIsNotASignature, Message: "nil is not a constructor or provider"}
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return Signature{}, reflect.Value{}, &ConfigError{Kind: ParameterIsNotASignature, Message: fmt.Sprintf("%s is not a function", fv.Type())}
	}
	sig, err := signatureOfValue(fv)
	return sig, fv, err
}

// signatureOfValue is the reflect.Value-based core shared by signatureOf
// (free functions and closures) and module method registration (bound
// method values, which carry no separate "fn" to type-assert).
func signatureOfValue(fv reflect.Value) (Signature, error) {
	ft := fv.Type()
	switch ft.NumOut() {
	case 1:
		if ft.Out(0) == errorType {
			return Signature{}, &ConfigError{Kind: ParameterIsNotASignature, Message: "constructor must return (<type>[, error]), not (error)"}
		}
	case 2:
		if ft.Out(1) != errorType {
			return Signature{}, &ConfigError{Kind: ParameterIsNotASignature, Message: "constructor's second return value must be error"}
		}
	default:
		return Signature{}, &ConfigError{Kind: ParameterIsNotASignature, Message: fmt.Sprintf("constructor must return exactly 1 or 2 values, got %d", ft.NumOut())}
	}

	params := make([]Param, 0, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		if elem, ok := detectAssisted(pt); ok {
			params = append(params, Param{ID: idOfReflectType(elem), Assisted: true})
			continue
		}
		params = append(params, Param{ID: idOfReflectType(pt)})
	}
	return Signature{Return: idOfReflectType(ft.Out(0)), Params: params}, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
