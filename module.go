package di

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jinzhu/copier"
)

// Module is implemented by a struct that groups configuration data together
// with the bindings that depend on it, mirroring the teacher library's
// Module/Configure convention: Configure runs first and may call any
// ordinary builder function against p, and any exported method on the
// module whose name starts with "Provide" is then registered as a
// constructor for its return type. A "ProvideMulti"-prefixed method
// registers a multibinding contribution instead.
type Module interface {
	Configure(p *Partial) error
}

// InstallModules installs each module in turn. Installing the same module
// struct type twice is allowed as long as one of the two copies is the zero
// value, or the two copies are equal; the non-zero copy's fields are
// adopted and Configure/Provide* registration runs only once, exactly as
// the teacher's handleDuplicate does with copier.Copy. Any other repeat
// installation of an unequal, non-zero module is a configuration error.
func InstallModules(p *Partial, modules ...interface{}) error {
	for _, module := range modules {
		m := reflect.ValueOf(module)
		im := reflect.Indirect(m)
		if im.Kind() != reflect.Struct {
			return &ConfigError{Kind: ParameterIsNotASignature,
				Message: fmt.Sprintf("only structs may be used as modules, got %s", m.Type())}
		}
		if existing, ok := p.modules[im.Type()]; ok {
			if err := mergeDuplicateModule(existing, im); err != nil {
				return err
			}
			continue
		}
		if mod, ok := module.(Module); ok {
			if err := mod.Configure(p); err != nil {
				return err
			}
		}
		p.modules[im.Type()] = im

		mt := m.Type()
		for j := 0; j < m.NumMethod(); j++ {
			methodType := mt.Method(j)
			if !strings.HasPrefix(methodType.Name, "Provide") {
				continue
			}
			multi := strings.HasPrefix(methodType.Name, "ProvideMulti")
			if err := registerModuleMethod(p, m.Method(j), multi); err != nil {
				return err
			}
		}
	}
	return nil
}

// MustInstallModules is like InstallModules except it panics on error.
func MustInstallModules(p *Partial, modules ...interface{}) *Partial {
	if err := InstallModules(p, modules...); err != nil {
		panic(err)
	}
	return p
}

// registerModuleMethod registers a bound "Provide*" method as a constructor
// for its return type. Module methods are expected to be simple accessors
// that close over the module's own configuration fields (e.g. a URI), so
// unlike RegisterProvider this path carries no statelessness requirement —
// it is the Constructor binding kind, not Provider.
func registerModuleMethod(p *Partial, method reflect.Value, multi bool) error {
	sig, err := signatureOfValue(method)
	if err != nil {
		return err
	}
	p.append(&constructorDecl{target: sig.Return, sig: sig, ctor: method, declBase: declBase{mul: multi}})
	return nil
}

func mergeDuplicateModule(existing, incoming reflect.Value) error {
	if reflect.DeepEqual(incoming.Interface(), existing.Interface()) {
		return nil
	}
	zero := reflect.New(incoming.Type()).Elem().Interface()
	if reflect.DeepEqual(incoming.Interface(), zero) {
		// Incoming is the zero value; keep the existing copy as-is.
		return nil
	}
	if reflect.DeepEqual(existing.Interface(), zero) {
		return copier.Copy(existing.Addr().Interface(), incoming.Interface())
	}
	return &ConfigError{Kind: DuplicateBinding,
		Message: fmt.Sprintf("duplicate unequal module %s", existing.Type())}
}
