package di

import (
	"fmt"
	"strings"
)

// ErrorKind names one of the configuration-error categories a sealed
// Component can fail with, or a runtime category the Injector aborts with.
type ErrorKind int

const (
	// NotABaseClassOf: bind<I,C>() was called with an I that C does not
	// implement or convert to.
	NotABaseClassOf ErrorKind = iota
	// ParameterIsNotASignature: the value passed to registerConstructor or
	// registerProvider is not a function with an acceptable return shape.
	ParameterIsNotASignature
	// ConstructorDoesNotExist: reserved for host-language façades that
	// resolve a Signature to a constructor by name; the core surfaces it
	// only when the compiler meets a declaration kind it cannot emit.
	ConstructorDoesNotExist
	// DuplicateBinding: two non-idempotent declarations produce the same
	// TypeId.
	DuplicateBinding
	// UnsatisfiedDependency: an injected dependency is neither a
	// BindingMap key nor a declared requirement.
	UnsatisfiedDependency
	// CyclicDependency: a back-edge was found in the injected-dependency
	// graph.
	CyclicDependency
	// RequirementsNotSatisfied: CanSeal found a requirement outside the
	// given contract, or an Injector was created from a Component whose
	// required set was non-empty.
	RequirementsNotSatisfied
	// ProviderReturnedNil: a Provider/Constructor/Factory thunk returned a
	// nil pointer or interface where a value was expected.
	ProviderReturnedNil
	// CycleAtRuntime: defensive re-entrancy check tripped during Get.
	CycleAtRuntime
	// StatefulCallableRejected: registerProvider/registerFactory received
	// a function value that closes over state (a bound method value),
	// which the contract forbids.
	StatefulCallableRejected
)

func (k ErrorKind) String() string {
	switch k {
	case NotABaseClassOf:
		return "NotABaseClassOf"
	case ParameterIsNotASignature:
		return "ParameterIsNotASignature"
	case ConstructorDoesNotExist:
		return "ConstructorDoesNotExist"
	case DuplicateBinding:
		return "DuplicateBinding"
	case UnsatisfiedDependency:
		return "UnsatisfiedDependency"
	case CyclicDependency:
		return "CyclicDependency"
	case RequirementsNotSatisfied:
		return "RequirementsNotSatisfied"
	case ProviderReturnedNil:
		return "ProviderReturnedNil"
	case CycleAtRuntime:
		return "CycleAtRuntime"
	case StatefulCallableRejected:
		return "StatefulCallableRejected"
	default:
		return "UnknownError"
	}
}

// ConfigError is a structured configuration-time failure, naming the
// offending TypeId(s) and declaration source indices for diagnostics.
type ConfigError struct {
	Kind ErrorKind

	Type  TypeId // the offending / primary TypeId, when applicable
	Type2 TypeId // a secondary TypeId (e.g. the other half of a duplicate)

	SourceA int // source index of the first declaration involved; 0 when not set
	SourceB int // source index of the second declaration involved; 0 when not set

	Path []TypeId // for CyclicDependency: the cycle, start repeated at the end

	Message string // precomputed detail; used as-is when set
}

func (e *ConfigError) Error() string {
	if e.Message != "" && e.Type.IsZero() && e.Type2.IsZero() && len(e.Path) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	switch e.Kind {
	case NotABaseClassOf:
		return fmt.Sprintf("%s is not a base of %s", e.Type, e.Type2)
	case DuplicateBinding:
		return fmt.Sprintf("%s is already bound (declarations #%d and #%d)", e.Type, e.SourceA, e.SourceB)
	case UnsatisfiedDependency:
		return fmt.Sprintf("no binding for %s, required by %s", e.Type, e.Type2)
	case CyclicDependency:
		parts := make([]string, len(e.Path))
		for i, id := range e.Path {
			parts[i] = id.String()
		}
		return fmt.Sprintf("cyclic dependency: %s", strings.Join(parts, " -> "))
	case RequirementsNotSatisfied:
		if e.Message != "" {
			return fmt.Sprintf("requirements not satisfied: %s", e.Message)
		}
		return fmt.Sprintf("requirement %s is not satisfied", e.Type)
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Message)
		}
		return e.Kind.String()
	}
}

// RuntimeError is raised (via panic) for errors that can only occur while an
// Injector is walking the BindingMap. The Injector's invariants cannot be
// restored mid-walk, so these always abort the calling goroutine.
type RuntimeError struct {
	Kind ErrorKind
	Type TypeId
	Path []TypeId

	Message string
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case ProviderReturnedNil:
		return fmt.Sprintf("provider for %s returned nil", e.Type)
	case CycleAtRuntime:
		parts := make([]string, len(e.Path))
		for i, id := range e.Path {
			parts[i] = id.String()
		}
		return fmt.Sprintf("cycle detected at runtime resolving %s: %s", e.Type, strings.Join(parts, " -> "))
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Message)
		}
		return e.Kind.String()
	}
}
