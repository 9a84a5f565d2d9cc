// Package runtime implements the evaluator and value model for quill.
package runtime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"quill-lang/internal/ast"
)

// Value is the interface for all runtime values.
// TypeName is the tag used for reassignment and annotation checks.
type Value interface {
	TypeName() string
	String() string
}

// Type tags of the built-in kinds.
const (
	TypeNumber   = "Number"
	TypeString   = "String"
	TypeBoolean  = "Boolean"
	TypeNull     = "Null"
	TypeArray    = "Array"
	TypeRecord   = "Record"
	TypeFunction = "Function"
	TypeClass    = "Class"
)

// ---- Primitive values ----

// NumberVal is a 64-bit float; integral values print without a fraction.
type NumberVal float64

func (v NumberVal) TypeName() string { return TypeNumber }
func (v NumberVal) String() string   { return formatNumber(float64(v)) }

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return TypeString }
func (v StringVal) String() string   { return string(v) }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return TypeBoolean }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }

// NullVal represents null.
type NullVal struct{}

func (v NullVal) TypeName() string { return TypeNull }
func (v NullVal) String() string   { return "null" }

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ---- Array value ----

// ArrayVal is an ordered sequence. It is never mutated after construction;
// every update builds a new ArrayVal.
type ArrayVal struct {
	Elements []Value
}

// NewArray copies elems into a new array.
func NewArray(elems ...Value) *ArrayVal {
	out := make([]Value, len(elems))
	copy(out, elems)
	return &ArrayVal{Elements: out}
}

func (v *ArrayVal) TypeName() string { return TypeArray }
func (v *ArrayVal) String() string {
	parts := make([]string, len(v.Elements))
	for i, elem := range v.Elements {
		parts[i] = Inspect(elem)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ---- Callable values ----

// FuncVal is a user-defined function, lambda or method.
type FuncVal struct {
	Name       string
	Params     []*ast.Param
	ReturnType string
	Body       *ast.Block // nil for lambdas
	Expr       ast.Expr   // lambda body
	Closure    *Environment
	Named      bool // a function declaration: its name is rebound in each call scope

	Class *ClassVal    // declaring class for methods, constructors and accessors
	Self  *InstanceVal // receiver of a bound method
}

func (v *FuncVal) TypeName() string { return TypeFunction }
func (v *FuncVal) String() string {
	if v.Class != nil {
		return fmt.Sprintf("<method %s.%s>", v.Class.Name, v.Name)
	}
	return fmt.Sprintf("<function %s>", v.Name)
}

// bind returns a copy of a method with its receiver set.
func (v *FuncVal) bind(self *InstanceVal) *FuncVal {
	bound := *v
	bound.Self = self
	return &bound
}

// ParamNames lists the declared parameter names.
func (v *FuncVal) ParamNames() []string {
	names := make([]string, len(v.Params))
	for i, p := range v.Params {
		names[i] = p.Name
	}
	return names
}

// BuiltinFn is the Go signature for native functions.
type BuiltinFn func(args []Value) (Value, error)

// BuiltinVal is a native function. Arity -1 means variadic.
type BuiltinVal struct {
	Name   string
	Params []string
	Arity  int
	Fn     BuiltinFn
}

func (v *BuiltinVal) TypeName() string { return TypeFunction }
func (v *BuiltinVal) String() string   { return fmt.Sprintf("<builtin %s>", v.Name) }

// ---- Truthiness ----

// IsTruthy reports the truthiness of a value: true, non-zero numbers,
// non-empty strings and non-empty collections. Everything else, including
// functions, classes and instances, is falsy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case BoolVal:
		return bool(val)
	case NumberVal:
		return float64(val) != 0
	case StringVal:
		return string(val) != ""
	case *ArrayVal:
		return len(val.Elements) > 0
	case *RecordVal:
		return val.Len() > 0
	default:
		return false
	}
}

// ---- Equality ----

// ValuesEqual compares by value for primitives, arrays and records, and by
// identity for functions, classes and instances. Values of different kinds
// are never equal.
func ValuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case NullVal:
		_, ok := b.(NullVal)
		return ok
	case *ArrayVal:
		bv, ok := b.(*ArrayVal)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !ValuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *RecordVal:
		bv, ok := b.(*RecordVal)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}

// ---- Helpers ----

// ValuesString formats a slice of values with a separator.
func ValuesString(vals []Value, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// Inspect renders a value the way it appears inside a collection: strings
// are quoted, everything else uses String.
func Inspect(v Value) string {
	if s, ok := v.(StringVal); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
