package runtime

import (
	"fmt"
	"strings"
)

// newBuiltins builds the native function table. Builtins are consulted only
// after a name is not found in any scope, so user bindings shadow them.
func newBuiltins(i *Interpreter) map[string]*BuiltinVal {
	table := map[string]*BuiltinVal{}
	add := func(name string, params []string, arity int, fn BuiltinFn) {
		table[name] = &BuiltinVal{Name: name, Params: params, Arity: arity, Fn: fn}
	}

	add("Println", []string{"values"}, -1, func(args []Value) (Value, error) {
		i.write(ValuesString(args, " ") + "\n")
		return NullVal{}, nil
	})

	add("Print", []string{"values"}, -1, func(args []Value) (Value, error) {
		i.write(ValuesString(args, " "))
		return NullVal{}, nil
	})

	add("Number", []string{"value"}, -1, func(args []Value) (Value, error) {
		arg, err := optionalArg("Number", args)
		if err != nil || arg == nil {
			return NumberVal(0), err
		}
		switch v := arg.(type) {
		case NumberVal:
			return v, nil
		case StringVal:
			return parseNumber(string(v), noSpan)
		case BoolVal:
			if v {
				return NumberVal(1), nil
			}
			return NumberVal(0), nil
		case NullVal:
			return NumberVal(0), nil
		}
		return nil, runtimeErr(ErrTypeMismatch, noSpan, "cannot convert %s to Number", arg.TypeName())
	})

	add("String", []string{"value"}, -1, func(args []Value) (Value, error) {
		arg, err := optionalArg("String", args)
		if err != nil || arg == nil {
			return StringVal(""), err
		}
		return StringVal(arg.String()), nil
	})

	add("Boolean", []string{"value"}, -1, func(args []Value) (Value, error) {
		arg, err := optionalArg("Boolean", args)
		if err != nil || arg == nil {
			return BoolVal(false), err
		}
		if str, ok := arg.(StringVal); ok {
			switch strings.TrimSpace(string(str)) {
			case "true":
				return BoolVal(true), nil
			case "false":
				return BoolVal(false), nil
			}
		}
		return BoolVal(IsTruthy(arg)), nil
	})

	add("Array", []string{"elements"}, -1, func(args []Value) (Value, error) {
		return NewArray(args...), nil
	})

	record := func(name string) BuiltinFn {
		return func(args []Value) (Value, error) {
			arg, err := optionalArg(name, args)
			if err != nil || arg == nil {
				return NewRecord(), err
			}
			switch v := arg.(type) {
			case *RecordVal:
				return v, nil
			case *InstanceVal:
				rec := NewRecord()
				for _, k := range v.PublicKeys() {
					rec = rec.With(k, v.Props[k])
				}
				return rec, nil
			}
			return nil, runtimeErr(ErrTypeMismatch, noSpan, "cannot convert %s to Record", arg.TypeName())
		}
	}
	add("Record", []string{"value"}, -1, record("Record"))
	add("Map", []string{"value"}, -1, record("Map"))

	add("TypeOf", []string{"value"}, 1, func(args []Value) (Value, error) {
		return StringVal(args[0].TypeName()), nil
	})

	add("Length", []string{"value"}, 1, func(args []Value) (Value, error) {
		switch v := args[0].(type) {
		case StringVal:
			return NumberVal(runeCount(v)), nil
		case *ArrayVal:
			return NumberVal(len(v.Elements)), nil
		case *RecordVal:
			return NumberVal(v.Len()), nil
		}
		return nil, runtimeErr(ErrTypeMismatch, noSpan, "Length() not supported for %s", args[0].TypeName())
	})

	return table
}

// optionalArg returns the single optional argument of a conversion builtin,
// or nil when called with none.
func optionalArg(name string, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return args[0], nil
	}
	return nil, fmt.Errorf("%w: %s() expects at most 1 argument, got %d", ErrArgumentCount, name, len(args))
}
