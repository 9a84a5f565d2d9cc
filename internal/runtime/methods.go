package runtime

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quill-lang/internal/span"
)

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var (
	arrayMethods = setOf("Add", "Remove", "Get", "Length", "ForEach", "Map", "Filter", "Reduce",
		"Contains", "Equals", "Join", "IndexOf", "Reverse")
	recordMethods = setOf("Add", "Remove", "Get", "Set", "ContainsKey", "ContainsValue", "Size",
		"Merge", "ForEach", "Equals", "ToJSON", "Keys", "Values")
	stringMethods = setOf("Length", "Upper", "Lower", "Title", "Contains", "Split", "Trim",
		"Replace", "StartsWith", "EndsWith", "ToNumber", "ToBoolean")
	functionMethods = setOf("Bind", "Apply", "Compose", "Name", "Params")
)

func unknownMethod(recv Value, name string, methods map[string]bool, s span.Span) error {
	names := make([]string, 0, len(methods))
	for n := range methods {
		names = append(names, n)
	}
	sort.Strings(names)
	err := runtimeErr(ErrUnknownMember, s, "%s has no method '%s'", recv.TypeName(), name)
	return withSuggestion(err, name, names)
}

func wantArgs(method string, args []Value, n int, s span.Span) error {
	if len(args) != n {
		return runtimeErr(ErrArgumentCount, s, "%s expects %d arguments, got %d", method, n, len(args))
	}
	return nil
}

func wantString(method string, v Value, s span.Span) (string, error) {
	str, ok := v.(StringVal)
	if !ok {
		return "", runtimeErr(ErrTypeMismatch, s, "%s expects a String, got %s", method, v.TypeName())
	}
	return string(str), nil
}

func wantCallable(method string, v Value, s span.Span) error {
	switch v.(type) {
	case *FuncVal, *BuiltinVal, *ClassVal:
		return nil
	}
	return runtimeErr(ErrNotCallable, s, "%s expects a function, got %s", method, v.TypeName())
}

// ============================================================
// Array methods. None mutate the receiver.
// ============================================================

func (i *Interpreter) callArrayMethod(arr *ArrayVal, name string, args []Value, s span.Span) (Value, error) {
	elems := arr.Elements

	switch name {
	case "Add":
		if err := wantArgs("Array.Add", args, 1, s); err != nil {
			return nil, err
		}
		out := make([]Value, len(elems), len(elems)+1)
		copy(out, elems)
		return &ArrayVal{Elements: append(out, args[0])}, nil

	case "Remove":
		if err := wantArgs("Array.Remove", args, 1, s); err != nil {
			return nil, err
		}
		n, err := arrayIndex(args[0], len(elems), s)
		if err != nil {
			return nil, err
		}
		out := make([]Value, 0, len(elems)-1)
		out = append(out, elems[:n]...)
		return &ArrayVal{Elements: append(out, elems[n+1:]...)}, nil

	case "Get":
		if err := wantArgs("Array.Get", args, 1, s); err != nil {
			return nil, err
		}
		n, err := arrayIndex(args[0], len(elems), s)
		if err != nil {
			return nil, err
		}
		return elems[n], nil

	case "Length":
		if err := wantArgs("Array.Length", args, 0, s); err != nil {
			return nil, err
		}
		return NumberVal(len(elems)), nil

	case "ForEach":
		if err := wantArgs("Array.ForEach", args, 1, s); err != nil {
			return nil, err
		}
		if err := wantCallable("Array.ForEach", args[0], s); err != nil {
			return nil, err
		}
		for _, elem := range elems {
			if _, err := i.callValue(args[0], []Value{elem}, s); err != nil {
				return nil, err
			}
		}
		return NullVal{}, nil

	case "Map":
		if err := wantArgs("Array.Map", args, 1, s); err != nil {
			return nil, err
		}
		if err := wantCallable("Array.Map", args[0], s); err != nil {
			return nil, err
		}
		out := make([]Value, len(elems))
		for idx, elem := range elems {
			val, err := i.callValue(args[0], []Value{elem}, s)
			if err != nil {
				return nil, err
			}
			out[idx] = val
		}
		return &ArrayVal{Elements: out}, nil

	case "Filter":
		if err := wantArgs("Array.Filter", args, 1, s); err != nil {
			return nil, err
		}
		if err := wantCallable("Array.Filter", args[0], s); err != nil {
			return nil, err
		}
		out := []Value{}
		for _, elem := range elems {
			keep, err := i.callValue(args[0], []Value{elem}, s)
			if err != nil {
				return nil, err
			}
			if IsTruthy(keep) {
				out = append(out, elem)
			}
		}
		return &ArrayVal{Elements: out}, nil

	case "Reduce":
		if err := wantArgs("Array.Reduce", args, 2, s); err != nil {
			return nil, err
		}
		if err := wantCallable("Array.Reduce", args[0], s); err != nil {
			return nil, err
		}
		acc := args[1]
		for _, elem := range elems {
			val, err := i.callValue(args[0], []Value{acc, elem}, s)
			if err != nil {
				return nil, err
			}
			acc = val
		}
		return acc, nil

	case "Contains":
		if err := wantArgs("Array.Contains", args, 1, s); err != nil {
			return nil, err
		}
		for _, elem := range elems {
			if ValuesEqual(elem, args[0]) {
				return BoolVal(true), nil
			}
		}
		return BoolVal(false), nil

	case "IndexOf":
		if err := wantArgs("Array.IndexOf", args, 1, s); err != nil {
			return nil, err
		}
		for idx, elem := range elems {
			if ValuesEqual(elem, args[0]) {
				return NumberVal(idx), nil
			}
		}
		return NumberVal(-1), nil

	case "Equals":
		if err := wantArgs("Array.Equals", args, 1, s); err != nil {
			return nil, err
		}
		return BoolVal(ValuesEqual(arr, args[0])), nil

	case "Join":
		sep := ""
		if len(args) > 1 {
			return nil, runtimeErr(ErrArgumentCount, s, "Array.Join expects at most 1 argument, got %d", len(args))
		}
		if len(args) == 1 {
			str, err := wantString("Array.Join", args[0], s)
			if err != nil {
				return nil, err
			}
			sep = str
		}
		return StringVal(ValuesString(elems, sep)), nil

	case "Reverse":
		if err := wantArgs("Array.Reverse", args, 0, s); err != nil {
			return nil, err
		}
		out := make([]Value, len(elems))
		for idx, elem := range elems {
			out[len(elems)-1-idx] = elem
		}
		return &ArrayVal{Elements: out}, nil
	}

	return nil, unknownMethod(arr, name, arrayMethods, s)
}

// ============================================================
// Record methods. None mutate the receiver.
// ============================================================

func (i *Interpreter) callRecordMethod(rec *RecordVal, name string, args []Value, s span.Span) (Value, error) {
	switch name {
	case "Add":
		if err := wantArgs("Record.Add", args, 2, s); err != nil {
			return nil, err
		}
		key, err := recordKey(args[0], s)
		if err != nil {
			return nil, err
		}
		return rec.With(key, args[1]), nil

	case "Set":
		if err := wantArgs("Record.Set", args, 2, s); err != nil {
			return nil, err
		}
		key, err := recordKey(args[0], s)
		if err != nil {
			return nil, err
		}
		if _, ok := rec.Get(key); !ok {
			err := runtimeErr(ErrUnknownMember, s, "record has no key '%s'", key)
			return nil, withSuggestion(err, key, rec.Keys())
		}
		return rec.With(key, args[1]), nil

	case "Remove":
		if err := wantArgs("Record.Remove", args, 1, s); err != nil {
			return nil, err
		}
		key, err := recordKey(args[0], s)
		if err != nil {
			return nil, err
		}
		return rec.Without(key), nil

	case "Get":
		if err := wantArgs("Record.Get", args, 1, s); err != nil {
			return nil, err
		}
		key, err := recordKey(args[0], s)
		if err != nil {
			return nil, err
		}
		if val, ok := rec.Get(key); ok {
			return val, nil
		}
		return NullVal{}, nil

	case "ContainsKey":
		if err := wantArgs("Record.ContainsKey", args, 1, s); err != nil {
			return nil, err
		}
		key, err := recordKey(args[0], s)
		if err != nil {
			return nil, err
		}
		_, ok := rec.Get(key)
		return BoolVal(ok), nil

	case "ContainsValue":
		if err := wantArgs("Record.ContainsValue", args, 1, s); err != nil {
			return nil, err
		}
		found := false
		rec.Each(func(_ string, v Value) bool {
			found = ValuesEqual(v, args[0])
			return !found
		})
		return BoolVal(found), nil

	case "Size":
		if err := wantArgs("Record.Size", args, 0, s); err != nil {
			return nil, err
		}
		return NumberVal(rec.Len()), nil

	case "Merge":
		if err := wantArgs("Record.Merge", args, 1, s); err != nil {
			return nil, err
		}
		other, ok := args[0].(*RecordVal)
		if !ok {
			return nil, runtimeErr(ErrTypeMismatch, s, "Record.Merge expects a Record, got %s", args[0].TypeName())
		}
		return rec.Merge(other), nil

	case "ForEach":
		if err := wantArgs("Record.ForEach", args, 1, s); err != nil {
			return nil, err
		}
		if err := wantCallable("Record.ForEach", args[0], s); err != nil {
			return nil, err
		}
		for _, key := range rec.Keys() {
			val, _ := rec.Get(key)
			if _, err := i.callValue(args[0], []Value{StringVal(key), val}, s); err != nil {
				return nil, err
			}
		}
		return NullVal{}, nil

	case "Equals":
		if err := wantArgs("Record.Equals", args, 1, s); err != nil {
			return nil, err
		}
		return BoolVal(ValuesEqual(rec, args[0])), nil

	case "ToJSON":
		if err := wantArgs("Record.ToJSON", args, 0, s); err != nil {
			return nil, err
		}
		data, err := json.Marshal(toNative(rec))
		if err != nil {
			return nil, runtimeErr(ErrTypeMismatch, s, "record cannot be encoded as JSON: %v", err)
		}
		return StringVal(data), nil

	case "Keys":
		if err := wantArgs("Record.Keys", args, 0, s); err != nil {
			return nil, err
		}
		keys := rec.Keys()
		out := make([]Value, len(keys))
		for idx, k := range keys {
			out[idx] = StringVal(k)
		}
		return &ArrayVal{Elements: out}, nil

	case "Values":
		if err := wantArgs("Record.Values", args, 0, s); err != nil {
			return nil, err
		}
		return &ArrayVal{Elements: rec.Values()}, nil
	}

	return nil, unknownMethod(rec, name, recordMethods, s)
}

// toNative converts a value into plain Go data for encoding/json.
func toNative(v Value) interface{} {
	switch val := v.(type) {
	case NumberVal:
		return float64(val)
	case StringVal:
		return string(val)
	case BoolVal:
		return bool(val)
	case NullVal:
		return nil
	case *ArrayVal:
		out := make([]interface{}, len(val.Elements))
		for idx, elem := range val.Elements {
			out[idx] = toNative(elem)
		}
		return out
	case *RecordVal:
		out := make(map[string]interface{}, val.Len())
		val.Each(func(k string, elem Value) bool {
			out[k] = toNative(elem)
			return true
		})
		return out
	case *InstanceVal:
		out := make(map[string]interface{}, len(val.Props))
		for k, elem := range val.Props {
			out[k] = toNative(elem)
		}
		return out
	default:
		return v.String()
	}
}

// ============================================================
// String methods
// ============================================================

func runeCount(s StringVal) int {
	return utf8.RuneCountInString(string(s))
}

func (i *Interpreter) callStringMethod(str StringVal, name string, args []Value, s span.Span) (Value, error) {
	text := string(str)

	switch name {
	case "Length":
		if err := wantArgs("String.Length", args, 0, s); err != nil {
			return nil, err
		}
		return NumberVal(runeCount(str)), nil

	case "Upper":
		if err := wantArgs("String.Upper", args, 0, s); err != nil {
			return nil, err
		}
		return StringVal(cases.Upper(language.Und).String(text)), nil

	case "Lower":
		if err := wantArgs("String.Lower", args, 0, s); err != nil {
			return nil, err
		}
		return StringVal(cases.Lower(language.Und).String(text)), nil

	case "Title":
		if err := wantArgs("String.Title", args, 0, s); err != nil {
			return nil, err
		}
		return StringVal(cases.Title(language.Und).String(text)), nil

	case "Trim":
		if err := wantArgs("String.Trim", args, 0, s); err != nil {
			return nil, err
		}
		return StringVal(strings.TrimSpace(text)), nil

	case "Contains", "StartsWith", "EndsWith":
		if err := wantArgs("String."+name, args, 1, s); err != nil {
			return nil, err
		}
		sub, err := wantString("String."+name, args[0], s)
		if err != nil {
			return nil, err
		}
		switch name {
		case "Contains":
			return BoolVal(strings.Contains(text, sub)), nil
		case "StartsWith":
			return BoolVal(strings.HasPrefix(text, sub)), nil
		default:
			return BoolVal(strings.HasSuffix(text, sub)), nil
		}

	case "Split":
		if err := wantArgs("String.Split", args, 1, s); err != nil {
			return nil, err
		}
		sep, err := wantString("String.Split", args[0], s)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(text, sep)
		out := make([]Value, len(parts))
		for idx, p := range parts {
			out[idx] = StringVal(p)
		}
		return &ArrayVal{Elements: out}, nil

	case "Replace":
		if err := wantArgs("String.Replace", args, 2, s); err != nil {
			return nil, err
		}
		old, err := wantString("String.Replace", args[0], s)
		if err != nil {
			return nil, err
		}
		repl, err := wantString("String.Replace", args[1], s)
		if err != nil {
			return nil, err
		}
		return StringVal(strings.ReplaceAll(text, old, repl)), nil

	case "ToNumber":
		if err := wantArgs("String.ToNumber", args, 0, s); err != nil {
			return nil, err
		}
		return parseNumber(text, s)

	case "ToBoolean":
		if err := wantArgs("String.ToBoolean", args, 0, s); err != nil {
			return nil, err
		}
		return parseBoolean(text, s)
	}

	return nil, unknownMethod(str, name, stringMethods, s)
}

func parseNumber(text string, s span.Span) (Value, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) {
		return nil, runtimeErr(ErrTypeMismatch, s, "cannot convert %q to Number", text)
	}
	return NumberVal(f), nil
}

func parseBoolean(text string, s span.Span) (Value, error) {
	switch strings.TrimSpace(text) {
	case "true":
		return BoolVal(true), nil
	case "false":
		return BoolVal(false), nil
	}
	return nil, runtimeErr(ErrTypeMismatch, s, "cannot convert %q to Boolean", text)
}

// ============================================================
// Function methods
// ============================================================

func funcName(fn Value) string {
	switch f := fn.(type) {
	case *FuncVal:
		return f.Name
	case *BuiltinVal:
		return f.Name
	}
	return ""
}

func funcParams(fn Value) []string {
	switch f := fn.(type) {
	case *FuncVal:
		return f.ParamNames()
	case *BuiltinVal:
		return f.Params
	}
	return nil
}

func (i *Interpreter) callFunctionMethod(fn Value, name string, args []Value, s span.Span) (Value, error) {
	switch name {
	case "Bind":
		// partial application: the bound arguments come first
		bound := NewArray(args...).Elements
		params := funcParams(fn)
		if len(bound) <= len(params) {
			params = params[len(bound):]
		} else {
			params = nil
		}
		return &BuiltinVal{
			Name:   funcName(fn),
			Params: params,
			Arity:  -1,
			Fn: func(rest []Value) (Value, error) {
				all := make([]Value, 0, len(bound)+len(rest))
				all = append(all, bound...)
				return i.callValue(fn, append(all, rest...), s)
			},
		}, nil

	case "Apply":
		if err := wantArgs("Function.Apply", args, 1, s); err != nil {
			return nil, err
		}
		arr, ok := args[0].(*ArrayVal)
		if !ok {
			return nil, runtimeErr(ErrTypeMismatch, s, "Function.Apply expects an Array, got %s", args[0].TypeName())
		}
		return i.callValue(fn, arr.Elements, s)

	case "Compose":
		// f.Compose(g) is x => g(f(x))
		if err := wantArgs("Function.Compose", args, 1, s); err != nil {
			return nil, err
		}
		next := args[0]
		if err := wantCallable("Function.Compose", next, s); err != nil {
			return nil, err
		}
		return &BuiltinVal{
			Name:   fmt.Sprintf("%s|%s", funcName(fn), funcName(next)),
			Params: []string{"x"},
			Arity:  1,
			Fn: func(in []Value) (Value, error) {
				mid, err := i.callValue(fn, in, s)
				if err != nil {
					return nil, err
				}
				return i.callValue(next, []Value{mid}, s)
			},
		}, nil

	case "Name":
		if err := wantArgs("Function.Name", args, 0, s); err != nil {
			return nil, err
		}
		return StringVal(funcName(fn)), nil

	case "Params":
		if err := wantArgs("Function.Params", args, 0, s); err != nil {
			return nil, err
		}
		names := funcParams(fn)
		out := make([]Value, len(names))
		for idx, n := range names {
			out[idx] = StringVal(n)
		}
		return &ArrayVal{Elements: out}, nil
	}

	return nil, unknownMethod(fn, name, functionMethods, s)
}
