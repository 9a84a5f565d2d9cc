package runtime

import (
	"quill-lang/internal/ast"
	"quill-lang/internal/span"
)

func (i *Interpreter) evalArgs(exprs []ast.Expr) ([]Value, error) {
	args := make([]Value, len(exprs))
	for idx, argExpr := range exprs {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}
	return args, nil
}

func (i *Interpreter) evalCall(e *ast.Call) (Value, error) {
	switch callee := e.Callee.(type) {
	case *ast.Super:
		args, err := i.evalArgs(e.Args)
		if err != nil {
			return nil, err
		}
		return i.callSuperConstructor(args, e.GetSpan())

	case *ast.Member:
		// method call: obj.method(args)
		var recv Value
		if _, isSuper := callee.Object.(*ast.Super); !isSuper {
			obj, err := i.evalExpr(callee.Object)
			if err != nil {
				return nil, err
			}
			recv = obj
		}
		args, err := i.evalArgs(e.Args)
		if err != nil {
			return nil, err
		}
		if recv == nil {
			fn, err := i.superMember(callee.Property, e.GetSpan())
			if err != nil {
				return nil, err
			}
			return i.callValue(fn, args, e.GetSpan())
		}
		return i.invokeMember(recv, callee.Property, args, e.GetSpan())
	}

	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}
	args, err := i.evalArgs(e.Args)
	if err != nil {
		return nil, err
	}
	return i.callValue(callee, args, e.GetSpan())
}

// callValue invokes any callable: closures, builtins, and classes.
func (i *Interpreter) callValue(callee Value, args []Value, s span.Span) (Value, error) {
	switch fn := callee.(type) {
	case *FuncVal:
		return i.callFunc(fn, args, s)
	case *BuiltinVal:
		if fn.Arity >= 0 && len(args) != fn.Arity {
			return nil, runtimeErr(ErrArgumentCount, s, "%s expects %d arguments, got %d", fn.Name, fn.Arity, len(args))
		}
		val, err := fn.Fn(args)
		if err != nil {
			return nil, positioned(s, err)
		}
		return val, nil
	case *ClassVal:
		return i.instantiate(fn, args, s)
	default:
		return nil, runtimeErr(ErrNotCallable, s, "value of type %s is not callable", callee.TypeName())
	}
}

// callFunc runs a closure in a fresh scope whose parent is the closure's
// defining scope.
//
// Missing arguments take their default, evaluated in the defining scope, so
// a default never sees the other parameters. Annotated parameters and return values are
// type-checked. A block body without an explicit return yields the value of
// its Result variable, which starts as the return type's default.
func (i *Interpreter) callFunc(fn *FuncVal, args []Value, s span.Span) (Value, error) {
	if len(args) > len(fn.Params) {
		return nil, runtimeErr(ErrArgumentCount, s, "%s expects at most %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	if i.depth >= maxCallDepth {
		return nil, runtimeErr(ErrCallDepth, s, "maximum call depth of %d exceeded in %s", maxCallDepth, fn.Name)
	}
	i.depth++
	defer func() { i.depth-- }()

	callEnv := NewEnvironment(fn.Closure)
	if fn.Named {
		callEnv.Define(fn.Name, fn, true)
	}
	if fn.Class != nil {
		callEnv.Define("__class__", fn.Class, true)
	}
	if fn.Self != nil {
		callEnv.Define("self", fn.Self, true)
	}

	prevEnv := i.env
	i.env = callEnv
	defer func() { i.env = prevEnv }()

	for idx, param := range fn.Params {
		var val Value
		switch {
		case idx < len(args):
			val = args[idx]
		case param.Default != nil:
			i.env = fn.Closure
			v, err := i.evalExpr(param.Default)
			i.env = callEnv
			if err != nil {
				return nil, err
			}
			val = v
		default:
			return nil, runtimeErr(ErrArgumentCount, s, "%s missing argument '%s'", fn.Name, param.Name)
		}

		if !typeMatches(param.TypeName, val) {
			return nil, runtimeErr(ErrTypeMismatch, s, "argument '%s' of %s must be %s, got %s", param.Name, fn.Name, param.TypeName, val.TypeName())
		}
		callEnv.Define(param.Name, val, false)

		if param.Shorthand {
			if fn.Self == nil {
				return nil, runtimeErr(ErrUndefinedVariable, s, "'@%s' parameter used outside of a method", param.Name)
			}
			fn.Self.Props[param.Name] = val
		}
	}

	if fn.Expr != nil {
		return i.evalExpr(fn.Expr)
	}

	var resultInit Value = NullVal{}
	if fn.ReturnType != "" {
		resultInit = defaultFor(fn.ReturnType)
	}
	callEnv.Define("Result", resultInit, false)

	result, err := i.execBlock(fn.Body)
	if err != nil {
		return nil, err
	}

	var ret Value
	switch result.Signal {
	case SigReturn:
		ret = result.Value
	case SigBreak, SigContinue:
		return nil, runtimeErr(ErrControlFlow, s, "break or continue outside of loop in %s", fn.Name)
	default:
		b, _ := callEnv.LookupLocal("Result")
		ret = b.Value
	}

	if !typeMatches(fn.ReturnType, ret) {
		return nil, runtimeErr(ErrTypeMismatch, s, "%s must return %s, got %s", fn.Name, fn.ReturnType, ret.TypeName())
	}
	return ret, nil
}

// getMember reads obj.name outside of a call.
func (i *Interpreter) getMember(obj Value, name string, s span.Span) (Value, error) {
	switch o := obj.(type) {
	case *InstanceVal:
		return i.getInstanceMember(o, name, s)
	case *ClassVal:
		return i.getStatic(o, name, s)
	case *RecordVal:
		if val, ok := o.Get(name); ok {
			return val, nil
		}
		if recordMethods[name] {
			return i.boundMethod(o, name), nil
		}
		err := runtimeErr(ErrUnknownMember, s, "record has no key '%s'", name)
		return nil, withSuggestion(err, name, o.Keys())
	case *ArrayVal:
		if name == "Length" {
			return NumberVal(len(o.Elements)), nil
		}
		if arrayMethods[name] {
			return i.boundMethod(o, name), nil
		}
		return nil, unknownMethod(obj, name, arrayMethods, s)
	case StringVal:
		if name == "Length" {
			return NumberVal(runeCount(o)), nil
		}
		if stringMethods[name] {
			return i.boundMethod(o, name), nil
		}
		return nil, unknownMethod(obj, name, stringMethods, s)
	case *FuncVal, *BuiltinVal:
		// Name and Params read as data; f.Name() still works through invokeMember.
		switch name {
		case "Name", "Params":
			return i.callFunctionMethod(o, name, nil, s)
		}
		if functionMethods[name] {
			return i.boundMethod(o, name), nil
		}
		return nil, unknownMethod(obj, name, functionMethods, s)
	default:
		return nil, runtimeErr(ErrUnknownMember, s, "%s has no member '%s'", obj.TypeName(), name)
	}
}

// invokeMember calls obj.name(args).
func (i *Interpreter) invokeMember(obj Value, name string, args []Value, s span.Span) (Value, error) {
	switch o := obj.(type) {
	case *InstanceVal, *ClassVal:
		fn, err := i.getMember(o, name, s)
		if err != nil {
			return nil, err
		}
		return i.callValue(fn, args, s)
	case *RecordVal:
		if val, ok := o.Get(name); ok {
			return i.callValue(val, args, s)
		}
		return i.callRecordMethod(o, name, args, s)
	case *ArrayVal:
		return i.callArrayMethod(o, name, args, s)
	case StringVal:
		return i.callStringMethod(o, name, args, s)
	case *FuncVal, *BuiltinVal:
		return i.callFunctionMethod(o, name, args, s)
	default:
		return nil, runtimeErr(ErrUnknownMember, s, "cannot call method '%s' on %s", name, obj.TypeName())
	}
}

// boundMethod wraps a built-in method as a first-class function value.
func (i *Interpreter) boundMethod(recv Value, name string) *BuiltinVal {
	return &BuiltinVal{
		Name:  name,
		Arity: -1,
		Fn: func(args []Value) (Value, error) {
			return i.invokeMember(recv, name, args, span.Span{})
		},
	}
}
