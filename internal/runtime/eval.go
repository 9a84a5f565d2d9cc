package runtime

import (
	"math"

	"quill-lang/internal/ast"
	"quill-lang/internal/span"
)

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return NumberVal(e.Value), nil
	case *ast.StringLit:
		return StringVal(e.Value), nil
	case *ast.BoolLit:
		return BoolVal(e.Value), nil
	case *ast.NullLit:
		return NullVal{}, nil
	case *ast.Ident:
		return i.evalIdent(e)
	case *ast.SelfProp:
		self, err := i.requireSelf(e.Name, e.GetSpan())
		if err != nil {
			return nil, err
		}
		return i.getInstanceMember(self, e.Name, e.GetSpan())
	case *ast.ArrayLit:
		return i.evalArrayLit(e)
	case *ast.RecordLit:
		return i.evalRecordLit(e)
	case *ast.Unary:
		return i.evalUnary(e)
	case *ast.Binary:
		return i.evalBinary(e)
	case *ast.Call:
		return i.evalCall(e)
	case *ast.Member:
		return i.evalMember(e)
	case *ast.Index:
		return i.evalIndex(e)
	case *ast.Lambda:
		return &FuncVal{Name: "lambda", Params: e.Params, Expr: e.Body, Closure: i.env}, nil
	case *ast.FuncLit:
		return &FuncVal{
			Name:       "anonymous",
			Params:     e.Params,
			ReturnType: e.ReturnType,
			Body:       e.Body,
			Closure:    i.env,
		}, nil
	case *ast.Super:
		return nil, runtimeErr(nil, e.GetSpan(), "super can only be used as super(...) or super.name")
	default:
		return nil, runtimeErr(nil, expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

// evalIdent resolves a name through the scope chain, then the builtins.
func (i *Interpreter) evalIdent(e *ast.Ident) (Value, error) {
	if b, ok := i.env.Lookup(e.Name); ok {
		return b.Value, nil
	}
	if builtin, ok := i.lookupBuiltin(e.Name); ok {
		return builtin, nil
	}
	candidates := i.env.Names()
	for name := range i.builtins {
		candidates = append(candidates, name)
	}
	err := runtimeErr(ErrUndefinedVariable, e.GetSpan(), "undefined variable '%s'", e.Name)
	return nil, withSuggestion(err, e.Name, candidates)
}

func (i *Interpreter) requireSelf(name string, s span.Span) (*InstanceVal, error) {
	self := i.currentSelf()
	if self == nil {
		return nil, runtimeErr(ErrUndefinedVariable, s, "'@%s' used outside of a method", name)
	}
	return self, nil
}

func (i *Interpreter) evalArrayLit(e *ast.ArrayLit) (Value, error) {
	elems := make([]Value, len(e.Elements))
	for idx, elemExpr := range e.Elements {
		val, err := i.evalExpr(elemExpr)
		if err != nil {
			return nil, err
		}
		elems[idx] = val
	}
	return &ArrayVal{Elements: elems}, nil
}

func (i *Interpreter) evalRecordLit(e *ast.RecordLit) (Value, error) {
	rec := NewRecord()
	for _, entry := range e.Entries {
		val, err := i.evalExpr(entry.Value)
		if err != nil {
			return nil, err
		}
		rec.tree.ReplaceOrInsert(recordEntry{key: entry.Key, value: val})
	}
	return rec, nil
}

func (i *Interpreter) evalMember(e *ast.Member) (Value, error) {
	if _, isSuper := e.Object.(*ast.Super); isSuper {
		return i.superMember(e.Property, e.GetSpan())
	}
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	return i.getMember(obj, e.Property, e.GetSpan())
}

func (i *Interpreter) evalIndex(e *ast.Index) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalExpr(e.Index)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *ArrayVal:
		n, err := arrayIndex(idx, len(o.Elements), e.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		return o.Elements[n], nil
	case StringVal:
		runes := []rune(string(o))
		n, err := arrayIndex(idx, len(runes), e.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		return StringVal(string(runes[n])), nil
	case *RecordVal:
		key, err := recordKey(idx, e.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		if val, ok := o.Get(key); ok {
			return val, nil
		}
		return NullVal{}, nil
	case *InstanceVal:
		key, err := recordKey(idx, e.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		return i.getInstanceMember(o, key, e.GetSpan())
	default:
		return nil, runtimeErr(ErrTypeMismatch, e.GetSpan(), "cannot index into %s", obj.TypeName())
	}
}

// arrayIndex validates an integral, in-range index.
func arrayIndex(idx Value, length int, s span.Span) (int, error) {
	num, ok := idx.(NumberVal)
	if !ok {
		return 0, runtimeErr(ErrTypeMismatch, s, "index must be a Number, got %s", idx.TypeName())
	}
	f := float64(num)
	if f != math.Trunc(f) {
		return 0, runtimeErr(ErrTypeMismatch, s, "index must be a whole number, got %s", num)
	}
	if f < 0 || f >= float64(length) {
		return 0, runtimeErr(ErrIndexOutOfRange, s, "index %s out of range (length %d)", num, length)
	}
	return int(f), nil
}

func recordKey(key Value, s span.Span) (string, error) {
	str, ok := key.(StringVal)
	if !ok {
		return "", runtimeErr(ErrTypeMismatch, s, "key must be a String, got %s", key.TypeName())
	}
	return string(str), nil
}

// ============================================================
// Assignment targets
// ============================================================

func (i *Interpreter) execMemberAssign(s *ast.MemberAssign) (ExecResult, error) {
	value, err := i.evalExpr(s.Value)
	if err != nil {
		return resultNone, err
	}
	if err := i.assignTo(s.Target, value, s.GetSpan()); err != nil {
		return resultNone, err
	}
	return ExecResult{Value: value}, nil
}

// assignTo stores value into target. Instances are updated in place; arrays
// and records are replaced by an updated copy, which is then written back
// into whatever holds them.
func (i *Interpreter) assignTo(target ast.Expr, value Value, s span.Span) error {
	switch t := target.(type) {
	case *ast.Ident:
		return i.rebind(t.Name, value, s)

	case *ast.SelfProp:
		self, err := i.requireSelf(t.Name, t.GetSpan())
		if err != nil {
			return err
		}
		return i.setInstanceMember(self, t.Name, value, s)

	case *ast.Member:
		obj, err := i.evalExpr(t.Object)
		if err != nil {
			return err
		}
		switch o := obj.(type) {
		case *InstanceVal:
			return i.setInstanceMember(o, t.Property, value, s)
		case *ClassVal:
			return i.setStatic(o, t.Property, value, s)
		case *RecordVal:
			return i.assignTo(t.Object, o.With(t.Property, value), s)
		default:
			return runtimeErr(ErrTypeMismatch, s, "cannot set member '%s' on %s", t.Property, obj.TypeName())
		}

	case *ast.Index:
		obj, err := i.evalExpr(t.Object)
		if err != nil {
			return err
		}
		idx, err := i.evalExpr(t.Index)
		if err != nil {
			return err
		}
		switch o := obj.(type) {
		case *ArrayVal:
			n, err := arrayIndex(idx, len(o.Elements), t.Index.GetSpan())
			if err != nil {
				return err
			}
			updated := NewArray(o.Elements...)
			updated.Elements[n] = value
			return i.assignTo(t.Object, updated, s)
		case *RecordVal:
			key, err := recordKey(idx, t.Index.GetSpan())
			if err != nil {
				return err
			}
			return i.assignTo(t.Object, o.With(key, value), s)
		case *InstanceVal:
			key, err := recordKey(idx, t.Index.GetSpan())
			if err != nil {
				return err
			}
			return i.setInstanceMember(o, key, value, s)
		default:
			return runtimeErr(ErrTypeMismatch, s, "cannot index into %s", obj.TypeName())
		}

	default:
		return runtimeErr(ErrTypeMismatch, target.GetSpan(), "value cannot be assigned to")
	}
}

// rebind replaces the value held by an existing variable.
func (i *Interpreter) rebind(name string, value Value, s span.Span) error {
	b, ok := i.env.Lookup(name)
	if !ok {
		return runtimeErr(ErrUndefinedVariable, s, "undefined variable '%s'", name)
	}
	if b.IsConstant {
		return runtimeErr(ErrConstantReassignment, s, "cannot modify constant '%s'", name)
	}
	b.Value = value
	return nil
}
