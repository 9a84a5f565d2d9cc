package runtime

import (
	"quill-lang/internal/ast"
	"quill-lang/internal/span"
)

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		val, err := i.evalExpr(s.Expr)
		return ExecResult{Value: val}, err

	case *ast.Assign:
		return i.execAssign(s)

	case *ast.Decl:
		return i.execDecl(s)

	case *ast.MemberAssign:
		return i.execMemberAssign(s)

	case *ast.Return:
		var val Value = NullVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.Break:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.Continue:
		return ExecResult{Signal: SigContinue}, nil

	case *ast.If:
		return i.execIf(s)

	case *ast.While:
		return i.execWhile(s)

	case *ast.ForIn:
		return i.execForIn(s)

	case *ast.Block:
		return i.execBlock(s)

	case *ast.FuncDecl:
		return i.execFuncDecl(s)

	case *ast.ClassDecl:
		return i.execClassDecl(s)

	case *ast.Import:
		return i.execImport(s)

	case *ast.Export:
		return i.execExport(s)

	default:
		return resultNone, runtimeErr(nil, stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

// execAssign handles name := value and name = value.
//
// ':=' binds a constant in the current scope, shadowing outer bindings.
// '=' updates the nearest binding in the chain, or creates a mutable one
// here when the name is unbound. Rebinding an existing name keeps its type,
// except that a concatenation result may replace anything.
func (i *Interpreter) execAssign(s *ast.Assign) (ExecResult, error) {
	value, err := i.evalExpr(s.Value)
	if err != nil {
		return resultNone, err
	}
	nameFunc(s.Value, value, s.Name)

	var existing *Binding
	var found bool
	if s.IsConst {
		existing, found = i.env.LookupLocal(s.Name)
	} else {
		existing, found = i.env.Lookup(s.Name)
	}

	if !found {
		i.env.Define(s.Name, value, s.IsConst)
		return ExecResult{Value: value}, nil
	}
	if existing.IsConstant {
		return resultNone, runtimeErr(ErrConstantReassignment, s.GetSpan(), "cannot assign to constant '%s'", s.Name)
	}
	if err := checkRebind(s.Name, existing, value, concatResult(s.Value, value), s.GetSpan()); err != nil {
		return resultNone, err
	}
	existing.Value = value
	if s.IsConst {
		existing.IsConstant = true
	}
	return ExecResult{Value: value}, nil
}

// nameFunc gives a function literal the name it is first bound to.
func nameFunc(expr ast.Expr, value Value, name string) {
	fn, ok := value.(*FuncVal)
	if !ok {
		return
	}
	switch expr.(type) {
	case *ast.Lambda, *ast.FuncLit:
		fn.Name = name
	}
}

// concatResult reports whether value is a String produced by an operator
// rather than written as a literal.
func concatResult(expr ast.Expr, value Value) bool {
	if _, ok := value.(StringVal); !ok {
		return false
	}
	_, ok := expr.(*ast.Binary)
	return ok
}

// checkRebind enforces the type of an existing binding. Strings built by an
// operator may replace any undeclared binding.
func checkRebind(name string, b *Binding, value Value, concat bool, s span.Span) error {
	if b.TypeName != "" {
		if !typeMatches(b.TypeName, value) {
			return runtimeErr(ErrTypeMismatch, s, "cannot assign %s to '%s' declared as %s", value.TypeName(), name, b.TypeName)
		}
		return nil
	}
	if !concat && !reassignable(b.Value, value) {
		return runtimeErr(ErrTypeMismatch, s, "cannot assign %s to '%s' holding %s", value.TypeName(), name, b.Value.TypeName())
	}
	return nil
}

// execDecl handles name: Type [:= | = value].
func (i *Interpreter) execDecl(s *ast.Decl) (ExecResult, error) {
	var value Value
	if s.Value != nil {
		v, err := i.evalExpr(s.Value)
		if err != nil {
			return resultNone, err
		}
		nameFunc(s.Value, v, s.Name)
		if !typeMatches(s.TypeName, v) {
			return resultNone, runtimeErr(ErrTypeMismatch, s.GetSpan(), "cannot initialize '%s' of type %s with %s", s.Name, s.TypeName, v.TypeName())
		}
		value = v
	} else {
		value = defaultFor(s.TypeName)
	}

	if b, ok := i.env.LookupLocal(s.Name); ok && b.IsConstant {
		return resultNone, runtimeErr(ErrConstantReassignment, s.GetSpan(), "cannot redeclare constant '%s'", s.Name)
	}
	i.env.DefineTyped(s.Name, s.TypeName, value, s.IsConst)
	return ExecResult{Value: value}, nil
}

func (i *Interpreter) execIf(s *ast.If) (ExecResult, error) {
	cond, err := i.evalExpr(s.Test)
	if err != nil {
		return resultNone, err
	}
	if IsTruthy(cond) {
		return i.execBlock(s.Body)
	}

	for _, clause := range s.ElseIfs {
		cond, err := i.evalExpr(clause.Test)
		if err != nil {
			return resultNone, err
		}
		if IsTruthy(cond) {
			return i.execBlock(clause.Body)
		}
	}

	if s.Else != nil {
		return i.execBlock(s.Else)
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.While) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			break
		}

		result, err := i.execBlock(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil
		}
		// SigContinue: just continue the loop
	}
	return resultNone, nil
}

// execForIn iterates array elements, string characters or record keys.
// The loop variable is bound in the enclosing scope, which must not already
// hold it as a constant.
func (i *Interpreter) execForIn(s *ast.ForIn) (ExecResult, error) {
	if b, ok := i.env.LookupLocal(s.Name); ok && b.IsConstant {
		return resultNone, runtimeErr(ErrConstantReassignment, s.GetSpan(), "loop variable '%s' is a constant", s.Name)
	}
	iterable, err := i.evalExpr(s.Iterable)
	if err != nil {
		return resultNone, err
	}

	var items []Value
	switch it := iterable.(type) {
	case *ArrayVal:
		items = it.Elements
	case StringVal:
		for _, r := range string(it) {
			items = append(items, StringVal(string(r)))
		}
	case *RecordVal:
		for _, k := range it.Keys() {
			items = append(items, StringVal(k))
		}
	default:
		return resultNone, runtimeErr(ErrTypeMismatch, s.Iterable.GetSpan(), "cannot iterate over %s", iterable.TypeName())
	}

	for _, item := range items {
		i.env.Define(s.Name, item, false)
		result, err := i.execBlock(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil
		}
	}
	return resultNone, nil
}

// execBlock runs statements in the current scope; only calls open scopes.
func (i *Interpreter) execBlock(block *ast.Block) (ExecResult, error) {
	if block == nil {
		return resultNone, nil
	}
	for _, stmt := range block.Stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execFuncDecl(s *ast.FuncDecl) (ExecResult, error) {
	fn := &FuncVal{
		Name:       s.Name,
		Params:     s.Params,
		ReturnType: s.ReturnType,
		Body:       s.Body,
		Closure:    i.env,
		Named:      true,
	}
	i.env.Define(s.Name, fn, false)
	return ExecResult{Value: fn}, nil
}

func (i *Interpreter) execExport(s *ast.Export) (ExecResult, error) {
	result, err := i.execStmt(s.Decl)
	if err != nil {
		return resultNone, err
	}
	name := ast.DeclaredName(s.Decl)
	val, err := i.env.Get(name)
	if err != nil {
		return resultNone, positioned(s.GetSpan(), err)
	}
	i.exports[name] = val
	return result, nil
}
