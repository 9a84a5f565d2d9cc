package ast

import (
	"quill-lang/internal/span"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// Every node becomes a tagged map with a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return m("Program", n.Span, "body", stmtSlice(n.Body))

	// ---- Expressions ----
	case *Ident:
		return m("Ident", n.Span, "name", n.Name)
	case *SelfProp:
		return m("SelfProp", n.Span, "name", n.Name)
	case *NumberLit:
		return m("NumberLit", n.Span, "value", n.Value)
	case *StringLit:
		return m("StringLit", n.Span, "value", n.Value)
	case *BoolLit:
		return m("BoolLit", n.Span, "value", n.Value)
	case *NullLit:
		return m("NullLit", n.Span)
	case *ArrayLit:
		return m("ArrayLit", n.Span, "elements", exprSlice(n.Elements))
	case *RecordLit:
		entries := make([]interface{}, len(n.Entries))
		for i, e := range n.Entries {
			entries[i] = map[string]interface{}{"key": e.Key, "value": NodeToMap(e.Value)}
		}
		return m("RecordLit", n.Span, "entries", entries)
	case *Unary:
		return m("Unary", n.Span, "op", n.Op.String(), "operand", NodeToMap(n.Operand))
	case *Binary:
		return m("Binary", n.Span,
			"op", n.Op.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *Call:
		return m("Call", n.Span, "callee", NodeToMap(n.Callee), "args", exprSlice(n.Args))
	case *Member:
		return m("Member", n.Span, "object", NodeToMap(n.Object), "property", n.Property)
	case *Index:
		return m("Index", n.Span, "object", NodeToMap(n.Object), "index", NodeToMap(n.Index))
	case *Super:
		return m("Super", n.Span)
	case *Lambda:
		return m("Lambda", n.Span, "params", paramSlice(n.Params), "body", NodeToMap(n.Body))
	case *FuncLit:
		return m("FuncLit", n.Span,
			"params", paramSlice(n.Params),
			"returnType", n.ReturnType,
			"body", NodeToMap(n.Body))

	// ---- Statements ----
	case *Block:
		return m("Block", n.Span, "stmts", stmtSlice(n.Stmts))
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *Assign:
		return m("Assign", n.Span, "name", n.Name, "isConst", n.IsConst, "value", NodeToMap(n.Value))
	case *Decl:
		result := m("Decl", n.Span, "name", n.Name, "type", n.TypeName, "isConst", n.IsConst)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *MemberAssign:
		return m("MemberAssign", n.Span, "target", NodeToMap(n.Target), "value", NodeToMap(n.Value))
	case *Return:
		result := m("Return", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *Break:
		return m("Break", n.Span)
	case *Continue:
		return m("Continue", n.Span)
	case *If:
		result := m("If", n.Span, "test", NodeToMap(n.Test), "body", NodeToMap(n.Body))
		if len(n.ElseIfs) > 0 {
			elseIfs := make([]interface{}, len(n.ElseIfs))
			for i, ei := range n.ElseIfs {
				elseIfs[i] = m("ElseIf", ei.Span, "test", NodeToMap(ei.Test), "body", NodeToMap(ei.Body))
			}
			result["elseIfs"] = elseIfs
		}
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *While:
		return m("While", n.Span, "condition", NodeToMap(n.Condition), "body", NodeToMap(n.Body))
	case *ForIn:
		return m("ForIn", n.Span, "name", n.Name, "iterable", NodeToMap(n.Iterable), "body", NodeToMap(n.Body))
	case *FuncDecl:
		return m("FuncDecl", n.Span,
			"name", n.Name,
			"params", paramSlice(n.Params),
			"returnType", n.ReturnType,
			"body", NodeToMap(n.Body))
	case *ClassDecl:
		return classToMap(n)
	case *Import:
		return m("Import", n.Span, "names", n.Names, "path", n.Path)
	case *Export:
		return m("Export", n.Span, "decl", NodeToMap(n.Decl))

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

func classToMap(n *ClassDecl) map[string]interface{} {
	result := m("ClassDecl", n.Span, "name", n.Name)
	if n.SuperClass != "" {
		result["extends"] = n.SuperClass
	}
	if n.Constructor != nil {
		result["constructor"] = methodToMap("Constructor", n.Constructor)
	}
	if len(n.Properties) > 0 {
		props := make([]interface{}, len(n.Properties))
		for i, p := range n.Properties {
			entry := m("PropertyDecl", p.Span, "name", p.Name, "type", p.TypeName, "modifiers", modifiersToMap(p.Modifiers))
			if p.Value != nil {
				entry["value"] = NodeToMap(p.Value)
			}
			props[i] = entry
		}
		result["properties"] = props
	}
	if len(n.Methods) > 0 {
		methods := make([]interface{}, len(n.Methods))
		for i, md := range n.Methods {
			methods[i] = methodToMap("MethodDecl", md)
		}
		result["methods"] = methods
	}
	if len(n.Accessors) > 0 {
		accessors := make([]interface{}, len(n.Accessors))
		for i, a := range n.Accessors {
			entry := m("AccessorDecl", a.Span, "name", a.Name, "modifiers", modifiersToMap(a.Modifiers))
			if a.Get != nil {
				entry["get"] = accessorBodyToMap(a.Get)
			}
			if a.Set != nil {
				entry["set"] = accessorBodyToMap(a.Set)
			}
			accessors[i] = entry
		}
		result["accessors"] = accessors
	}
	return result
}

func methodToMap(kind string, md *MethodDecl) map[string]interface{} {
	return m(kind, md.Span,
		"name", md.Name,
		"modifiers", modifiersToMap(md.Modifiers),
		"params", paramSlice(md.Params),
		"returnType", md.ReturnType,
		"body", NodeToMap(md.Body))
}

func accessorBodyToMap(b *AccessorBody) map[string]interface{} {
	result := m("AccessorBody", b.Span, "params", paramSlice(b.Params))
	if b.Block != nil {
		result["block"] = NodeToMap(b.Block)
	}
	if b.Expr != nil {
		result["expr"] = NodeToMap(b.Expr)
	}
	return result
}

func modifiersToMap(mods Modifiers) map[string]interface{} {
	return map[string]interface{}{
		"visibility": mods.Visibility.String(),
		"static":     mods.Static,
		"const":      mods.Const,
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{"line": s.Start.Line, "column": s.Start.Column},
		"end":   map[string]interface{}{"line": s.End.Line, "column": s.End.Column},
	}
}

func stmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

func paramSlice(params []*Param) []interface{} {
	result := make([]interface{}, len(params))
	for i, p := range params {
		entry := map[string]interface{}{"name": p.Name}
		if p.TypeName != "" {
			entry["type"] = p.TypeName
		}
		if p.Default != nil {
			entry["default"] = NodeToMap(p.Default)
		}
		if p.Shorthand {
			entry["shorthand"] = true
		}
		result[i] = entry
	}
	return result
}
