// Package ast defines the abstract syntax tree for quill.
package ast

import (
	"quill-lang/internal/span"
	"quill-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program
// ============================================================

// Program is the root of a parsed source file.
type Program struct {
	NodeBase
	Body []Stmt
}

// ============================================================
// Expressions
// ============================================================

// Ident is a name reference.
type Ident struct {
	ExprBase
	Name string
}

// SelfProp is the @name shorthand for self.name.
type SelfProp struct {
	ExprBase
	Name string
}

// NumberLit is a numeric literal.
type NumberLit struct {
	ExprBase
	Value float64
}

// StringLit is a string literal.
type StringLit struct {
	ExprBase
	Value string
}

// BoolLit is true or false.
type BoolLit struct {
	ExprBase
	Value bool
}

// NullLit is null.
type NullLit struct {
	ExprBase
}

// ArrayLit is [a, b, c].
type ArrayLit struct {
	ExprBase
	Elements []Expr
}

// RecordEntry is one key: value pair of a record literal.
type RecordEntry struct {
	Key   string
	Value Expr
}

// RecordLit is { key: value, ... }.
type RecordLit struct {
	ExprBase
	Entries []RecordEntry
}

// Unary is !x or -x.
type Unary struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// Binary is an infix operation.
type Binary struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// Call is callee(args).
type Call struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// Member is object.name.
type Member struct {
	ExprBase
	Object   Expr
	Property string
}

// Index is object[index].
type Index struct {
	ExprBase
	Object Expr
	Index  Expr
}

// Super is the super keyword; valid only as super(...) or super.name.
type Super struct {
	ExprBase
}

// Param is a function, lambda, method or constructor parameter.
type Param struct {
	Name      string
	TypeName  string // empty when unannotated
	Default   Expr   // nil when absent
	Shorthand bool   // @name: assign to the instance property of the same name
}

// Lambda is (params) => expr, or name => expr.
type Lambda struct {
	ExprBase
	Params []*Param
	Body   Expr
}

// FuncLit is an anonymous function(params) ... end.
type FuncLit struct {
	ExprBase
	Params     []*Param
	ReturnType string
	Body       *Block
}

// ============================================================
// Statements
// ============================================================

// Block is a statement sequence closed by end (or else).
type Block struct {
	StmtBase
	Stmts []Stmt
}

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// Assign is name := value (IsConst) or name = value.
type Assign struct {
	StmtBase
	Name    string
	IsConst bool
	Value   Expr
}

// Decl is name: Type, optionally with an initializer.
type Decl struct {
	StmtBase
	Name     string
	TypeName string
	IsConst  bool
	Value    Expr // nil: use the type's default value
}

// MemberAssign assigns to obj.name, @name or obj[index].
type MemberAssign struct {
	StmtBase
	Target Expr // *Member, *SelfProp or *Index
	Value  Expr
}

// Return is return [value].
type Return struct {
	StmtBase
	Value Expr // may be nil
}

// Break exits the nearest loop.
type Break struct {
	StmtBase
}

// Continue skips to the next iteration of the nearest loop.
type Continue struct {
	StmtBase
}

// If is an if / else if / else chain.
type If struct {
	StmtBase
	Test    Expr
	Body    *Block
	ElseIfs []ElseIf
	Else    *Block // may be nil
}

// ElseIf is a single else-if branch.
type ElseIf struct {
	Span span.Span
	Test Expr
	Body *Block
}

// While is while condition ... end.
type While struct {
	StmtBase
	Condition Expr
	Body      *Block
}

// ForIn is for name in iterable ... end.
type ForIn struct {
	StmtBase
	Name     string
	Iterable Expr
	Body     *Block
}

// FuncDecl is function name(params)[: Type] ... end.
type FuncDecl struct {
	StmtBase
	Name       string
	Params     []*Param
	ReturnType string
	Body       *Block
}

// ============================================================
// Classes
// ============================================================

// Visibility is a class member access level.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Protected:
		return "protected"
	default:
		return "public"
	}
}

// Modifiers are the flags written before a class member.
type Modifiers struct {
	Visibility Visibility
	Static     bool
	Const      bool
}

// PropertyDecl is a class data member.
type PropertyDecl struct {
	Span      span.Span
	Modifiers Modifiers
	Name      string
	TypeName  string
	Value     Expr // may be nil: type default or null
}

// MethodDecl is a class method.
type MethodDecl struct {
	Span       span.Span
	Modifiers  Modifiers
	Name       string
	Params     []*Param
	ReturnType string
	Body       *Block
}

// AccessorBody is a getter or setter: either a block or a single expression.
type AccessorBody struct {
	Span   span.Span
	Params []*Param
	Block  *Block
	Expr   Expr
}

// AccessorDecl is property NAME get() ... end set(v) ... end end.
type AccessorDecl struct {
	Span      span.Span
	Modifiers Modifiers
	Name      string
	Get       *AccessorBody // may be nil
	Set       *AccessorBody // may be nil
}

// ClassDecl is class Name [extends Base] ... end.
type ClassDecl struct {
	StmtBase
	Name        string
	SuperClass  string // empty when not extending
	Properties  []*PropertyDecl
	Methods     []*MethodDecl
	Accessors   []*AccessorDecl
	Constructor *MethodDecl // may be nil
}

// ============================================================
// Modules
// ============================================================

// Import is import { a, b } from "path".
type Import struct {
	StmtBase
	Names []string
	Path  string
}

// Export wraps a declaration whose name is exported.
type Export struct {
	StmtBase
	Decl Stmt // *FuncDecl, *ClassDecl, *Assign or *Decl
}

// DeclaredName returns the name bound by a declaration statement.
func DeclaredName(s Stmt) string {
	switch d := s.(type) {
	case *FuncDecl:
		return d.Name
	case *ClassDecl:
		return d.Name
	case *Assign:
		return d.Name
	case *Decl:
		return d.Name
	}
	return ""
}
