package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill-lang/internal/ast"
	"quill-lang/internal/diag"
	"quill-lang/internal/lexer"
	"quill-lang/internal/span"
	"quill-lang/internal/token"
)

// ignoreSpans compares AST shape only.
var ignoreSpans = cmpopts.IgnoreTypes(span.Span{})

// helper: parse source and return the program, failing on any diagnostic
func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, lexDiags := lexer.New(source, "test.ql").Tokenize()
	require.Empty(t, lexDiags, "lex errors")
	prog, diags := New(tokens).ParseProgram()
	require.Empty(t, diags, "parse errors")
	return prog
}

// helper: parse source expecting diagnostics
func parseErr(t *testing.T, source string) []diag.Diagnostic {
	t.Helper()
	tokens, _ := lexer.New(source, "test.ql").Tokenize()
	_, diags := New(tokens).ParseProgram()
	require.NotEmpty(t, diags, "expected parse errors")
	return diags
}

// helper: the value expression of a single top-level assignment
func assignedValue(t *testing.T, source string) ast.Expr {
	t.Helper()
	prog := parseOK(t, source)
	require.Len(t, prog.Body, 1)
	assign, ok := prog.Body[0].(*ast.Assign)
	require.True(t, ok, "expected Assign, got %T", prog.Body[0])
	return assign.Value
}

func num(v float64) *ast.NumberLit { return &ast.NumberLit{Value: v} }
func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func TestParseAssignments(t *testing.T) {
	prog := parseOK(t, "x := 1\ny = 2\ntotal: Number\nlimit: Number := 10")

	want := []ast.Stmt{
		&ast.Assign{Name: "x", IsConst: true, Value: num(1)},
		&ast.Assign{Name: "y", Value: num(2)},
		&ast.Decl{Name: "total", TypeName: "Number"},
		&ast.Decl{Name: "limit", TypeName: "Number", IsConst: true, Value: num(10)},
	}
	if diff := cmp.Diff(want, prog.Body, ignoreSpans); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePrecedence(t *testing.T) {
	got := assignedValue(t, `z := 1 + 2 * 3 == 7 && !false`)

	want := &ast.Binary{
		Op: token.AND,
		Left: &ast.Binary{
			Op: token.EQ,
			Left: &ast.Binary{
				Op:    token.PLUS,
				Left:  num(1),
				Right: &ast.Binary{Op: token.STAR, Left: num(2), Right: num(3)},
			},
			Right: num(7),
		},
		Right: &ast.Unary{Op: token.BANG, Operand: &ast.BoolLit{Value: false}},
	}
	if diff := cmp.Diff(want, got, ignoreSpans); diff != "" {
		t.Errorf("expression mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLeftAssociative(t *testing.T) {
	got := assignedValue(t, `z := 10 - 4 - 3`)
	want := &ast.Binary{
		Op:    token.MINUS,
		Left:  &ast.Binary{Op: token.MINUS, Left: num(10), Right: num(4)},
		Right: num(3),
	}
	assert.Empty(t, cmp.Diff(want, got, ignoreSpans))
}

func TestParseLogicalOperatorsShareTier(t *testing.T) {
	got := assignedValue(t, `z := a || b && c`)
	want := &ast.Binary{
		Op:    token.AND,
		Left:  &ast.Binary{Op: token.OR, Left: ident("a"), Right: ident("b")},
		Right: ident("c"),
	}
	assert.Empty(t, cmp.Diff(want, got, ignoreSpans))
}

func TestParseLambdaVersusGroup(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   ast.Expr
	}{
		{
			name:   "two-param lambda",
			source: `f := (x, y) => x + y`,
			want: &ast.Lambda{
				Params: []*ast.Param{{Name: "x"}, {Name: "y"}},
				Body:   &ast.Binary{Op: token.PLUS, Left: ident("x"), Right: ident("y")},
			},
		},
		{
			name:   "grouped arithmetic",
			source: `f := (1 + 2) * 3`,
			want: &ast.Binary{
				Op:    token.STAR,
				Left:  &ast.Binary{Op: token.PLUS, Left: num(1), Right: num(2)},
				Right: num(3),
			},
		},
		{
			name:   "grouped name looks like a parameter list",
			source: `f := (a) * 2`,
			want:   &ast.Binary{Op: token.STAR, Left: ident("a"), Right: num(2)},
		},
		{
			name:   "bare single-param lambda",
			source: `f := x => x * x`,
			want: &ast.Lambda{
				Params: []*ast.Param{{Name: "x"}},
				Body:   &ast.Binary{Op: token.STAR, Left: ident("x"), Right: ident("x")},
			},
		},
		{
			name:   "typed params with default",
			source: `f := (n: Number, step = 1) => n + step`,
			want: &ast.Lambda{
				Params: []*ast.Param{
					{Name: "n", TypeName: "Number"},
					{Name: "step", Default: num(1)},
				},
				Body: &ast.Binary{Op: token.PLUS, Left: ident("n"), Right: ident("step")},
			},
		},
		{
			name:   "empty parameter list",
			source: `f := () => 42`,
			want:   &ast.Lambda{Body: num(42)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assignedValue(t, tt.source)
			if diff := cmp.Diff(tt.want, got, ignoreSpans); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLambdaAsArgument(t *testing.T) {
	prog := parseOK(t, `evens := arr.Filter(e => e % 2 == 0)`)
	assign := prog.Body[0].(*ast.Assign)
	call, ok := assign.Value.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	_, isLambda := call.Args[0].(*ast.Lambda)
	assert.True(t, isLambda)
	assert.Equal(t, "Filter", call.Callee.(*ast.Member).Property)
}

func TestParseConstantParameterRejected(t *testing.T) {
	for _, source := range []string{
		`f := (x := 1) => x`,
		"function f(a := 1)\nend",
	} {
		diags := parseErr(t, source)
		found := false
		for _, d := range diags {
			if d.Message == "parameters cannot be constants" {
				found = true
			}
		}
		assert.True(t, found, "source %q: %v", source, diags)
	}
}

func TestParseBacktrackDropsSpeculativeDiagnostics(t *testing.T) {
	// the speculative parameter parse fails on '1'; no diagnostic may leak
	prog := parseOK(t, `x := (1)`)
	assert.Empty(t, cmp.Diff(num(1), prog.Body[0].(*ast.Assign).Value, ignoreSpans))
}

func TestParseIfElseChain(t *testing.T) {
	source := `if x > 1
  y = 1
else if x < 0
  y = 2
else
  y = 3
end`
	prog := parseOK(t, source)
	require.Len(t, prog.Body, 1)
	stmt, ok := prog.Body[0].(*ast.If)
	require.True(t, ok)

	assert.Len(t, stmt.Body.Stmts, 1)
	require.Len(t, stmt.ElseIfs, 1)
	assert.Empty(t, cmp.Diff(&ast.Binary{Op: token.LT, Left: ident("x"), Right: num(0)}, stmt.ElseIfs[0].Test, ignoreSpans))
	require.NotNil(t, stmt.Else)
	assert.Len(t, stmt.Else.Stmts, 1)
}

func TestParseLoops(t *testing.T) {
	source := `while i < 10
  i += 1
  if i == 5
    continue
  end
  break
end
for item in items
  Println(item)
end`
	prog := parseOK(t, source)
	require.Len(t, prog.Body, 2)

	loop := prog.Body[0].(*ast.While)
	require.Len(t, loop.Body.Stmts, 3)
	want := &ast.Assign{Name: "i", Value: &ast.Binary{Op: token.PLUS, Left: ident("i"), Right: num(1)}}
	assert.Empty(t, cmp.Diff(want, loop.Body.Stmts[0], ignoreSpans))
	assert.IsType(t, &ast.Break{}, loop.Body.Stmts[2])

	forIn := prog.Body[1].(*ast.ForIn)
	assert.Equal(t, "item", forIn.Name)
	assert.Empty(t, cmp.Diff(ident("items"), forIn.Iterable, ignoreSpans))
}

func TestParseFuncDecl(t *testing.T) {
	source := `function add(a: Number, b: Number = 2): Number
  return a + b
end`
	prog := parseOK(t, source)
	fn, ok := prog.Body[0].(*ast.FuncDecl)
	require.True(t, ok)

	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "Number", fn.ReturnType)
	want := []*ast.Param{
		{Name: "a", TypeName: "Number"},
		{Name: "b", TypeName: "Number", Default: num(2)},
	}
	assert.Empty(t, cmp.Diff(want, fn.Params, ignoreSpans))
	require.Len(t, fn.Body.Stmts, 1)
	assert.IsType(t, &ast.Return{}, fn.Body.Stmts[0])
}

func TestParseFuncLiteral(t *testing.T) {
	source := `f := function(x)
  return x
end`
	got := assignedValue(t, source)
	fn, ok := got.(*ast.FuncLit)
	require.True(t, ok)
	assert.Len(t, fn.Params, 1)
}

func TestParseMemberAssignments(t *testing.T) {
	source := `@x = 1
p.y = 2
self.z = 3
arr[0] = 4
a.b.c = 5`
	prog := parseOK(t, source)
	require.Len(t, prog.Body, 5)

	targets := []ast.Expr{
		&ast.SelfProp{Name: "x"},
		&ast.Member{Object: ident("p"), Property: "y"},
		&ast.Member{Object: ident("self"), Property: "z"},
		&ast.Index{Object: ident("arr"), Index: num(0)},
		&ast.Member{Object: &ast.Member{Object: ident("a"), Property: "b"}, Property: "c"},
	}
	for i, stmt := range prog.Body {
		assign, ok := stmt.(*ast.MemberAssign)
		require.True(t, ok, "statement %d: %T", i, stmt)
		assert.Empty(t, cmp.Diff(targets[i], assign.Target, ignoreSpans), "statement %d", i)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	diags := parseErr(t, `f() = 3`)
	assert.Equal(t, "invalid assignment target", diags[0].Message)
}

func TestParseRecordAndArrayLiterals(t *testing.T) {
	source := `r := {
  name: "quill",
  "tags": [1, 2,
    3],
}`
	got := assignedValue(t, source)
	want := &ast.RecordLit{Entries: []ast.RecordEntry{
		{Key: "name", Value: &ast.StringLit{Value: "quill"}},
		{Key: "tags", Value: &ast.ArrayLit{Elements: []ast.Expr{num(1), num(2), num(3)}}},
	}}
	assert.Empty(t, cmp.Diff(want, got, ignoreSpans))
}

func TestParseClassDecl(t *testing.T) {
	source := `class Point extends Shape
  x: Number = 0
  private secret := "s"
  static const ORIGIN := 0
  protected static count = 0

  constructor(@x, y = 2)
    @y = y
  end

  function length(): Number
    return @x
  end

  scale(k)
    return @x * k
  end

  property doubled
    get() => @x * 2
    set(v)
      @x = v / 2
    end
  end
end`
	prog := parseOK(t, source)
	cls, ok := prog.Body[0].(*ast.ClassDecl)
	require.True(t, ok)

	assert.Equal(t, "Point", cls.Name)
	assert.Equal(t, "Shape", cls.SuperClass)

	require.Len(t, cls.Properties, 4)
	assert.Equal(t, ast.Modifiers{}, cls.Properties[0].Modifiers)
	assert.Equal(t, "Number", cls.Properties[0].TypeName)
	assert.Equal(t, ast.Modifiers{Visibility: ast.Private}, cls.Properties[1].Modifiers)
	assert.Equal(t, ast.Modifiers{Static: true, Const: true}, cls.Properties[2].Modifiers)
	assert.Equal(t, ast.Modifiers{Visibility: ast.Protected, Static: true}, cls.Properties[3].Modifiers)

	require.NotNil(t, cls.Constructor)
	require.Len(t, cls.Constructor.Params, 2)
	assert.True(t, cls.Constructor.Params[0].Shorthand)
	assert.False(t, cls.Constructor.Params[1].Shorthand)

	require.Len(t, cls.Methods, 2)
	assert.Equal(t, "length", cls.Methods[0].Name)
	assert.Equal(t, "Number", cls.Methods[0].ReturnType)
	assert.Equal(t, "scale", cls.Methods[1].Name)

	require.Len(t, cls.Accessors, 1)
	acc := cls.Accessors[0]
	assert.Equal(t, "doubled", acc.Name)
	require.NotNil(t, acc.Get)
	assert.NotNil(t, acc.Get.Expr)
	require.NotNil(t, acc.Set)
	assert.NotNil(t, acc.Set.Block)
	assert.Len(t, acc.Set.Params, 1)
}

func TestParseClassMemberErrors(t *testing.T) {
	diags := parseErr(t, "class A\n  42\nend")
	assert.Equal(t, "E2003", diags[0].Code)

	diags = parseErr(t, "class A\n  property p\n  end\nend")
	assert.Contains(t, diags[0].Message, "needs a getter or a setter")
}

func TestParseSuper(t *testing.T) {
	source := `class B extends A
  constructor(x)
    super(x)
    super.init()
  end
end`
	prog := parseOK(t, source)
	ctor := prog.Body[0].(*ast.ClassDecl).Constructor
	require.Len(t, ctor.Body.Stmts, 2)

	first := ctor.Body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.Call)
	assert.IsType(t, &ast.Super{}, first.Callee)
	second := ctor.Body.Stmts[1].(*ast.ExprStmt).Expr.(*ast.Call)
	assert.IsType(t, &ast.Super{}, second.Callee.(*ast.Member).Object)
}

func TestParseImportExport(t *testing.T) {
	source := `import { square, PI } from "./math"
export function cube(x)
  return x * x * x
end
export E := 2.718`
	prog := parseOK(t, source)
	require.Len(t, prog.Body, 3)

	imp := prog.Body[0].(*ast.Import)
	assert.Equal(t, []string{"square", "PI"}, imp.Names)
	assert.Equal(t, "./math", imp.Path)

	exp := prog.Body[1].(*ast.Export)
	assert.Equal(t, "cube", ast.DeclaredName(exp.Decl))
	assert.Equal(t, "E", ast.DeclaredName(prog.Body[2].(*ast.Export).Decl))
}

func TestParseExportRequiresDeclaration(t *testing.T) {
	diags := parseErr(t, `export Println(1)`)
	assert.Equal(t, "E2005", diags[0].Code)
}

func TestParseSyntaxError(t *testing.T) {
	tokens, _ := lexer.New("x := (1 + 2", "test.ql").Tokenize()
	_, err := Parse(tokens)
	require.Error(t, err)

	var syntaxErr *diag.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 1, syntaxErr.Line())
	assert.Contains(t, err.Error(), "syntax error")
}

func TestParseErrorRecovery(t *testing.T) {
	// both broken statements are reported
	diags := parseErr(t, "x := )\ny := 1\nz := ]")
	assert.GreaterOrEqual(t, len(diags), 2)
}

func TestParseUnmatchedEnd(t *testing.T) {
	diags := parseErr(t, "x := 1\nend")
	assert.Contains(t, diags[0].Message, "without matching block")
}

func TestParseJSONOutput(t *testing.T) {
	prog := parseOK(t, `sq := x => x * x`)
	data, err := json.Marshal(ast.NodeToMap(prog))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Program", decoded["kind"])
	body := decoded["body"].([]interface{})
	assign := body[0].(map[string]interface{})
	assert.Equal(t, "Assign", assign["kind"])
	assert.Equal(t, "Lambda", assign["value"].(map[string]interface{})["kind"])
}
