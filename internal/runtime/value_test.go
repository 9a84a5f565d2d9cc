package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill-lang/internal/span"
	"quill-lang/internal/token"
)

func TestNumberFormatting(t *testing.T) {
	tests := []struct {
		in   NumberVal
		want string
	}{
		{3, "3"},
		{2.5, "2.5"},
		{-0.125, "-0.125"},
		{1e21, "1000000000000000000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		val  Value
		want bool
	}{
		{BoolVal(true), true},
		{BoolVal(false), false},
		{NumberVal(0), false},
		{NumberVal(-1), true},
		{StringVal(""), false},
		{StringVal("x"), true},
		{NewArray(), false},
		{NewArray(NullVal{}), true},
		{NewRecord(), false},
		{RecordOf(map[string]Value{"a": NumberVal(1)}), true},
		{NullVal{}, false},
		{&FuncVal{Name: "f"}, false},
		{&BuiltinVal{Name: "Println"}, false},
		{&ClassVal{Name: "C"}, false},
		{&InstanceVal{Class: &ClassVal{Name: "C"}, Props: map[string]Value{}}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTruthy(tt.val), "IsTruthy(%s)", tt.val)
	}
}

func TestBinaryOp(t *testing.T) {
	tests := []struct {
		op   token.Kind
		l, r Value
		want Value
	}{
		{token.PLUS, NumberVal(1), NumberVal(2), NumberVal(3)},
		{token.MINUS, NumberVal(1), NumberVal(2), NumberVal(-1)},
		{token.STAR, NumberVal(4), NumberVal(2.5), NumberVal(10)},
		{token.PERCENT, NumberVal(-7), NumberVal(3), NumberVal(-1)},
		{token.PLUS, StringVal("a"), NullVal{}, StringVal("anull")},
		{token.EQ, NumberVal(1), StringVal("1"), BoolVal(false)},
		{token.NEQ, NewArray(NumberVal(1)), NewArray(NumberVal(1)), BoolVal(false)},
		{token.LT, BoolVal(false), BoolVal(true), BoolVal(true)},
		{token.OR, BoolVal(false), BoolVal(true), BoolVal(true)},
	}
	for _, tt := range tests {
		got, err := BinaryOp(tt.op, tt.l, tt.r, span.Span{})
		require.NoError(t, err, "%s %s %s", tt.l, tt.op, tt.r)
		assert.True(t, ValuesEqual(tt.want, got), "%s %s %s = %s, want %s", tt.l, tt.op, tt.r, got, tt.want)
	}

	_, err := BinaryOp(token.SLASH, NumberVal(1), NumberVal(0), span.Span{})
	assert.ErrorIs(t, err, ErrDivisionByZero)
	_, err = BinaryOp(token.LT, StringVal("a"), StringVal("b"), span.Span{})
	assert.ErrorIs(t, err, ErrIncompatibleOperandTypes)
	_, err = BinaryOp(token.AND, BoolVal(true), NumberVal(1), span.Span{})
	assert.ErrorIs(t, err, ErrIncompatibleOperandTypes)
}

func TestRecordIsPersistent(t *testing.T) {
	base := RecordOf(map[string]Value{"a": NumberVal(1), "b": NumberVal(2)})
	added := base.With("c", NumberVal(3))
	removed := base.Without("a")

	assert.Equal(t, []string{"a", "b"}, base.Keys())
	assert.Equal(t, []string{"a", "b", "c"}, added.Keys())
	assert.Equal(t, []string{"b"}, removed.Keys())
	assert.Equal(t, "{a: 1, b: 2}", base.String())

	merged := base.Merge(RecordOf(map[string]Value{"b": StringVal("x")}))
	assert.Equal(t, `{a: 1, b: "x"}`, merged.String())
	assert.True(t, base.Equal(RecordOf(map[string]Value{"b": NumberVal(2), "a": NumberVal(1)})))
	assert.False(t, base.Equal(added))
}

func TestTypeMatches(t *testing.T) {
	animal := &ClassVal{Name: "Animal", members: map[string]*ClassMember{}}
	dog := &ClassVal{Name: "Dog", Super: animal, members: map[string]*ClassMember{}}
	rex := &InstanceVal{Class: dog, Props: map[string]Value{}}

	assert.True(t, typeMatches("", NumberVal(1)))
	assert.True(t, typeMatches("Any", NullVal{}))
	assert.True(t, typeMatches("Map", NewRecord()))
	assert.True(t, typeMatches("Function", &BuiltinVal{Name: "f"}))
	assert.True(t, typeMatches("Animal", rex))
	assert.True(t, typeMatches("Animal", NullVal{}))
	assert.False(t, typeMatches("Dog", &InstanceVal{Class: animal}))
	assert.False(t, typeMatches("Number", StringVal("1")))

	assert.Equal(t, NumberVal(0), defaultFor("Number"))
	assert.Equal(t, NullVal{}, defaultFor("Animal"))
}
