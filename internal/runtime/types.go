package runtime

// Type annotations name a built-in kind, Any, or a class.

// defaultFor returns the value a declaration of typeName starts with.
func defaultFor(typeName string) Value {
	switch typeName {
	case TypeNumber:
		return NumberVal(0)
	case TypeString:
		return StringVal("")
	case TypeBoolean:
		return BoolVal(false)
	case TypeArray:
		return NewArray()
	case TypeRecord, "Map":
		return NewRecord()
	case TypeFunction:
		return &BuiltinVal{Name: "noop", Arity: -1, Fn: func([]Value) (Value, error) { return NullVal{}, nil }}
	default:
		return NullVal{}
	}
}

// typeMatches reports whether v satisfies the annotation typeName.
// Class annotations accept instances of the class or a subclass, and null.
func typeMatches(typeName string, v Value) bool {
	switch typeName {
	case "", "Any":
		return true
	case TypeNumber, TypeString, TypeBoolean, TypeArray, TypeRecord, TypeNull:
		return v.TypeName() == typeName
	case "Map":
		return v.TypeName() == TypeRecord
	case TypeFunction:
		switch v.(type) {
		case *FuncVal, *BuiltinVal, *ClassVal:
			return true
		}
		return false
	case TypeClass:
		_, ok := v.(*ClassVal)
		return ok
	}
	switch val := v.(type) {
	case NullVal:
		return true
	case *InstanceVal:
		return val.Class.isA(typeName)
	}
	return false
}

// reassignable reports whether next may replace current in a binding
// without a declared type. A null binding accepts anything.
func reassignable(current, next Value) bool {
	if _, ok := current.(NullVal); ok {
		return true
	}
	if ci, ok := current.(*InstanceVal); ok {
		if _, isNull := next.(NullVal); isNull {
			return true
		}
		ni, ok := next.(*InstanceVal)
		return ok && ni.Class.isA(ci.Class.Name)
	}
	return current.TypeName() == next.TypeName()
}
