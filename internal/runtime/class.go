package runtime

import (
	"fmt"
	"sort"
	"strings"

	"quill-lang/internal/ast"
	"quill-lang/internal/span"
)

// ---- OOP values ----

type memberKind int

const (
	memberProperty memberKind = iota
	memberMethod
	memberAccessor
)

// ClassMember is one declared property, method or accessor of a class.
type ClassMember struct {
	Name       string
	Kind       memberKind
	Visibility ast.Visibility
	Static     bool
	Const      bool
	TypeName   string
	Value      Value    // live value of a static property; seed when Init is nil
	Init       ast.Expr // instance initializer, evaluated once per instance
	Span       span.Span
	Method     *FuncVal
	Getter     *FuncVal
	Setter     *FuncVal
}

// ClassVal is a class descriptor. Calling it constructs an instance.
type ClassVal struct {
	Name        string
	Super       *ClassVal // may be nil
	Env         *Environment
	Constructor *FuncVal // may be nil; the nearest ancestor's is used then
	members     map[string]*ClassMember
	order       []string // instance properties in declaration order
}

func (v *ClassVal) TypeName() string { return TypeClass }
func (v *ClassVal) String() string   { return fmt.Sprintf("<class %s>", v.Name) }

// isA reports whether the class is name or inherits from a class called name.
func (v *ClassVal) isA(name string) bool {
	for cls := v; cls != nil; cls = cls.Super {
		if cls.Name == name {
			return true
		}
	}
	return false
}

// inherits reports whether v is other or a subclass of it.
func (v *ClassVal) inherits(other *ClassVal) bool {
	for cls := v; cls != nil; cls = cls.Super {
		if cls == other {
			return true
		}
	}
	return false
}

// findMember walks the inheritance chain to find a member.
func (v *ClassVal) findMember(name string) (*ClassMember, *ClassVal) {
	for cls := v; cls != nil; cls = cls.Super {
		if m, ok := cls.members[name]; ok {
			return m, cls
		}
	}
	return nil, nil
}

// findConstructor walks the chain to find the nearest constructor.
func (v *ClassVal) findConstructor() *FuncVal {
	for cls := v; cls != nil; cls = cls.Super {
		if cls.Constructor != nil {
			return cls.Constructor
		}
	}
	return nil
}

func (v *ClassVal) memberNames() []string {
	var names []string
	for cls := v; cls != nil; cls = cls.Super {
		for name := range cls.members {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// InstanceVal is an object. Unlike every other value its property map is
// mutated in place.
type InstanceVal struct {
	Class *ClassVal
	Props map[string]Value
}

func (v *InstanceVal) TypeName() string { return v.Class.Name }
func (v *InstanceVal) String() string {
	keys := v.PublicKeys()
	parts := make([]string, len(keys))
	for idx, k := range keys {
		parts[idx] = k + ": " + Inspect(v.Props[k])
	}
	return v.Class.Name + "{" + strings.Join(parts, ", ") + "}"
}

// PublicKeys lists, sorted, the properties readable from outside the class.
// Private and protected declared members are left out.
func (v *InstanceVal) PublicKeys() []string {
	keys := make([]string, 0, len(v.Props))
	for _, k := range sortedKeys(v.Props) {
		if m, _ := v.Class.findMember(k); m != nil && m.Visibility != ast.Public {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// ============================================================
// Declaration and construction
// ============================================================

func (i *Interpreter) execClassDecl(s *ast.ClassDecl) (ExecResult, error) {
	cls := &ClassVal{Name: s.Name, Env: i.env, members: make(map[string]*ClassMember)}

	if s.SuperClass != "" {
		superVal, err := i.env.Get(s.SuperClass)
		if err != nil {
			return resultNone, positioned(s.GetSpan(), err)
		}
		superCls, ok := superVal.(*ClassVal)
		if !ok {
			return resultNone, runtimeErr(ErrTypeMismatch, s.GetSpan(), "'%s' is not a class", s.SuperClass)
		}
		cls.Super = superCls
	}

	for _, p := range s.Properties {
		member := &ClassMember{
			Name:       p.Name,
			Kind:       memberProperty,
			Visibility: p.Modifiers.Visibility,
			Static:     p.Modifiers.Static,
			Const:      p.Modifiers.Const,
			TypeName:   p.TypeName,
			Value:      defaultFor(p.TypeName),
			Span:       p.Span,
		}
		switch {
		case !p.Modifiers.Static:
			member.Init = p.Value
			cls.order = append(cls.order, p.Name)
		case p.Value != nil:
			v, err := i.initProperty(member, p.Value)
			if err != nil {
				return resultNone, err
			}
			member.Value = v
		}
		cls.members[p.Name] = member
	}

	for _, m := range s.Methods {
		cls.members[m.Name] = &ClassMember{
			Name:       m.Name,
			Kind:       memberMethod,
			Visibility: m.Modifiers.Visibility,
			Static:     m.Modifiers.Static,
			Method:     i.methodFunc(cls, m),
		}
	}

	for _, a := range s.Accessors {
		member := &ClassMember{
			Name:       a.Name,
			Kind:       memberAccessor,
			Visibility: a.Modifiers.Visibility,
			Static:     a.Modifiers.Static,
		}
		if a.Get != nil {
			member.Getter = i.accessorFunc(cls, "get "+a.Name, a.Get)
		}
		if a.Set != nil {
			member.Setter = i.accessorFunc(cls, "set "+a.Name, a.Set)
		}
		cls.members[a.Name] = member
	}

	if s.Constructor != nil {
		cls.Constructor = i.methodFunc(cls, s.Constructor)
	}

	i.env.Define(s.Name, cls, true)
	i.logger.Debug("class declared", "class", s.Name, "super", s.SuperClass, "members", len(cls.members))
	return ExecResult{Value: cls}, nil
}

// initProperty evaluates a property initializer in the current scope and
// checks it against the declared type.
func (i *Interpreter) initProperty(m *ClassMember, init ast.Expr) (Value, error) {
	v, err := i.evalExpr(init)
	if err != nil {
		return nil, err
	}
	if !typeMatches(m.TypeName, v) {
		return nil, runtimeErr(ErrTypeMismatch, m.Span, "property '%s' of type %s initialized with %s", m.Name, m.TypeName, v.TypeName())
	}
	return v, nil
}

func (i *Interpreter) methodFunc(cls *ClassVal, m *ast.MethodDecl) *FuncVal {
	return &FuncVal{
		Name:       m.Name,
		Params:     m.Params,
		ReturnType: m.ReturnType,
		Body:       m.Body,
		Closure:    i.env,
		Class:      cls,
	}
}

func (i *Interpreter) accessorFunc(cls *ClassVal, name string, body *ast.AccessorBody) *FuncVal {
	return &FuncVal{
		Name:    name,
		Params:  body.Params,
		Body:    body.Block,
		Expr:    body.Expr,
		Closure: i.env,
		Class:   cls,
	}
}

// instantiate seeds a new instance with the non-static properties of the
// class chain (superclass first), evaluating each initializer afresh in its
// class's defining scope, then runs the nearest constructor bound to
// the instance.
func (i *Interpreter) instantiate(cls *ClassVal, args []Value, s span.Span) (Value, error) {
	inst := &InstanceVal{Class: cls, Props: make(map[string]Value)}

	var chain []*ClassVal
	for c := cls; c != nil; c = c.Super {
		chain = append(chain, c)
	}
	for k := len(chain) - 1; k >= 0; k-- {
		c := chain[k]
		for _, name := range c.order {
			m := c.members[name]
			if m.Init == nil {
				inst.Props[name] = m.Value
				continue
			}
			prev := i.env
			i.env = c.Env
			v, err := i.initProperty(m, m.Init)
			i.env = prev
			if err != nil {
				return nil, err
			}
			inst.Props[name] = v
		}
	}

	ctor := cls.findConstructor()
	if ctor == nil {
		if len(args) > 0 {
			return nil, runtimeErr(ErrArgumentCount, s, "class %s has no constructor but was called with %d arguments", cls.Name, len(args))
		}
		return inst, nil
	}
	if _, err := i.callFunc(ctor.bind(inst), args, s); err != nil {
		return nil, err
	}
	return inst, nil
}

// ============================================================
// Visibility
// ============================================================

// currentClass returns the class whose method is executing, if any.
func (i *Interpreter) currentClass() *ClassVal {
	if b, ok := i.env.Lookup("__class__"); ok {
		if cls, ok := b.Value.(*ClassVal); ok {
			return cls
		}
	}
	return nil
}

// currentSelf returns the receiver of the executing method, if any.
func (i *Interpreter) currentSelf() *InstanceVal {
	if b, ok := i.env.Lookup("self"); ok {
		if inst, ok := b.Value.(*InstanceVal); ok {
			return inst
		}
	}
	return nil
}

// checkAccess enforces private (declaring class only) and protected
// (declaring class and its subclasses) members.
func (i *Interpreter) checkAccess(m *ClassMember, owner *ClassVal, s span.Span) error {
	if m.Visibility == ast.Public {
		return nil
	}
	ctx := i.currentClass()
	allowed := false
	switch m.Visibility {
	case ast.Private:
		allowed = ctx == owner
	case ast.Protected:
		allowed = ctx != nil && ctx.inherits(owner)
	}
	if !allowed {
		return runtimeErr(ErrAccess, s, "%s member '%s' of class %s is not accessible here", m.Visibility, m.Name, owner.Name)
	}
	return nil
}

// ============================================================
// Member access
// ============================================================

func (i *Interpreter) getInstanceMember(inst *InstanceVal, name string, s span.Span) (Value, error) {
	if m, owner := inst.Class.findMember(name); m != nil {
		if err := i.checkAccess(m, owner, s); err != nil {
			return nil, err
		}
		switch m.Kind {
		case memberMethod:
			if m.Static {
				return m.Method, nil
			}
			return m.Method.bind(inst), nil
		case memberAccessor:
			if m.Getter == nil {
				return nil, runtimeErr(ErrAccess, s, "property '%s' of class %s has no getter", name, owner.Name)
			}
			getter := m.Getter
			if !m.Static {
				getter = getter.bind(inst)
			}
			return i.callFunc(getter, nil, s)
		default:
			if m.Static {
				return m.Value, nil
			}
		}
	}
	if val, ok := inst.Props[name]; ok {
		return val, nil
	}
	err := runtimeErr(ErrUnknownMember, s, "%s has no member '%s'", inst.Class.Name, name)
	return nil, withSuggestion(err, name, append(inst.Class.memberNames(), sortedKeys(inst.Props)...))
}

func (i *Interpreter) setInstanceMember(inst *InstanceVal, name string, value Value, s span.Span) error {
	if m, owner := inst.Class.findMember(name); m != nil {
		if err := i.checkAccess(m, owner, s); err != nil {
			return err
		}
		switch m.Kind {
		case memberMethod:
			return runtimeErr(ErrConstantReassignment, s, "cannot assign to method '%s'", name)
		case memberAccessor:
			if m.Setter == nil {
				return runtimeErr(ErrConstantReassignment, s, "property '%s' of class %s is read-only", name, owner.Name)
			}
			setter := m.Setter
			if !m.Static {
				setter = setter.bind(inst)
			}
			_, err := i.callFunc(setter, []Value{value}, s)
			return err
		default:
			if m.Const {
				return runtimeErr(ErrConstantReassignment, s, "cannot assign to constant property '%s'", name)
			}
			if !typeMatches(m.TypeName, value) {
				return runtimeErr(ErrTypeMismatch, s, "property '%s' is %s, got %s", name, m.TypeName, value.TypeName())
			}
			if m.Static {
				m.Value = value
				return nil
			}
		}
	}
	inst.Props[name] = value
	return nil
}

// getStatic reads a static member through the class value.
func (i *Interpreter) getStatic(cls *ClassVal, name string, s span.Span) (Value, error) {
	m, owner := cls.findMember(name)
	if m == nil && name == "Name" {
		return StringVal(cls.Name), nil
	}
	if m == nil || !m.Static {
		err := runtimeErr(ErrUnknownMember, s, "class %s has no static member '%s'", cls.Name, name)
		return nil, withSuggestion(err, name, cls.memberNames())
	}
	if err := i.checkAccess(m, owner, s); err != nil {
		return nil, err
	}
	switch m.Kind {
	case memberMethod:
		return m.Method, nil
	case memberAccessor:
		if m.Getter == nil {
			return nil, runtimeErr(ErrAccess, s, "property '%s' of class %s has no getter", name, owner.Name)
		}
		return i.callFunc(m.Getter, nil, s)
	default:
		return m.Value, nil
	}
}

func (i *Interpreter) setStatic(cls *ClassVal, name string, value Value, s span.Span) error {
	m, owner := cls.findMember(name)
	if m == nil || !m.Static {
		return runtimeErr(ErrUnknownMember, s, "class %s has no static member '%s'", cls.Name, name)
	}
	if err := i.checkAccess(m, owner, s); err != nil {
		return err
	}
	switch m.Kind {
	case memberMethod:
		return runtimeErr(ErrConstantReassignment, s, "cannot assign to method '%s'", name)
	case memberAccessor:
		if m.Setter == nil {
			return runtimeErr(ErrConstantReassignment, s, "property '%s' of class %s is read-only", name, owner.Name)
		}
		_, err := i.callFunc(m.Setter, []Value{value}, s)
		return err
	}
	if m.Const {
		return runtimeErr(ErrConstantReassignment, s, "cannot assign to constant property '%s'", name)
	}
	if !typeMatches(m.TypeName, value) {
		return runtimeErr(ErrTypeMismatch, s, "property '%s' is %s, got %s", name, m.TypeName, value.TypeName())
	}
	m.Value = value
	return nil
}

// ============================================================
// super
// ============================================================

func (i *Interpreter) superContext(s span.Span) (*ClassVal, *InstanceVal, error) {
	cls, self := i.currentClass(), i.currentSelf()
	if cls == nil || self == nil {
		return nil, nil, runtimeErr(ErrUndefinedVariable, s, "super used outside of a method")
	}
	if cls.Super == nil {
		return nil, nil, runtimeErr(ErrUnknownMember, s, "class %s has no superclass", cls.Name)
	}
	return cls, self, nil
}

// callSuperConstructor runs the superclass constructor on the same instance.
func (i *Interpreter) callSuperConstructor(args []Value, s span.Span) (Value, error) {
	cls, self, err := i.superContext(s)
	if err != nil {
		return nil, err
	}
	ctor := cls.Super.findConstructor()
	if ctor == nil {
		if len(args) > 0 {
			return nil, runtimeErr(ErrArgumentCount, s, "super class %s has no constructor but was called with %d arguments", cls.Super.Name, len(args))
		}
		return NullVal{}, nil
	}
	if _, err := i.callFunc(ctor.bind(self), args, s); err != nil {
		return nil, err
	}
	return NullVal{}, nil
}

// superMember resolves name starting at the superclass of the executing
// method's class, bound to the current instance.
func (i *Interpreter) superMember(name string, s span.Span) (Value, error) {
	cls, self, err := i.superContext(s)
	if err != nil {
		return nil, err
	}
	m, owner := cls.Super.findMember(name)
	if m == nil {
		err := runtimeErr(ErrUnknownMember, s, "super class %s has no member '%s'", cls.Super.Name, name)
		return nil, withSuggestion(err, name, cls.Super.memberNames())
	}
	if err := i.checkAccess(m, owner, s); err != nil {
		return nil, err
	}
	switch m.Kind {
	case memberMethod:
		return m.Method.bind(self), nil
	case memberAccessor:
		if m.Getter == nil {
			return nil, runtimeErr(ErrAccess, s, "property '%s' of class %s has no getter", name, owner.Name)
		}
		return i.callFunc(m.Getter.bind(self), nil, s)
	default:
		if m.Static {
			return m.Value, nil
		}
		if val, ok := self.Props[name]; ok {
			return val, nil
		}
		return NullVal{}, nil
	}
}
