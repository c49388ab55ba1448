package compiler

import (
	"fmt"
	"strings"

	"github.com/romshark/tojs/encode"
	"github.com/romshark/tojs/model"
	"github.com/romshark/tojs/parser/validate"
)

// Attributes that configure construction and attachment
// instead of setting a property.
const (
	attrAddMethod       = "addMethod"
	attrAddContext      = "addContext"
	attrID              = "id"
	attrLayoutParams    = "layoutParams"
	attrEnclosedIn      = "enclosedIn"
	attrConstructorArgs = "constructorArgs"
)

// Conditional include attributes.
const (
	attrCondName   = "name"
	attrCondValues = "values"
	attrCondGetter = "getter"

	defaultCondGetter = "qx.core.Environment.get"
)

const (
	defaultAddMethod = "add"
	indent           = "      "
)

func hiddenAttr(name string) bool {
	switch name {
	case attrAddMethod, attrAddContext, attrID,
		attrLayoutParams, attrEnclosedIn, attrConstructorArgs:
		return true
	}
	return validate.EventAttrName(name) == nil
}

// session is the state of a single compile call.
type session struct {
	c    *Compiler
	root *model.Node

	out          strings.Builder
	childCounter int
	handlers     []string
	seenHandlers map[string]struct{}

	// path holds the tag path segments of the node being emitted.
	path []string
}

func newSession(c *Compiler, root *model.Node) *session {
	return &session{
		c:            c,
		root:         root,
		seenHandlers: map[string]struct{}{},
		path:         []string{root.Tag},
	}
}

func (s *session) result() Result {
	return Result{Code: s.out.String(), Handlers: s.handlers}
}

func (s *session) errAt(n *model.Node, err error) *NodeError {
	return &NodeError{Path: strings.Join(s.path, "/"), Pos: n.Pos, Err: err}
}

// writeln writes one line. Line breaks inside text are normalized
// to the configured terminator.
func (s *session) writeln(line string) {
	if strings.ContainsAny(line, "\r\n") {
		line = strings.ReplaceAll(line, "\r\n", "\n")
		line = strings.ReplaceAll(line, "\r", "\n")
		if s.c.eol != LF {
			line = strings.ReplaceAll(line, "\n", s.c.eol)
		}
	}
	s.out.WriteString(line)
	s.out.WriteString(s.c.eol)
}

func (s *session) writef(format string, args ...any) {
	s.writeln(fmt.Sprintf(format, args...))
}

func (s *session) class(className string) error {
	s.writeln(Header)
	s.writef("qx.Class.define(%s, {", encode.String(className))
	s.writeln("")
	s.writef("  extend : %s,", s.c.resolver.Resolve(s.root.Tag))
	s.writeln("")

	if decl := s.root.ReservedText(model.ReservedDeclarations); !blank(decl) {
		s.writeln(decl)
		s.writeln(",")
	}
	if ctor := s.root.ReservedText(model.ReservedConstructor); !blank(ctor) {
		s.writeln("  construct : function()")
		s.writeln("  {")
		s.writeln("    this.base(arguments);")
		s.writeln(ctor)
		s.writeln("  },")
	}
	if props := strings.TrimSpace(s.root.ReservedText(model.ReservedProperties)); props != "" {
		s.writeln("  properties : ")
		s.writeln("  {")
		s.writeln(props)
		s.writeln("  },")
	}

	if err := s.members(); err != nil {
		return err
	}
	if script := strings.TrimSpace(s.root.ReservedText(model.ReservedScript)); script != "" {
		s.writeln("    ,")
		script = strings.ReplaceAll(script, "\r\n", "\n")
		for row := range strings.SplitSeq(script, "\n") {
			if suppressed(row) {
				continue
			}
			s.writeln(row)
		}
	}
	s.writeln("  },")

	s.writeln("")
	s.writeln("  destruct: function() {")
	s.disposals()
	if dtor := s.root.ReservedText(model.ReservedDestructor); !blank(dtor) {
		s.writeln(dtor)
	}
	s.writeln("  }")
	s.writeln("});")
	return nil
}

func (s *session) mixin(className string) error {
	s.writeln(Header)
	s.writef("qx.Mixin.define(%s, {", encode.String(className))
	s.writeln("")
	if err := s.members(); err != nil {
		return err
	}
	s.writeln("  },")

	s.writeln("")
	s.writeln("  destruct: function() {")
	s.disposals()
	s.writeln("  }")
	s.writeln("});")
	return nil
}

// members opens the members block and writes the construction method.
// The members block is left open.
func (s *session) members() error {
	s.writeln("  members: {")
	s.writeln("    _createComponents: function() {")
	s.writeln("")
	if err := s.properties("this", s.root); err != nil {
		return err
	}
	s.listeners("this", s.root)
	s.writeln("")
	if err := s.children("this", s.root); err != nil {
		return err
	}
	s.writeln("    }")
	return nil
}

func (s *session) disposals() {
	for i := 1; i <= s.childCounter; i++ {
		s.writef("    this._disposeObjects([%s]);", encode.String(childVar(i)))
	}
}

func (s *session) properties(target string, n *model.Node) error {
	for _, a := range n.Attrs {
		if hiddenAttr(a.Name) {
			continue
		}
		setter, err := encode.SetterName(a.Name)
		if err != nil {
			return s.errAt(n, err)
		}
		v, err := encode.ParseValue(a.Value)
		if err != nil {
			return s.errAt(n, fmt.Errorf("attribute %q: %w", a.Name, err))
		}
		s.writef(indent+"%s.%s(%s);", target, setter, v.ExprWith(s.c.funcs))
	}
	return nil
}

func (s *session) listeners(target string, n *model.Node) {
	for _, a := range n.Attrs {
		if validate.EventAttrName(a.Name) != nil {
			continue
		}
		s.declareHandler(a.Value)
		s.writef(indent+"%s.addListener(%s, this.%s, this);",
			target, encode.String(encode.EventName(a.Name)), a.Value)
	}
}

func (s *session) declareHandler(name string) {
	if _, ok := s.seenHandlers[name]; ok {
		return
	}
	s.seenHandlers[name] = struct{}{}
	s.handlers = append(s.handlers, name)
}

// children emits every child of n attaching to parent,
// the expression of the enclosing runtime object.
func (s *session) children(parent string, n *model.Node) error {
	for i, c := range n.Children {
		s.path = append(s.path, fmt.Sprintf("%s[%d]", c.Tag, i))
		var err error
		switch c.Kind {
		case model.KindReserved:
			// Read from the root by lookup, never instantiated.
		case model.KindConditional:
			err = s.conditional(parent, c)
		case model.KindGroupHeader:
			err = s.groupHeader(parent, c)
		default:
			err = s.component(parent, c)
		}
		if err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]
	}
	return nil
}

func (s *session) conditional(parent string, n *model.Node) error {
	name, err := s.requiredAttr(n, attrCondName)
	if err != nil {
		return err
	}
	values, err := s.requiredAttr(n, attrCondValues)
	if err != nil {
		return err
	}
	getter := defaultCondGetter
	if g, ok := n.Attr(attrCondGetter); ok && strings.TrimSpace(g) != "" {
		getter = strings.TrimSpace(g)
	}

	s.writef(indent+"if(qx.lang.Array.contains(%s, %s(%s))) {",
		values, getter, encode.String(name))
	if err := s.children(parent, n); err != nil {
		return err
	}
	s.writeln(indent + "}")
	return nil
}

func (s *session) requiredAttr(n *model.Node, name string) (string, error) {
	v, _ := n.Attr(name)
	v = strings.TrimSpace(v)
	if v == "" {
		return "", s.errAt(n, fmt.Errorf("%w: %q", ErrConditionAttrMissing, name))
	}
	return v, nil
}

func (s *session) groupHeader(parent string, n *model.Node) error {
	text := strings.TrimSpace(n.Text)
	if text == "" {
		return s.errAt(n, ErrGroupHeaderEmpty)
	}
	v, err := encode.ParseValue(text)
	if err != nil {
		return s.errAt(n, err)
	}
	s.writef(indent+"%s.addGroupHeader(%s);", parent, v.ExprWith(s.c.funcs))
	return nil
}

func (s *session) component(parent string, n *model.Node) error {
	s.childCounter++
	v := childVar(s.childCounter)
	self := "this." + v

	args, _ := n.Attr(attrConstructorArgs)
	s.writef(indent+"%s = new %s(%s);", self, s.c.resolver.Resolve(n.Tag), args)
	if id, ok := n.Attr(attrID); ok {
		s.writef(indent+"this.%s = %s;", id, self)
	}
	if err := s.properties(self, n); err != nil {
		return err
	}
	s.listeners(self, n)
	s.writeln("")

	if err := s.children(self, n); err != nil {
		return err
	}
	s.attach(parent, self, n)
	return nil
}

// attach writes the statement adding child to its parent:
//
//	<context>.<method>(<enclosure>(<child>)<, layoutParams>);
func (s *session) attach(parent, child string, n *model.Node) {
	context := parent
	if v, ok := n.Attr(attrAddContext); ok && v != "" {
		context = v
	}
	if strings.HasPrefix(context, "this.this") {
		context = strings.TrimPrefix(context, "this.")
	}
	method := defaultAddMethod
	if v, ok := n.Attr(attrAddMethod); ok && v != "" {
		method = v
	}
	arg := child
	if fn, ok := n.Attr(attrEnclosedIn); ok && fn != "" {
		arg = fn + "(" + child + ")"
	}
	if params, ok := n.Attr(attrLayoutParams); ok {
		arg += ", " + params
	}
	s.writef(indent+"%s.%s(%s);", context, method, arg)
}

func childVar(i int) string { return fmt.Sprintf("__child%d", i) }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// suppressed reports whether a script row carries the "//#no" marker.
// The check is a plain suffix match on the trimmed row.
func suppressed(row string) bool {
	return strings.HasSuffix(strings.TrimSpace(row), "//#no")
}
