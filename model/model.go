// Package model defines the component tree produced by the parser
// and consumed by the compiler.
package model

import (
	"go/token"
	"iter"
)

// MixinRootTag is the root tag marking a document as a mixin
// (no base class).
const MixinRootTag = "tojs"

// Kind classifies a node by its tag.
type Kind int8

const (
	_ Kind = iota

	// KindComponent is a concrete runtime component.
	KindComponent

	// KindReserved is one of the five passthrough tags.
	// See Node.Reserved for which one.
	KindReserved

	// KindConditional guards its children behind an environment check
	// without becoming a runtime object itself.
	KindConditional

	// KindGroupHeader adds a group header to its parent.
	KindGroupHeader

	// KindMixinRoot is the mixin sentinel root.
	KindMixinRoot
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindReserved:
		return "reserved"
	case KindConditional:
		return "conditional"
	case KindGroupHeader:
		return "group header"
	case KindMixinRoot:
		return "mixin root"
	}
	return ""
}

// Structural reports whether nodes of this kind never become runtime objects.
func (k Kind) Structural() bool {
	switch k {
	case KindReserved, KindConditional, KindGroupHeader:
		return true
	}
	return false
}

// Reserved identifies a passthrough tag.
type Reserved int8

const (
	_ Reserved = iota
	ReservedScript
	ReservedConstructor
	ReservedDestructor
	ReservedProperties
	ReservedDeclarations
)

// Tag returns the tag name of the reserved kind.
func (r Reserved) Tag() string {
	switch r {
	case ReservedScript:
		return "Script"
	case ReservedConstructor:
		return "Constructor"
	case ReservedDestructor:
		return "Destructor"
	case ReservedProperties:
		return "Properties"
	case ReservedDeclarations:
		return "Declarations"
	}
	return ""
}

// Tree is a parsed source document.
type Tree struct {
	// Source identifies the document, usually its file path.
	Source string
	Root   *Node
}

// Node is a single element of the component tree.
type Node struct {
	Pos token.Position

	Tag      string
	Kind     Kind
	Reserved Reserved // Zero unless Kind is KindReserved.

	// Attrs keeps attributes in source order.
	// Emitted statement order follows this order.
	Attrs []Attr

	Children []*Node

	// Text is the raw character data preceding the first child element.
	Text string
}

// Attr is a single attribute in source order.
type Attr struct {
	Pos   token.Position
	Name  string
	Value string
}

// Attr returns the value of the attribute with the given name.
func (n *Node) Attr(name string) (value string, ok bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ReservedText returns the text of the first direct child
// of the given reserved kind, or "" if there is none.
func (n *Node) ReservedText(r Reserved) string {
	for _, c := range n.Children {
		if c.Kind == KindReserved && c.Reserved == r {
			return c.Text
		}
	}
	return ""
}

// Walk returns a depth-first pre-order iterator over n and its descendants.
func (n *Node) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}
