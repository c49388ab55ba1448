// Package compiler turns a component tree into qooxdoo class
// and mixin definitions.
package compiler

import (
	"errors"
	"fmt"
	"go/token"

	"github.com/romshark/tojs/encode"
	"github.com/romshark/tojs/model"
	"github.com/romshark/tojs/parser/validate"
	"github.com/romshark/tojs/resolve"
)

// Version is written into the header of every generated file.
const Version = "1.0"

// Header is the first line of every generated file.
const Header = "/* Code generated by ToJs v. " + Version + " */"

// Line terminators.
const (
	CRLF = "\r\n"
	LF   = "\n"
)

var (
	ErrNilTree              = errors.New("tree has no root")
	ErrRootTag              = errors.New("root tag must be a component or the mixin sentinel")
	ErrMixinRootClass       = errors.New("mixin sentinel root cannot be compiled as a class")
	ErrConditionAttrMissing = errors.New("missing required attribute on conditional include")
	ErrGroupHeaderEmpty     = errors.New("group header has no text")
	ErrLineEnding           = errors.New("unsupported line ending")
)

// NodeError is a compile failure located at a node of the tree.
type NodeError struct {
	// Path is the tag path from the root, e.g. "Page/VBox[1]/Select[0]",
	// where the index is the node's position among its parent's children.
	Path string
	Pos  token.Position
	Err  error
}

func (e *NodeError) Error() string {
	if !e.Pos.IsValid() {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", e.Path, e.Pos, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Options configures a Compiler. The zero value emits CRLF line endings
// and calls encode.DefaultFuncs for translations.
type Options struct {
	// LineEnding is CRLF or LF. Defaults to CRLF.
	LineEnding string

	// Translation overrides the translation functions.
	// Empty fields fall back to encode.DefaultFuncs.
	Translation encode.Funcs
}

// Compiler compiles component trees. It holds no per-compile state
// and is safe for concurrent use.
type Compiler struct {
	resolver *resolve.Resolver
	eol      string
	funcs    encode.Funcs
}

// New creates a compiler that resolves component tags with r.
func New(r *resolve.Resolver, opts Options) (*Compiler, error) {
	c := &Compiler{
		resolver: r,
		eol:      opts.LineEnding,
		funcs:    opts.Translation,
	}
	switch c.eol {
	case "":
		c.eol = CRLF
	case CRLF, LF:
	default:
		return nil, fmt.Errorf("%w: %q", ErrLineEnding, opts.LineEnding)
	}
	if c.funcs.Translate == "" {
		c.funcs.Translate = encode.DefaultFuncs.Translate
	}
	if c.funcs.TranslateContext == "" {
		c.funcs.TranslateContext = encode.DefaultFuncs.TranslateContext
	}
	return c, nil
}

// Result is the output of a single compile call.
type Result struct {
	// Code is the complete generated source text.
	Code string

	// Handlers lists the event handler method names referenced
	// by listeners, deduplicated in first-seen order.
	Handlers []string
}

// Compile compiles the tree as a mixin if its root is the mixin
// sentinel and as a class otherwise.
func (c *Compiler) Compile(tree *model.Tree, className string) (Result, error) {
	if tree == nil || tree.Root == nil {
		return Result{}, ErrNilTree
	}
	if tree.Root.Kind == model.KindMixinRoot {
		return c.CompileMixin(tree.Root, className)
	}
	return c.CompileClass(tree.Root, className)
}

// CompileClass compiles root into a class extending the class
// root's tag resolves to.
func (c *Compiler) CompileClass(root *model.Node, className string) (Result, error) {
	s, err := c.newSession(root, className)
	if err != nil {
		return Result{}, err
	}
	if root.Kind == model.KindMixinRoot {
		return Result{}, s.errAt(root, ErrMixinRootClass)
	}
	if err := s.class(className); err != nil {
		return Result{}, err
	}
	return s.result(), nil
}

// CompileMixin compiles root into a mixin. The root's tag is not
// resolved, only its attributes and children are used.
func (c *Compiler) CompileMixin(root *model.Node, className string) (Result, error) {
	s, err := c.newSession(root, className)
	if err != nil {
		return Result{}, err
	}
	if err := s.mixin(className); err != nil {
		return Result{}, err
	}
	return s.result(), nil
}

func (c *Compiler) newSession(root *model.Node, className string) (*session, error) {
	if root == nil {
		return nil, ErrNilTree
	}
	if err := validate.ClassName(className); err != nil {
		return nil, fmt.Errorf("%w: %q", err, className)
	}
	s := newSession(c, root)
	if root.Kind.Structural() {
		return nil, s.errAt(root, fmt.Errorf("%w: <%s>", ErrRootTag, root.Tag))
	}
	return s, nil
}
