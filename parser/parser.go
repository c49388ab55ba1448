// Package parser reads XML component-tree documents into model.Tree.
package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"slices"

	"golang.org/x/net/html/charset"

	"github.com/romshark/tojs/model"
	"github.com/romshark/tojs/parser/internal/tagkind"
	"github.com/romshark/tojs/parser/validate"
)

// ParseFile reads and parses the document at path.
func ParseFile(path string) (tree *model.Tree, errs Errors) {
	src, err := os.ReadFile(path)
	if err != nil {
		errs.Err(err)
		return nil, errs
	}
	return Parse(src, path)
}

// Parse parses src into a component tree. source names the document
// in positions and in model.Tree.Source.
//
// Documents declaring an encoding other than UTF-8 are transcoded.
// Positions then refer to the transcoded text.
//
// A nil tree is returned only when the document is not well-formed
// or has no single root element. Otherwise the tree is returned
// along with any attribute diagnostics.
func Parse(src []byte, source string) (tree *model.Tree, errs Errors) {
	defer sortErrors(&errs)

	ctx := parseCtx{
		source: source,
		text:   src,
		lines:  []int{0},
		errs:   &errs,
	}

	d := xml.NewDecoder(bytes.NewReader(src))
	d.CharsetReader = func(label string, r io.Reader) (io.Reader, error) {
		cr, err := charset.NewReaderLabel(label, r)
		if err != nil {
			return nil, err
		}
		ctx.transcode(d.InputOffset())
		return io.TeeReader(cr, &ctx), nil
	}
	var (
		root  *model.Node
		stack []*model.Node
	)
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs.ErrAt(ctx.syntaxPos(err, off),
				fmt.Errorf("%w: %s: %v", ErrMalformed, source, err))
			return nil, errs
		}

		switch t := tok.(type) {
		case xml.StartElement:
			isRoot := len(stack) == 0
			if isRoot && root != nil {
				errs.ErrAt(ctx.pos(off), ErrMultipleRoots)
				return nil, errs
			}
			n := ctx.element(t, off, isRoot)
			if isRoot {
				root = n
			} else {
				p := stack[len(stack)-1]
				p.Children = append(p.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				// Only text preceding the first child element is kept.
				if top := stack[len(stack)-1]; len(top.Children) == 0 {
					top.Text += string(t)
				}
				continue
			}
			if root != nil && len(bytes.TrimSpace(t)) > 0 {
				errs.ErrAt(ctx.pos(off), fmt.Errorf(
					"%w: %s: text after root element", ErrMalformed, source))
				return nil, errs
			}
		}
	}

	if root == nil {
		errs.ErrAt(token.Position{Filename: source}, ErrNoRoot)
		return nil, errs
	}
	return &model.Tree{Source: source, Root: root}, errs
}

type parseCtx struct {
	source string
	errs   *Errors

	// text is the input offsets refer to. It's extended with
	// transcoded input while the decoder reads it.
	text    []byte
	lines   []int // Byte offsets of line starts in text[:scanned].
	scanned int
}

// transcode restarts text at off, where the decoder switches
// to a transcoding reader.
func (c *parseCtx) transcode(off int64) {
	c.text = slices.Clone(c.text[:off])
	c.lines, c.scanned = c.lines[:1], 0
}

// Write appends transcoded input to text.
func (c *parseCtx) Write(p []byte) (int, error) {
	c.text = append(c.text, p...)
	return len(p), nil
}

func (c *parseCtx) element(
	t xml.StartElement, off int64, root bool,
) *model.Node {
	pos := c.pos(off)
	kind, reserved := tagkind.Classify(t.Name.Local, root)
	n := &model.Node{
		Pos:      pos,
		Tag:      t.Name.Local,
		Kind:     kind,
		Reserved: reserved,
		Attrs:    make([]model.Attr, 0, len(t.Attr)),
	}

	seen := make(map[string]struct{}, len(t.Attr))
	for _, a := range t.Attr {
		if isNamespaceDecl(a.Name) {
			continue
		}
		name := a.Name.Local
		if _, ok := seen[name]; ok {
			c.errs.ErrAt(pos, fmt.Errorf("%w: %q on <%s>",
				ErrAttrDuplicate, name, n.Tag))
			continue
		}
		seen[name] = struct{}{}
		n.Attrs = append(n.Attrs, model.Attr{Pos: pos, Name: name, Value: a.Value})

		if kind != model.KindComponent && kind != model.KindMixinRoot {
			continue
		}
		switch {
		case name == "id":
			if validate.IdentPath(a.Value) != nil {
				c.errs.ErrAt(pos, fmt.Errorf("%w: %q", ErrAliasInvalid, a.Value))
			}
		case validate.EventAttrName(name) == nil:
			if validate.IdentPath(a.Value) != nil {
				c.errs.ErrAt(pos, fmt.Errorf("%w: %s=%q",
					ErrEventHandlerInvalid, name, a.Value))
			}
		}
	}
	return n
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}

// pos converts a byte offset into a position with
// a 1-based line and a 1-based byte column.
func (c *parseCtx) pos(off int64) token.Position {
	o := int(off)
	for ; c.scanned < o && c.scanned < len(c.text); c.scanned++ {
		if c.text[c.scanned] == '\n' {
			c.lines = append(c.lines, c.scanned+1)
		}
	}
	i, found := slices.BinarySearch(c.lines, o)
	if !found {
		i--
	}
	return token.Position{
		Filename: c.source,
		Offset:   o,
		Line:     i + 1,
		Column:   o - c.lines[i] + 1,
	}
}

func (c *parseCtx) syntaxPos(err error, off int64) token.Position {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return token.Position{Filename: c.source, Line: se.Line}
	}
	return c.pos(off)
}
