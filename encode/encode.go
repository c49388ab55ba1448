// Package encode renders attribute values and text as target-language
// expressions.
package encode

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

var (
	ErrContextMissing = errors.New(`contextual translation must be "message|context"`)
	ErrAttrNameEmpty  = errors.New("attribute name is empty")
)

// Value prefixes.
const (
	PrefixTranslation           = "tr:"
	PrefixContextualTranslation = "trc:"
	PrefixJSON                  = "json:"
	PrefixJS                    = "js:"

	contextSeparator = "|"
)

// String returns s as a double-quoted string literal.
// Printable ASCII is kept except for the double quote, which is
// backslash-escaped. Everything else becomes \uXXXX with upper-case hex;
// runes outside the BMP are written as a UTF-16 surrogate pair.
// Backslashes are not escaped.
func String(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r >= 32 && r <= 126:
			b.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04X\u%04X`, hi, lo)
		default:
			// Invalid UTF-8 decodes to U+FFFD.
			fmt.Fprintf(&b, `\u%04X`, r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Kind is the kind of an attribute value.
type Kind int8

const (
	_ Kind = iota

	// KindLiteral is emitted as a string literal.
	KindLiteral

	// KindTranslation is a "tr:" translation lookup.
	KindTranslation

	// KindContextualTranslation is a "trc:message|context" lookup.
	KindContextualTranslation

	// KindRawCode is a "json:" or "js:" value emitted verbatim.
	KindRawCode
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindTranslation:
		return "translation"
	case KindContextualTranslation:
		return "contextual translation"
	case KindRawCode:
		return "raw code"
	}
	return ""
}

// Value is a parsed attribute value.
type Value struct {
	Kind Kind

	// Text is the literal text, the message, or the raw code.
	Text string

	// Context is set for KindContextualTranslation only.
	Context string
}

// ParseValue classifies an attribute value by its prefix.
func ParseValue(s string) (Value, error) {
	if v, ok := strings.CutPrefix(s, PrefixTranslation); ok {
		return Value{Kind: KindTranslation, Text: v}, nil
	}
	if v, ok := strings.CutPrefix(s, PrefixContextualTranslation); ok {
		msg, ctx, ok := strings.Cut(v, contextSeparator)
		if !ok {
			return Value{}, fmt.Errorf("%w: %q", ErrContextMissing, s)
		}
		// Anything after a second separator is ignored.
		ctx, _, _ = strings.Cut(ctx, contextSeparator)
		return Value{Kind: KindContextualTranslation, Text: msg, Context: ctx}, nil
	}
	if v, ok := strings.CutPrefix(s, PrefixJSON); ok {
		return Value{Kind: KindRawCode, Text: v}, nil
	}
	if v, ok := strings.CutPrefix(s, PrefixJS); ok {
		return Value{Kind: KindRawCode, Text: v}, nil
	}
	return Value{Kind: KindLiteral, Text: s}, nil
}

// Funcs names the runtime translation functions generated code calls.
type Funcs struct {
	Translate        string
	TranslateContext string
}

// DefaultFuncs are the qooxdoo translation methods.
var DefaultFuncs = Funcs{
	Translate:        "this.tr",
	TranslateContext: "this.trc",
}

// Expr renders v using DefaultFuncs.
func (v Value) Expr() string { return v.ExprWith(DefaultFuncs) }

// ExprWith renders v as an expression calling f for translations.
func (v Value) ExprWith(f Funcs) string {
	switch v.Kind {
	case KindTranslation:
		return f.Translate + "(" + String(v.Text) + ")"
	case KindContextualTranslation:
		return f.TranslateContext + "(" + String(v.Text) + ", " + String(v.Context) + ")"
	case KindRawCode:
		return v.Text
	}
	return String(v.Text)
}

// SetterName returns the setter method for a property attribute:
// "set" followed by the name with its first rune upper-cased.
func SetterName(attr string) (string, error) {
	r, size := utf8.DecodeRuneInString(attr)
	if size == 0 {
		return "", ErrAttrNameEmpty
	}
	return "set" + string(unicode.ToUpper(r)) + attr[size:], nil
}

// EventName derives the event name from an event attribute by dropping
// the "on" prefix and lower-casing the next rune, "onLongPress" becomes
// "longPress". attr must be a valid event attribute name.
func EventName(attr string) string {
	s := strings.TrimPrefix(attr, "on")
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
