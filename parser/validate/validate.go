package validate

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrEventAttrNameInvalid = errors.New("invalid event attribute name")
	ErrIdentPathInvalid     = errors.New("invalid identifier path")
	ErrClassNameInvalid     = errors.New("invalid class name")
	ErrNamespaceInvalid     = errors.New("invalid namespace")
)

// EventAttrName validates event attribute names: "on" + uppercase letter + anything.
func EventAttrName(name string) error {
	s, ok := strings.CutPrefix(name, "on")
	if !ok || s == "" {
		return ErrEventAttrNameInvalid
	}
	r, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(r) {
		return ErrEventAttrNameInvalid
	}
	return nil
}

// IdentPath validates a dot-separated path of identifiers such as
// "doIt" or "handlers.onSave", as used for handler names and aliases.
func IdentPath(s string) error {
	if !identPath(s) {
		return ErrIdentPathInvalid
	}
	return nil
}

// ClassName validates a fully-qualified class name: at least one
// identifier, segments separated by single dots.
//
//	qx.ui.mobile.form.Button
//	Button
func ClassName(s string) error {
	if !identPath(s) {
		return ErrClassNameInvalid
	}
	return nil
}

// Namespace validates a default namespace. It follows the same rules as
// ClassName but is reported with its own error.
func Namespace(s string) error {
	if !identPath(s) {
		return ErrNamespaceInvalid
	}
	return nil
}

func identPath(s string) bool {
	if s == "" {
		return false
	}
	for seg := range strings.SplitSeq(s, ".") {
		if !ident(seg) {
			return false
		}
	}
	return true
}

func ident(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
