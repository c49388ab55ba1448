// Package tagkind classifies element tag names into
// component, reserved and structural kinds.
package tagkind

import "github.com/romshark/tojs/model"

// Structural tag names.
const (
	TagConditional = "Select"
	TagGroupHeader = "GroupHeader"
)

// Classify determines the kind of a tag. root must be true only
// for the document root, where the mixin sentinel is recognized.
// Reserved is zero unless kind is model.KindReserved.
func Classify(tag string, root bool) (kind model.Kind, reserved model.Reserved) {
	switch tag {
	case "Script":
		return model.KindReserved, model.ReservedScript
	case "Constructor":
		return model.KindReserved, model.ReservedConstructor
	case "Destructor":
		return model.KindReserved, model.ReservedDestructor
	case "Properties":
		return model.KindReserved, model.ReservedProperties
	case "Declarations":
		return model.KindReserved, model.ReservedDeclarations
	case TagConditional:
		return model.KindConditional, 0
	case TagGroupHeader:
		return model.KindGroupHeader, 0
	}
	if root && tag == model.MixinRootTag {
		return model.KindMixinRoot, 0
	}
	return model.KindComponent, 0
}
