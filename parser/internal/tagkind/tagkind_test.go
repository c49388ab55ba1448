package tagkind

import (
	"testing"

	"github.com/romshark/tojs/model"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		tag      string
		root     bool
		kind     model.Kind
		reserved model.Reserved
	}{
		"script":           {"Script", false, model.KindReserved, model.ReservedScript},
		"constructor":      {"Constructor", false, model.KindReserved, model.ReservedConstructor},
		"destructor":       {"Destructor", false, model.KindReserved, model.ReservedDestructor},
		"properties":       {"Properties", false, model.KindReserved, model.ReservedProperties},
		"declarations":     {"Declarations", false, model.KindReserved, model.ReservedDeclarations},
		"select":           {"Select", false, model.KindConditional, 0},
		"group header":     {"GroupHeader", false, model.KindGroupHeader, 0},
		"component":        {"Button", false, model.KindComponent, 0},
		"qualified":        {"qx.ui.mobile.form.Button", false, model.KindComponent, 0},
		"mixin root":       {"tojs", true, model.KindMixinRoot, 0},
		"sentinel nested":  {"tojs", false, model.KindComponent, 0},
		"reserved at root": {"Script", true, model.KindReserved, model.ReservedScript},
		"lowercase script": {"script", false, model.KindComponent, 0},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			kind, reserved := Classify(tt.tag, tt.root)
			require.Equal(t, tt.kind, kind)
			require.Equal(t, tt.reserved, reserved)
		})
	}
}

func TestReservedTagRoundTrip(t *testing.T) {
	for _, r := range []model.Reserved{
		model.ReservedScript,
		model.ReservedConstructor,
		model.ReservedDestructor,
		model.ReservedProperties,
		model.ReservedDeclarations,
	} {
		kind, got := Classify(r.Tag(), false)
		require.Equal(t, model.KindReserved, kind)
		require.Equal(t, r, got)
	}
}
