package validate_test

import (
	"testing"

	"github.com/romshark/tojs/parser/validate"

	"github.com/stretchr/testify/require"
)

func TestEventAttrName(t *testing.T) {
	f := func(expect error, input string) {
		t.Helper()
		require.ErrorIs(t, validate.EventAttrName(input), expect)
	}

	f(nil, "onTap")
	f(nil, "onLongPress")
	f(nil, "onX")
	f(nil, "onÄnderung")

	// missing suffix
	f(validate.ErrEventAttrNameInvalid, "on")
	// lowercase after prefix
	f(validate.ErrEventAttrNameInvalid, "online")
	// wrong prefix case
	f(validate.ErrEventAttrNameInvalid, "OnTap")
	// no prefix
	f(validate.ErrEventAttrNameInvalid, "label")
	// digit after prefix
	f(validate.ErrEventAttrNameInvalid, "on1")
	// empty
	f(validate.ErrEventAttrNameInvalid, "")
}

func TestIdentPath(t *testing.T) {
	f := func(expect error, input string) {
		t.Helper()
		require.ErrorIs(t, validate.IdentPath(input), expect)
	}

	f(nil, "doIt")
	f(nil, "_private")
	f(nil, "$el")
	f(nil, "handlers.onSave")
	f(nil, "a1.b2")

	f(validate.ErrIdentPathInvalid, "")
	f(validate.ErrIdentPathInvalid, "do it")
	f(validate.ErrIdentPathInvalid, "1abc")
	f(validate.ErrIdentPathInvalid, "a..b")
	f(validate.ErrIdentPathInvalid, ".a")
	f(validate.ErrIdentPathInvalid, "a.")
	f(validate.ErrIdentPathInvalid, "a-b")
	f(validate.ErrIdentPathInvalid, "call()")
}

func TestClassName(t *testing.T) {
	f := func(expect error, input string) {
		t.Helper()
		require.ErrorIs(t, validate.ClassName(input), expect)
	}

	f(nil, "Button")
	f(nil, "qx.ui.mobile.form.Button")
	f(nil, "mobileHello.gen.page.MLogin")

	f(validate.ErrClassNameInvalid, "")
	f(validate.ErrClassNameInvalid, ".Button")
	f(validate.ErrClassNameInvalid, "qx..Button")
	f(validate.ErrClassNameInvalid, "qx.ui.")
	f(validate.ErrClassNameInvalid, "qx/ui/Button")
}

func TestNamespace(t *testing.T) {
	require.NoError(t, validate.Namespace("qx.ui.mobile"))
	require.ErrorIs(t, validate.Namespace(""), validate.ErrNamespaceInvalid)
	require.ErrorIs(t, validate.Namespace("qx.ui."), validate.ErrNamespaceInvalid)
}
