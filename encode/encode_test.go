package encode_test

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/romshark/tojs/encode"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	f := func(expect, input string) {
		t.Helper()
		require.Equal(t, expect, encode.String(input))
	}

	f(`""`, "")
	f(`"hello world"`, "hello world")
	f(`"say \"hi\""`, `say "hi"`)
	f(`"a'b"`, `a'b`)
	f(`"~ and space"`, "~ and space")
	f(`"caf\u00E9"`, "café")
	f(`"line\u000Abreak"`, "line\nbreak")
	f(`"tab\u0009"`, "tab\t")
	f(`"\u007F"`, "\x7f")
	f(`"\u20AC"`, "€")
	f(`"\uD83D\uDE00"`, "😀")
	f(`"\uFFFD"`, "\xff")
	// Backslashes pass through so authors can write target escapes.
	f(`"a\nb"`, `a\nb`)
}

func TestParseValue(t *testing.T) {
	tests := map[string]struct {
		input  string
		expect encode.Value
		expr   string
	}{
		"literal": {
			"Hello",
			encode.Value{Kind: encode.KindLiteral, Text: "Hello"},
			`"Hello"`,
		},
		"empty": {
			"",
			encode.Value{Kind: encode.KindLiteral},
			`""`,
		},
		"translation": {
			"tr:hello",
			encode.Value{Kind: encode.KindTranslation, Text: "hello"},
			`this.tr("hello")`,
		},
		"translation non-ascii": {
			"tr:Grüße",
			encode.Value{Kind: encode.KindTranslation, Text: "Grüße"},
			`this.tr("Gr\u00FC\u00DFe")`,
		},
		"contextual translation": {
			"trc:Open|menu",
			encode.Value{
				Kind:    encode.KindContextualTranslation,
				Text:    "Open",
				Context: "menu",
			},
			`this.trc("Open", "menu")`,
		},
		"contextual translation extra separator": {
			"trc:a|b|c",
			encode.Value{
				Kind:    encode.KindContextualTranslation,
				Text:    "a",
				Context: "b",
			},
			`this.trc("a", "b")`,
		},
		"json": {
			"json:{flex: 1}",
			encode.Value{Kind: encode.KindRawCode, Text: "{flex: 1}"},
			"{flex: 1}",
		},
		"js": {
			"js:this.getTitle()",
			encode.Value{Kind: encode.KindRawCode, Text: "this.getTitle()"},
			"this.getTitle()",
		},
		"prefix not at start": {
			"x tr:y",
			encode.Value{Kind: encode.KindLiteral, Text: "x tr:y"},
			`"x tr:y"`,
		},
		"case sensitive prefix": {
			"TR:hello",
			encode.Value{Kind: encode.KindLiteral, Text: "TR:hello"},
			`"TR:hello"`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := encode.ParseValue(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.expect, v)
			require.Equal(t, tt.expr, v.Expr())
		})
	}
}

func TestParseValueContextMissing(t *testing.T) {
	_, err := encode.ParseValue("trc:no separator")
	require.ErrorIs(t, err, encode.ErrContextMissing)
	require.ErrorContains(t, err, "trc:no separator")
}

func TestExprWith(t *testing.T) {
	f := encode.Funcs{Translate: "i18n.t", TranslateContext: "i18n.tc"}

	v, err := encode.ParseValue("tr:x")
	require.NoError(t, err)
	require.Equal(t, `i18n.t("x")`, v.ExprWith(f))

	v, err = encode.ParseValue("trc:x|y")
	require.NoError(t, err)
	require.Equal(t, `i18n.tc("x", "y")`, v.ExprWith(f))

	v, err = encode.ParseValue("plain")
	require.NoError(t, err)
	require.Equal(t, `"plain"`, v.ExprWith(f))
}

func TestSetterName(t *testing.T) {
	f := func(expect, input string) {
		t.Helper()
		s, err := encode.SetterName(input)
		require.NoError(t, err)
		require.Equal(t, expect, s)
	}

	f("setLabel", "label")
	f("setLabel", "Label")
	f("setShowBackButton", "showBackButton")
	f("setX", "x")
	f("set_private", "_private")
	f("setÉtat", "état")

	_, err := encode.SetterName("")
	require.ErrorIs(t, err, encode.ErrAttrNameEmpty)
}

func TestEventName(t *testing.T) {
	f := func(expect, input string) {
		t.Helper()
		require.Equal(t, expect, encode.EventName(input))
	}

	f("tap", "onTap")
	f("longPress", "onLongPress")
	f("x", "onX")
	f("changeValue", "onChangeValue")
	f("ändern", "onÄndern")
}

// FuzzStringRoundTrip checks that decoding the literal yields the input
// for all valid backslash-free strings.
func FuzzStringRoundTrip(f *testing.F) {
	f.Add("")
	f.Add("hello")
	f.Add(`say "hi"`)
	f.Add("café ☕ 😀")
	f.Add("\x00\x1f\x7f")

	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) || strings.Contains(s, `\`) {
			t.Skip()
		}
		lit := encode.String(s)
		for _, r := range lit {
			if r < 32 || r > 126 {
				t.Fatalf("non-printable rune %U in %s", r, lit)
			}
		}
		require.Equal(t, s, decodeLiteral(t, lit))
	})
}

// decodeLiteral reverses encode.String for backslash-free input.
func decodeLiteral(t *testing.T, lit string) string {
	t.Helper()
	require.True(t, len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"')
	body := lit[1 : len(lit)-1]

	var units []uint16
	var b strings.Builder
	flush := func() {
		b.WriteString(string(utf16.Decode(units)))
		units = units[:0]
	}
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			flush()
			b.WriteByte(body[i])
			continue
		}
		require.Less(t, i+1, len(body))
		switch body[i+1] {
		case '"':
			flush()
			b.WriteByte('"')
			i++
		case 'u':
			require.LessOrEqual(t, i+6, len(body))
			u, err := strconv.ParseUint(body[i+2:i+6], 16, 16)
			require.NoError(t, err)
			units = append(units, uint16(u))
			i += 5
		default:
			t.Fatalf("unexpected escape at %d in %s", i, lit)
		}
	}
	flush()
	return b.String()
}
