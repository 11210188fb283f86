package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCStyle(t *testing.T) {
	table := builtinStrategyTable()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"line comment",
			"x := 1 // counter\ny := 2\n",
			"x := 1 \ny := 2\n",
		},
		{
			"block comment spanning lines",
			"a\n/* one\ntwo */b\n",
			"a\nb\n",
		},
		{
			"comment marker inside string literal",
			`url := "http://example.com" // real comment` + "\n",
			`url := "http://example.com" ` + "\n",
		},
		{
			"escaped quote inside string",
			`s := "say \"hi\" // not a comment"` + "\n",
			`s := "say \"hi\" // not a comment"` + "\n",
		},
		{
			"char literal",
			"c := '/' // slash\n",
			"c := '/' \n",
		},
		{
			"block marker inside string",
			`s := "/* kept */"` + "\n",
			`s := "/* kept */"` + "\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripComments(tc.in, ".go", table)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, stripComments(got, ".go", table), "stripping must be idempotent")
		})
	}
}

func TestStripMarkup(t *testing.T) {
	table := builtinStrategyTable()
	in := "<div>\n<!-- a\nmultiline\ncomment -->\n<p>text</p>\n</div>\n"
	want := "<div>\n\n<p>text</p>\n</div>\n"
	assert.Equal(t, want, stripComments(in, ".html", table))
	assert.Equal(t, want, stripComments(in, ".XML", table), "extension lookup is case-insensitive")
}

func TestStripUnknownExtensionUntouched(t *testing.T) {
	table := builtinStrategyTable()
	in := "# not stripped\n// not stripped\n<!-- kept -->\n"
	assert.Equal(t, in, stripComments(in, ".txt", table))
	assert.Equal(t, in, stripComments(in, "", table))
}

func TestStripPythonComments(t *testing.T) {
	in := "x = 1  # trailing\n# whole line\ny = 2\n"
	got, err := stripPython(in)
	require.NoError(t, err)
	assert.Equal(t, "x = 1  \n\ny = 2\n", got)
}

func TestStripPythonDocstrings(t *testing.T) {
	in := `"""Module docstring."""
def f():
    """Function docstring.

    Spans lines.
    """
    return "kept # not a comment"
`
	got, err := stripPython(in)
	require.NoError(t, err)
	assert.NotContains(t, got, "Module docstring")
	assert.NotContains(t, got, "Function docstring")
	assert.Contains(t, got, `return "kept # not a comment"`)
}

func TestStripPythonHashInsideString(t *testing.T) {
	in := "color = \"#ff0000\"  # css red\nf = f\"v={x}#{y}\"\n"
	got, err := stripPython(in)
	require.NoError(t, err)
	assert.Equal(t, "color = \"#ff0000\"  \nf = f\"v={x}#{y}\"\n", got)
}

func TestStripPythonNonDocstringLiteralKept(t *testing.T) {
	in := "x = \"\"\"not a docstring\"\"\"\nd[\"k\"] = 'v'\n"
	got, err := stripPython(in)
	require.NoError(t, err)
	assert.Equal(t, in, got, "assigned literals are not in docstring position")
}

func TestStripPythonBracketDepth(t *testing.T) {
	// A literal opening a continuation line inside brackets is not a
	// docstring even though it follows a newline.
	in := "items = [\n    \"one\",  # first\n    \"two\",\n]\n"
	got, err := stripPython(in)
	require.NoError(t, err)
	assert.Equal(t, "items = [\n    \"one\",  \n    \"two\",\n]\n", got)
}

func TestStripPythonLineJoin(t *testing.T) {
	// After an explicit backslash join the next line continues the same
	// statement, so its leading literal stays.
	in := "x = \\\n\"joined\"\n"
	got, err := stripPython(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestStripPythonPrefixedDocstring(t *testing.T) {
	in := "r\"\"\"Raw docstring.\"\"\"\nx = r\"raw\\kept\"\n"
	got, err := stripPython(in)
	require.NoError(t, err)
	assert.NotContains(t, got, "Raw docstring")
	assert.Contains(t, got, `x = r"raw\kept"`)
}

func TestStripPythonMalformedFallsBack(t *testing.T) {
	table := builtinStrategyTable()
	// Unterminated string: the lexer gives up and the hash-line fallback
	// runs instead, which strips every hash remainder.
	in := "s = \"unterminated\nx = 1  # gone\n"
	got := stripComments(in, ".py", table)
	assert.Equal(t, "s = \"unterminated\nx = 1  \n", got)
}

func TestBuiltinStrategyTable(t *testing.T) {
	table := builtinStrategyTable()
	assert.Equal(t, strategyPython, table[".py"])
	assert.Equal(t, strategyCStyle, table[".go"])
	assert.Equal(t, strategyCStyle, table[".ts"])
	assert.Equal(t, strategyMarkup, table[".vue"])
	assert.Equal(t, strategyNone, table[".txt"])
}
