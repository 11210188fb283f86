package main

import (
	"errors"
	"regexp"
	"strings"
)

// stripStrategy selects how comments are removed for a file type. The table
// mapping extensions to strategies is closed; unknown extensions fall through
// to strategyNone.
type stripStrategy int

const (
	strategyNone stripStrategy = iota
	strategyPython
	strategyCStyle
	strategyMarkup
)

var (
	// Matches a quoted string/char literal (kept) or a block/line comment
	// (dropped). Literals are matched first so comment markers inside them
	// never start a comment.
	cStyleCommentRE = regexp.MustCompile(`("(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*')|/\*[\s\S]*?\*/|//[^\n]*`)

	markupCommentRE = regexp.MustCompile(`(?s)<!--.*?-->`)

	// Fallback for Python sources the lexer cannot handle: drop the line
	// remainder after a hash, without literal awareness. Lossy on edge cases.
	pythonHashLineRE = regexp.MustCompile(`#[^\n]*`)
)

// stripComments removes comments from content according to the strategy
// registered for ext. It is pure and safe for concurrent use; only the
// precompiled matchers above are shared.
func stripComments(content, ext string, table map[string]stripStrategy) string {
	if content == "" {
		return ""
	}
	switch table[strings.ToLower(ext)] {
	case strategyPython:
		out, err := stripPython(content)
		if err != nil {
			return pythonHashLineRE.ReplaceAllString(content, "")
		}
		return out
	case strategyCStyle:
		return stripCStyle(content)
	case strategyMarkup:
		return markupCommentRE.ReplaceAllString(content, "")
	default:
		return content
	}
}

func stripCStyle(content string) string {
	return cStyleCommentRE.ReplaceAllStringFunc(content, func(m string) string {
		// A match starting with a quote is a protected literal.
		if m[0] == '"' || m[0] == '\'' {
			return m
		}
		return ""
	})
}

var errPythonTokenize = errors.New("python tokenization failed")

// stripPython drops comments and docstring-position string literals while
// copying everything else verbatim, so inter-token spacing is preserved
// exactly. A string literal is in docstring position when it is the first
// token of a logical line at bracket depth zero (start of file, after a
// newline, or as the first statement of a freshly indented block). All other
// literals pass through untouched even if they contain comment markers.
func stripPython(src string) (string, error) {
	var out strings.Builder
	out.Grow(len(src))
	depth := 0
	stmtStart := true
	n := len(src)
	i := 0
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			out.WriteByte(c)
			i++
		case c == '\\' && i+1 < n && src[i+1] == '\n':
			// Explicit line join: the next line continues this statement.
			out.WriteString(src[i : i+2])
			i += 2
		case c == '\n':
			out.WriteByte(c)
			i++
			if depth == 0 {
				stmtStart = true
			}
		case c == '#':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '\'' || c == '"':
			end, err := scanPythonString(src, i)
			if err != nil {
				return "", err
			}
			if !(stmtStart && depth == 0) {
				out.WriteString(src[i:end])
			}
			stmtStart = false
			i = end
		case isPyIdentByte(c):
			j := i
			for j < n && isPyIdentByte(src[j]) {
				j++
			}
			word := src[i:j]
			if isStringPrefix(word) && j < n && (src[j] == '\'' || src[j] == '"') {
				end, err := scanPythonString(src, j)
				if err != nil {
					return "", err
				}
				if !(stmtStart && depth == 0) {
					out.WriteString(src[i:end])
				}
				stmtStart = false
				i = end
				break
			}
			out.WriteString(word)
			stmtStart = false
			i = j
		default:
			switch c {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				if depth > 0 {
					depth--
				}
			}
			out.WriteByte(c)
			stmtStart = false
			i++
		}
	}
	return out.String(), nil
}

// scanPythonString consumes a string literal starting at the opening quote
// and returns the index just past its closing quote. Handles single and
// triple quoting plus backslash escapes; an unterminated literal is an error
// that sends the caller to the line-based fallback.
func scanPythonString(src string, quotePos int) (int, error) {
	n := len(src)
	q := src[quotePos]
	if quotePos+2 < n && src[quotePos+1] == q && src[quotePos+2] == q {
		for i := quotePos + 3; i < n; i++ {
			switch {
			case src[i] == '\\':
				i++
			case src[i] == q && i+2 < n && src[i+1] == q && src[i+2] == q:
				return i + 3, nil
			}
		}
		return 0, errPythonTokenize
	}
	for i := quotePos + 1; i < n; i++ {
		switch src[i] {
		case '\\':
			i++
		case '\n':
			return 0, errPythonTokenize
		case q:
			return i + 1, nil
		}
	}
	return 0, errPythonTokenize
}

func isPyIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c >= 0x80
}

// isStringPrefix reports whether word is a Python string-literal prefix such
// as r, b, f, u or a two-letter combination of them.
func isStringPrefix(word string) bool {
	if len(word) == 0 || len(word) > 2 {
		return false
	}
	for i := 0; i < len(word); i++ {
		switch word[i] {
		case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
		default:
			return false
		}
	}
	return true
}
