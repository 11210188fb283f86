package main

import (
	"fmt"
	"iter"
	"strings"
)

// Tabs are expanded to this many spaces before wrapping.
const tabSpaces = 4

// pageOptions controls pagination. Measure returns the rendered width of a
// string in document units; the paginator memoizes it per character.
type pageOptions struct {
	LinesPerPage int
	ContentWidth float64
	Measure      func(string) float64
	Cancel       func() bool
}

// paginate lays the decoded file contents out into pages, lazily. Each file
// contributes a delimiter line followed by its wrapped content. Pages are
// yielded as soon as they fill, so a very large project never needs all its
// pages in memory at once. Cancellation is checked before each file; once
// triggered, no further pages are produced.
func paginate(files []DecodedFile, opts pageOptions) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		wrapper := newLineWrapper(opts.ContentWidth, opts.Measure)
		var lines []string

		emit := func(physical string) bool {
			lines = append(lines, physical)
			if len(lines) >= opts.LinesPerPage {
				if !yield(Page{Lines: lines}) {
					return false
				}
				lines = nil
			}
			return true
		}

		for _, file := range files {
			if opts.Cancel != nil && opts.Cancel() {
				return
			}
			delimiter := fmt.Sprintf("--- File: %s ---", file.Name)
			for _, physical := range wrapper.wrap(delimiter) {
				if !emit(physical) {
					return
				}
			}
			for _, logical := range normalizeLines(file.Content) {
				for _, physical := range wrapper.wrap(logical) {
					if !emit(physical) {
						return
					}
				}
			}
		}
		if len(lines) > 0 {
			yield(Page{Lines: lines})
		}
	}
}

// normalizeLines expands tabs and collapses every run of two or more blank
// lines into a single blank line, preserving paragraph breaks without
// spending page budget on them. Leading and trailing blanks are kept, at
// most one of each.
func normalizeLines(content string) []string {
	content = strings.ReplaceAll(content, "\t", strings.Repeat(" ", tabSpaces))
	content = strings.TrimSuffix(content, "\n")
	var out []string
	lastBlank := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			if !lastBlank {
				out = append(out, "")
			}
			lastBlank = true
		} else {
			out = append(out, line)
			lastBlank = false
		}
	}
	return out
}

// lineWrapper splits logical lines into physical lines that fit the content
// width, using measured glyph widths rather than a fixed character count.
// Widths are cached per rune because measurement is comparatively expensive.
type lineWrapper struct {
	width   float64
	measure func(string) float64
	cache   map[rune]float64
}

func newLineWrapper(width float64, measure func(string) float64) *lineWrapper {
	return &lineWrapper{width: width, measure: measure, cache: make(map[rune]float64)}
}

func (w *lineWrapper) runeWidth(r rune) float64 {
	if rw, ok := w.cache[r]; ok {
		return rw
	}
	rw := w.measure(string(r))
	w.cache[r] = rw
	return rw
}

func (w *lineWrapper) wrap(line string) []string {
	if line == "" {
		return []string{""}
	}
	var wrapped []string
	var cur []rune
	var curWidth float64
	for _, r := range line {
		rw := w.runeWidth(r)
		// A single glyph wider than the budget still gets its own line.
		if len(cur) > 0 && curWidth+rw > w.width {
			wrapped = append(wrapped, string(cur))
			cur = []rune{r}
			curWidth = rw
			continue
		}
		cur = append(cur, r)
		curWidth += rw
	}
	if len(cur) > 0 {
		wrapped = append(wrapped, string(cur))
	}
	return wrapped
}
