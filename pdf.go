package main

import (
	"fmt"
	"iter"
	"os"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// A4 portrait, millimetre units throughout.
const (
	pdfPageWidth  = 210.0
	pdfPageHeight = 297.0

	headerFontSize = 10.0 // points
	headerY        = 15.0 // header baseline, mm from the top edge
	headerRuleGap  = 2.0  // rule sits this far below the header baseline

	// Filing requirements impose a density floor of 50 lines per page.
	minLinesPerPage = 50
)

// pageLayout is the page geometry: margins in millimetres, body font size in
// points, leading as the distance between successive baselines in mm.
type pageLayout struct {
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	FontSize     float64
	Leading      float64
}

func defaultLayout() pageLayout {
	return pageLayout{
		MarginTop:    25,
		MarginBottom: 20,
		MarginLeft:   20,
		MarginRight:  20,
		FontSize:     9,
		Leading:      4,
	}
}

func (l pageLayout) contentWidth() float64 {
	return pdfPageWidth - l.MarginLeft - l.MarginRight
}

func (l pageLayout) linesPerPage() int {
	lines := int((pdfPageHeight - l.MarginTop - l.MarginBottom) / l.Leading)
	if lines < minLinesPerPage {
		fmt.Fprintf(os.Stderr, "Warning: page geometry yields only %d lines per page, below the required %d\n", lines, minLinesPerPage)
	}
	return lines
}

// documentFont is the resolved rendering font: a CJK-capable TTF from the
// host system when one exists, otherwise the built-in Courier core font
// (which cannot render CJK text, mirroring the original tool's fallback).
type documentFont struct {
	family string
	file   string // empty for a built-in core font
}

var (
	fontOnce     sync.Once
	resolvedFont documentFont
)

var fontCandidates = []documentFont{
	{family: "SimHei", file: `C:\Windows\Fonts\simhei.ttf`},
	{family: "Microsoft YaHei", file: `C:\Windows\Fonts\msyh.ttf`},
	{family: "Noto Sans CJK SC", file: "/usr/share/fonts/opentype/noto/NotoSansCJKsc-Regular.ttf"},
	{family: "WenQuanYi Zen Hei", file: "/usr/share/fonts/truetype/wqy/wqy-zenhei.ttf"},
	{family: "Arial Unicode MS", file: "/Library/Fonts/Arial Unicode.ttf"},
}

// resolveDocumentFont probes the candidate list exactly once per process and
// caches the result; every renderer and metrics instance reads the same
// handle afterwards.
func resolveDocumentFont() documentFont {
	fontOnce.Do(func() {
		for _, candidate := range fontCandidates {
			if _, err := os.Stat(candidate.file); err == nil {
				resolvedFont = candidate
				fmt.Printf("Using document font %s (%s)\n", candidate.family, candidate.file)
				return
			}
		}
		fmt.Fprintln(os.Stderr, "Warning: no CJK-capable font found, falling back to Courier")
		resolvedFont = documentFont{family: "Courier"}
	})
	return resolvedFont
}

func (f documentFont) register(pdf *gofpdf.Fpdf) {
	if f.file != "" {
		pdf.AddUTF8Font(f.family, "", f.file)
	}
}

// newFontMetrics returns a width-measuring function for the document font at
// the layout's body size, for the paginator's wrap calculations.
func newFontMetrics(layout pageLayout) func(string) float64 {
	font := resolveDocumentFont()
	pdf := gofpdf.New("P", "mm", "A4", "")
	font.register(pdf)
	pdf.SetFont(font.family, "", layout.FontSize)
	return pdf.GetStringWidth
}

// renderOptions configures one render run. HeadPages+TailPages is the total
// page cap; both are configurable because the externally mandated 30/30
// split may change.
type renderOptions struct {
	Title      string
	Version    string
	OutputPath string
	HeadPages  int
	TailPages  int
	Layout     pageLayout
	Cancel     func() bool
}

// pageRing is a fixed-size sliding window over the most recently seen pages.
type pageRing struct {
	buf   []Page
	next  int
	count int
}

func newPageRing(size int) *pageRing {
	return &pageRing{buf: make([]Page, size)}
}

func (r *pageRing) push(p Page) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = p
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// pages returns the window contents in arrival order.
func (r *pageRing) pages() []Page {
	out := make([]Page, 0, r.count)
	start := r.next - r.count
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// selectPages drains the lazy page sequence while retaining only the first
// head pages and a sliding window of the most recent tail pages, so the full
// page set is never materialized. When the total fits within head+tail every
// page is selected in order; otherwise the result is the first head pages
// followed by the last tail pages.
func selectPages(pages iter.Seq[Page], head, tail int, cancel func() bool) (total int, selected []Page, cancelled bool) {
	first := make([]Page, 0, head)
	ring := newPageRing(tail)
	for page := range pages {
		if cancel != nil && cancel() {
			return 0, nil, true
		}
		total++
		if total <= head {
			first = append(first, page)
		} else {
			ring.push(page)
		}
	}
	if cancel != nil && cancel() {
		return 0, nil, true
	}
	return total, append(first, ring.pages()...), false
}

// renderDocument drains the page sequence, applies the head/tail truncation
// policy and writes the PDF artifact. It returns the total logical page
// count and the number of pages actually emitted. Cancellation yields
// (0, 0) with no error and no artifact; a write failure removes any partial
// output before returning the error.
func renderDocument(pages iter.Seq[Page], opts renderOptions) (int, int, error) {
	total, selected, cancelled := selectPages(pages, opts.HeadPages, opts.TailPages, opts.Cancel)
	if cancelled {
		return 0, 0, nil
	}
	if total == 0 {
		return 0, 0, nil
	}

	font := resolveDocumentFont()
	pdf := gofpdf.New("P", "mm", "A4", "")
	font.register(pdf)
	pdf.SetMargins(opts.Layout.MarginLeft, opts.Layout.MarginTop, opts.Layout.MarginRight)
	pdf.SetAutoPageBreak(false, 0)

	for i, page := range selected {
		if opts.Cancel != nil && opts.Cancel() {
			return 0, 0, nil
		}
		pdf.AddPage()
		// Page numbers are 1-based over the emitted subset, not the
		// pre-truncation numbering.
		drawHeader(pdf, font, opts, i+1)
		drawBody(pdf, font, opts.Layout, page)
	}

	if err := pdf.Error(); err != nil {
		return 0, 0, fmt.Errorf("PDF generation failed: %w", err)
	}
	if err := pdf.OutputFileAndClose(opts.OutputPath); err != nil {
		_ = os.Remove(opts.OutputPath)
		return 0, 0, fmt.Errorf("failed to save PDF to %s: %w", opts.OutputPath, err)
	}
	return total, len(selected), nil
}

func drawHeader(pdf *gofpdf.Fpdf, font documentFont, opts renderOptions, pageNum int) {
	pdf.SetFont(font.family, "", headerFontSize)
	left := fmt.Sprintf("%s %s", opts.Title, opts.Version)
	right := fmt.Sprintf("page %d", pageNum)
	pdf.Text(opts.Layout.MarginLeft, headerY, left)
	rightWidth := pdf.GetStringWidth(right)
	pdf.Text(pdfPageWidth-opts.Layout.MarginRight-rightWidth, headerY, right)
	ruleY := headerY + headerRuleGap
	pdf.Line(opts.Layout.MarginLeft, ruleY, pdfPageWidth-opts.Layout.MarginRight, ruleY)
}

func drawBody(pdf *gofpdf.Fpdf, font documentFont, layout pageLayout, page Page) {
	pdf.SetFont(font.family, "", layout.FontSize)
	y := layout.MarginTop
	for _, line := range page.Lines {
		y += layout.Leading
		pdf.Text(layout.MarginLeft, y, line)
	}
}
