// Package pdf renders article Markdown into a simple typeset PDF document.
package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
)

type lineKind int

const (
	kindParagraph lineKind = iota
	kindH1
	kindH2
	kindH3
	kindBullet
	kindNumbered
	kindBlank
)

var (
	numberedPrefix = regexp.MustCompile(`^\d+[.)]\s+`)
	boldMarks      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarks    = regexp.MustCompile(`\*([^*]+)\*`)
	codeMarks      = regexp.MustCompile("`([^`]+)`")
)

// Render typesets Markdown content into a PDF and returns its bytes.
// Formatting is line oriented: headings, bullets, and numbered items get
// their own styles, everything else flows as justified paragraphs.
func Render(title, content string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.SetTitle(title, true)
	doc.AddPage()

	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 20)
	doc.MultiCell(0, 10, tr(title), "", "L", false)
	doc.Ln(4)

	for _, line := range strings.Split(content, "\n") {
		kind, text := classify(line)
		text = stripInline(text)
		switch kind {
		case kindBlank:
			doc.Ln(3)
		case kindH1:
			// The document title already renders the H1 once; repeat
			// occurrences still get heading treatment.
			doc.SetFont("Helvetica", "B", 16)
			doc.MultiCell(0, 8, tr(text), "", "L", false)
			doc.Ln(2)
		case kindH2:
			doc.SetFont("Helvetica", "B", 14)
			doc.MultiCell(0, 7, tr(text), "", "L", false)
			doc.Ln(2)
		case kindH3:
			doc.SetFont("Helvetica", "B", 12)
			doc.MultiCell(0, 6, tr(text), "", "L", false)
			doc.Ln(1)
		case kindBullet:
			doc.SetFont("Helvetica", "", 11)
			doc.SetX(25)
			doc.MultiCell(0, 5.5, tr("\x95 "+text), "", "L", false)
		case kindNumbered:
			doc.SetFont("Helvetica", "", 11)
			doc.SetX(25)
			doc.MultiCell(0, 5.5, tr(text), "", "L", false)
		default:
			doc.SetFont("Helvetica", "", 11)
			doc.MultiCell(0, 5.5, tr(text), "", "J", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func classify(line string) (lineKind, string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return kindBlank, ""
	case strings.HasPrefix(trimmed, "### "):
		return kindH3, strings.TrimPrefix(trimmed, "### ")
	case strings.HasPrefix(trimmed, "## "):
		return kindH2, strings.TrimPrefix(trimmed, "## ")
	case strings.HasPrefix(trimmed, "# "):
		return kindH1, strings.TrimPrefix(trimmed, "# ")
	case strings.HasPrefix(trimmed, "- "):
		return kindBullet, strings.TrimPrefix(trimmed, "- ")
	case strings.HasPrefix(trimmed, "* "):
		return kindBullet, strings.TrimPrefix(trimmed, "* ")
	case numberedPrefix.MatchString(trimmed):
		return kindNumbered, trimmed
	default:
		return kindParagraph, trimmed
	}
}

// stripInline removes bold, italic, and inline-code markers; the renderer
// keeps one face per line.
func stripInline(s string) string {
	s = boldMarks.ReplaceAllString(s, "$1")
	s = italicMarks.ReplaceAllString(s, "$1")
	s = codeMarks.ReplaceAllString(s, "$1")
	return s
}

// Filename builds a safe download filename from an article title.
func Filename(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	if name == "" {
		name = "article"
	}
	if len(name) > 60 {
		name = name[:60]
	}
	return name + ".pdf"
}
