package report

import (
	"strings"

	"eia-drafter/internal/docx"
)

const boldDelim = "**"

// Markdown appends the supported markdown subset to doc:
//
//	"## x"        heading 2
//	"### x"       heading 3
//	"- x", "* x"  bullet
//	other         justified paragraph
//
// Inline "**x**" becomes a bold run. Blank lines are skipped.
func Markdown(doc *docx.Document, text string) {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "### "):
			doc.Heading(3, stripBold(strings.TrimSpace(line[4:])))
		case strings.HasPrefix(line, "## "):
			doc.Heading(2, stripBold(strings.TrimSpace(line[3:])))
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			doc.Bullet(InlineRuns(strings.TrimSpace(line[2:]))...)
		default:
			doc.Paragraph(docx.AlignJustify, InlineRuns(line)...)
		}
	}
}

// InlineRuns splits s into plain and bold runs. Delimiters pair left to right
// with the nearest closing "**"; an unmatched opener is kept as literal text.
func InlineRuns(s string) []docx.Run {
	var runs []docx.Run
	for s != "" {
		open := strings.Index(s, boldDelim)
		if open < 0 {
			break
		}
		rest := s[open+len(boldDelim):]
		end := strings.Index(rest, boldDelim)
		if end < 0 {
			break
		}
		if open > 0 {
			runs = append(runs, docx.Text(s[:open]))
		}
		if end > 0 {
			runs = append(runs, docx.Bold(rest[:end]))
		}
		s = rest[end+len(boldDelim):]
	}
	if s != "" {
		runs = append(runs, docx.Text(s))
	}
	return runs
}

// stripBold drops matched bold markers; heading styles are already bold.
func stripBold(s string) string {
	var b strings.Builder
	for _, r := range InlineRuns(s) {
		b.WriteString(r.Text)
	}
	return b.String()
}
