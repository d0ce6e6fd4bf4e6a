// Package docx writes minimal WordprocessingML (.docx) packages: headings,
// justified paragraphs, bullet lists and tables with merged and shaded cells.
//
// Output is deterministic. Zip entries carry a fixed timestamp and are always
// written in the same order, so equal input yields byte-identical files.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Align is a paragraph justification value (w:jc).
type Align string

const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "both"
)

// Run is a span of text sharing one formatting.
type Run struct {
	Text           string
	Bold           bool
	Italic         bool
	Color          string // hex RGB without '#'
	SizeHalfPoints int
}

// Text is a plain run.
func Text(s string) Run { return Run{Text: s} }

// Bold is a bold run.
func Bold(s string) Run { return Run{Text: s, Bold: true} }

// Cell is one table cell. A cell with Span > 1 covers that many grid columns.
type Cell struct {
	Runs           []Run
	Span           int
	Shade          string // hex RGB fill
	Align          Align
	Bold           bool
	SizeHalfPoints int
}

// Document accumulates body content.
type Document struct {
	body bytes.Buffer
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// modTime is stamped on every zip entry.
var modTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Heading appends a heading paragraph. Levels outside 1..3 are clamped.
func (d *Document) Heading(level int, text string) {
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	d.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="Heading` + fmt.Sprint(level) + `"/></w:pPr>`)
	writeRun(&d.body, Run{Text: text})
	d.body.WriteString(`</w:p>`)
}

// Title appends the document title, centered.
func (d *Document) Title(text string) {
	d.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="Title"/><w:jc w:val="center"/></w:pPr>`)
	writeRun(&d.body, Run{Text: text})
	d.body.WriteString(`</w:p>`)
}

// Paragraph appends a body paragraph.
func (d *Document) Paragraph(align Align, runs ...Run) {
	d.body.WriteString(`<w:p>`)
	if align != "" {
		d.body.WriteString(`<w:pPr><w:jc w:val="` + string(align) + `"/></w:pPr>`)
	}
	for _, r := range runs {
		writeRun(&d.body, r)
	}
	d.body.WriteString(`</w:p>`)
}

// Bullet appends a justified item of the single bullet list definition.
func (d *Document) Bullet(runs ...Run) {
	d.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="ListParagraph"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr><w:jc w:val="both"/></w:pPr>`)
	for _, r := range runs {
		writeRun(&d.body, r)
	}
	d.body.WriteString(`</w:p>`)
}

// Spacer appends an empty paragraph.
func (d *Document) Spacer() {
	d.body.WriteString(`<w:p/>`)
}

// Table appends a bordered table. widths are grid column widths in twips;
// each row's spans should add up to len(widths).
func (d *Document) Table(widths []int, rows [][]Cell) {
	total := 0
	for _, w := range widths {
		total += w
	}
	b := &d.body
	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/>`)
	fmt.Fprintf(b, `<w:tblW w:w="%d" w:type="dxa"/>`, total)
	b.WriteString(`<w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		b.WriteString(`<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="808080"/>`)
	}
	b.WriteString(`</w:tblBorders><w:tblLayout w:type="fixed"/></w:tblPr><w:tblGrid>`)
	for _, w := range widths {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, w)
	}
	b.WriteString(`</w:tblGrid>`)

	for _, row := range rows {
		b.WriteString(`<w:tr>`)
		col := 0
		for _, c := range row {
			span := c.Span
			if span < 1 {
				span = 1
			}
			width := 0
			for i := col; i < col+span && i < len(widths); i++ {
				width += widths[i]
			}
			col += span
			writeCell(b, c, span, width)
		}
		b.WriteString(`</w:tr>`)
	}
	// Word requires a paragraph between a table and the end of the body.
	b.WriteString(`</w:tbl><w:p/>`)
}

func writeCell(b *bytes.Buffer, c Cell, span, width int) {
	fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>`, width)
	if span > 1 {
		fmt.Fprintf(b, `<w:gridSpan w:val="%d"/>`, span)
	}
	if c.Shade != "" {
		b.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="` + c.Shade + `"/>`)
	}
	b.WriteString(`<w:vAlign w:val="center"/></w:tcPr><w:p>`)
	if c.Align != "" {
		b.WriteString(`<w:pPr><w:jc w:val="` + string(c.Align) + `"/></w:pPr>`)
	}
	for _, r := range c.Runs {
		if c.Bold {
			r.Bold = true
		}
		if r.SizeHalfPoints == 0 {
			r.SizeHalfPoints = c.SizeHalfPoints
		}
		writeRun(b, r)
	}
	b.WriteString(`</w:p></w:tc>`)
}

func writeRun(b *bytes.Buffer, r Run) {
	b.WriteString(`<w:r>`)
	if r.Bold || r.Italic || r.Color != "" || r.SizeHalfPoints > 0 {
		b.WriteString(`<w:rPr>`)
		if r.Bold {
			b.WriteString(`<w:b/>`)
		}
		if r.Italic {
			b.WriteString(`<w:i/>`)
		}
		if r.Color != "" {
			b.WriteString(`<w:color w:val="` + r.Color + `"/>`)
		}
		if r.SizeHalfPoints > 0 {
			fmt.Fprintf(b, `<w:sz w:val="%d"/>`, r.SizeHalfPoints)
		}
		b.WriteString(`</w:rPr>`)
	}
	for i, line := range strings.Split(r.Text, "\n") {
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(b, []byte(line))
		b.WriteString(`</w:t>`)
	}
	b.WriteString(`</w:r>`)
}

// DocumentXML returns the word/document.xml part.
func (d *Document) DocumentXML() []byte {
	var out bytes.Buffer
	out.WriteString(xml.Header)
	out.WriteString(`<w:document xmlns:w="` + nsMain + `" xmlns:r="` + nsRel + `"><w:body>`)
	out.Write(d.body.Bytes())
	out.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1417" w:right="1417" w:bottom="1417" w:left="1417" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return out.Bytes()
}

// Bytes serializes the package.
func (d *Document) Bytes() ([]byte, error) {
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/document.xml", d.DocumentXML()},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/numbering.xml", []byte(numberingXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	return buf.Bytes(), nil
}
