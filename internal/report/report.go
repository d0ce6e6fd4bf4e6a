// Package report lays out model output as Word documents.
package report

import (
	"fmt"
	"time"

	"eia-drafter/internal/docx"
	"eia-drafter/internal/domain"
	"eia-drafter/internal/tagparse"
	"eia-drafter/internal/templates"
)

// Banner texts.
const (
	BannerInconsistent = "INCONSISTÊNCIAS DETETADAS"
	BannerValidated    = "PROCESSO VALIDADO"
)

const (
	colorRed       = "C00000"
	fillRed        = "F4CCCC"
	colorGreen     = "38761D"
	fillGreen      = "D9EAD3"
	fillSection    = "1F3864"
	fillOutcome    = "DEEAF6"
	colorWhite     = "FFFFFF"
	colorMuted     = "7F7F7F"
	colorAmber     = "BF9000"
	labelWidth     = 2800
	valueWidth     = 6200
	outcomeSize    = 28
	bannerSize     = 28
	signatureLine  = "________________________________________"
	signatureTitle = "O Técnico Responsável"
)

// Options carries the values a render depends on besides the model output.
// Rendering is pure: equal Options and input produce identical bytes.
type Options struct {
	Now   time.Time
	Model string
}

// Render dispatches on the descriptor layout.
func Render(d *templates.Descriptor, text string, opts Options) ([]byte, error) {
	switch d.Layout {
	case domain.LayoutAudit:
		return RenderAudit(d, text, opts)
	case domain.LayoutDecision:
		return RenderDecision(d, tagparse.Parse(text, d.Tags()), opts)
	default:
		return nil, fmt.Errorf("unsupported layout %q", d.Layout)
	}
}

// RenderAudit renders a markdown report under a status banner. The STATUS line
// itself is dropped from the body since the banner carries it.
func RenderAudit(d *templates.Descriptor, text string, opts Options) ([]byte, error) {
	doc := docx.New()
	header(doc, d, opts)

	banner, color, fill := BannerValidated, colorGreen, fillGreen
	if tagparse.IsInconsistent(text) {
		banner, color, fill = BannerInconsistent, colorRed, fillRed
	}
	doc.Table([]int{labelWidth + valueWidth}, [][]docx.Cell{{{
		Runs:           []docx.Run{{Text: banner, Color: color}},
		Shade:          fill,
		Align:          docx.AlignCenter,
		Bold:           true,
		SizeHalfPoints: bannerSize,
	}}})

	Markdown(doc, tagparse.StripStatusLine(text))
	return doc.Bytes()
}

// RenderDecision renders the descriptor sections as a two-column table
// followed by a dated signature block.
func RenderDecision(d *templates.Descriptor, fields domain.FieldMap, opts Options) ([]byte, error) {
	doc := docx.New()
	header(doc, d, opts)

	var rows [][]docx.Cell
	for _, s := range d.Sections {
		rows = append(rows, []docx.Cell{{
			Runs:  []docx.Run{{Text: s.Title, Color: colorWhite}},
			Span:  2,
			Shade: fillSection,
			Bold:  true,
		}})
		for _, f := range s.Fields {
			rows = append(rows, fieldRow(f, fields.Get(f.Tag)))
		}
	}
	doc.Table([]int{labelWidth, valueWidth}, rows)

	doc.Paragraph(docx.AlignLeft, docx.Bold("Data: "), docx.Text(opts.Now.Format("02/01/2006")))
	doc.Spacer()
	doc.Paragraph(docx.AlignCenter, docx.Text(signatureLine))
	doc.Paragraph(docx.AlignCenter, docx.Text(signatureTitle))
	return doc.Bytes()
}

func fieldRow(f templates.Field, value string) []docx.Cell {
	valueRun := docx.Text(value)
	if value == domain.Placeholder {
		valueRun = docx.Run{Text: value, Italic: true, Color: colorAmber}
	}

	switch f.Kind {
	case templates.FieldOutcome:
		valueRun.Bold = true
		return []docx.Cell{{
			Runs:           []docx.Run{valueRun},
			Span:           2,
			Shade:          fillOutcome,
			Align:          docx.AlignCenter,
			SizeHalfPoints: outcomeSize,
		}}
	case templates.FieldLong:
		return []docx.Cell{{
			Runs:  []docx.Run{docx.Bold(f.Label), docx.Text("\n"), valueRun},
			Span:  2,
			Align: docx.AlignJustify,
		}}
	default:
		return []docx.Cell{
			{Runs: []docx.Run{docx.Text(f.Label)}, Bold: true},
			{Runs: []docx.Run{valueRun}, Align: docx.AlignJustify},
		}
	}
}

func header(doc *docx.Document, d *templates.Descriptor, opts Options) {
	title := d.Title
	if title == "" {
		title = d.ID
	}
	doc.Title(title)
	if d.Subtitle != "" {
		doc.Paragraph(docx.AlignCenter, docx.Run{Text: d.Subtitle, Italic: true})
	}
	meta := "Gerado em " + opts.Now.Format("02/01/2006 15:04")
	if opts.Model != "" {
		meta += " · Modelo " + opts.Model
	}
	doc.Paragraph(docx.AlignCenter, docx.Run{Text: meta, Color: colorMuted, SizeHalfPoints: 18})
}
