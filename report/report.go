// Package report renders the final profile as a downloadable PDF.
package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"jekyll_hyde/story"
	"jekyll_hyde/templates"
)

// Profile is everything printed in the report.
type Profile struct {
	Analysis story.PersonaAnalysis
	Choices  []story.ChoiceRecord
	Jekyll   int
	Hyde     int
}

// Write renders p as a PDF document to w.
func Write(w io.Writer, p Profile) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Jekyll or Hyde: "+p.Analysis.PersonaName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	verdict := templates.GetVerdict(p.Jekyll, p.Hyde)
	r, g, b := verdict.RGB()

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "IDENTITY ASSESSMENT COMPLETE", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(r, g, b)
	pdf.CellFormat(0, 14, tr("You are more "+verdict.Label), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 7, tr(templates.TallyLine(p.Jekyll, p.Hyde)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(p.Analysis.PersonaName), "", "L", false)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(p.Analysis.PersonaDescription), "", "L", false)
	pdf.Ln(4)

	for _, row := range [][2]string{
		{"Dominant trait", p.Analysis.DominantTrait},
		{"Shadow trait", p.Analysis.ShadowTrait},
		{"Literary parallel", p.Analysis.LiteraryParallel},
	} {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 7, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, tr(row[1]), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Insight", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "I", 11)
	pdf.MultiCell(0, 6, tr(p.Analysis.Insight), "", "L", false)

	if len(p.Choices) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, "Choices", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for i, c := range p.Choices {
			novel := c.Novel
			if novel == "" {
				novel = "Custom"
			}
			line := fmt.Sprintf("%d. [%s] %s - chose %s", i+1, novel, c.Dilemma, sideName(c.Picked))
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	return pdf.Output(w)
}

func sideName(s story.Side) string {
	if s == story.Jekyll {
		return "Jekyll"
	}
	return "Hyde"
}
