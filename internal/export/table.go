package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/spigell/resume-ranker/internal/models"
)

const maxNameWidth = 28

// WriteTable prints the ranking and tier counts for a terminal.
func WriteTable(w io.Writer, report *models.BatchReport) error {
	doc := NewDocument(report)

	header := []string{"#", "CANDIDATE", "FILE", "SCORE", "TIER"}
	rows := [][]string{}
	for _, c := range doc.Ranked() {
		rows = append(rows, []string{
			fmt.Sprint(c.Rank),
			runewidth.Truncate(c.CandidateName, maxNameWidth, "…"),
			runewidth.Truncate(c.FileName, maxNameWidth, "…"),
			fmt.Sprintf("%.2f", deref(c.FitScore)),
			string(c.Recommendation),
		})
	}
	for _, c := range doc.Failed() {
		rows = append(rows, []string{
			"-",
			"",
			runewidth.Truncate(c.FileName, maxNameWidth, "…"),
			"-",
			"failed: " + string(c.Failure.Kind),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var b strings.Builder
	writeLine(&b, header, widths)
	for _, r := range rows {
		writeLine(&b, r, widths)
	}
	fmt.Fprintf(&b, "\nShortlist: %d  Review: %d  Reject: %d  Failed: %d  Total: %d\n",
		doc.Summary.Shortlist, doc.Summary.Review, doc.Summary.Reject, doc.Summary.Failed, doc.Summary.Total)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(padRight(cell, widths[i]))
	}
	b.WriteString("\n")
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
