package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/resume-ranker/internal/models"
)

const (
	summarySheet  = "Summary"
	rankingSheet  = "Ranked Candidates"
	failuresSheet = "Failures"
)

var tierColors = map[models.Recommendation]string{
	models.Shortlist: "C6EFCE",
	models.Review:    "FFEB9C",
	models.Reject:    "FFC7CE",
}

// WriteXLSX writes a workbook with a summary, the ranking and the failures.
func WriteXLSX(w io.Writer, report *models.BatchReport) error {
	doc := NewDocument(report)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, doc); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if _, err := f.NewSheet(rankingSheet); err != nil {
		return fmt.Errorf("create ranking sheet: %w", err)
	}
	if err := writeRankingSheet(f, doc); err != nil {
		return fmt.Errorf("ranking sheet: %w", err)
	}
	if failed := doc.Failed(); len(failed) > 0 {
		if _, err := f.NewSheet(failuresSheet); err != nil {
			return fmt.Errorf("create failures sheet: %w", err)
		}
		if err := writeFailuresSheet(f, failed); err != nil {
			return fmt.Errorf("failures sheet: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeSummarySheet(f *excelize.File, doc Document) error {
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 60); err != nil {
		return err
	}

	rows := [][]any{
		{"Run ID", doc.RunID},
		{"Model", doc.Model},
		{"State", string(doc.State)},
		{"Total candidates", doc.Summary.Total},
		{"Shortlist", doc.Summary.Shortlist},
		{"Review", doc.Summary.Review},
		{"Reject", doc.Summary.Reject},
		{"Failed", doc.Summary.Failed},
	}
	if req := doc.JobRequirements; req != nil {
		rows = append(rows,
			[]any{"Required skills", strings.Join(req.RequiredSkills, ", ")},
			[]any{"Nice to have skills", strings.Join(req.NiceToHaveSkills, ", ")},
			[]any{"Experience level", string(req.ExperienceLevel)},
			[]any{"Job type", req.JobType},
			[]any{"Domain", req.Domain},
		)
	}
	if doc.ExtractionFailure != nil {
		rows = append(rows, []any{"Extraction failure", fmt.Sprintf("%s: %s", doc.ExtractionFailure.Kind, doc.ExtractionFailure.Message)})
	}

	for i, r := range rows {
		if err := writeRow(f, summarySheet, i+1, r...); err != nil {
			return err
		}
	}
	return nil
}

func writeRankingSheet(f *excelize.File, doc Document) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	headers := []any{"Rank", "Candidate", "File", "Fit Score", "Recommendation", "Skill Match", "Experience", "Production", "Domain", "Matched Skills", "Missing Skills", "Explanation"}
	if err := writeRow(f, rankingSheet, 1, headers...); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(rankingSheet, "A1", last, style); err != nil {
		return err
	}
	if err := f.SetColWidth(rankingSheet, "B", "C", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(rankingSheet, "J", "L", 40); err != nil {
		return err
	}

	tierStyles := make(map[models.Recommendation]int, len(tierColors))
	for tier, color := range tierColors {
		id, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}})
		if err != nil {
			return err
		}
		tierStyles[tier] = id
	}

	for i, c := range doc.Ranked() {
		row := i + 2
		err := writeRow(f, rankingSheet, row,
			c.Rank, c.CandidateName, c.FileName,
			deref(c.FitScore), string(c.Recommendation), deref(c.SkillMatchRatio),
			deref(c.ExperienceMatch), deref(c.ProductionExperience), deref(c.DomainFit),
			strings.Join(c.MatchedSkills, ", "), strings.Join(c.MissingSkills, ", "), c.Explanation,
		)
		if err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetCellStyle(rankingSheet, cell, cell, tierStyles[c.Recommendation]); err != nil {
			return err
		}
	}
	return nil
}

func writeFailuresSheet(f *excelize.File, failed []Candidate) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := writeRow(f, failuresSheet, 1, "File", "Kind", "Attempts", "Retries", "Message"); err != nil {
		return err
	}
	if err := f.SetCellStyle(failuresSheet, "A1", "E1", style); err != nil {
		return err
	}
	for i, c := range failed {
		if err := writeRow(f, failuresSheet, i+2, c.FileName, string(c.Failure.Kind), c.Failure.Attempts, c.Failure.Retries, c.Failure.Message); err != nil {
			return err
		}
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
