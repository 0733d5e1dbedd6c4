package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/spigell/resume-ranker/internal/models"
)

// WriteMarkdown renders a human-readable report.
func WriteMarkdown(w io.Writer, report *models.BatchReport) error {
	doc := NewDocument(report)
	var b strings.Builder

	fmt.Fprintf(&b, "# Candidate ranking\n\n")
	fmt.Fprintf(&b, "Run `%s` with model `%s` finished as **%s**.\n\n", doc.RunID, doc.Model, doc.State)

	fmt.Fprintf(&b, "| Total | Shortlist | Review | Reject | Failed |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n", doc.Summary.Total, doc.Summary.Shortlist, doc.Summary.Review, doc.Summary.Reject, doc.Summary.Failed)

	if req := doc.JobRequirements; req != nil {
		fmt.Fprintf(&b, "## Job requirements\n\n")
		fmt.Fprintf(&b, "- Required skills: %s\n", listOrDash(req.RequiredSkills))
		fmt.Fprintf(&b, "- Nice to have: %s\n", listOrDash(req.NiceToHaveSkills))
		fmt.Fprintf(&b, "- Experience level: %s\n", req.ExperienceLevel)
		if req.RequiredYears != nil {
			fmt.Fprintf(&b, "- Required years: %g\n", *req.RequiredYears)
		}
		if req.JobType != "" {
			fmt.Fprintf(&b, "- Job type: %s\n", req.JobType)
		}
		if req.Domain != "" {
			fmt.Fprintf(&b, "- Domain: %s\n", req.Domain)
		}
		b.WriteString("\n")
	}

	if f := doc.ExtractionFailure; f != nil {
		fmt.Fprintf(&b, "## Extraction failed\n\n`%s` after %d attempt(s): %s\n\n", f.Kind, f.Attempts, escapeCell(f.Message))
	}

	if ranked := doc.Ranked(); len(ranked) > 0 {
		fmt.Fprintf(&b, "## Ranking\n\n")
		fmt.Fprintf(&b, "| # | Candidate | File | Fit score | Recommendation | Matched | Missing |\n|---|---|---|---|---|---|---|\n")
		for _, c := range ranked {
			fmt.Fprintf(&b, "| %d | %s | %s | %.2f | %s | %s | %s |\n",
				c.Rank, escapeCell(c.CandidateName), escapeCell(c.FileName), deref(c.FitScore), c.Recommendation,
				escapeCell(listOrDash(c.MatchedSkills)), escapeCell(listOrDash(c.MissingSkills)))
		}
		b.WriteString("\n")

		for _, c := range ranked {
			if c.Explanation == "" {
				continue
			}
			fmt.Fprintf(&b, "### %d. %s\n\n%s\n\n", c.Rank, c.CandidateName, c.Explanation)
		}
	}

	if failed := doc.Failed(); len(failed) > 0 {
		fmt.Fprintf(&b, "## Not evaluated\n\n| File | Kind | Attempts | Message |\n|---|---|---|---|\n")
		for _, c := range failed {
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", escapeCell(c.FileName), c.Failure.Kind, c.Failure.Attempts, escapeCell(c.Failure.Message))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHTML renders the Markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, report *models.BatchReport) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, report); err != nil {
		return err
	}

	var body bytes.Buffer
	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := renderer.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Candidate ranking</title>\n</head>\n<body>\n%s</body>\n</html>\n", body.String())
	return err
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
