package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/models"
)

// Format is an output file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatXLSX     Format = "xlsx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// BaseName is the file name, without extension, of every written report.
const BaseName = "evaluation_results"

var writers = map[Format]struct {
	ext   string
	write func(io.Writer, *models.BatchReport) error
}{
	FormatJSON:     {ext: ".json", write: WriteJSON},
	FormatYAML:     {ext: ".yaml", write: WriteYAML},
	FormatXLSX:     {ext: ".xlsx", write: WriteXLSX},
	FormatMarkdown: {ext: ".md", write: WriteMarkdown},
	FormatHTML:     {ext: ".html", write: WriteHTML},
}

// ParseFormats validates format names, ignoring case and duplicates.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		if f == "md" {
			f = FormatMarkdown
		}
		if _, ok := writers[f]; !ok {
			return nil, fmt.Errorf("unsupported report format %q", n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Exporter writes a report into a directory, once per configured format.
type Exporter struct {
	dir     string
	formats []Format
	logger  *zap.Logger
}

// NewExporter creates an Exporter. JSON is written when formats is empty.
func NewExporter(dir string, formats []Format, log *zap.Logger) (*Exporter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output directory is required")
	}
	if len(formats) == 0 {
		formats = []Format{FormatJSON}
	}
	for _, f := range formats {
		if _, ok := writers[f]; !ok {
			return nil, fmt.Errorf("unsupported report format %q", f)
		}
	}
	return &Exporter{dir: dir, formats: formats, logger: logger.WithFields(log)}, nil
}

// Write creates the output directory and writes every format. It returns the
// written paths.
func (e *Exporter) Write(report *models.BatchReport) ([]string, error) {
	if report == nil {
		return nil, errors.New("report is nil")
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(e.formats))
	for _, f := range e.formats {
		w := writers[f]
		path := filepath.Join(e.dir, BaseName+w.ext)
		if err := writeFile(path, report, w.write); err != nil {
			return paths, fmt.Errorf("write %s report: %w", f, err)
		}
		e.logger.Info("report written", zap.String("format", string(f)), zap.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, report *models.BatchReport, write func(io.Writer, *models.BatchReport) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return write(file, report)
}
