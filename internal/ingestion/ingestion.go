// Package ingestion loads the job description and resume texts.
package ingestion

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/models"
)

// ResumeExtension is the only file type read from a resume directory.
const ResumeExtension = ".txt"

// Loader reads inputs from a filesystem.
type Loader struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewLoader returns a Loader over fs, or the OS filesystem when fs is nil.
func NewLoader(fs afero.Fs, log *zap.Logger) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs, logger: logger.WithFields(log)}
}

// JobDescription reads and normalizes the job description at path.
func (l *Loader) JobDescription(path string) (string, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading job description: %w", err)
	}

	text := Normalize(string(data))
	if text == "" {
		return "", fmt.Errorf("job description %q is empty", path)
	}
	return text, nil
}

// Resumes reads every *.txt file directly inside dir, sorted by name. Empty
// files are kept so that they show up as failures in the report.
func (l *Loader) Resumes(dir string) ([]models.Resume, error) {
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading resume directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ResumeExtension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	resumes := make([]models.Resume, 0, len(names))
	for _, name := range names {
		data, err := afero.ReadFile(l.fs, filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading resume %s: %w", name, err)
		}

		text := Normalize(string(data))
		if text == "" {
			l.logger.Warn("resume is empty", zap.String(logger.FieldFileID, name))
		}
		resumes = append(resumes, models.Resume{FileID: name, Text: text})
	}

	if len(resumes) == 0 {
		return nil, errors.New("no resumes found in " + dir)
	}

	l.logger.Debug("resumes loaded", zap.String("dir", dir), zap.Int("count", len(resumes)))
	return resumes, nil
}

// Normalize converts line endings to LF, drops a leading byte order mark and
// trims surrounding whitespace.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}
