// Package csvexport writes the locally cached job list as CSV. Service-rendered exports are
// downloaded byte for byte elsewhere; this is only a snapshot of what the client has seen.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docdesk/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Job ID",
	"Filename",
	"Status",
	"Declared Type",
	"Detected Type",
	"Type Confidence",
	"Created At",
}

// Writer wraps csv.Writer for exporting job snapshots as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteJobs converts job snapshots to CSV rows and writes them.
func (w *Writer) WriteJobs(jobs []domain.Job) error {
	for i := range jobs {
		if err := w.csv.Write(jobToRow(&jobs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteAll writes the BOM, header and jobs, then flushes.
func WriteAll(out io.Writer, jobs []domain.Job) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteJobs(jobs); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// jobToRow converts a single job to a row. Unknown values are left empty.
func jobToRow(job *domain.Job) []string {
	row := make([]string, len(columns))
	meta := job.MetaInfo()

	row[0] = job.ID
	row[1] = deref(job.Filename)
	row[2] = string(job.Status)
	row[3] = deref(job.DocType)
	row[4] = deref(meta.DetectedDocType)
	if meta.DocTypeConfidence != nil {
		row[5] = strconv.FormatFloat(*meta.DocTypeConfidence, 'f', 2, 64)
	}
	if !job.CreatedAt.IsZero() {
		row[6] = job.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a label for use in a file name. Replaces non-alphanumeric chars
// (except - _) with _, collapses consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_label}_{YYYY-MM-DD}.csv.
func BuildFilename(label string, at time.Time) string {
	sanitized := SanitizeFilename(label)
	if sanitized == "" {
		sanitized = "jobs"
	}
	return fmt.Sprintf("%s_%s.csv", sanitized, at.Format("2006-01-02"))
}
