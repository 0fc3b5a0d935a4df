package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"docdesk/internal/csvexport"
	"docdesk/internal/domain"
)

const (
	summarySheet = "Summary"
	jobsSheet    = "Jobs"
)

// BatchWorkbook builds a spreadsheet snapshot of batch progress: a summary sheet and one row
// per constituent job. It is a view of the cached snapshot, not a service export.
func BatchWorkbook(b *domain.Batch) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(jobsSheet); err != nil {
		return nil, fmt.Errorf("create jobs sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	p := b.Progress
	summary := [][2]any{
		{"Batch", b.ID},
		{"Name", Str(b.Name)},
		{"Client", Str(b.ClientID)},
		{"Status", string(b.Status)},
		{"Total", p.Total},
		{"Completed", p.Completed},
		{"Failed", p.Failed},
		{"Processing", p.Processing},
		{"Completion %", CompletionPercent(p)},
	}
	for i, kv := range summary {
		row := i + 1
		_ = f.SetCellValue(summarySheet, cell(1, row), kv[0])
		_ = f.SetCellValue(summarySheet, cell(2, row), kv[1])
	}
	_ = f.SetCellStyle(summarySheet, "A1", cell(1, len(summary)), bold)
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 40)

	headers := []string{"Job ID", "Filename", "Document Type", "Status"}
	for i, h := range headers {
		_ = f.SetCellValue(jobsSheet, cell(i+1, 1), h)
	}
	_ = f.SetCellStyle(jobsSheet, "A1", cell(len(headers), 1), bold)

	for i := range b.Jobs {
		j := &b.Jobs[i]
		row := i + 2
		_ = f.SetCellValue(jobsSheet, cell(1, row), OrPlaceholder(j.ID))
		_ = f.SetCellValue(jobsSheet, cell(2, row), OrPlaceholder(j.Filename))
		_ = f.SetCellValue(jobsSheet, cell(3, row), Str(j.DocType))
		_ = f.SetCellValue(jobsSheet, cell(4, row), string(j.Status))
	}
	_ = f.SetColWidth(jobsSheet, "A", "A", 38)
	_ = f.SetColWidth(jobsSheet, "B", "B", 36)
	_ = f.SetColWidth(jobsSheet, "C", "D", 18)

	if len(b.Jobs) > 0 {
		_ = f.AutoFilter(jobsSheet, "A1:"+cell(len(headers), len(b.Jobs)+1), nil)
	}
	return f, nil
}

// WriteBatchWorkbook streams the workbook for b to w.
func WriteBatchWorkbook(w io.Writer, b *domain.Batch) error {
	f, err := BatchWorkbook(b)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// BatchWorkbookName returns the download name of the workbook for b.
func BatchWorkbookName(b *domain.Batch) string {
	label := b.ID
	if b.Name != nil && strings.TrimSpace(*b.Name) != "" {
		label = *b.Name
	}
	label = csvexport.SanitizeFilename(label)
	if label == "" {
		label = "batch"
	}
	return "batch_" + label + "_progress.xlsx"
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
