package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"invex/internal"
	"invex/internal/pdfdoc"
)

const (
	summarySheet  = "Summary"
	outputsSheet  = "Outputs"
	failuresSheet = "Failures"
)

// ExportSummaryToXLSX writes a run report with one sheet for the counters,
// one row per created file and one row per failed file.
func ExportSummaryToXLSX(summary internal.RunSummary, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	st := summary.Stats
	summaryRows := [][]any{
		{"run_id", summary.RunID},
		{"started_at", summary.StartedAt.Format("2006-01-02 15:04:05")},
		{"duration_ms", summary.Duration.Milliseconds()},
		{"aborted", summary.Aborted},
		{"files_scanned", st.FilesScanned},
		{"invoices_detected", st.InvoicesDetected},
		{"invoices_matched", st.InvoicesMatched},
		{"skipped_duplicate", st.SkippedDuplicate},
		{"skipped_date_filtered", st.SkippedDateFiltered},
		{"errors", st.Errors},
	}
	for i, row := range summaryRows {
		setRow(f, summarySheet, i+1, row)
	}

	if _, err := f.NewSheet(outputsSheet); err != nil {
		return err
	}
	setRow(f, outputsSheet, 1, []any{"filename", "source", "pages", "invoice_number", "date", "customer_name", "account_id", "path"})
	for i, out := range summary.Outputs {
		meta := internal.InvoiceMetadata{}
		if out.Metadata != nil {
			meta = *out.Metadata
		}
		setRow(f, outputsSheet, i+2, []any{
			out.Filename,
			filepath.Base(out.SourcePath),
			pageList(out.PageIndices),
			meta.InvoiceNumber,
			meta.Date,
			meta.CustomerName,
			meta.AccountID,
			out.Path,
		})
	}

	if _, err := f.NewSheet(failuresSheet); err != nil {
		return err
	}
	setRow(f, failuresSheet, 1, []any{"file", "stage", "message"})
	for i, fail := range summary.Failures {
		setRow(f, failuresSheet, i+2, []any{fail.File, fail.Stage, fail.Message})
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func setRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// pageList renders 0-based indices as the 1-based page numbers a reader sees.
func pageList(pages []int) string {
	return strings.Join(pdfdoc.PageSelection(pages), ",")
}
