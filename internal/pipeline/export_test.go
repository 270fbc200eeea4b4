package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"invex/internal"
)

func TestExportSummaryToXLSX(t *testing.T) {
	meta := internal.InvoiceMetadata{InvoiceNumber: "AB12-3456789", Date: "01-JAN-2025", CustomerName: "John Doe", AccountID: "10025"}
	summary := internal.RunSummary{
		RunID:     "run-1",
		StartedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Stats:     internal.RunStatistics{FilesScanned: 2, InvoicesDetected: 3, InvoicesMatched: 1, SkippedDuplicate: 1, Errors: 1},
		Outputs: []internal.OutputEntry{{
			Filename:    "INV-AB12-3456789-01-JAN-2025-John Doe.pdf",
			Path:        "/out/INV-AB12-3456789-01-JAN-2025-John Doe.pdf",
			SourcePath:  "/in/batch.pdf",
			PageIndices: []int{3, 4, 5},
			Metadata:    &meta,
		}},
		Failures: []internal.FileFailure{{File: "broken.pdf", Stage: "open", Message: "unreadable document"}},
	}

	out := filepath.Join(t.TempDir(), "reports", "run.xlsx")
	if err := ExportSummaryToXLSX(summary, out); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	checks := []struct {
		sheet, cell, want string
	}{
		{summarySheet, "B1", "run-1"},
		{summarySheet, "B3", "1500"},
		{summarySheet, "A7", "invoices_matched"},
		{summarySheet, "B7", "1"},
		{summarySheet, "B10", "1"},
		{outputsSheet, "A2", "INV-AB12-3456789-01-JAN-2025-John Doe.pdf"},
		{outputsSheet, "B2", "batch.pdf"},
		{outputsSheet, "C2", "4-6"},
		{outputsSheet, "F2", "John Doe"},
		{failuresSheet, "A2", "broken.pdf"},
		{failuresSheet, "B2", "open"},
	}
	for _, c := range checks {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Fatalf("%s!%s=%q want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestPageList(t *testing.T) {
	if got := pageList([]int{0, 2, 3}); got != "1,3-4" {
		t.Fatalf("got %q", got)
	}
}
