package pipeline

import (
	"errors"
	"os"
	"path/filepath"

	"invex/internal"
	"invex/internal/util"
)

const (
	forbiddenFilenameChars = `<>:"/\|?*`
	maxCustomerNameRunes   = 50
)

// ExistsFunc reports whether a file is already present at path.
type ExistsFunc func(path string) bool

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

func SanitizeCustomerName(name string) string {
	return util.TruncateRunes(util.RemoveChars(name, forbiddenFilenameChars), maxCustomerNameRunes)
}

// OutputFilename derives INV-<number>-<date>-<customer>.pdf. Two invoices with
// the same derived name collide; the overwrite flag decides which one stays.
func OutputFilename(meta internal.InvoiceMetadata) string {
	return "INV-" + meta.InvoiceNumber + "-" + meta.Date + "-" + SanitizeCustomerName(meta.CustomerName) + ".pdf"
}

func PlanRecord(rec internal.InvoiceRecord, destRoot string, overwrite bool, exists ExistsFunc) internal.ExtractionResult {
	return planPath(filepath.Join(destRoot, OutputFilename(rec.Metadata)), overwrite, exists)
}

// PlanCopy plans a whole-document copy, keeping the source file name.
func PlanCopy(srcPath, destRoot string, overwrite bool, exists ExistsFunc) internal.ExtractionResult {
	return planPath(filepath.Join(destRoot, filepath.Base(srcPath)), overwrite, exists)
}

func planPath(path string, overwrite bool, exists ExistsFunc) internal.ExtractionResult {
	if exists == nil {
		exists = FileExists
	}
	if !overwrite && exists(path) {
		return internal.ExtractionResult{Action: internal.ActionSkipDuplicate, Path: path}
	}
	return internal.ExtractionResult{Action: internal.ActionWrite, Path: path}
}
