package pipeline

import (
	"fmt"
	"strings"

	"invex/internal"
)

const (
	boundaryMarker = "Invoice Details"
	boundaryLabel  = "Number"
)

// PageSource is the read side of an open document.
type PageSource interface {
	PageCount() int
	PageText(index int) (string, error)
}

// IsBoundaryPage reports whether a page opens a new invoice header block.
func IsBoundaryPage(text string) bool {
	return strings.Contains(text, boundaryMarker) && strings.Contains(text, boundaryLabel)
}

// Segment splits a document into invoice records. Pages before the first
// boundary page belong to no invoice and are dropped.
func Segment(src PageSource, sourcePath string) ([]internal.InvoiceRecord, error) {
	var (
		records  []internal.InvoiceRecord
		pages    []int
		texts    []string
		metadata internal.InvoiceMetadata
	)

	flush := func() {
		if len(pages) == 0 {
			return
		}
		records = append(records, internal.InvoiceRecord{
			Metadata:    metadata,
			PageIndices: pages,
			SourcePath:  sourcePath,
			Text:        strings.Join(texts, "\n"),
		})
	}

	for i := 0; i < src.PageCount(); i++ {
		text, err := src.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i+1, err)
		}

		if IsBoundaryPage(text) {
			flush()
			pages = []int{i}
			texts = []string{text}
			metadata = ExtractMetadata(text)
			continue
		}
		if len(pages) > 0 {
			pages = append(pages, i)
			texts = append(texts, text)
		}
	}
	flush()

	return records, nil
}

// DocumentText joins the text of every page, for whole-document matching.
func DocumentText(src PageSource) (string, error) {
	parts := make([]string, 0, src.PageCount())
	for i := 0; i < src.PageCount(); i++ {
		text, err := src.PageText(i)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i+1, err)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}
