package pipeline

import (
	"invex/internal"
	"invex/internal/pdfdoc"
)

type DocumentOpener interface {
	Open(path string) (pdfdoc.Document, error)
}

// InspectFile segments one PDF without matching or writing anything.
func InspectFile(lib DocumentOpener, path string) ([]internal.InvoiceRecord, error) {
	doc, err := lib.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return Segment(doc, path)
}
