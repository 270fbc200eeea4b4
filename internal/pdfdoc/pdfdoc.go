package pdfdoc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	pdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"invex/internal/util"
)

var (
	ErrUnreadableDocument = errors.New("unreadable document")
	ErrWrite              = errors.New("document write failed")
)

var disableConfigDir sync.Once

// Document is an open source PDF. Page indices are 0-based.
type Document interface {
	PageCount() int
	PageText(index int) (string, error)
	Close() error
}

// Library reads page text with ledongthuc/pdf and assembles page subsets with
// pdfcpu.
type Library struct {
	conf *model.Configuration
}

func NewLibrary() *Library {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Library{conf: conf}
}

func (l *Library) Open(path string) (doc Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, filepath.Base(path), err)
	}
	// ledongthuc/pdf panics on some malformed trailers instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			_ = f.Close()
			doc = nil
			err = fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, filepath.Base(path), r)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, filepath.Base(path), err)
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, filepath.Base(path), err)
	}
	return &document{file: f, reader: r, pages: r.NumPage()}, nil
}

// WritePages copies the given pages of srcPath, in order, into a new PDF at dstPath.
func (l *Library) WritePages(srcPath string, pageIndices []int, dstPath string) error {
	if len(pageIndices) == 0 {
		return fmt.Errorf("%w: no pages selected", ErrWrite)
	}

	total, err := api.PageCountFile(srcPath)
	if err != nil {
		return fmt.Errorf("%w: page count %s: %v", ErrWrite, filepath.Base(srcPath), err)
	}
	for _, idx := range pageIndices {
		if idx < 0 || idx >= total {
			return fmt.Errorf("%w: page index %d out of range (pages=%d)", ErrWrite, idx, total)
		}
	}

	if err := api.TrimFile(srcPath, dstPath, PageSelection(pageIndices), l.conf); err != nil {
		_ = os.Remove(dstPath)
		return fmt.Errorf("%w: %s: %v", ErrWrite, filepath.Base(dstPath), err)
	}
	return nil
}

// CopyFile copies src to dst through a temp file in the destination folder so
// a failed copy never leaves a truncated dst behind.
func (l *Library) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return util.WriteFileAtomic(dst, in)
}

// PageSelection turns 0-based indices into pdfcpu's 1-based page selection
// expressions, folding consecutive runs into "a-b".
func PageSelection(pageIndices []int) []string {
	out := []string{}
	for i := 0; i < len(pageIndices); {
		start := pageIndices[i]
		end := start
		j := i + 1
		for j < len(pageIndices) && pageIndices[j] == end+1 {
			end = pageIndices[j]
			j++
		}
		if start == end {
			out = append(out, strconv.Itoa(start+1))
		} else {
			out = append(out, strconv.Itoa(start+1)+"-"+strconv.Itoa(end+1))
		}
		i = j
	}
	return out
}

type document struct {
	file   *os.File
	reader *pdf.Reader
	pages  int
}

func (d *document) PageCount() int {
	return d.pages
}

func (d *document) PageText(index int) (string, error) {
	if index < 0 || index >= d.pages {
		return "", fmt.Errorf("page index %d out of range (pages=%d)", index, d.pages)
	}
	p := d.reader.Page(index + 1)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", index+1, err)
	}
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}

func (d *document) Close() error {
	return d.file.Close()
}
