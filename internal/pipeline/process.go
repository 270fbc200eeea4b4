package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"invex/internal"
	"invex/internal/pdfdoc"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrRunInProgress = errors.New("extraction run already in progress")
)

type RunState string

const (
	StateIdle       RunState = "idle"
	StateScanning   RunState = "scanning"
	StateProcessing RunState = "processing"
	StateFinalizing RunState = "finalizing"
)

// DocumentLibrary is the document access the service needs; *pdfdoc.Library
// implements it.
type DocumentLibrary interface {
	Open(path string) (pdfdoc.Document, error)
	WritePages(srcPath string, pageIndices []int, dstPath string) error
	CopyFile(src, dst string) error
}

type RunRequest struct {
	SourceDir string
	DestDir   string
	Filter    internal.FilterSpec
	Overwrite bool
	Unit      internal.MatchUnit
}

// ProgressFunc receives the 1-based index of the file about to be processed.
type ProgressFunc func(fileIndex, total int, filename string)

type ExtractionService struct {
	lib     DocumentLibrary
	matcher *Matcher
	exists  ExistsFunc
	logger  *slog.Logger

	mu    sync.Mutex
	state RunState
}

func NewExtractionService(lib DocumentLibrary, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		lib:     lib,
		matcher: NewMatcher(),
		exists:  FileExists,
		logger:  logger,
		state:   StateIdle,
	}
}

func (s *ExtractionService) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ExtractionService) setState(state RunState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *ExtractionService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return false
	}
	s.state = StateScanning
	return true
}

// Run scans req.SourceDir for PDFs and extracts every invoice (or whole
// document) matching req.Filter into req.DestDir. Only configuration problems
// fail the run; per-file problems are counted and recorded in the summary.
// A cancelled ctx stops the run between files and returns the partial summary
// together with ctx.Err().
func (s *ExtractionService) Run(ctx context.Context, req RunRequest, onProgress ProgressFunc) (internal.RunSummary, error) {
	if !s.acquire() {
		return internal.RunSummary{}, ErrRunInProgress
	}
	defer s.setState(StateIdle)

	summary := internal.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := s.logger.With("run_id", summary.RunID)

	if err := validateRequest(req); err != nil {
		return internal.RunSummary{}, err
	}

	files, err := listSourceFiles(req.SourceDir)
	if err != nil {
		return internal.RunSummary{}, fmt.Errorf("%w: list source folder: %v", ErrConfiguration, err)
	}
	logger.Info("extraction started", "source", req.SourceDir, "dest", req.DestDir, "files", len(files), "mode", req.Filter.Mode, "unit", req.Unit)

	s.setState(StateProcessing)
	r := &run{svc: s, req: req, summary: &summary, logger: logger}
	var runErr error
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			summary.Aborted = true
			runErr = err
			logger.Warn("extraction stopped", "processed", i, "files", len(files))
			break
		}
		if onProgress != nil {
			onProgress(i+1, len(files), filepath.Base(path))
		}
		summary.Stats.FilesScanned++
		r.processFile(path)
	}

	s.setState(StateFinalizing)
	summary.Duration = time.Since(summary.StartedAt)
	st := summary.Stats
	logger.Info("extraction finished",
		"scanned", st.FilesScanned,
		"detected", st.InvoicesDetected,
		"matched", st.InvoicesMatched,
		"duplicates", st.SkippedDuplicate,
		"date_filtered", st.SkippedDateFiltered,
		"errors", st.Errors,
		"aborted", summary.Aborted,
	)
	return summary, runErr
}

func validateRequest(req RunRequest) error {
	if strings.TrimSpace(req.SourceDir) == "" {
		return fmt.Errorf("%w: source folder is required", ErrConfiguration)
	}
	info, err := os.Stat(req.SourceDir)
	if err != nil {
		return fmt.Errorf("%w: source folder: %v", ErrConfiguration, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: source %s is not a folder", ErrConfiguration, req.SourceDir)
	}
	if strings.TrimSpace(req.DestDir) == "" {
		return fmt.Errorf("%w: destination folder is required", ErrConfiguration)
	}
	if strings.TrimSpace(req.Filter.SearchValue) == "" {
		return fmt.Errorf("%w: filter value is required", ErrConfiguration)
	}
	switch req.Filter.Mode {
	case internal.FilterByName, internal.FilterByAccount, internal.FilterByText:
	default:
		return fmt.Errorf("%w: unknown filter mode %q", ErrConfiguration, req.Filter.Mode)
	}
	switch req.Unit {
	case internal.UnitInvoice, internal.UnitDocument:
	default:
		return fmt.Errorf("%w: unknown match unit %q", ErrConfiguration, req.Unit)
	}
	if df := req.Filter.DateFilter; df != nil && dayOf(df.From).After(dayOf(df.To)) {
		return fmt.Errorf("%w: date range starts after it ends", ErrConfiguration)
	}
	if err := os.MkdirAll(req.DestDir, 0o755); err != nil {
		return fmt.Errorf("%w: destination folder: %v", ErrConfiguration, err)
	}
	if err := checkWritable(req.DestDir); err != nil {
		return fmt.Errorf("%w: destination folder is not writable: %v", ErrConfiguration, err)
	}
	return nil
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".invex-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// listSourceFiles returns the .pdf files of dir in name order.
func listSourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

type run struct {
	svc     *ExtractionService
	req     RunRequest
	summary *internal.RunSummary
	logger  *slog.Logger
}

func (r *run) fail(path, stage string, err error) {
	r.summary.Stats.Errors++
	r.summary.Failures = append(r.summary.Failures, internal.FileFailure{
		File:    filepath.Base(path),
		Stage:   stage,
		Message: err.Error(),
	})
	r.logger.Error("file failed", "file", filepath.Base(path), "stage", stage, "error", err)
}

func (r *run) processFile(path string) {
	doc, err := r.svc.lib.Open(path)
	if err != nil {
		r.fail(path, "open", err)
		return
	}
	defer doc.Close()

	if r.req.Unit == internal.UnitDocument {
		r.processDocument(path, doc)
		return
	}
	r.processRecords(path, doc)
}

func (r *run) processRecords(path string, doc pdfdoc.Document) {
	records, err := Segment(doc, path)
	if err != nil {
		r.fail(path, "segment", err)
		return
	}
	r.summary.Stats.InvoicesDetected += len(records)
	r.logger.Debug("document segmented", "file", filepath.Base(path), "invoices", len(records))

	m := r.svc.matcher
	for _, rec := range records {
		if !m.MatchRecord(rec, r.req.Filter) {
			continue
		}
		if !m.PassesDateGate(rec.Text, r.req.Filter) {
			r.summary.Stats.SkippedDateFiltered++
			r.logger.Debug("invoice skipped", "file", filepath.Base(path), "invoice", rec.Metadata.InvoiceNumber, "action", internal.ActionSkipDateFiltered)
			continue
		}

		plan := PlanRecord(rec, r.req.DestDir, r.req.Overwrite, r.svc.exists)
		if plan.Action == internal.ActionSkipDuplicate {
			r.summary.Stats.SkippedDuplicate++
			r.logger.Debug("invoice skipped", "file", filepath.Base(path), "invoice", rec.Metadata.InvoiceNumber, "action", plan.Action, "path", plan.Path)
			continue
		}
		if err := r.svc.lib.WritePages(path, rec.PageIndices, plan.Path); err != nil {
			r.fail(path, "write", err)
			continue
		}

		meta := rec.Metadata
		r.record(path, plan.Path, rec.PageIndices, &meta)
		r.logger.Info("invoice extracted", "file", filepath.Base(path), "invoice", meta.InvoiceNumber, "path", plan.Path)
	}
}

func (r *run) processDocument(path string, doc pdfdoc.Document) {
	text, err := DocumentText(doc)
	if err != nil {
		r.fail(path, "read", err)
		return
	}

	m := r.svc.matcher
	if !m.MatchText(text, r.req.Filter) {
		return
	}
	if !m.PassesDateGate(text, r.req.Filter) {
		r.summary.Stats.SkippedDateFiltered++
		r.logger.Debug("document skipped", "file", filepath.Base(path), "action", internal.ActionSkipDateFiltered)
		return
	}

	plan := PlanCopy(path, r.req.DestDir, r.req.Overwrite, r.svc.exists)
	if plan.Action == internal.ActionSkipDuplicate {
		r.summary.Stats.SkippedDuplicate++
		r.logger.Debug("document skipped", "file", filepath.Base(path), "action", plan.Action, "path", plan.Path)
		return
	}
	if err := r.svc.lib.CopyFile(path, plan.Path); err != nil {
		r.fail(path, "copy", err)
		return
	}

	pages := make([]int, doc.PageCount())
	for i := range pages {
		pages[i] = i
	}
	r.record(path, plan.Path, pages, nil)
	r.logger.Info("document copied", "file", filepath.Base(path), "path", plan.Path)
}

func (r *run) record(src, dst string, pages []int, meta *internal.InvoiceMetadata) {
	r.summary.Stats.InvoicesMatched++
	r.summary.Outputs = append(r.summary.Outputs, internal.OutputEntry{
		Filename:    filepath.Base(dst),
		Path:        dst,
		SourcePath:  src,
		PageIndices: pages,
		Metadata:    meta,
	})
}
