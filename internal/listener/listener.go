package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"invex/internal"
	"invex/internal/config"
	"invex/internal/connectors"
	"invex/internal/pdfdoc"
	"invex/internal/pipeline"
	"invex/internal/storage"
)

type Extractor interface {
	Run(ctx context.Context, req pipeline.RunRequest, onProgress pipeline.ProgressFunc) (internal.RunSummary, error)
}

type MailFetcher interface {
	FetchAndStore(ctx context.Context, label string, max int) (connectors.FetchResult, error)
}

type Options struct {
	Request      pipeline.RunRequest
	Debounce     time.Duration
	MailLabel    string
	MailMax      int
	MailInterval time.Duration
	AutoReport   bool
	ReportDir    string
}

// OptionsFromConfig maps the WATCH_* settings onto Options.
func OptionsFromConfig(cfg config.Config, req pipeline.RunRequest) Options {
	return Options{
		Request:      req,
		Debounce:     time.Duration(cfg.WatchDebounceMs) * time.Millisecond,
		MailLabel:    cfg.WatchMailLabel,
		MailMax:      cfg.WatchMailFetchMax,
		MailInterval: time.Duration(cfg.WatchMailIntervalSec) * time.Second,
		AutoReport:   cfg.WatchAutoReport,
		ReportDir:    cfg.ReportDir,
	}
}

// Service re-runs extraction whenever PDFs land in the source folder and,
// with a fetcher, pulls invoice mail into that folder on a timer. Every run
// happens on the Run goroutine, one at a time.
type Service struct {
	extractor Extractor
	fetcher   MailFetcher
	opts      Options
	logger    *slog.Logger
}

func NewService(extractor Extractor, fetcher MailFetcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: extractor, fetcher: fetcher, opts: opts, logger: logger}
}

func (s *Service) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(s.opts.Request.SourceDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.opts.Request.SourceDir, err)
	}

	if err := s.runExtraction(ctx, "initial"); errors.Is(err, pipeline.ErrConfiguration) {
		return err
	}

	trigger := make(chan struct{}, 1)
	fire := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	var mailTick <-chan time.Time
	if s.fetcher != nil && s.opts.MailInterval > 0 {
		ticker := time.NewTicker(s.opts.MailInterval)
		defer ticker.Stop()
		mailTick = ticker.C
		s.fetchMail(ctx)
	}

	s.logger.Info("watching", "source", s.opts.Request.SourceDir, "mail", s.fetcher != nil)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isPDFEvent(ev) {
				continue
			}
			s.logger.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			if s.opts.Debounce <= 0 {
				fire()
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(s.opts.Debounce, fire)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		case <-trigger:
			_ = s.runExtraction(ctx, "change")
		case <-mailTick:
			s.fetchMail(ctx)
		}
	}
}

func (s *Service) runExtraction(ctx context.Context, reason string) error {
	summary, err := s.extractor.Run(ctx, s.opts.Request, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("extraction failed", "reason", reason, "error", err)
		return err
	}
	s.logger.Info("extraction cycle done",
		"reason", reason,
		"run_id", summary.RunID,
		"matched", summary.Stats.InvoicesMatched,
		"duplicates", summary.Stats.SkippedDuplicate,
		"errors", summary.Stats.Errors,
	)
	if s.opts.AutoReport && summary.RunID != "" && summary.Stats.InvoicesMatched+summary.Stats.Errors > 0 {
		path := filepath.Join(s.opts.ReportDir, ReportFilename(summary))
		if err := pipeline.ExportSummaryToXLSX(summary, path); err != nil {
			s.logger.Error("report failed", "path", path, "error", err)
		}
	}
	return err
}

func (s *Service) fetchMail(ctx context.Context) {
	res, err := s.fetcher.FetchAndStore(ctx, s.opts.MailLabel, s.opts.MailMax)
	if err != nil {
		s.logger.Error("mail fetch failed", "error", err)
		return
	}
	s.logger.Info("mail fetch done", "fetched", res.Fetched, "invoice_mails", res.InvoiceMails, "saved", len(res.SavedAttachments), "previous_fetch", res.PreviousFetch)
}

func ReportFilename(summary internal.RunSummary) string {
	id := summary.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return "run-" + summary.StartedAt.Format("20060102-150405") + "-" + id + ".xlsx"
}

func isPDFEvent(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".pdf") {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

// NewFromConfig wires the extraction service, and the mail fetcher when
// WATCH_MAIL_PROVIDER is set, the way both CLI entry points need it.
func NewFromConfig(ctx context.Context, cfg config.Config, db *storage.DB, logger *slog.Logger) (*Service, error) {
	req, err := pipeline.RequestFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	extractor := pipeline.NewExtractionService(pdfdoc.NewLibrary(), logger)

	var fetcher MailFetcher
	if strings.TrimSpace(cfg.WatchMailProvider) != "" {
		if db == nil {
			return nil, errors.New("mail watching needs a database")
		}
		conn, err := connectors.New(ctx, cfg, cfg.WatchMailProvider)
		if err != nil {
			return nil, err
		}
		fetcher = connectors.NewFetchService(db, cfg.RawMailDir, cfg.SourceDir, conn, logger)
	}

	return NewService(extractor, fetcher, OptionsFromConfig(cfg, req), logger), nil
}
