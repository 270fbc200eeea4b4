package listener

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"invex/internal"
	"invex/internal/connectors"
	"invex/internal/pipeline"
)

type countingExtractor struct {
	runs chan pipeline.RunRequest
}

func (e *countingExtractor) Run(ctx context.Context, req pipeline.RunRequest, _ pipeline.ProgressFunc) (internal.RunSummary, error) {
	e.runs <- req
	return internal.RunSummary{RunID: "run"}, nil
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) FetchAndStore(ctx context.Context, label string, max int) (connectors.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return connectors.FetchResult{}, nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitRun(t *testing.T, runs <-chan pipeline.RunRequest) pipeline.RunRequest {
	t.Helper()
	select {
	case req := <-runs:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("no extraction run")
	}
	return pipeline.RunRequest{}
}

func TestServiceRunsOnNewPDF(t *testing.T) {
	src := t.TempDir()
	ex := &countingExtractor{runs: make(chan pipeline.RunRequest, 8)}
	opts := Options{
		Request:  pipeline.RunRequest{SourceDir: src, DestDir: t.TempDir()},
		Debounce: 50 * time.Millisecond,
	}
	svc := NewService(ex, nil, opts, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	if req := waitRun(t, ex.runs); req.SourceDir != src {
		t.Fatalf("req=%+v", req)
	}

	if err := os.WriteFile(filepath.Join(src, "batch.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitRun(t, ex.runs)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServiceFetchesMail(t *testing.T) {
	ex := &countingExtractor{runs: make(chan pipeline.RunRequest, 8)}
	fetcher := &countingFetcher{}
	opts := Options{
		Request:      pipeline.RunRequest{SourceDir: t.TempDir()},
		MailInterval: 20 * time.Millisecond,
		MailLabel:    "INBOX",
		MailMax:      5,
	}
	svc := NewService(ex, fetcher, opts, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()
	waitRun(t, ex.runs)

	deadline := time.Now().Add(5 * time.Second)
	for fetcher.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("fetch calls=%d", fetcher.count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIsPDFEvent(t *testing.T) {
	cases := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/in/A.PDF", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "/in/.invex-123", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/in/a.txt", Op: fsnotify.Create}, false},
	}
	for _, tc := range cases {
		if got := isPDFEvent(tc.ev); got != tc.want {
			t.Fatalf("%v: got %v", tc.ev, got)
		}
	}
}

func TestReportFilename(t *testing.T) {
	s := internal.RunSummary{RunID: "0123456789ab", StartedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)}
	if got := ReportFilename(s); got != "run-20250304-050607-01234567.xlsx" {
		t.Fatalf("got %q", got)
	}
}
