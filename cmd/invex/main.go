package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"invex/internal"
	"invex/internal/config"
	"invex/internal/connectors"
	"invex/internal/listener"
	"invex/internal/pdfdoc"
	"invex/internal/pipeline"
	"invex/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", cfg.SourceDir, "folder with source PDFs")
		dest := fs.String("dest", cfg.DestDir, "output folder")
		filterBy := fs.String("filter-by", cfg.FilterMode, "name|id|text")
		value := fs.String("value", cfg.FilterValue, "search value")
		unit := fs.String("unit", cfg.MatchUnit, "invoice|document")
		overwrite := fs.Bool("overwrite", cfg.Overwrite, "replace existing output files")
		from := fs.String("from", cfg.DateFrom, "earliest invoice date YYYY-MM-DD")
		to := fs.String("to", cfg.DateTo, "latest invoice date YYYY-MM-DD")
		report := fs.String("report", "", "optional xlsx run report path")
		_ = fs.Parse(os.Args[2:])

		cfg.SourceDir, cfg.DestDir = *source, *dest
		cfg.FilterMode, cfg.FilterValue, cfg.MatchUnit = *filterBy, *value, *unit
		cfg.Overwrite, cfg.DateFrom, cfg.DateTo = *overwrite, *from, *to
		req, err := pipeline.RequestFromConfig(cfg)
		must(err)

		svc := pipeline.NewExtractionService(pdfdoc.NewLibrary(), logger)
		summary, err := svc.Run(ctx, req, func(i, total int, name string) {
			fmt.Printf("[%d/%d] %s\n", i, total, name)
		})
		if summary.RunID == "" {
			must(err)
		}
		printSummary(summary)
		if strings.TrimSpace(*report) != "" {
			must(pipeline.ExportSummaryToXLSX(summary, *report))
			fmt.Printf("report written to %s\n", *report)
		}
		must(err)
	case "inspect":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "PDF file to inspect")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		records, err := pipeline.InspectFile(pdfdoc.NewLibrary(), *input)
		must(err)
		if len(records) == 0 {
			fmt.Println("no invoices detected")
			return
		}
		for i, rec := range records {
			m := rec.Metadata
			fmt.Printf("invoice %d pages=%s number=%s date=%s customer=%q account=%s file=%s\n",
				i+1, pageRange(rec.PageIndices), m.InvoiceNumber, m.Date, m.CustomerName, m.AccountID, pipeline.OutputFilename(m))
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("SOURCE_DIR", cfg.SourceDir))

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		conn, err := connectors.New(ctx, cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, cfg.SourceDir, conn, logger)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		previous := result.PreviousFetch
		if previous == "" {
			previous = "never"
		}
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d invoices=%d skipped=%d saved=%d previous=%s\n",
			*provider, result.Fetched, result.Stored, result.InvoiceMails, result.SkippedMails, len(result.SavedAttachments), previous)
	case "watch":
		var db *storage.DB
		if strings.TrimSpace(cfg.WatchMailProvider) != "" {
			db, err = storage.Open(cfg.DBPath)
			must(err)
			defer db.Close()
		}
		svc, err := listener.NewFromConfig(ctx, cfg, db, logger)
		must(err)
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func printSummary(s internal.RunSummary) {
	st := s.Stats
	if st.FilesScanned == 0 && !s.Aborted {
		fmt.Println("no PDF files found in source folder")
	}
	fmt.Printf("extraction done run=%s scanned=%d detected=%d matched=%d duplicates=%d date_filtered=%d errors=%d duration=%s\n",
		s.RunID, st.FilesScanned, st.InvoicesDetected, st.InvoicesMatched, st.SkippedDuplicate, st.SkippedDateFiltered, st.Errors, s.Duration.Round(time.Millisecond))
	if s.Aborted {
		fmt.Println("run stopped before all files were processed")
	}
	for _, name := range s.CreatedFiles() {
		fmt.Printf("  created %s\n", name)
	}
	for _, f := range s.Failures {
		fmt.Printf("  failed %s (%s): %s\n", f.File, f.Stage, f.Message)
	}
}

func pageRange(pages []int) string {
	return strings.Join(pdfdoc.PageSelection(pages), ",")
}

func usage() {
	fmt.Println("usage: invex <command>")
	fmt.Println("commands:")
	fmt.Println("  extract --source=./in --dest=./out --filter-by=name|id|text --value=... [--unit=invoice|document] [--overwrite] [--from=YYYY-MM-DD] [--to=YYYY-MM-DD] [--report=run.xlsx]")
	fmt.Println("  inspect --input=./in/batch.pdf")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
