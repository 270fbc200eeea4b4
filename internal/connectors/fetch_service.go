package connectors

import (
	"context"
	"log/slog"
	"os"
	"time"

	"invex/internal"
	"invex/internal/pipeline"
	"invex/internal/storage"
)

// LastFetchKey holds the time of the last completed fetch in the metadata table.
const LastFetchKey = "mail.last_fetch"

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
	logger    *slog.Logger
}

type FetchResult struct {
	Fetched          int
	Stored           int
	InvoiceMails     int
	SkippedMails     int
	SavedAttachments []string
	// PreviousFetch is the time of the fetch before this one, empty on the first.
	PreviousFetch string
}

func NewFetchService(db *storage.DB, rawMailDir, sourceDir string, connector MailConnector, logger *slog.Logger) *FetchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir, sourceDir),
		logger:    logger,
	}
}

// FetchAndStore pulls new mail, records it, and drops the PDF attachments of
// invoice mail into the source folder. Mail already processed or skipped is
// not looked at again.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	previous, err := s.db.GetMetadata(LastFetchKey)
	if err != nil {
		return FetchResult{}, err
	}
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	if previous != nil {
		res.PreviousFetch = *previous
	}
	for _, msg := range messages {
		if _, err := s.store.Store(msg); err != nil {
			return res, err
		}
		res.Stored++
	}

	pending, err := s.db.ListEmailsByStatus(storage.EmailFetched, max)
	if err != nil {
		return res, err
	}
	for _, email := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		saved, isInvoice, err := s.processEmail(email)
		if err != nil {
			s.logger.Error("mail processing failed", "message_id", email.MessageID, "error", err)
			_ = s.db.UpdateEmailStatus(email.ID, storage.EmailFailed)
			continue
		}
		if !isInvoice {
			res.SkippedMails++
			continue
		}
		res.InvoiceMails++
		res.SavedAttachments = append(res.SavedAttachments, saved...)
	}
	if err := s.db.SetMetadata(LastFetchKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return res, err
	}
	return res, nil
}

func (s *FetchService) processEmail(email internal.EmailRow) (saved []string, isInvoice bool, err error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return nil, false, err
	}
	mail, err := pipeline.ParseMail(raw)
	if err != nil {
		return nil, false, err
	}

	detect := pipeline.DetectInvoiceMail(firstNonEmpty(mail.Subject, email.Subject), mail.Text, mail.HTML, mail.AttachmentNames)
	if !detect.IsInvoice {
		s.logger.Debug("mail skipped", "message_id", email.MessageID, "score", detect.Score, "reason", detect.Reason)
		return nil, false, s.db.UpdateEmailStatus(email.ID, storage.EmailSkipped)
	}

	for _, att := range mail.PDFs {
		row, isNew, err := s.store.SaveAttachment(email.ID, att)
		if err != nil {
			return nil, true, err
		}
		if isNew {
			saved = append(saved, row.SavedPath)
			s.logger.Info("attachment saved", "message_id", email.MessageID, "path", row.SavedPath)
		}
	}
	return saved, true, s.db.UpdateEmailStatus(email.ID, storage.EmailProcessed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
