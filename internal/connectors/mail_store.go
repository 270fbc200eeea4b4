package connectors

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"invex/internal"
	"invex/internal/storage"
	"invex/internal/util"
)

const maxAttachmentNameRunes = 80

type MailStoreService struct {
	db         *storage.DB
	rawMailDir string
	sourceDir  string
}

func NewMailStoreService(db *storage.DB, rawMailDir, sourceDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir, sourceDir: sourceDir}
}

// Store keeps the raw message under rawMailDir, named by content hash, and
// upserts its row.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.EmailRow, error) {
	hash := contentHash(msg.Raw)

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.EmailRow{}, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.EmailRow{}, err
		}
	}

	return s.db.UpsertEmail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, storage.EmailFetched)
}

// SaveAttachment drops a PDF into the source folder as <hash8>-<name>.pdf.
// Bytes seen before are not written again; saved reports whether a new file
// appeared.
func (s *MailStoreService) SaveAttachment(emailID int, att internal.MailAttachment) (row internal.AttachmentRow, saved bool, err error) {
	hash := contentHash(att.Content)
	if existing, err := s.db.GetAttachmentByHash(hash); err != nil {
		return internal.AttachmentRow{}, false, err
	} else if existing != nil {
		return *existing, false, nil
	}

	if err := os.MkdirAll(s.sourceDir, 0o755); err != nil {
		return internal.AttachmentRow{}, false, err
	}
	path := filepath.Join(s.sourceDir, AttachmentFilename(hash, att.Filename))
	if err := util.WriteFileAtomic(path, bytes.NewReader(att.Content)); err != nil {
		return internal.AttachmentRow{}, false, err
	}

	row, inserted, err := s.db.InsertAttachment(emailID, att.Filename, hash, path)
	if err != nil {
		return internal.AttachmentRow{}, false, err
	}
	return row, inserted, nil
}

func AttachmentFilename(hash, name string) string {
	base := filepath.Base(name)
	base = base[:len(base)-len(filepath.Ext(base))]
	base = util.SafeFileComponent(base, maxAttachmentNameRunes)
	if base == "" {
		base = "attachment"
	}
	prefix := hash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return prefix + "-" + base + ".pdf"
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
