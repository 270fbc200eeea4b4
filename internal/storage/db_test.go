package storage

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "invex.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertEmailKeepsStatus(t *testing.T) {
	db := openTestDB(t)

	row, err := db.UpsertEmail("imap", "<1@example.com>", "Invoice", "billing@example.com", "2025-01-02T00:00:00Z", "h1", "/raw/h1.eml", EmailFetched)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateEmailStatus(row.ID, EmailProcessed); err != nil {
		t.Fatal(err)
	}

	again, err := db.UpsertEmail("imap", "<1@example.com>", "Invoice (fwd)", "billing@example.com", "2025-01-02T00:00:00Z", "h1", "/raw/h1.eml", EmailFetched)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != row.ID || again.Status != EmailProcessed || again.Subject != "Invoice (fwd)" {
		t.Fatalf("row=%+v", again)
	}

	pending, err := db.ListEmailsByStatus(EmailFetched, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending=%+v", pending)
	}
	if other, err := db.GetEmailByProviderMessageID("gmail", "<1@example.com>"); err != nil || other != nil {
		t.Fatalf("other provider row=%v err=%v", other, err)
	}
}

func TestInsertAttachmentDedupesByHash(t *testing.T) {
	db := openTestDB(t)
	email, err := db.UpsertEmail("gmail", "m1", "Invoice", "a@example.com", "", "h", "/raw/h.eml", EmailFetched)
	if err != nil {
		t.Fatal(err)
	}

	first, inserted, err := db.InsertAttachment(email.ID, "jan.pdf", "abc", "/src/abc-jan.pdf")
	if err != nil || !inserted {
		t.Fatalf("inserted=%v err=%v", inserted, err)
	}
	second, inserted, err := db.InsertAttachment(email.ID, "copy.pdf", "abc", "/src/abc-copy.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if inserted || second.ID != first.ID || second.SavedPath != "/src/abc-jan.pdf" {
		t.Fatalf("second=%+v inserted=%v", second, inserted)
	}

	got, err := db.GetAttachmentByHash("abc")
	if err != nil || got == nil || got.Filename != "jan.pdf" {
		t.Fatalf("row=%+v err=%v", got, err)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetMetadata("last_fetch")
	if err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("last_fetch", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("last_fetch", "b"); err != nil {
		t.Fatal(err)
	}
	v, err = db.GetMetadata("last_fetch")
	if err != nil || v == nil || *v != "b" {
		t.Fatalf("v=%v err=%v", v, err)
	}
}
