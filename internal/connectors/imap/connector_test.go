package imap

import (
	"reflect"
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

func TestNewest(t *testing.T) {
	ids := []uint32{3, 5, 8, 13}
	if got := newest(ids, 2); !reflect.DeepEqual(got, []uint32{8, 13}) {
		t.Fatalf("got %v", got)
	}
	if got := newest(ids, 10); len(got) != 4 {
		t.Fatalf("got %v", got)
	}
	if got := newest(ids, 0); len(got) != 4 {
		t.Fatalf("got %v", got)
	}
}

func TestToFetched(t *testing.T) {
	msg := &imap.Message{
		Uid:          42,
		InternalDate: time.Date(2025, 1, 1, 10, 0, 0, 0, time.FixedZone("EET", 2*3600)),
		Envelope: &imap.Envelope{
			Subject: "Invoice",
			From: []*imap.Address{
				{PersonalName: "Billing", MailboxName: "billing", HostName: "example.com"},
				{MailboxName: "noreply", HostName: "example.com"},
			},
		},
	}
	got := toFetched(msg, []byte("raw"))
	if got.MessageID != "imap-42" || got.Provider != Provider {
		t.Fatalf("got %+v", got)
	}
	if got.From != "Billing <billing@example.com>, noreply@example.com" {
		t.Fatalf("from=%q", got.From)
	}
	if got.ReceivedAt != "2025-01-01T08:00:00Z" {
		t.Fatalf("received=%q", got.ReceivedAt)
	}
}
