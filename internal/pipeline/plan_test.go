package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"invex/internal"
)

func TestOutputFilename(t *testing.T) {
	cases := []struct {
		name string
		meta internal.InvoiceMetadata
		want string
	}{
		{
			name: "plain",
			meta: internal.InvoiceMetadata{InvoiceNumber: "AB12-3456789", Date: "01-JAN-2025", CustomerName: "John Doe"},
			want: "INV-AB12-3456789-01-JAN-2025-John Doe.pdf",
		},
		{
			name: "forbidden characters",
			meta: internal.InvoiceMetadata{InvoiceNumber: "X1", Date: "NODATE", CustomerName: `A<B>C:D"E/F\G|H?I*J`},
			want: "INV-X1-NODATE-ABCDEFGHIJ.pdf",
		},
		{
			name: "sentinels",
			meta: internal.InvoiceMetadata{InvoiceNumber: internal.UnknownInvoiceNumber, Date: internal.UnknownDate, CustomerName: internal.UnknownCustomer},
			want: "INV-UNKNOWN-NODATE-UNKNOWN_CUSTOMER.pdf",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OutputFilename(tc.meta); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestOutputFilenameTruncatesRunes(t *testing.T) {
	name := strings.Repeat("É", 60)
	got := OutputFilename(internal.InvoiceMetadata{InvoiceNumber: "N", Date: "D", CustomerName: name})
	want := "INV-N-D-" + strings.Repeat("É", 50) + ".pdf"
	if got != want {
		t.Fatalf("got %q", got)
	}
	if OutputFilename(internal.InvoiceMetadata{InvoiceNumber: "N", Date: "D", CustomerName: name}) != got {
		t.Fatal("filename derivation must be deterministic")
	}
}

func TestPlanRecord(t *testing.T) {
	rec := internal.InvoiceRecord{Metadata: internal.InvoiceMetadata{InvoiceNumber: "AB12-3456789", Date: "01-JAN-2025", CustomerName: "John Doe"}}
	dest := "/out"
	path := filepath.Join(dest, "INV-AB12-3456789-01-JAN-2025-John Doe.pdf")
	present := func(p string) bool { return p == path }
	absent := func(string) bool { return false }

	if got := PlanRecord(rec, dest, false, present); got.Action != internal.ActionSkipDuplicate || got.Path != path {
		t.Fatalf("existing, no overwrite: %+v", got)
	}
	if got := PlanRecord(rec, dest, true, present); got.Action != internal.ActionWrite || got.Path != path {
		t.Fatalf("existing, overwrite: %+v", got)
	}
	if got := PlanRecord(rec, dest, false, absent); got.Action != internal.ActionWrite {
		t.Fatalf("absent: %+v", got)
	}
}

func TestPlanCopyUsesSourceName(t *testing.T) {
	dest := t.TempDir()
	got := PlanCopy("/in/Statement March.PDF", dest, false, nil)
	if got.Action != internal.ActionWrite || got.Path != filepath.Join(dest, "Statement March.PDF") {
		t.Fatalf("got %+v", got)
	}

	if err := os.WriteFile(got.Path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if again := PlanCopy("/in/Statement March.PDF", dest, false, nil); again.Action != internal.ActionSkipDuplicate {
		t.Fatalf("got %+v", again)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if FileExists(filepath.Join(dir, "missing.pdf")) {
		t.Fatal("missing file reported as present")
	}
	path := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Fatal("expected file to exist")
	}
}
