package config

import (
	"testing"
	"time"

	"invex/internal"
)

func TestFilterSpecWithoutDates(t *testing.T) {
	cfg := Config{FilterMode: " NAME ", FilterValue: " doe "}
	spec, err := cfg.FilterSpec()
	if err != nil {
		t.Fatal(err)
	}
	if spec.Mode != internal.FilterByName || spec.SearchValue != "doe" || spec.DateFilter != nil {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestFilterSpecDates(t *testing.T) {
	cfg := Config{FilterMode: "id", FilterValue: "1002", DateFrom: "2025-01-01", DateTo: "2025-03-31"}
	spec, err := cfg.FilterSpec()
	if err != nil {
		t.Fatal(err)
	}
	if spec.DateFilter == nil {
		t.Fatal("date filter missing")
	}
	if !spec.DateFilter.From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from=%v", spec.DateFilter.From)
	}
	if !spec.DateFilter.To.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to=%v", spec.DateFilter.To)
	}
}

func TestFilterSpecOpenEnded(t *testing.T) {
	spec, err := Config{FilterValue: "x", DateFrom: "2024-06-01"}.FilterSpec()
	if err != nil {
		t.Fatal(err)
	}
	if spec.DateFilter == nil || spec.DateFilter.To.Year() != 9999 {
		t.Fatalf("unexpected range: %+v", spec.DateFilter)
	}
}

func TestFilterSpecBadDate(t *testing.T) {
	if _, err := (Config{DateTo: "31/12/2025"}).FilterSpec(); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestRequire(t *testing.T) {
	cfg := Config{}
	if err := cfg.Require("IMAP_HOST", "  "); err == nil {
		t.Fatal("expected error")
	}
	if err := cfg.Require("IMAP_HOST", "mail.example.com"); err != nil {
		t.Fatal(err)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("INVEX_TEST_BOOL", "yes")
	if !getEnvBool("INVEX_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("INVEX_TEST_BOOL", "maybe")
	if getEnvBool("INVEX_TEST_BOOL", false) {
		t.Fatal("expected fallback")
	}
}
