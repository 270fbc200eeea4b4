package util

import "testing"

func TestNormalizeSpaces(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "newlines", input: "John\n  Doe\t", want: "John Doe"},
		{name: "crlf", input: "  ACME\r\nLtd ", want: "ACME Ltd"},
		{name: "empty", input: " \n ", want: ""},
		{name: "non-breaking", input: "John\u00a0\u00a0Doe\u2009Jr", want: "John Doe Jr"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeSpaces(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("Müller GmbH", 6); got != "Müller" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("abc", 0); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestRemoveChars(t *testing.T) {
	if got := RemoveChars(`A<B>C:"D/E\F|G?H*`, `<>:"/\|?*`); got != "ABCDEFGH" {
		t.Fatalf("got %q", got)
	}
}

func TestSafeFileComponent(t *testing.T) {
	if got := SafeFileComponent("<abc@host>", 120); got != "_abc@host_" {
		t.Fatalf("got %q", got)
	}
}
