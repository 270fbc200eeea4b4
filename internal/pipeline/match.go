package pipeline

import (
	"strings"

	"invex/internal"
)

type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// MatchRecord applies the customer filter to one invoice record.
func (m *Matcher) MatchRecord(rec internal.InvoiceRecord, spec internal.FilterSpec) bool {
	switch spec.Mode {
	case internal.FilterByName:
		return strings.Contains(strings.ToUpper(rec.Metadata.CustomerName), strings.ToUpper(spec.SearchValue))
	case internal.FilterByAccount:
		return spec.SearchValue == rec.Metadata.AccountID
	case internal.FilterByText:
		return containsFold(rec.Text, spec.SearchValue)
	default:
		return false
	}
}

// MatchText is the whole-document test: every filter mode reduces to a
// case-insensitive substring search over the document text.
func (m *Matcher) MatchText(documentText string, spec internal.FilterSpec) bool {
	return containsFold(documentText, spec.SearchValue)
}

// PassesDateGate reports whether text carries a date inside the filter's
// range. Without a date filter everything passes; an unparseable date fails.
func (m *Matcher) PassesDateGate(text string, spec internal.FilterSpec) bool {
	if spec.DateFilter == nil {
		return true
	}
	date, ok := ParseFilterDate(text)
	if !ok {
		return false
	}
	return InDateRange(date, spec.DateFilter.From, spec.DateFilter.To)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
