package pipeline

import (
	"regexp"

	"invex/internal"
	"invex/internal/util"
)

// fieldRule is one tier of a field lookup. Tiers are tried in order and the
// first pattern with a match wins.
type fieldRule struct {
	pattern   *regexp.Regexp
	normalize func(string) string
}

// Label separators accept any Unicode space; extracted PDF text often carries
// U+00A0 between a label and its value.
var (
	invoiceNumberRules = []fieldRule{
		{pattern: regexp.MustCompile(`Number[\s\p{Zs}]+([A-Z]{2,5}\d{2}-\d{7})`)},
		{pattern: regexp.MustCompile(`Number[\s\p{Zs}]+([A-Z0-9\-]+)`)},
	}
	invoiceDateRules = []fieldRule{
		{pattern: regexp.MustCompile(`Date[\s\p{Zs}]+(\d{2}-[A-Z]{3}-\d{4})`)},
	}
	customerNameRules = []fieldRule{
		{pattern: regexp.MustCompile(`(?s)Name[\s\p{Zs}]+(.+?)(?:\n|Address)`), normalize: util.NormalizeSpaces},
	}
	accountIDRules = []fieldRule{
		{pattern: regexp.MustCompile(`Account[\s\p{Zs}]+(\d+)`)},
	}
)

// ExtractMetadata parses the header fields of an invoice page. It never fails:
// a field without a match gets its sentinel value.
func ExtractMetadata(text string) internal.InvoiceMetadata {
	return internal.InvoiceMetadata{
		InvoiceNumber: applyRules(text, invoiceNumberRules, internal.UnknownInvoiceNumber),
		Date:          applyRules(text, invoiceDateRules, internal.UnknownDate),
		CustomerName:  applyRules(text, customerNameRules, internal.UnknownCustomer),
		AccountID:     applyRules(text, accountIDRules, internal.UnknownAccountID),
	}
}

func applyRules(text string, rules []fieldRule, sentinel string) string {
	for _, rule := range rules {
		m := rule.pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		value := m[1]
		if rule.normalize != nil {
			value = rule.normalize(value)
		}
		if value == "" {
			return sentinel
		}
		return value
	}
	return sentinel
}
