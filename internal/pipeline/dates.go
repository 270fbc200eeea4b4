package pipeline

import (
	"regexp"
	"time"

	"invex/internal/util"
)

// datePattern pairs a candidate pattern with the layouts tried on each
// candidate it finds.
type datePattern struct {
	pattern *regexp.Regexp
	layouts []string
}

// The date gate accepts more formats than the strict "Date" field rule.
var filterDatePatterns = []datePattern{
	{
		pattern: regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b`),
		layouts: []string{"2/1/2006", "2-1-2006", "1/2/2006", "1-2-2006"},
	},
	{
		pattern: regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
		layouts: []string{"2006-1-2", "2006/1/2"},
	},
	{
		pattern: regexp.MustCompile(`(?i)\b\d{1,2}[\s\p{Zs}-]+(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)[\s\p{Zs}-]+\d{4}\b`),
		layouts: []string{"2 January 2006", "2 Jan 2006"},
	},
}

var reDateSeparators = regexp.MustCompile(`[\s\p{Zs}-]+`)

// ParseFilterDate finds the first date in text for the date-range gate. Only
// the first pattern that matches anything is used; within it the first
// candidate that parses wins.
func ParseFilterDate(text string) (time.Time, bool) {
	for i, dp := range filterDatePatterns {
		candidates := dp.pattern.FindAllString(text, -1)
		if len(candidates) == 0 {
			continue
		}
		for _, candidate := range candidates {
			value := candidate
			if i == len(filterDatePatterns)-1 {
				value = reDateSeparators.ReplaceAllString(util.NormalizeSpaces(candidate), " ")
			}
			for _, layout := range dp.layouts {
				if parsed, err := time.Parse(layout, value); err == nil {
					return parsed, true
				}
			}
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

// InDateRange compares by calendar day, both ends inclusive.
func InDateRange(date, from, to time.Time) bool {
	d := dayOf(date)
	return !d.Before(dayOf(from)) && !d.After(dayOf(to))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
