package pipeline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"invex/internal/util"
)

type DetectResult struct {
	IsInvoice bool
	Score     float64
	Reason    string
}

var detectKeywords = []string{"invoice", "bill", "statement", "account", "payment due", "amount due", "remittance"}

// DetectInvoiceMail scores a message by invoice keywords in its subject and
// body and by the presence of PDF attachments.
func DetectInvoiceMail(subject, text, html string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	body := strings.ToLower(text + "\n" + HTMLText(html))

	hasPDF := false
	for _, name := range attachmentNames {
		if strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".pdf") {
			hasPDF = true
			break
		}
	}
	if !hasPDF {
		return DetectResult{Reason: "no_pdf_attachment"}
	}

	score := 0.3
	for _, kw := range detectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.25
		}
		if strings.Contains(body, kw) {
			score += 0.1
		}
	}
	if strings.Contains(body, strings.ToLower(boundaryMarker)) {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}

	isInvoice := score >= 0.5
	reason := "rules_negative"
	if isInvoice {
		reason = "rules_positive"
	}
	return DetectResult{IsInvoice: isInvoice, Score: score, Reason: reason}
}

// HTMLText returns the visible text of an HTML mail body.
func HTMLText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script,style,head").Remove()
	return util.NormalizeSpaces(doc.Text())
}
