package pipeline

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"

	"invex/internal"
)

type MailContent struct {
	Subject         string
	Text            string
	HTML            string
	AttachmentNames []string
	PDFs            []internal.MailAttachment
}

// ParseMail decodes a raw RFC 822 message and collects its PDF parts, whether
// they arrive as attachments or as inline parts.
func ParseMail(raw []byte) (MailContent, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MailContent{}, err
	}

	out := MailContent{
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
		HTML:    env.HTML,
	}
	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, part := range parts {
		filename := strings.TrimSpace(part.FileName)
		if filename == "" {
			filename = "attachment"
		}
		out.AttachmentNames = append(out.AttachmentNames, filename)
		if !isPDFPart(filename, part.ContentType) {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
			filename += ".pdf"
		}
		out.PDFs = append(out.PDFs, internal.MailAttachment{Filename: filename, Content: part.Content})
	}
	return out, nil
}

func isPDFPart(filename, contentType string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf") || strings.EqualFold(contentType, "application/pdf")
}
