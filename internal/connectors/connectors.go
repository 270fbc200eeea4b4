package connectors

import (
	"context"
	"fmt"
	"strings"

	"invex/internal"
	"invex/internal/config"
	"invex/internal/connectors/gmail"
	"invex/internal/connectors/imap"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

// New builds the connector for a provider name (gmail or imap).
func New(ctx context.Context, cfg config.Config, provider string) (MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case gmail.Provider:
		return gmail.NewConnector(ctx, cfg)
	case imap.Provider:
		return imap.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %q", provider)
	}
}
