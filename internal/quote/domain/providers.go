package domain

import (
	"context"

	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
)

// RenderRequest carries everything needed to render one branded document:
// the quote, its lines, the slot whose figures apply, and the branding of
// the template holding that slot.
type RenderRequest struct {
	Quote    Quote
	Items    []QuoteItem
	Slot     int
	Template templatedomain.Template
	Logo     []byte
}

// DocumentRenderer produces the printable document for one branding slot.
type DocumentRenderer interface {
	RenderQuoteDocument(ctx context.Context, req RenderRequest) ([]byte, error)
}

// Attachment is a rendered document ready for delivery.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailSender delivers rendered documents to the customer. Failures are
// reported through DocsStatus and never undo the send transition.
type EmailSender interface {
	SendQuoteDocuments(ctx context.Context, to string, quote Quote, attachments []Attachment) error
}
