// Package email delivers rendered quote documents over SMTP.
package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/smallbiznis/cotiza/internal/config"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"go.uber.org/zap"
)

type Sender struct {
	log      *zap.Logger
	host     string
	port     int
	username string
	password string
	from     string
}

// New builds the SMTP sender. Without a configured host it returns nil and
// quotes are sent without customer delivery.
func New(cfg config.Config, log *zap.Logger) quotedomain.EmailSender {
	log = log.Named("providers.email")
	if cfg.SMTPHost == "" {
		log.Warn("smtp host not configured, quote delivery disabled")
		return nil
	}
	return &Sender{
		log:      log,
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
	}
}

func (s *Sender) SendQuoteDocuments(ctx context.Context, to string, quote quotedomain.Quote, attachments []quotedomain.Attachment) error {
	subject := "Cotizacion " + folio(quote)
	body := fmt.Sprintf("Estimado cliente,\r\n\r\nAdjuntamos la cotizacion %s.\r\n\r\nSaludos.\r\n", folio(quote))
	msg, err := buildMessage(s.from, to, subject, body, attachments)
	if err != nil {
		return fmt.Errorf("build quote email: %w", err)
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send quote email: %w", err)
	}
	s.log.Info("quote documents delivered",
		zap.Int64("quote_id", quote.ID.Int64()),
		zap.Int("attachments", len(attachments)),
	)
	return nil
}

func folio(quote quotedomain.Quote) string {
	if quote.Folio != nil {
		return *quote.Folio
	}
	return quote.ID.String()
}

// buildMessage assembles a multipart/mixed message with a plain text body
// and one base64 part per attachment.
func buildMessage(from, to, subject, body string, attachments []quotedomain.Attachment) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=\"UTF-8\""},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(body)); err != nil {
		return nil, err
	}

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, att.Data); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 wraps the encoded payload at 76 columns per RFC 2045.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		line := encoded[:n] + "\r\n"
		if _, err := w.Write([]byte(line)); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
