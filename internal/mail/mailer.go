// Package mail delivers the final intake packet over authenticated,
// encrypted SMTP.
package mail

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/okfngroup/audit-intake/internal/config"
)

// Delivery failures are classified three ways so the user sees which
// kind of problem to fix. Every send is single-attempt; nothing retries.
var (
	ErrAuth     = errors.New("smtp authentication failed")
	ErrProtocol = errors.New("smtp protocol error")
)

// Mailer sends intake notification mail.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewMailer creates a mailer from SMTP configuration.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.FromEmail,
	}
}

// Send delivers one plaintext message with file attachments over an
// implicit-TLS connection. Attachment paths that no longer exist are
// skipped, not an error.
func (m *Mailer) Send(subject, body, to string, attachments []string) error {
	if m.host == "" || m.port == "" || m.username == "" || m.password == "" {
		return fmt.Errorf("mail service not configured")
	}

	message := m.compose(subject, body, to, attachments)

	addr := m.host + ":" + m.port
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return fmt.Errorf("failed to connect to mail server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return classify(err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return classifyAuth(err)
	}
	if err := client.Mail(m.from); err != nil {
		return classify(err)
	}
	if err := client.Rcpt(to); err != nil {
		return classify(err)
	}
	w, err := client.Data()
	if err != nil {
		return classify(err)
	}
	if _, err := w.Write(message); err != nil {
		return classify(err)
	}
	if err := w.Close(); err != nil {
		return classify(err)
	}
	return client.Quit()
}

func classifyAuth(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 535, 534, 530:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	// No SMTP code, e.g. PlainAuth refusing the connection itself.
	return fmt.Errorf("%w: %v", ErrAuth, err)
}

func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return err
}

const boundary = "auditintake-mime-boundary"

// compose hand-builds the MIME multipart message: a UTF-8 plaintext body
// part followed by base64 application parts for each attachment.
func (m *Mailer) compose(subject, body, to string, attachments []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	for _, path := range attachments {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skipping missing attachment: %s", path)
			continue
		}
		// Korean filenames must not appear raw in headers.
		name := mime.QEncoding.Encode("utf-8", filepath.Base(path))
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: application/octet-stream; name=%q\r\n", name)
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", name)

		encoded := base64.StdEncoding.EncodeToString(raw)
		for len(encoded) > 76 {
			b.WriteString(encoded[:76] + "\r\n")
			encoded = encoded[76:]
		}
		b.WriteString(encoded + "\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
