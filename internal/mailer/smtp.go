package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"

	"github.com/goalline/academy-server/internal/config"
)

// SMTPTransport sends mail over SMTP with PLAIN auth. Port 465 uses implicit
// TLS; other ports upgrade with STARTTLS when the server offers it. Each send
// opens a fresh connection.
type SMTPTransport struct {
	cfg config.MailConfig
}

// NewSMTPTransport creates an SMTP transport from mail configuration.
func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

// Send delivers a single message, classifying auth and connection failures.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	dialer := &net.Dialer{Timeout: t.cfg.Timeout()}

	var conn net.Conn
	if t.cfg.Secure {
		conn, err = tls.DialWithDialer(dialer, "tcp", t.cfg.Addr(), &tls.Config{ServerName: t.cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", t.cfg.Addr())
	}
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, t.cfg.Addr(), err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: handshake: %v", ErrConnection, err)
	}
	defer client.Close()

	if !t.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
				return fmt.Errorf("%w: starttls: %v", ErrConnection, err)
			}
		}
	}

	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return classifySMTPError(err)
	}

	if err := client.Mail(msg.From); err != nil {
		return classifySMTPError(err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return classifySMTPError(err)
	}

	w, err := client.Data()
	if err != nil {
		return classifySMTPError(err)
	}
	if _, err := w.Write(data); err != nil {
		return classifySMTPError(err)
	}
	if err := w.Close(); err != nil {
		return classifySMTPError(err)
	}

	return client.Quit()
}

// classifySMTPError maps SMTP reply codes onto the transport error taxonomy:
// 530/534/535 are authentication failures, 421/450/451/454 are transient
// connection/service failures. Everything else is returned as-is.
func classifySMTPError(err error) error {
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return err
	}

	switch tpErr.Code {
	case 530, 534, 535:
		return fmt.Errorf("%w: %s", ErrAuth, tpErr.Msg)
	case 421, 450, 451, 454:
		return fmt.Errorf("%w: %s", ErrConnection, tpErr.Msg)
	default:
		return err
	}
}
