package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goalline/academy-server/internal/config"
	"github.com/goalline/academy-server/internal/forms"
	"github.com/goalline/academy-server/internal/pkg/logger"
)

// Leg identifies one of the two emails produced per accepted submission.
type Leg string

const (
	// LegAdmin is the internal notification to the routing address.
	LegAdmin Leg = "admin"
	// LegAck is the acknowledgment back to the submitter.
	LegAck Leg = "ack"
)

// Legs lists both email legs in send order: admin notification first.
var Legs = []Leg{LegAdmin, LegAck}

const logoContentID = "academy-logo"

// Mailer composes the two transactional emails for a submission and sends
// them through the configured transport.
type Mailer struct {
	transport Transport
	templates *TemplateSet
	mail      config.MailConfig
	site      config.SiteConfig

	// readFile is a seam for tests; defaults to os.ReadFile.
	readFile func(string) ([]byte, error)
}

// New creates a mailer on the given transport.
func New(transport Transport, mail config.MailConfig, site config.SiteConfig) (*Mailer, error) {
	templates, err := NewTemplateSet()
	if err != nil {
		return nil, err
	}
	return &Mailer{
		transport: transport,
		templates: templates,
		mail:      mail,
		site:      site,
		readFile:  os.ReadFile,
	}, nil
}

// NewTransport builds the transport selected by configuration.
func NewTransport(ctx context.Context, cfg config.MailConfig) (Transport, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPTransport(cfg), nil
	case "ses":
		return NewSESTransport(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// loadLogo reads the site logo from disk for embedding. When the file is
// unreadable (the deployment filesystem may not be available at request
// time) it falls back to referencing the logo by absolute URL.
func (m *Mailer) loadLogo() (*InlineImage, string) {
	data, err := m.readFile(m.site.LogoPath)
	if err != nil {
		logger.Debug("logo not readable, using remote reference",
			"path", m.site.LogoPath, "url", m.site.LogoURL())
		return nil, m.site.LogoURL()
	}
	img := &InlineImage{
		ContentID:   logoContentID,
		ContentType: logoMIMEType(m.site.LogoPath),
		Data:        data,
	}
	return img, "cid:" + logoContentID
}

func logoMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// Compose builds the message for one leg of a submission.
func (m *Mailer) Compose(leg Leg, sub forms.Submission) (Message, error) {
	inline, logoRef := m.loadLogo()
	rc := RenderContext{
		SiteName: m.site.Name,
		BaseURL:  m.site.BaseURL,
		LogoRef:  logoRef,
	}

	msg := Message{
		From:     m.mail.User,
		FromName: m.mail.FromName,
		Inline:   inline,
	}

	switch leg {
	case LegAdmin:
		html, text, err := m.templates.RenderNotification(sub, rc)
		if err != nil {
			return Message{}, fmt.Errorf("render notification: %w", err)
		}
		msg.To = m.mail.To
		msg.ReplyTo = sub.Email()
		msg.Subject = fmt.Sprintf("New %s: %s", sub.Type().Label(), sub.Summary())
		msg.HTML = html
		msg.Text = text
	case LegAck:
		html, text, err := m.templates.RenderAcknowledgment(sub, rc)
		if err != nil {
			return Message{}, fmt.Errorf("render acknowledgment: %w", err)
		}
		msg.To = sub.Email()
		msg.Subject = fmt.Sprintf("We received your %s — %s", strings.ToLower(sub.Type().Label()), m.site.Name)
		msg.HTML = html
		msg.Text = text
	default:
		return Message{}, fmt.Errorf("unknown email leg %q", leg)
	}

	return msg, nil
}

// SendLeg composes and sends one leg.
func (m *Mailer) SendLeg(ctx context.Context, leg Leg, sub forms.Submission) error {
	msg, err := m.Compose(leg, sub)
	if err != nil {
		return err
	}
	return m.transport.Send(ctx, msg)
}

// Notify sends both emails for an accepted submission, strictly in order:
// admin notification first, then the submitter acknowledgment. The first
// failure stops the sequence and propagates.
func (m *Mailer) Notify(ctx context.Context, sub forms.Submission) error {
	for _, leg := range Legs {
		if err := m.SendLeg(ctx, leg, sub); err != nil {
			return fmt.Errorf("send %s email: %w", leg, err)
		}
	}
	return nil
}
