package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/goalline/academy-server/internal/forms"
)

const notificationHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f5f7;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:24px;">
      <table width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;overflow:hidden;">
        <tr><td style="background:#0b2545;padding:20px;text-align:center;">
          <img src="{{ logo_ref }}" alt="{{ site_name }}" height="56" style="display:inline-block;" />
        </td></tr>
        <tr><td style="padding:24px;">
          <h2 style="margin:0 0 8px;color:#0b2545;">New {{ form_label }}</h2>
          <p style="margin:0 0 16px;color:#555;">{{ summary }}</p>
          <table width="100%" cellpadding="6" cellspacing="0" style="border-collapse:collapse;">
            {% for field in fields %}
            <tr>
              <td style="border:1px solid #e2e4e8;color:#0b2545;font-weight:bold;width:40%;">{{ field.label }}</td>
              <td style="border:1px solid #e2e4e8;color:#333;">{{ field.value }}</td>
            </tr>
            {% endfor %}
          </table>
        </td></tr>
        <tr><td style="padding:16px 24px;background:#f4f5f7;color:#888;font-size:12px;">
          Submitted {{ submitted_at }} · {{ site_name }} back office
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const notificationText = `New {{ form_label }}
{{ summary }}

{% for field in fields %}{{ field.label }}: {{ field.value }}
{% endfor %}
Submitted {{ submitted_at }} — {{ site_name }} back office`

const acknowledgmentHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f5f7;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:24px;">
      <table width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;overflow:hidden;">
        <tr><td style="background:#0b2545;padding:20px;text-align:center;">
          <img src="{{ logo_ref }}" alt="{{ site_name }}" height="56" style="display:inline-block;" />
        </td></tr>
        <tr><td style="padding:24px;color:#333;">
          <h2 style="margin:0 0 8px;color:#0b2545;">Thank you, {{ name | default: "friend of the academy" }}!</h2>
          <p>We received your {{ form_label | downcase }} and our team will get back to you within two business days.</p>
          <p>If you need to add anything in the meantime, just reply to this email.</p>
          <p style="margin-top:24px;">— The {{ site_name }} team</p>
        </td></tr>
        <tr><td style="padding:16px 24px;background:#f4f5f7;color:#888;font-size:12px;">
          <a href="{{ base_url }}" style="color:#0b2545;">{{ site_name }}</a>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const acknowledgmentText = `Thank you, {{ name | default: "friend of the academy" }}!

We received your {{ form_label | downcase }} and our team will get back to you
within two business days. If you need to add anything in the meantime, just
reply to this email.

— The {{ site_name }} team
{{ base_url }}`

// TemplateSet holds the parsed email templates. Parsing happens once at
// construction; rendering is per send.
type TemplateSet struct {
	engine    *liquid.Engine
	notifHTML *liquid.Template
	notifText *liquid.Template
	ackHTML   *liquid.Template
	ackText   *liquid.Template
}

// NewTemplateSet parses the built-in templates with custom filters registered.
func NewTemplateSet() (*TemplateSet, error) {
	engine := liquid.NewEngine()

	// Default value filter: {{ name | default: "friend" }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})
	engine.RegisterFilter("downcase", strings.ToLower)

	ts := &TemplateSet{engine: engine}
	var err error
	if ts.notifHTML, err = engine.ParseString(notificationHTML); err != nil {
		return nil, fmt.Errorf("parse notification html: %w", err)
	}
	if ts.notifText, err = engine.ParseString(notificationText); err != nil {
		return nil, fmt.Errorf("parse notification text: %w", err)
	}
	if ts.ackHTML, err = engine.ParseString(acknowledgmentHTML); err != nil {
		return nil, fmt.Errorf("parse acknowledgment html: %w", err)
	}
	if ts.ackText, err = engine.ParseString(acknowledgmentText); err != nil {
		return nil, fmt.Errorf("parse acknowledgment text: %w", err)
	}
	return ts, nil
}

// RenderContext carries the bindings shared by both email legs.
type RenderContext struct {
	SiteName string
	BaseURL  string
	LogoRef  string // "cid:..." when embedded, absolute URL otherwise
}

func (ts *TemplateSet) bindings(sub forms.Submission, rc RenderContext) map[string]interface{} {
	fields := sub.Fields()
	rows := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, map[string]string{"label": f.Label, "value": f.Value})
	}
	name := ""
	if len(fields) > 0 {
		name = fields[0].Value
	}
	return map[string]interface{}{
		"site_name":    rc.SiteName,
		"base_url":     rc.BaseURL,
		"logo_ref":     rc.LogoRef,
		"form_label":   sub.Type().Label(),
		"summary":      sub.Summary(),
		"fields":       rows,
		"name":         name,
		"submitted_at": time.Now().Format("2006-01-02 15:04 MST"),
	}
}

// RenderNotification renders the internal admin notification bodies.
func (ts *TemplateSet) RenderNotification(sub forms.Submission, rc RenderContext) (html, text string, err error) {
	b := ts.bindings(sub, rc)
	if html, err = ts.notifHTML.RenderString(b); err != nil {
		return "", "", err
	}
	if text, err = ts.notifText.RenderString(b); err != nil {
		return "", "", err
	}
	return html, text, nil
}

// RenderAcknowledgment renders the submitter acknowledgment bodies.
func (ts *TemplateSet) RenderAcknowledgment(sub forms.Submission, rc RenderContext) (html, text string, err error) {
	b := ts.bindings(sub, rc)
	if html, err = ts.ackHTML.RenderString(b); err != nil {
		return "", "", err
	}
	if text, err = ts.ackText.RenderString(b); err != nil {
		return "", "", err
	}
	return html, text, nil
}
