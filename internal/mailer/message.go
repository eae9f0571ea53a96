// Package mailer composes and sends the transactional emails produced by the
// form-submission pipeline: one internal notification to the routing address
// and one acknowledgment back to the submitter.
package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"
)

// InlineImage is an image embedded in the HTML body via a content identifier.
type InlineImage struct {
	ContentID   string
	ContentType string
	Data        []byte
}

// Message is one outbound email. It exists only for the duration of a send.
type Message struct {
	From     string
	FromName string
	To       string
	ReplyTo  string
	Subject  string
	HTML     string
	Text     string
	Inline   *InlineImage
}

// Bytes renders the message as a MIME document: multipart/alternative for the
// text and HTML bodies, wrapped in multipart/related when an image is inlined.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", formatAddress(m.FromName, m.From))
	fmt.Fprintf(&buf, "To: %s\r\n", m.To)
	if m.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", m.ReplyTo)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if m.Inline == nil {
		w := multipart.NewWriter(&buf)
		fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", w.Boundary())
		if err := writeAlternative(w, m.Text, m.HTML); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	related := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/related; boundary=%q\r\n\r\n", related.Boundary())

	var altBuf bytes.Buffer
	altWriter := multipart.NewWriter(&altBuf)
	if err := writeAlternative(altWriter, m.Text, m.HTML); err != nil {
		return nil, err
	}
	if err := altWriter.Close(); err != nil {
		return nil, err
	}
	altPart, err := related.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", altWriter.Boundary())},
	})
	if err != nil {
		return nil, err
	}
	if _, err := altPart.Write(altBuf.Bytes()); err != nil {
		return nil, err
	}

	imgPart, err := related.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {m.Inline.ContentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-ID":                {"<" + m.Inline.ContentID + ">"},
		"Content-Disposition":       {"inline"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64(imgPart, m.Inline.Data); err != nil {
		return nil, err
	}

	if err := related.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAlternative(w *multipart.Writer, text, html string) error {
	textPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return err
	}
	if _, err := textPart.Write([]byte(text)); err != nil {
		return err
	}

	htmlPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return err
	}
	_, err = htmlPart.Write([]byte(html))
	return err
}

// writeBase64 emits base64 data wrapped at 76 columns per RFC 2045.
func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), addr)
}
