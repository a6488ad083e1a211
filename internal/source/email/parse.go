package email

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nhle/inbox/internal/crossref"
)

// msgIDs reads a Message-ID list header, falling back to a lenient scan
// when the strict parser rejects it.
func msgIDs(h mail.Header, key string) []string {
	if ids, err := h.MsgIDList(key); err == nil {
		return ids
	}
	return crossref.ExtractMessageIDs(h.Get(key))
}

// ParseMessage reads an RFC 5322 message and extracts its envelope, bodies
// and attachment metadata.
func ParseMessage(raw []byte) (*ParsedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	env := Envelope{}
	h := mr.Header

	if id, err := h.MessageID(); err == nil {
		env.MessageID = id
	}
	if subject, err := h.Subject(); err == nil {
		env.Subject = subject
	}
	if date, err := h.Date(); err == nil {
		env.Date = date
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		env.FromAddr = from[0].Address
		env.From = from[0].Name
		if env.From == "" {
			env.From = from[0].Address
		}
	}
	if to, err := h.AddressList("To"); err == nil {
		for _, a := range to {
			env.To = append(env.To, a.Address)
		}
	}
	env.InReplyTo = msgIDs(h, "In-Reply-To")
	env.References = msgIDs(h, "References")

	parsed := &ParsedMessage{Envelope: env, Raw: raw}
	parsed.TextBody, parsed.HTMLBody, parsed.Attachments = readParts(mr)
	return parsed, nil
}

func readParts(mr *mail.Reader) (textBody string, htmlBody string, attachments []Attachment) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the message; anything else leaves what was read.
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain") && textBody == "":
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			// Read to get size without storing content
			n, readErr := io.Copy(io.Discard, part.Body)
			if readErr != nil {
				continue
			}

			attachments = append(attachments, Attachment{
				Filename: filename,
				Size:     n,
				MIMEType: contentType,
			})
		}
	}

	return textBody, htmlBody, attachments
}

// Body returns the plain-text body, falling back to a text rendering of
// the HTML part.
func (p *ParsedMessage) Body() string {
	if strings.TrimSpace(p.TextBody) != "" {
		return strings.TrimSpace(p.TextBody)
	}
	return HTMLToText(p.HTMLBody)
}

var (
	textPolicy  = bluemonday.StrictPolicy()
	blockBreaks = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</tr>|</h[1-6]>`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText renders an HTML body as plain text. Markup, scripts and styles
// are removed by a strict sanitizer; block ends become line breaks.
func HTMLToText(body string) string {
	if body == "" {
		return ""
	}

	text := blockBreaks.ReplaceAllString(body, "$0\n")
	text = textPolicy.Sanitize(text)
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
