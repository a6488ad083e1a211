package email

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
)

const plainMail = "From: Jane Doe <jane@acme.io>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Contract renewal\r\n" +
	"Date: Mon, 02 Jun 2025 09:30:00 +0000\r\n" +
	"Message-ID: <renewal-1@acme.io>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please review the attached terms.\r\n"

const multipartMail = "From: friend@gmail.com\r\n" +
	"Subject: Trip\r\n" +
	"Date: Sun, 01 Jun 2025 18:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>See you <b>soon</b> &amp; bring snacks</p><script>alert(1)</script><p>Bye</p>\r\n" +
	"--XYZ\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"tickets.pdf\"\r\n" +
	"\r\n" +
	"0123456789\r\n" +
	"--XYZ--\r\n"

const replyMail = "From: Ben <ben@acme.io>\r\n" +
	"Subject: Re: Contract renewal\r\n" +
	"Message-ID: <renewal-2@acme.io>\r\n" +
	"In-Reply-To: <renewal-1@acme.io>\r\n" +
	"References: <renewal-0@acme.io> <renewal-1@acme.io>\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Looks fine.\r\n"

func TestParseMessage_ThreadHeaders(t *testing.T) {
	p, err := ParseMessage([]byte(replyMail))
	require.NoError(t, err)

	assert.Equal(t, []string{"renewal-1@acme.io"}, p.Envelope.InReplyTo)
	assert.Equal(t, []string{"renewal-0@acme.io", "renewal-1@acme.io"}, p.Envelope.References)

	m := Converter{}.ToMessage(p)
	assert.Equal(t, []string{"renewal-1@acme.io", "renewal-0@acme.io"}, m.ThreadRefs)
}

func TestParseMessage_PlainText(t *testing.T) {
	p, err := ParseMessage([]byte(plainMail))
	require.NoError(t, err)

	assert.Equal(t, "renewal-1@acme.io", p.Envelope.MessageID)
	assert.Equal(t, "Contract renewal", p.Envelope.Subject)
	assert.Equal(t, "Jane Doe", p.Envelope.From)
	assert.Equal(t, "jane@acme.io", p.Envelope.FromAddr)
	assert.Equal(t, []string{"me@example.com"}, p.Envelope.To)
	assert.Equal(t, 2025, p.Envelope.Date.Year())
	assert.Equal(t, "Please review the attached terms.", p.Body())
	assert.Empty(t, p.Attachments)
}

func TestParseMessage_MultipartWithAttachment(t *testing.T) {
	p, err := ParseMessage([]byte(multipartMail))
	require.NoError(t, err)

	assert.Equal(t, "friend@gmail.com", p.Envelope.From)
	body := p.Body()
	assert.Contains(t, body, "See you soon & bring snacks")
	assert.Contains(t, body, "Bye")
	assert.NotContains(t, body, "alert")
	assert.NotContains(t, body, "<")

	require.Len(t, p.Attachments, 1)
	assert.Equal(t, "tickets.pdf", p.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", p.Attachments[0].MIMEType)
	assert.Positive(t, p.Attachments[0].Size)
}

func TestHTMLToText(t *testing.T) {
	in := "<div>Hello<br>world</div>\n\n\n\n<ul><li>one</li><li>two</li></ul><style>p{}</style>"
	got := HTMLToText(in)

	assert.Equal(t, "Hello\nworld\n\none\ntwo", got)
}

func TestClassifier_Channel(t *testing.T) {
	c := Classifier{BusinessDomains: []string{"acme.io", "@Corp.Example"}}

	assert.Equal(t, model.ChannelBusiness, c.Channel("jane@acme.io"))
	assert.Equal(t, model.ChannelBusiness, c.Channel("ops@mail.corp.example"))
	assert.Equal(t, model.ChannelPersonal, c.Channel("friend@notacme.io"))
	assert.Equal(t, model.ChannelPersonal, c.Channel("no-at-sign"))
}

func TestConverter_ToMessage(t *testing.T) {
	p, err := ParseMessage([]byte(multipartMail))
	require.NoError(t, err)

	conv := Converter{
		Classifier: Classifier{BusinessDomains: []string{"acme.io"}},
		Now:        func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) },
	}
	m := conv.ToMessage(p)

	assert.Equal(t, model.ChannelPersonal, m.Channel)
	assert.Equal(t, "Trip", m.Subject)
	assert.False(t, m.Read)
	assert.True(t, strings.HasPrefix(m.ExternalID, "sha1:"), m.ExternalID)
	assert.NotEmpty(t, m.Timestamp)

	require.Len(t, m.Replies, 1)
	require.NotNil(t, m.Replies[0].Attachment)
	assert.Equal(t, "tickets.pdf", m.Replies[0].Attachment.Name)

	again, _ := ParseMessage([]byte(multipartMail))
	assert.Equal(t, m.ExternalID, conv.ToMessage(again).ExternalID)
}

func TestConverter_SeenFlagMarksRead(t *testing.T) {
	p, err := ParseMessage([]byte(plainMail))
	require.NoError(t, err)
	p.Envelope.Flags = []string{`\Seen`}

	m := Converter{Classifier: Classifier{BusinessDomains: []string{"acme.io"}}}.ToMessage(p)
	assert.True(t, m.Read)
	assert.Equal(t, model.ChannelBusiness, m.Channel)
	assert.Equal(t, "renewal-1@acme.io", m.ExternalID)
}

func TestDirSource_FetchOldestFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.eml"), []byte(plainMail), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.eml"), []byte(multipartMail), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	msgs, err := NewDirSource(dir, Converter{}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Trip", msgs[0].Subject)
	assert.Equal(t, "Contract renewal", msgs[1].Subject)
}
