package email

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/crossref"
	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
)

// Classifier assigns imported mail to a channel by sender domain.
type Classifier struct {
	BusinessDomains []string
}

// Channel returns ChannelBusiness when addr's domain equals, or is a
// subdomain of, one of the business domains.
func (c Classifier) Channel(addr string) model.Channel {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return model.ChannelPersonal
	}
	domain := strings.ToLower(addr[at+1:])

	for _, d := range c.BusinessDomains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d == "" {
			continue
		}
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return model.ChannelBusiness
		}
	}
	return model.ChannelPersonal
}

// Converter turns parsed mail into inbox messages.
type Converter struct {
	Classifier Classifier

	// Now is used to format timestamps; defaults to time.Now.
	Now func() time.Time
}

// ToMessage maps p onto a model.Message. Each attachment becomes a reply
// from the sender carrying it, since replies are where the inbox keeps
// attachments.
func (c Converter) ToMessage(p *ParsedMessage) model.Message {
	env := p.Envelope

	subject := env.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "(no subject)"
	}
	sender := env.From
	if sender == "" {
		sender = "Unknown sender"
	}

	m := model.Message{
		Sender:     sender,
		Subject:    subject,
		Body:       p.Body(),
		Timestamp:  c.timestamp(env.Date),
		Channel:    c.Classifier.Channel(env.FromAddr),
		Avatar:     "https://i.pravatar.cc/40?u=" + url.QueryEscape(env.FromAddr),
		Read:       env.Seen(),
		ExternalID: externalID(p),
		ThreadRefs: crossref.ThreadRefs(env.InReplyTo, env.References),
	}

	for _, att := range p.Attachments {
		name := att.Filename
		if name == "" {
			name = "attachment"
		}
		m.Replies = append(m.Replies, model.Reply{
			Sender:     sender,
			Body:       fmt.Sprintf("Attached %s (%s)", name, humanize.Bytes(uint64(att.Size))),
			Timestamp:  m.Timestamp,
			Avatar:     m.Avatar,
			Attachment: &model.Attachment{Name: name, Size: att.Size},
		})
	}
	return m
}

func (c Converter) timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t = t.Local()
	n := now().Local()

	switch {
	case t.Year() == n.Year() && t.YearDay() == n.YearDay():
		return t.Format("3:04 PM")
	case t.Year() == n.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// externalID is the Message-ID, or a name-based UUID of the raw message
// when the header is missing, so re-imports of the same file dedupe.
func externalID(p *ParsedMessage) string {
	if id := strings.Trim(p.Envelope.MessageID, "<> "); id != "" {
		return id
	}
	if len(p.Raw) == 0 {
		return ""
	}
	return "sha1:" + uuid.NewSHA1(uuid.NameSpaceOID, p.Raw).String()
}

// byDate sorts parsed mail oldest first.
func byDate(msgs []*ParsedMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Envelope.Date.Before(msgs[j].Envelope.Date)
	})
}

// DirSource imports every *.eml file in a directory.
type DirSource struct {
	Dir       string
	Converter Converter
	log       zerolog.Logger
}

// NewDirSource creates a DirSource for dir.
func NewDirSource(dir string, conv Converter) *DirSource {
	return &DirSource{
		Dir:       dir,
		Converter: conv,
		log:       logging.Component("import").With().Str("dir", dir).Logger(),
	}
}

func (d *DirSource) Name() string { return "eml:" + d.Dir }

// Fetch parses each .eml file. Files that cannot be read or parsed are
// logged and skipped.
func (d *DirSource) Fetch(ctx context.Context) ([]model.Message, error) {
	paths, err := filepath.Glob(filepath.Join(d.Dir, "*.eml"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.Dir, err)
	}

	var parsed []*ParsedMessage
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			d.log.Warn().Err(err).Str("file", path).Msg("skipping unreadable file")
			continue
		}
		p, err := ParseMessage(raw)
		if err != nil {
			d.log.Warn().Err(err).Str("file", path).Msg("skipping malformed message")
			continue
		}
		parsed = append(parsed, p)
	}

	byDate(parsed)

	msgs := make([]model.Message, len(parsed))
	for i, p := range parsed {
		msgs[i] = d.Converter.ToMessage(p)
	}
	return msgs, nil
}

// IMAPSource imports recent mail from an IMAP INBOX.
type IMAPSource struct {
	client    *IMAPClient
	since     time.Duration
	limit     int
	converter Converter
}

// NewIMAPSource creates a source reading up to limit messages from the
// last week.
func NewIMAPSource(client *IMAPClient, limit int, conv Converter) *IMAPSource {
	return &IMAPSource{
		client:    client,
		since:     7 * 24 * time.Hour,
		limit:     limit,
		converter: conv,
	}
}

func (s *IMAPSource) Name() string { return "imap:" + s.client.host }

// Fetch returns recent INBOX mail, oldest first.
func (s *IMAPSource) Fetch(ctx context.Context) ([]model.Message, error) {
	parsed, err := s.client.FetchRecent(ctx, s.since, s.limit)
	if err != nil {
		return nil, err
	}

	byDate(parsed)

	msgs := make([]model.Message, len(parsed))
	for i, p := range parsed {
		msgs[i] = s.converter.ToMessage(p)
	}
	return msgs, nil
}
