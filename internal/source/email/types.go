package email

import "time"

// Envelope holds the header data of a mail message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string // display name, or the address when there is none
	FromAddr  string
	To        []string
	Date      time.Time
	Flags     []string // \Seen, \Flagged, \Answered, \Deleted
	UID       uint32

	// InReplyTo and References are Message-IDs without angle brackets.
	InReplyTo  []string
	References []string
}

// Seen reports whether the \Seen flag is set.
func (e Envelope) Seen() bool {
	for _, f := range e.Flags {
		if f == `\Seen` {
			return true
		}
	}
	return false
}

// ParsedMessage holds the full parsed content of a mail message.
type ParsedMessage struct {
	Envelope    Envelope
	TextBody    string
	HTMLBody    string
	Attachments []Attachment

	// Raw is the message as received, used to derive an id for mail that
	// lacks a Message-ID header.
	Raw []byte
}

// Attachment holds metadata about a message attachment.
type Attachment struct {
	Filename string
	Size     int64
	MIMEType string
}
