package model

import "fmt"

// Channel partitions messages into coarse categories. ChannelAll is a view
// wildcard and is never stored on a message.
type Channel string

const (
	ChannelAll      Channel = "All"
	ChannelPersonal Channel = "Personal"
	ChannelBusiness Channel = "Business"
)

// Channels lists the channels in sidebar order.
var Channels = []Channel{ChannelAll, ChannelPersonal, ChannelBusiness}

// ParseChannel converts a case-sensitive channel name into a Channel.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Stored reports whether c may appear on a message.
func (c Channel) Stored() bool {
	return c == ChannelPersonal || c == ChannelBusiness
}

// JustNow is the display timestamp given to locally created messages and
// replies.
const JustNow = "Just now"

// Attachment describes a file carried by a reply.
type Attachment struct {
	Name string
	Size int64
}

// Reply is a single entry in a message thread. Replies are immutable once
// appended.
type Reply struct {
	ID         int64
	Sender     string
	Body       string
	Timestamp  string
	Avatar     string
	Attachment *Attachment

	// ExternalID is the Message-ID of the imported mail this reply came
	// from. Empty for replies written here.
	ExternalID string
}

// Message is one conversation in the inbox.
type Message struct {
	ID        int64
	Sender    string
	Subject   string
	Body      string
	Timestamp string
	Channel   Channel
	Avatar    string
	Read      bool
	Replies   []Reply

	// ExternalID identifies imported mail (Message-ID) so re-imports are
	// skipped. Empty for local and demo messages.
	ExternalID string

	// ThreadRefs lists the Message-IDs an imported mail answers, closest
	// first. Import uses it to append the mail to an existing thread; it
	// is not stored.
	ThreadRefs []string
}

// FindReply returns the reply with the given id.
func (m Message) FindReply(id int64) (Reply, bool) {
	for _, r := range m.Replies {
		if r.ID == id {
			return r, true
		}
	}
	return Reply{}, false
}

// UnreadCounts is the number of unread messages per channel.
type UnreadCounts struct {
	All      int
	Personal int
	Business int
}

// For returns the count for the given channel.
func (u UnreadCounts) For(c Channel) int {
	switch c {
	case ChannelPersonal:
		return u.Personal
	case ChannelBusiness:
		return u.Business
	default:
		return u.All
	}
}
