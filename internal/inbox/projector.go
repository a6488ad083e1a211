package inbox

import (
	"strings"

	"github.com/nhle/inbox/internal/model"
)

// NoSelection is the selection value when no message is selected. Store ids
// start at 1.
const NoSelection int64 = 0

// Project derives the visible list from a repository snapshot. Messages are
// kept in snapshot order; ChannelAll passes every channel through and an
// empty (post-trim) query matches everything.
func Project(msgs []model.Message, ch model.Channel, query string) []model.Message {
	needle := strings.ToLower(strings.TrimSpace(query))

	visible := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if Matches(m, ch, needle) {
			visible = append(visible, m)
		}
	}
	return visible
}

// Matches reports whether m belongs in a view of channel ch filtered by
// needle. needle must already be trimmed and lowercased.
func Matches(m model.Message, ch model.Channel, needle string) bool {
	if ch != model.ChannelAll && m.Channel != ch {
		return false
	}
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Sender), needle) ||
		strings.Contains(strings.ToLower(m.Subject), needle) ||
		strings.Contains(strings.ToLower(m.Body), needle)
}

// Reconcile resolves the selection against a freshly projected list: the
// current id survives if it is still visible, otherwise the first visible
// message is chosen, otherwise nothing is.
func Reconcile(visible []model.Message, current int64) int64 {
	if current != NoSelection && indexOf(visible, current) >= 0 {
		return current
	}
	if len(visible) > 0 {
		return visible[0].ID
	}
	return NoSelection
}

// CountUnread tallies unread messages per channel.
func CountUnread(msgs []model.Message) model.UnreadCounts {
	var c model.UnreadCounts
	for _, m := range msgs {
		if m.Read {
			continue
		}
		switch m.Channel {
		case model.ChannelPersonal:
			c.Personal++
		case model.ChannelBusiness:
			c.Business++
		}
	}
	c.All = c.Personal + c.Business
	return c
}

func indexOf(msgs []model.Message, id int64) int {
	for i, m := range msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}
