package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/inbox/internal/keys"
)

func TestView_GroupsShortcutsBySection(t *testing.T) {
	m := New(keys.DefaultKeyMap(), "claude", 160, 40)

	view := m.View()
	for _, title := range []string{"Keyboard Shortcuts", "Navigate", "Channels", "Inbox", "Open message", "Write"} {
		assert.Contains(t, view, title)
	}
	assert.Contains(t, view, "AI provider: claude")
}

func TestLayoutSections_CoverEveryBinding(t *testing.T) {
	k := keys.DefaultKeyMap()

	var listed int
	for _, row := range layoutSections(k) {
		for _, s := range row {
			listed += len(s.bindings)
		}
	}

	var total int
	for _, group := range k.FullHelp() {
		total += len(group)
	}
	assert.Equal(t, total, listed)
}
