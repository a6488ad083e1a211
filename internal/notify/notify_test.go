package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/inbox/internal/model"
)

func TestDownloadStarted(t *testing.T) {
	title, body := DownloadStarted(model.Attachment{Name: "q3.pdf", Size: 248_320})

	assert.Equal(t, "Download started", title)
	assert.Equal(t, "q3.pdf (248 kB)", body)
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify("title", "body"))
}
