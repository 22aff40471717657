package smtp

import (
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seansyed/parafort-sub010/internal/sender"
)

func TestNew_RejectsBadFrom(t *testing.T) {
	_, err := New(Config{Host: "localhost", Port: 25, From: "not an address"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	from, err := mail.ParseAddress("ParaFort <no-reply@parafort.com>")
	require.NoError(t, err)

	raw := string(buildMessage(from, &sender.Message{
		To:      "jane@example.com",
		Subject: "Order PF-1 received",
		HTML:    "<p>Hello</p>",
		Text:    "Hello\nthere",
	}))

	assert.Contains(t, raw, "From: \"ParaFort\" <no-reply@parafort.com>\r\n")
	assert.Contains(t, raw, "To: jane@example.com\r\n")
	assert.Contains(t, raw, "Subject: Order PF-1 received\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/alternative; boundary=\"parafort-")
	assert.Contains(t, raw, "Hello\r\nthere")
	assert.Contains(t, raw, "<p>Hello</p>")
	assert.True(t, strings.HasSuffix(raw, "--\r\n"))
	assert.NotContains(t, strings.ReplaceAll(raw, "\r\n", ""), "\n")
}
