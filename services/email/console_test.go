package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
)

func TestConsoleServiceMock(t *testing.T) {
	ResetSentMessages()
	svc := NewConsoleServiceMock(core.NewTestConfig(), logsvc.NewTestLogger())

	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "jane@school.ac"}}, Subject: "Hi", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "jane@school.ac"}}, Subject: "no content"},
	)

	require.Len(t, SentMessages, 1)
	assert.Equal(t, "hello", SentMessages[0].TextContent)
	ResetSentMessages()
	assert.Empty(t, SentMessages)
}

func TestConsoleService_send(t *testing.T) {
	conf := core.NewTestConfig()
	var out bytes.Buffer
	svc := &consoleService{conf: conf, logger: logsvc.NewTestLogger(), out: &out, subjPrefix: "[Masomo] "}

	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Jane", Address: "jane@school.ac"}},
		Cc:          []mail.Address{{Address: "bursar@school.ac"}},
		Subject:     "Fee structure",
		TextContent: "plain",
		HTMLContent: "<p>html</p>",
	}
	require.NoError(t, msg.Attach(strings.NewReader("<html></html>"), "fees.html", "text/html"))
	require.NoError(t, svc.send(msg))

	got := out.String()
	assert.Contains(t, got, "Subject: [Masomo] Fee structure\r\n")
	assert.Contains(t, got, `To: "Jane" <jane@school.ac>`)
	assert.Contains(t, got, "CC: <bursar@school.ac>")
	assert.Contains(t, got, "Content-Type: multipart/mixed")
	assert.Contains(t, got, "Content-Disposition: attachment; filename=fees.html")
	assert.Contains(t, got, "<p>html</p>")
}
