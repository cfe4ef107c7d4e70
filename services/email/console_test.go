package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/tests"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := &core.Config{AppName: "Darasa", DefaultFromEmail: mail.Address{Name: "Darasa", Address: "noreply@localhost"}}
	logger := new(testutil.Logger)
	svc := NewConsoleServiceMock(conf, logger)

	to := []mail.Address{{Name: "John Doe", Address: "john@example.com"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{To: to, Subject: "templated", TextTemplate: "Hi {{.Name}}", HTMLTemplate: "<p>Hi {{.Name}}</p>", TemplateData: map[string]string{"Name": "John"}},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hello"},
		&core.EmailMessage{To: to, Subject: "no content"},
		&core.EmailMessage{To: to, Subject: "bad template", TextTemplate: "{{.Missing}}", TemplateData: map[string]string{}},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Equal(t, "Hi John", sent[1].TextContent)
	assert.Equal(t, "<p>Hi John</p>", sent[1].HTMLContent)
	assert.Len(t, logger.Messages(), 1)
}

func TestConsoleService_format(t *testing.T) {
	svc := consoleService{
		defaultFromEmail: mail.Address{Address: "noreply@localhost"},
		subjPrefix:       "[Darasa] ",
	}
	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "john@example.com"}, {Address: "jane@example.com"}},
		Cc:          []mail.Address{{Address: "cc@example.com"}},
		Subject:     "Password reset",
		TextContent: "text",
		HTMLContent: "<b>html</b>",
	})
	require.NoError(t, err)

	for _, want := range []string{
		"From: <noreply@localhost>\r\n",
		"Subject: [Darasa] Password reset\r\n",
		"To: <john@example.com>, <jane@example.com>\r\n",
		"CC: <cc@example.com>\r\n",
		"Content-Type: multipart/alternative; boundary=",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Type: text/html; charset=utf-8",
		"<b>html</b>",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, "BCC:")
}
