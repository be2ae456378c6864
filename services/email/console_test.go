package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig())

	tests := []struct {
		name     string
		msg      *core.EmailMessage
		wantSent bool
	}{
		{name: "no recipients", msg: &core.EmailMessage{Subject: "hi", BodyStr: "hello"}},
		{name: "no content", msg: &core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, Subject: "hi"}},
		{
			name:     "plain body",
			msg:      &core.EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, Subject: "hi", BodyStr: "hello"},
			wantSent: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(svc.SentMessages())
			svc.SendMessages(tt.msg)
			after := len(svc.SentMessages())
			assert.Equal(t, tt.wantSent, after == before+1)
		})
	}
}

func Test_consoleService_format(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig())
	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Ama", Address: "ama@test.cd"}},
		Subject:     "Your certificate is ready",
		TextContent: "Well done",
		HTMLContent: "<p>Well done</p>",
	}

	body, err := svc.format(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [Elimu] Your certificate is ready\r\n")
	assert.Contains(t, body, `To: "Ama" <ama@test.cd>`)
	assert.Contains(t, body, "From: \"Elimu\" <noreply@localhost>")
	assert.Contains(t, body, "Well done\r\n")
	assert.Contains(t, body, "<p>Well done</p>")
	assert.NotContains(t, body, "CC:")
}

func Test_sendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(core.NewTestConfig(), nil).(*sendgridService)
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Ama", Address: "ama@test.cd"}},
		Subject:     "hi",
		TextContent: "hello",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Elimu] hi", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "ama@test.cd", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "noreply@localhost", m.From.Address)
}
