package emailsvc

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikeric11/grellic/core"
	logsvc "github.com/strikeric11/grellic/services/logger"
)

var testConf = &core.Config{
	AppName: "Grellic",
	Email:   core.EmailConfig{DefaultFromEmail: "noreply@grellic.test"},
}

func newAnnouncement() *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: "Teacher", Address: "teacher@grellic.test"}},
		Subject: "Exam open: Algebra",
		BodyStr: "Algebra is now open.",
		Details: []string{"Ends: 5:30 PM"},
	}
}

func TestConsoleService_send(t *testing.T) {
	var out bytes.Buffer
	svc := &consoleService{
		from:       mail.Address{Name: "Grellic", Address: "noreply@grellic.test"},
		subjPrefix: "[Grellic] ",
		out:        &out,
		logger:     logsvc.NewStdLogger(log.New(io.Discard, "", 0), false),
	}

	msg := newAnnouncement()
	require.True(t, svc.sendMessage(msg))

	body := out.String()
	assert.Contains(t, body, `From: "Grellic" <noreply@grellic.test>`)
	assert.Contains(t, body, "Subject: [Grellic] Exam open: Algebra")
	assert.Contains(t, body, `To: "Teacher" <teacher@grellic.test>`)
	assert.Contains(t, body, "Algebra is now open.\r\n - Ends: 5:30 PM")
	assert.Contains(t, body, "<li>Ends: 5:30 PM</li>")
	assert.NotContains(t, body, "CC:")
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(testConf, logsvc.NewStdLogger(log.New(io.Discard, "", 0), false))

	noRecipient := newAnnouncement()
	noRecipient.To = nil
	noContent := newAnnouncement()
	noContent.BodyStr = ""

	svc.SendMessages(newAnnouncement(), noRecipient, noContent)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Exam open: Algebra", sent[0].Subject)
	assert.NotEmpty(t, sent[0].HTMLContent)
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, logsvc.NewStdLogger(log.New(io.Discard, "", 0), false)).(*sendgridService)

	msg := newAnnouncement()
	msg.Cc = []mail.Address{{Address: "head@grellic.test"}}
	require.NoError(t, msg.Render())

	m := svc.prepare(*msg)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Grellic] Exam open: Algebra", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "teacher@grellic.test", p.To[0].Address)
	require.Len(t, p.CC, 1)
	assert.Equal(t, "head@grellic.test", p.CC[0].Address)
	assert.Equal(t, "noreply@grellic.test", m.From.Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}

func TestSendgridService_send(t *testing.T) {
	var logs bytes.Buffer
	svc := NewSendgridService(testConf, logsvc.NewStdLogger(log.New(&logs, "", 0), false)).(*sendgridService)
	msg := newAnnouncement()
	require.NoError(t, msg.Render())

	tests := []struct {
		name    string
		res     *rest.Response
		err     error
		wantLog string
	}{
		{name: "accepted", res: &rest.Response{StatusCode: http.StatusAccepted}},
		{name: "rejected", res: &rest.Response{StatusCode: http.StatusBadRequest, Body: "bad from"}, wantLog: "status: 400 - Body: bad from"},
		{name: "transport error", err: errors.New("connection refused"), wantLog: "sending email: connection refused"},
	}

	orig := apiFunc
	defer func() { apiFunc = orig }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			var got rest.Request
			apiFunc = func(req rest.Request) (*rest.Response, error) {
				got = req
				return tt.res, tt.err
			}

			svc.send(*msg)

			assert.Equal(t, rest.Method(http.MethodPost), got.Method)
			assert.True(t, strings.HasSuffix(got.BaseURL, endpoint))
			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(got.Body, &payload))
			assert.Contains(t, payload, "personalizations")

			if tt.wantLog == "" {
				assert.Empty(t, logs.String())
			} else {
				assert.Contains(t, logs.String(), tt.wantLog)
			}
		})
	}
}
