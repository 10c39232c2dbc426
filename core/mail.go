package core

import (
	"bytes"
	htmltmpl "html/template"
	"net/mail"
)

var announcementTmpl = htmltmpl.Must(htmltmpl.New("announcement").Parse(
	`<p>{{.Text}}</p>{{if .Details}}<ul>{{range .Details}}<li>{{.}}</li>{{end}}</ul>{{end}}`,
))

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string   // simple text/plain content
		Details []string // rendered as a bullet list in the text/html part

		TextContent string
		HTMLContent string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) Render() error {
	if m.BodyStr == "" {
		return nil
	}
	m.TextContent = m.BodyStr
	for _, d := range m.Details {
		m.TextContent += "\r\n - " + d
	}

	var buff bytes.Buffer
	data := struct {
		Text    string
		Details []string
	}{m.BodyStr, m.Details}
	if err := announcementTmpl.Execute(&buff, data); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// ParseAddresses parses a list of RFC 5322 addresses, skipping blanks.
func ParseAddresses(raw []string) ([]mail.Address, error) {
	addrs := make([]mail.Address, 0, len(raw))
	for _, r := range raw {
		if r = CleanString(r); r == "" {
			continue
		}
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, *addr)
	}
	return addrs, nil
}
