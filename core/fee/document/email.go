package document

import (
	"bytes"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
)

const emailTemplate = "fee_structure"

// EmailData is the data of the fee_structure email templates.
type EmailData struct {
	RecipientName string
	Name          string
	AcademicYear  string
	GrandTotal    string
	Note          string
}

// NewEmailMessage builds an email carrying doc as an HTML attachment.
func NewEmailMessage(doc Document, to []mail.Address, note string) (*core.EmailMessage, error) {
	if len(to) == 0 {
		return nil, errors.New("no recipients")
	}
	recipient := to[0].Name
	if recipient == "" {
		recipient = to[0].Address
	}

	msg := &core.EmailMessage{
		To:           to,
		Subject:      "Fee structure: " + doc.Title,
		TemplateName: emailTemplate,
		TemplateData: EmailData{
			RecipientName: recipient,
			Name:          doc.Title,
			AcademicYear:  doc.AcademicYear,
			GrandTotal:    doc.GrandTotal.Format(),
			Note:          strings.TrimSpace(note),
		},
	}

	var buf bytes.Buffer
	if err := WriteHTML(&buf, doc); err != nil {
		return nil, err
	}
	if err := msg.Attach(&buf, attachmentName(doc.Title), "text/html; charset=utf-8"); err != nil {
		return nil, err
	}
	return msg, nil
}

func attachmentName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, title)
	if name == "" {
		name = "fee-structure"
	}
	return name + ".html"
}
