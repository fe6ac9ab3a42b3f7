// internal/transport/transport.go
package transport

// EmailSender delivers one transactional email and returns the provider's
// message id.
type EmailSender interface {
	Send(to, subject, htmlBody string) (string, error)
}

// WhatsAppSender delivers one WhatsApp business message, either a named
// template with ordered parameters or free text.
type WhatsAppSender interface {
	SendTemplate(toPhone, templateName string, params []string) (string, error)
	SendText(toPhone, text string) (string, error)
}
