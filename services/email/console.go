// Package emailsvc delivers the application's templated emails.
// Two implementations exist: a console service that prints rendered
// messages to the log (development and tests) and a sendgrid service
// that delivers for real.
package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/darasa-app/darasa/core"
)

// Sent records every message the console service delivered, in order.
// Tests inspect it to assert on outgoing mail.
var (
	Sent   = make([]core.EmailMessage, 0)
	sentMu sync.Mutex
)

type consoleService struct {
	from   mail.Address
	prefix string // subject prefix
	quiet  bool   // record without printing
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService() core.EmailService {
	return &consoleService{
		from:   core.Conf.DefaultFromEmail,
		prefix: "[" + core.Conf.AppName + "] ",
	}
}

// NewConsoleServiceMock returns a console service that delivers
// synchronously and skips log output.
func NewConsoleServiceMock() core.EmailService {
	return &consoleServiceMock{consoleService{
		from:   core.Conf.DefaultFromEmail,
		prefix: "[" + core.Conf.AppName + "] ",
		quiet:  true,
	}}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

func (svc consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		log.Printf("emailsvc: rendering %q: %+v", msg.Subject, err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	if !svc.quiet {
		log.Println(svc.dump(*msg))
	}
	sentMu.Lock()
	Sent = append(Sent, *msg)
	sentMu.Unlock()
}

// dump renders a readable transcript of the message for the log.
func (svc consoleService) dump(msg core.EmailMessage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\n", svc.from.String())
	fmt.Fprintf(&b, "Date: %s\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Subject: %s\n", svc.prefix+msg.Subject)
	for _, hdr := range []struct {
		name  string
		addrs []mail.Address
	}{{"To", msg.To}, {"Cc", msg.Cc}, {"Bcc", msg.Bcc}} {
		if len(hdr.addrs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", hdr.name, joinAddresses(hdr.addrs))
	}

	if msg.TextContent != "" {
		fmt.Fprintf(&b, "\n--- text/plain ---\n%s\n", msg.TextContent)
	}
	if msg.HTMLContent != "" {
		fmt.Fprintf(&b, "\n--- text/html ---\n%s\n", msg.HTMLContent)
	}
	for _, at := range msg.Attachments {
		fmt.Fprintf(&b, "\n--- attachment: %s (%s, %d bytes base64) ---\n",
			at.Filename, at.ContentType, at.Content.Len())
	}
	return b.String()
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		strs = append(strs, a.String())
	}
	return strings.Join(strs, ", ")
}

type consoleServiceMock struct {
	consoleService
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.deliver(msg) // synchronous so tests can assert right after
	}
}
