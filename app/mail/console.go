package mail

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
)

// ConsoleMailer prints messages to the log instead of sending them.
type ConsoleMailer struct {
	from       mail.Address
	subjPrefix string
}

func NewConsoleMailer(from mail.Address, appName string) *ConsoleMailer {
	return &ConsoleMailer{from: from, subjPrefix: "[" + appName + "] "}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", m.from.String())
	_, _ = fmt.Fprintf(body, "To: %s\r\n", msg.To.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n\r\n", m.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "%s\r\n", msg.Text)
	log.Println(body.String())
	return nil
}
