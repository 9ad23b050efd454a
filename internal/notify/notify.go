package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ticketsmith/ticketsmith/internal/config"
)

// Sender delivers a composed mail message. Interface for testing.
type Sender interface {
	Send(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type smtpSender struct{}

func (smtpSender) Send(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	return smtp.SendMail(addr, a, from, to, msg)
}

// Notifier emails processing notifications. A Notifier with incomplete
// configuration silently declines to send.
type Notifier struct {
	cfg    config.NotifyConfig
	sender Sender
}

// New creates a Notifier from configuration.
func New(cfg config.NotifyConfig) *Notifier {
	return &Notifier{cfg: cfg, sender: smtpSender{}}
}

// IsConfigured reports whether every required SMTP setting is present.
func (n *Notifier) IsConfigured() bool {
	return n.cfg.SMTPHost != "" &&
		n.cfg.SMTPPort > 0 &&
		n.cfg.Sender != "" &&
		n.cfg.Password != "" &&
		len(n.cfg.Recipients) > 0
}

// PRNotification carries the fields of a processed-ticket notification.
type PRNotification struct {
	TicketKey string
	Summary   string
	PRURL     string
	Branch    string
	Files     []string
	TicketURL string
}

// SendPRNotification emails a summary of a processed ticket. It returns
// false without error when notification is not configured.
func (n *Notifier) SendPRNotification(p PRNotification) (bool, error) {
	if !n.IsConfigured() {
		return false, nil
	}

	subject := fmt.Sprintf("PR Created: %s - %s", p.TicketKey, p.Summary)
	msg := buildMessage(n.cfg.Sender, n.cfg.Recipients, subject, composeBody(p))

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.SMTPHost)
	if err := n.sender.Send(addr, auth, n.cfg.Sender, n.cfg.Recipients, msg); err != nil {
		return false, fmt.Errorf("send notification: %w", err)
	}
	return true, nil
}

func composeBody(p PRNotification) string {
	var b strings.Builder
	b.WriteString("Automated Code Generation Complete\n\n")
	fmt.Fprintf(&b, "Ticket: %s\n", p.TicketKey)
	fmt.Fprintf(&b, "Summary: %s\n\n", p.Summary)
	if p.PRURL != "" {
		fmt.Fprintf(&b, "Pull Request: %s\n", p.PRURL)
	}
	fmt.Fprintf(&b, "Branch: %s\n\n", p.Branch)
	fmt.Fprintf(&b, "Files Generated (%d):\n", len(p.Files))
	for _, f := range p.Files {
		fmt.Fprintf(&b, "  - %s\n", f)
	}
	if p.TicketURL != "" {
		fmt.Fprintf(&b, "\nTicket URL: %s\n", p.TicketURL)
	}
	b.WriteString("\nGenerated by ticketsmith.\n")
	return b.String()
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
