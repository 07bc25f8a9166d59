package notification

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/wneessen/go-mail"
)

const defaultSendTimeout = 15 * time.Second

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, event domain.OrderPlacedEvent) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

var orderConfirmation = template.Must(template.New("order").Parse(`Thank you for your order.

Order: {{.OrderID}}
Status: {{.OrderStatus}}
Ship to: {{.ShippingAddress}}

{{range .Items}}{{.Quantity}} x {{.Name}} ({{.Color}}) @ {{.Price.StringFixed 2}}
{{end}}
Total: {{.TotalAmount.StringFixed 2}}
`))

type SMTPMailer struct {
	from    string
	timeout time.Duration
	send    func(ctx context.Context, msgs ...*mail.Msg) error
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp port %q: %w", cfg.Port, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{
		from:    cfg.From,
		timeout: timeout,
		send:    client.DialAndSendWithContext,
	}, nil
}

// SendOrderConfirmation delivers one message. The whole SMTP exchange is
// bounded by the mailer's timeout.
func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, event domain.OrderPlacedEvent) error {
	msg, err := m.message(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", event.Email, err)
	}
	return nil
}

func (m *SMTPMailer) message(event domain.OrderPlacedEvent) (*mail.Msg, error) {
	var body bytes.Buffer
	if err := orderConfirmation.Execute(&body, event); err != nil {
		return nil, fmt.Errorf("failed to render order confirmation: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(event.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", event.Email, err)
	}
	msg.Subject("Your order " + event.OrderID)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body.String())
	return msg, nil
}
