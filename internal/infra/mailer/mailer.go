// Package mailer implements the Notification Sink: a completed lead and its
// transcript are delivered to the stakeholder addresses over SMTP.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
	"github.com/wneessen/go-mail"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/domain"
)

var tracer = otel.Tracer("infra/mailer")

// Config holds the SMTP parameters for the notification e-mail.
type Config struct {
	FromAddress string
	ToAddress   string
	Password    string
	SMTPServer  string
	SMTPPort    int
}

// Mailer sends the lead notification e-mail. Failures never reach the user;
// the dispatcher only logs them.
type Mailer struct {
	cfg    Config
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// New creates the SMTP notification sink.
func New(cfg Config, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, cb: cb, logger: logger}
}

// Notify sends one e-mail with the labeled lead fields and the transcript.
// Called exactly once per completed SDR flow; no retries.
func (m *Mailer) Notify(ctx context.Context, lead *domain.LeadRecord, transcript string) error {
	ctx, span := tracer.Start(ctx, "Mailer.Notify")
	defer span.End()

	_, err := m.cb.Execute(func() (any, error) {
		msg := mail.NewMsg()
		if err := msg.From(m.cfg.FromAddress); err != nil {
			return nil, fmt.Errorf("set sender: %w", err)
		}
		if err := msg.To(m.cfg.ToAddress); err != nil {
			return nil, fmt.Errorf("set recipient: %w", err)
		}
		msg.Subject(subjectFor(lead))
		msg.SetBodyString(mail.TypeTextPlain, bodyFor(lead, transcript))

		client, err := mail.NewClient(m.cfg.SMTPServer,
			mail.WithPort(m.cfg.SMTPPort),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.FromAddress),
			mail.WithPassword(m.cfg.Password),
			mail.WithTLSPolicy(mail.TLSMandatory), // STARTTLS, como o provedor exige na 587
		)
		if err != nil {
			return nil, fmt.Errorf("create smtp client: %w", err)
		}

		if err := client.DialAndSendWithContext(ctx, msg); err != nil {
			return nil, fmt.Errorf("send notification mail: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "smtp", Err: err}
	}

	m.logger.Info("lead notification sent",
		zap.String("to", m.cfg.ToAddress),
		zap.Bool("qualified", lead.Qualified),
	)
	return nil
}

func subjectFor(lead *domain.LeadRecord) string {
	q := "Não Qualificado"
	if lead.Qualified {
		q = "Qualificado"
	}
	return "Log de Conversa Tralhobot - Contato " + q
}

// bodyFor renders the plain-text body: labeled contact fields followed by
// the full transcript. The copy mirrors the e-mail stakeholders already get.
func bodyFor(lead *domain.LeadRecord, transcript string) string {
	qualified := "Não"
	if lead.Qualified {
		qualified = "Sim"
	}

	var b strings.Builder
	b.WriteString("Prezados(as) Stakeholders,\n\n")
	b.WriteString("Uma nova interação com o Tralhobot foi concluída. Abaixo estão os detalhes da conversa e os dados coletados:\n\n")
	b.WriteString("--- Dados do Contato ---\n")
	fmt.Fprintf(&b, "Nome: %s\n", orNA(lead.Name))
	fmt.Fprintf(&b, "Cargo: %s\n", orNA(lead.Role))
	fmt.Fprintf(&b, "Empresa: %s\n", orNA(lead.Company))
	fmt.Fprintf(&b, "Necessidades: %s\n", orNA(lead.Needs))
	fmt.Fprintf(&b, "Porte da Empresa: %s\n", orNA(lead.Size))
	fmt.Fprintf(&b, "Email de Contato: %s\n", orNA(lead.Email))
	fmt.Fprintf(&b, "Qualificado para SDR: %s\n\n", qualified)
	b.WriteString("--- Log da Conversa ---\n")
	b.WriteString(transcript)
	b.WriteString("-----------------------\n\n")
	b.WriteString("Atenciosamente,\nTralhobot Automatizado")
	return b.String()
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
