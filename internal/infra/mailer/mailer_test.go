package mailer

import (
	"strings"
	"testing"

	"github.com/tralhotec/tralhobot-go/internal/domain"
)

func TestSubjectFor(t *testing.T) {
	if got := subjectFor(&domain.LeadRecord{Qualified: true}); got != "Log de Conversa Tralhobot - Contato Qualificado" {
		t.Errorf("unexpected subject: %q", got)
	}
	if got := subjectFor(&domain.LeadRecord{Qualified: false}); got != "Log de Conversa Tralhobot - Contato Não Qualificado" {
		t.Errorf("unexpected subject: %q", got)
	}
}

func TestBodyFor(t *testing.T) {
	lead := &domain.LeadRecord{
		Name:      "Maria Silva",
		Role:      "Gerente de TI",
		Company:   "Empresa XPTO",
		Needs:     "Colaboração",
		Size:      "cerca de 50",
		Email:     "maria@xpto.com",
		Qualified: true,
	}
	transcript := "User: oi\nTralhobot: Olá!\n"

	body := bodyFor(lead, transcript)

	for _, want := range []string{
		"Prezados(as) Stakeholders,",
		"Nome: Maria Silva",
		"Cargo: Gerente de TI",
		"Empresa: Empresa XPTO",
		"Porte da Empresa: cerca de 50",
		"Email de Contato: maria@xpto.com",
		"Qualificado para SDR: Sim",
		"--- Log da Conversa ---\nUser: oi\nTralhobot: Olá!\n",
		"Atenciosamente,\nTralhobot Automatizado",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBodyFor_EmptyFieldsReadNA(t *testing.T) {
	body := bodyFor(&domain.LeadRecord{}, "")

	if !strings.Contains(body, "Nome: N/A") {
		t.Errorf("expected N/A for empty name:\n%s", body)
	}
	if !strings.Contains(body, "Email de Contato: N/A") {
		t.Errorf("expected N/A for empty email:\n%s", body)
	}
	if !strings.Contains(body, "Qualificado para SDR: Não") {
		t.Errorf("expected Não for unqualified lead:\n%s", body)
	}
}
