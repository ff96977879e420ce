package escalation

import (
	"fmt"

	"github.com/quellwerk/concierge/tenant"
)

// HandoffMessage is the customer-facing text sent when a conversation is
// escalated to a human, localized per tenant.
func HandoffMessage(t *tenant.Tenant) string {
	contact := t.SupportContact
	switch t.Language {
	case "en":
		if contact != "" {
			return fmt.Sprintf("I'm connecting you with one of our service agents. You can also reach us directly at %s.", contact)
		}
		return "I'm connecting you with one of our service agents who will take care of your request."
	default:
		if contact != "" {
			return fmt.Sprintf("Ich leite Sie an eine Mitarbeiterin oder einen Mitarbeiter unseres Serviceteams weiter. Sie erreichen uns auch direkt unter %s.", contact)
		}
		return "Ich leite Sie an eine Mitarbeiterin oder einen Mitarbeiter unseres Serviceteams weiter, die sich um Ihr Anliegen kümmern."
	}
}

// FallbackMessage is the apology sent when no answer could be generated,
// localized per tenant.
func FallbackMessage(t *tenant.Tenant) string {
	switch t.Language {
	case "en":
		return "I'm sorry, I can't answer your request right now. A member of our service team will get back to you shortly."
	default:
		return "Es tut mir leid, ich kann Ihre Anfrage im Moment nicht beantworten. Eine Mitarbeiterin oder ein Mitarbeiter unseres Serviceteams meldet sich in Kürze bei Ihnen."
	}
}
