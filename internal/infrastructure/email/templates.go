package email

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template names, one per notified trade transition.
const (
	TemplateTradeAccepted  = "trade_accepted"
	TemplateTradeRefused   = "trade_refused"
	TemplateTradeCompleted = "trade_completed"
)

type emailTemplate struct {
	Subject string
	Body    string
}

var templates = map[string]emailTemplate{
	TemplateTradeAccepted: {
		Subject: "Your trade was accepted",
		Body:    "Hi {{.Name}},\n\n{{.CounterParty}} accepted the trade {{.TradeID}}. You can now configure the delivery and complete the exchange.\n",
	},
	TemplateTradeRefused: {
		Subject: "Your trade was refused",
		Body:    "Hi {{.Name}},\n\nthe trade {{.TradeID}} was refused by {{.CounterParty}}. All objects are available again.\n",
	},
	TemplateTradeCompleted: {
		Subject: "Trade completed",
		Body:    "Hi {{.Name}},\n\nthe trade {{.TradeID}} is complete. The exchanged objects now belong to their new owners.\n",
	},
}

// TemplateData is the rendering input shared by all trade templates.
type TemplateData struct {
	Name         string
	CounterParty string
	TradeID      string
}

// Render produces the subject and body for a named template.
func Render(name string, data TemplateData) (string, []byte, error) {
	t, ok := templates[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown email template: %s", name)
	}
	tmpl, err := template.New(name).Parse(t.Body)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", nil, err
	}
	return t.Subject, buf.Bytes(), nil
}
