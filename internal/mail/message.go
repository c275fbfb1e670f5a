package mail

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies what triggered an email
type Kind string

const (
	KindWelcome        Kind = "welcome"
	KindPasswordReset  Kind = "password_reset"
	KindBudgetExceeded Kind = "budget_exceeded"
)

// Message is an outbound plain-text email
type Message struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a message from JSON bytes
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.To == "" {
		return nil, fmt.Errorf("message has no recipient")
	}
	return &msg, nil
}

func newMessage(kind Kind, to, subject, body string) *Message {
	return &Message{
		To:        to,
		Subject:   subject,
		Body:      body,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// WelcomeMessage greets a newly registered user
func WelcomeMessage(to, name string) *Message {
	body := fmt.Sprintf("Hi %s,\n\nWelcome to Spendly! Your account is ready.\n\nThe Spendly team\n", name)
	return newMessage(KindWelcome, to, "Welcome to Spendly", body)
}

// PasswordResetMessage carries a one-time reset code
func PasswordResetMessage(to, name, code string, ttl time.Duration) *Message {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is %s. It expires in %d minutes.\n\nIf you did not request a reset you can ignore this email.\n",
		name, code, int(ttl.Minutes()),
	)
	return newMessage(KindPasswordReset, to, "Your Spendly password reset code", body)
}

// BudgetExceededMessage warns that spending went over a budget
func BudgetExceededMessage(to, name, budgetName string, spent, limit decimal.Decimal) *Message {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have spent %s of your %s budget \"%s\".\n\nThe Spendly team\n",
		name, spent.StringFixed(2), limit.StringFixed(2), budgetName,
	)
	return newMessage(KindBudgetExceeded, to, fmt.Sprintf("Budget exceeded: %s", budgetName), body)
}
