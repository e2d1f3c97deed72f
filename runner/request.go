package runner

import (
	"encoding/json"

	"github.com/hupe1980/agentloop/core"
)

// DefaultCustomerID is used when a request names no customer.
const DefaultCustomerID = "C001"

// HistoryMessage is one prior turn supplied by the caller.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat invocation.
type Request struct {
	Message    string           `json:"message"`
	History    []HistoryMessage `json:"history,omitempty"`
	CustomerID string           `json:"customer_id,omitempty"`
}

// UnmarshalJSON accepts "customerId" as an alias of "customer_id".
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var aux struct {
		plain
		CustomerIDAlias string `json:"customerId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Request(aux.plain)
	if r.CustomerID == "" {
		r.CustomerID = aux.CustomerIDAlias
	}
	return nil
}

// Customer returns the customer id, falling back to DefaultCustomerID.
func (r Request) Customer() string {
	if r.CustomerID == "" {
		return DefaultCustomerID
	}
	return r.CustomerID
}

// messages builds the initial conversation: system prompt, the user and
// assistant turns of the history, then the new user message. History entries
// with any other role are dropped.
func (r Request) messages(systemPrompt string) []core.Message {
	msgs := make([]core.Message, 0, len(r.History)+2)
	msgs = append(msgs, core.NewSystemMessage(systemPrompt))
	for _, h := range r.History {
		switch core.Role(h.Role) {
		case core.RoleUser:
			msgs = append(msgs, core.NewUserMessage(h.Content))
		case core.RoleAssistant:
			msgs = append(msgs, core.NewAssistantMessage(h.Content))
		}
	}
	return append(msgs, core.NewUserMessage(r.Message))
}
