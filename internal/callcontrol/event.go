// Package callcontrol speaks the telephony platform's webhook dialect: it
// decodes inbound call events, verifies their signatures, and compiles
// dialogue outcomes into the command list the platform executes.
package callcontrol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/baughelectric/call-assistant/internal/dialogue"
)

// ErrInvalidPayload means the request body is not a call-control envelope.
var ErrInvalidPayload = errors.New("callcontrol: invalid webhook payload")

// Envelope is the outer webhook body.
type Envelope struct {
	Data EventData `json:"data"`
}

// EventData carries the event tag and its payload.
type EventData struct {
	ID         string  `json:"id"`
	EventType  string  `json:"event_type"`
	OccurredAt string  `json:"occurred_at,omitempty"`
	Payload    Payload `json:"payload"`
}

// Payload holds the call fields used by the dialogue. Transcript is only
// present on gather events and may be null.
type Payload struct {
	CallControlID string  `json:"call_control_id,omitempty"`
	From          string  `json:"from,omitempty"`
	To            string  `json:"to,omitempty"`
	Transcript    *string `json:"transcript,omitempty"`
}

// ParseEvent decodes a webhook body. Unknown event types are accepted;
// the dialogue acknowledges them.
func ParseEvent(body []byte) (Envelope, error) {
	var env Envelope
	if len(body) == 0 {
		return env, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return env, nil
}

// CallEvent converts the envelope into the dialogue's event type.
func (e Envelope) CallEvent() dialogue.CallEvent {
	evt := dialogue.CallEvent{
		Type:          dialogue.EventType(strings.TrimSpace(e.Data.EventType)),
		ID:            e.Data.ID,
		CallControlID: e.Data.Payload.CallControlID,
		From:          strings.TrimSpace(e.Data.Payload.From),
	}
	if e.Data.Payload.Transcript != nil {
		evt.Transcript = *e.Data.Payload.Transcript
	}
	return evt
}
