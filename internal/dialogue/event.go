package dialogue

// EventType is the call-lifecycle tag carried by an inbound webhook.
type EventType string

const (
	EventCallInitiated EventType = "call.initiated"
	EventGatherEnded   EventType = "call.gather.ended"
)

// CallEvent is one inbound call turn.
type CallEvent struct {
	Type EventType
	// ID is the provider event id, used only for dedupe and logs.
	ID string
	// CallControlID identifies the live call, when the provider sends one.
	CallControlID string
	// From is the caller's number; may be empty.
	From string
	// Transcript is the speech-to-text result for gather events; may be empty.
	Transcript string
}
