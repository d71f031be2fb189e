package callcontrol

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/baughelectric/call-assistant/internal/dialogue"
)

func mustLoadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

func TestParseEventGatherEnded(t *testing.T) {
	env, err := ParseEvent(mustLoadFixture(t, "gather_ended.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	evt := env.CallEvent()
	if evt.Type != dialogue.EventGatherEnded {
		t.Fatalf("unexpected type %q", evt.Type)
	}
	if evt.ID != "0ccc7b54-4df3-4bca-a65a-3da1ecc777f0" || evt.From != "+15551230000" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.Transcript != "Can I book an appointment tomorrow at 3pm" {
		t.Fatalf("unexpected transcript %q", evt.Transcript)
	}
	if evt.CallControlID == "" {
		t.Fatalf("expected call control id")
	}
}

func TestParseEventNullTranscript(t *testing.T) {
	env, err := ParseEvent([]byte(`{"data":{"event_type":"call.gather.ended","payload":{"transcript":null}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	evt := env.CallEvent()
	if evt.Transcript != "" || evt.From != "" {
		t.Fatalf("expected empty transcript and caller, got %+v", evt)
	}
}

func TestParseEventUnknownTypeAccepted(t *testing.T) {
	env, err := ParseEvent([]byte(`{"data":{"event_type":"call.hangup","payload":{}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.CallEvent().Type != "call.hangup" {
		t.Fatalf("unexpected type %q", env.CallEvent().Type)
	}
}

func TestParseEventRejectsMalformed(t *testing.T) {
	for _, body := range []string{"", "not json", `{"data":`} {
		if _, err := ParseEvent([]byte(body)); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("expected ErrInvalidPayload for %q, got %v", body, err)
		}
	}
}
