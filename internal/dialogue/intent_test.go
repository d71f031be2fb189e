package dialogue

import (
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		transcript string
		want       Intent
	}{
		{"i want to talk to a representative please", IntentTransferToHuman},
		{"agent", IntentTransferToHuman},
		{"can i speak to a real person", IntentTransferToHuman},
		{"can i book an appointment tomorrow at 3pm", IntentScheduleAppointment},
		{"schedule something", IntentScheduleAppointment},
		{"what are your hours", IntentAskHours},
		{"are you open on saturday", IntentAskHours},
		{"do you install heat pumps", IntentAskServices},
		{"what services do you offer", IntentAskServices},
		{"where are you located", IntentAskLocation},
		{"what's your address", IntentAskLocation},
		{"banana", IntentUnrecognized},
		{"", IntentUnrecognized},
		{"   ", IntentUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			if got := Classify(Normalize(tt.transcript)); got != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.transcript, got, tt.want)
			}
		})
	}
}

func TestClassifyTransferKeywordWinsAnywhere(t *testing.T) {
	keywords := []string{"human", "representative", "agent", "operator"}
	templates := []string{
		"%s",
		"%s, please",
		"i'd like to book an appointment, actually no, get me a %s!",
		"what are your hours? also... %s.",
		"(%s)",
		"\"%s\"",
		"schedule with a %s at your location",
	}
	for _, kw := range keywords {
		for _, tmpl := range templates {
			transcript := fmt.Sprintf(tmpl, kw)
			if got := Classify(Normalize(transcript)); got != IntentTransferToHuman {
				t.Fatalf("Classify(%q) = %s, want transfer", transcript, got)
			}
		}
	}
}

func TestClassifyUsesWholeWords(t *testing.T) {
	tests := []struct {
		transcript string
		want       Intent
	}{
		// "book" inside a longer word must not trigger scheduling.
		{"i saw you on facebook", IntentUnrecognized},
		{"my notebook is broken", IntentUnrecognized},
		// "agent" inside "agents" or "agency" must not force a transfer.
		{"the agency told me to call", IntentUnrecognized},
		{"humane society referred me", IntentUnrecognized},
		{"the door is opened", IntentUnrecognized},
		{"somewhere over the rainbow", IntentUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			if got := Classify(Normalize(tt.transcript)); got != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.transcript, got, tt.want)
			}
		})
	}
}

func TestClassifyOrdering(t *testing.T) {
	tests := []struct {
		transcript string
		want       Intent
	}{
		{"book a repair at your location during open hours", IntentScheduleAppointment},
		{"what hours do you do repairs", IntentAskHours},
		{"where do you install", IntentAskServices},
	}
	for _, tt := range tests {
		if got := Classify(Normalize(tt.transcript)); got != tt.want {
			t.Fatalf("Classify(%q) = %s, want %s", tt.transcript, got, tt.want)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	inputs := []string{"", "hours", "book it", "HUMAN", "zzz", "where is the office"}
	for _, in := range inputs {
		first := Classify(Normalize(in))
		for i := 0; i < 50; i++ {
			if got := Classify(Normalize(in)); got != first {
				t.Fatalf("Classify(%q) changed from %s to %s", in, first, got)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  What Are Your HOURS?  "); got != "what are your hours?" {
		t.Fatalf("unexpected normalized value %q", got)
	}
}
