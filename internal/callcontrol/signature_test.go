package callcontrol

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestVerifierAcceptsValidSignature(t *testing.T) {
	payload := mustLoadFixture(t, "gather_ended.json")
	v := NewVerifier("topsecret", time.Hour)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	if err := v.Verify(ts, Sign([]byte("topsecret"), ts, payload), payload); err != nil {
		t.Fatalf("verify signature: %v", err)
	}
}

func TestVerifierRejects(t *testing.T) {
	payload := []byte(`{"data":{}}`)
	v := NewVerifier("topsecret", time.Minute)
	fixed := time.Unix(1_800_000_000, 0)
	v.now = func() time.Time { return fixed }
	ts := strconv.FormatInt(fixed.Unix(), 10)
	good := Sign([]byte("topsecret"), ts, payload)

	tests := []struct {
		name      string
		ts        string
		signature string
		body      []byte
	}{
		{"missing timestamp", "", good, payload},
		{"bad timestamp", "yesterday", good, payload},
		{"stale timestamp", strconv.FormatInt(fixed.Add(-time.Hour).Unix(), 10), good, payload},
		{"missing signature", ts, "", payload},
		{"tampered body", ts, good, []byte(`{"data":{"id":"x"}}`)},
		{"wrong secret", ts, Sign([]byte("other"), ts, payload), payload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.Verify(tt.ts, tt.signature, tt.body); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestVerifierDisabledWithoutSecret(t *testing.T) {
	v := NewVerifier("  ", time.Minute)
	if v.Enabled() {
		t.Fatalf("expected verification disabled")
	}
	if err := v.Verify("", "", nil); err != nil {
		t.Fatalf("disabled verifier should accept: %v", err)
	}
}
