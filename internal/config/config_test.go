package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TRANSFER_TO_NUMBER", "")
	t.Setenv("CALENDAR_TIMEZONE", "")
	t.Setenv("CALENDAR_TIMEOUT", "")
	t.Setenv("BOOKING_ENFORCE_OPEN_HOURS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.TransferToNumber != "+17177362829" {
		t.Fatalf("expected default transfer number, got %s", cfg.TransferToNumber)
	}
	if cfg.CalendarTimezone != "America/New_York" {
		t.Fatalf("expected default timezone, got %s", cfg.CalendarTimezone)
	}
	if cfg.CalendarTimeout != 5*time.Second {
		t.Fatalf("expected default calendar timeout, got %s", cfg.CalendarTimeout)
	}
	if !cfg.BookingEnforceOpenHours {
		t.Fatalf("expected open hours enforced by default")
	}
	if cfg.BusinessHoursText != DefaultHoursText {
		t.Fatalf("expected default hours script, got %q", cfg.BusinessHoursText)
	}
	if cfg.TelnyxSpeechTimeout != 5 || cfg.TelnyxInterDigitTimeout != 2 {
		t.Fatalf("unexpected gather timeouts %d/%d", cfg.TelnyxSpeechTimeout, cfg.TelnyxInterDigitTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("GOOGLE_CALENDAR_ID", " shop@group.calendar.google.com ")
	t.Setenv("CALENDAR_TIMEOUT", "1500ms")
	t.Setenv("SLOT_LOCK_TTL", "45s")
	t.Setenv("BOOKING_ENFORCE_OPEN_HOURS", "false")
	t.Setenv("TELNYX_SPEECH_TIMEOUT", "8")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected database url override, got %s", cfg.DatabaseURL)
	}
	if cfg.GoogleCalendarID != "shop@group.calendar.google.com" {
		t.Fatalf("expected trimmed calendar id, got %q", cfg.GoogleCalendarID)
	}
	if cfg.CalendarTimeout != 1500*time.Millisecond {
		t.Fatalf("expected calendar timeout override, got %s", cfg.CalendarTimeout)
	}
	if cfg.SlotLockTTL != 45*time.Second {
		t.Fatalf("expected slot lock ttl override, got %s", cfg.SlotLockTTL)
	}
	if cfg.BookingEnforceOpenHours {
		t.Fatalf("expected open hours enforcement disabled")
	}
	if cfg.TelnyxSpeechTimeout != 8 {
		t.Fatalf("expected speech timeout override, got %d", cfg.TelnyxSpeechTimeout)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CALENDAR_TIMEOUT", "soon")
	t.Setenv("TELNYX_SPEECH_TIMEOUT", "five")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.CalendarTimeout != 5*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.CalendarTimeout)
	}
	if cfg.TelnyxSpeechTimeout != 5 {
		t.Fatalf("expected fallback speech timeout, got %d", cfg.TelnyxSpeechTimeout)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected redis tls fallback false")
	}
}
