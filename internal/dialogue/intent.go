package dialogue

import (
	"regexp"
	"strings"
)

// Intent is what the caller wants, derived fresh from each transcript.
type Intent string

const (
	IntentTransferToHuman     Intent = "transfer_to_human"
	IntentScheduleAppointment Intent = "schedule_appointment"
	IntentAskHours            Intent = "ask_hours"
	IntentAskServices         Intent = "ask_services"
	IntentAskLocation         Intent = "ask_location"
	IntentUnrecognized        Intent = "unrecognized"
)

type intentRule struct {
	intent  Intent
	pattern *regexp.Regexp
}

// wordPattern matches any of the phrases as whole words.
func wordPattern(phrases ...string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// intentRules is evaluated top to bottom; the first match wins. Transfer
// requests always take priority.
var intentRules = []intentRule{
	{IntentTransferToHuman, wordPattern("human", "representative", "agent", "operator", "real person", "live person", "receptionist")},
	{IntentScheduleAppointment, wordPattern("schedule", "scheduling", "book", "booking", "appointment", "appointments", "reserve")},
	{IntentAskHours, wordPattern("hours", "open", "opening", "close", "closing", "closed")},
	{IntentAskServices, wordPattern("service", "services", "repair", "repairs", "fix", "install", "installs", "installation", "installing")},
	{IntentAskLocation, wordPattern("location", "located", "where", "address", "area")},
}

// Classify maps a normalized transcript to an intent. It is total: any
// input, including the empty string, yields exactly one intent.
func Classify(normalized string) Intent {
	if strings.TrimSpace(normalized) == "" {
		return IntentUnrecognized
	}
	for _, rule := range intentRules {
		if rule.pattern.MatchString(normalized) {
			return rule.intent
		}
	}
	return IntentUnrecognized
}

// Normalize case-folds and trims a raw transcript.
func Normalize(transcript string) string {
	return strings.ToLower(strings.TrimSpace(transcript))
}
