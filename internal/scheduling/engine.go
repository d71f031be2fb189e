// Package scheduling turns a caller's spoken request into a booked calendar
// slot, a clarifying question, or a handoff to a human.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/baughelectric/call-assistant/internal/calendar"
	"github.com/baughelectric/call-assistant/internal/dialogue"
	"github.com/baughelectric/call-assistant/pkg/logging"
)

var schedulingTracer = otel.Tracer("callassistant.internal.scheduling")

// AppointmentDuration is the length of every booked slot.
const AppointmentDuration = 60 * time.Minute

// Result labels reported to metrics.
const (
	ResultBooked      = "booked"
	ResultBusy        = "busy"
	ResultNeedsTime   = "needs_time"
	ResultAmbiguous   = "ambiguous_time"
	ResultPastTime    = "past_time"
	ResultClosed      = "outside_hours"
	ResultNotReady    = "not_ready"
	ResultUnavailable = "calendar_error"
)

const (
	askForTime      = "What date and time works best for you?"
	askToClarify    = "I want to make sure I book the right time. Could you tell me the day and the time, for example Friday at 10 AM?"
	apologyTransfer = "I'm sorry, I'm having trouble reaching our scheduling calendar right now. Let me connect you with someone who can book that for you."
)

type resultObserver interface {
	ObserveScheduling(result string)
}

// Config wires an Engine.
type Config struct {
	Gateway   calendar.Gateway
	Readiness calendar.Readiness
	Parser    TemporalParser
	Locker    SlotLocker
	LockTTL   time.Duration
	// Hours, when non-nil, restricts bookings to opening hours.
	Hours    OpeningHours
	Summary  string
	Transfer dialogue.Destination
	// Gather supplies language and timeout for follow-up questions.
	Gather  dialogue.GatherOptions
	Now     func() time.Time
	Logger  *logging.Logger
	Metrics resultObserver
}

// Engine checks availability and books appointments. It holds no per-call
// state and is safe for concurrent use.
type Engine struct {
	gateway   calendar.Gateway
	readiness calendar.Readiness
	parser    TemporalParser
	locker    SlotLocker
	lockTTL   time.Duration
	hours     OpeningHours
	summary   string
	transfer  dialogue.Destination
	gather    dialogue.GatherOptions
	now       func() time.Time
	logger    *logging.Logger
	metrics   resultObserver
}

var _ dialogue.Scheduler = (*Engine)(nil)

// NewEngine builds an engine. Readiness is captured by value; a gateway that
// failed to initialize is never called.
func NewEngine(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Parser == nil {
		cfg.Parser = NewWhenParser(cfg.Now)
	}
	if cfg.Locker == nil {
		cfg.Locker = NoopSlotLocker{}
	}
	if cfg.Summary == "" {
		cfg.Summary = "Service Appointment"
	}
	return &Engine{
		gateway:   cfg.Gateway,
		readiness: cfg.Readiness,
		parser:    cfg.Parser,
		locker:    cfg.Locker,
		lockTTL:   cfg.LockTTL,
		hours:     cfg.Hours,
		summary:   cfg.Summary,
		transfer:  cfg.Transfer,
		gather:    cfg.Gather,
		now:       cfg.Now,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Schedule runs one check-then-book attempt. Calendar failures degrade to a
// human transfer outcome with a nil error; only misconfiguration such as an
// unknown timezone is returned as an error.
func (e *Engine) Schedule(ctx context.Context, req dialogue.ScheduleRequest) (dialogue.Outcome, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.schedule")
	defer span.End()
	span.SetAttributes(attribute.String("calendar.id", req.CalendarID))

	logger := e.logger.With("calendar_id", req.CalendarID)

	if !e.readiness.Ready || e.gateway == nil {
		logger.Warn("calendar gateway not ready, transferring", "reason", e.readiness.Reason)
		return e.finish(span, ResultNotReady, dialogue.SpeakAndTransfer(apologyTransfer, e.transfer)), nil
	}

	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad timezone")
		return dialogue.Outcome{}, fmt.Errorf("scheduling: load timezone %q: %w", req.Timezone, err)
	}

	// Slots are minute-aligned, so "now" is compared at the same granularity.
	now := e.now().In(loc).Truncate(time.Minute)
	at, precision := e.parser.Parse(req.Transcript, loc)
	span.SetAttributes(attribute.Int("scheduling.precision", int(precision)))
	switch precision {
	case PrecisionTime:
	case PrecisionDate:
		if at.Before(startOfDay(now)) {
			return e.finish(span, ResultPastTime, e.ask("That day has already passed. "+askForTime)), nil
		}
		return e.finish(span, ResultNeedsTime, e.ask(fmt.Sprintf(
			"What time on %s works best for you?", at.Format("Monday, January 2"),
		))), nil
	case PrecisionAmbiguous:
		logger.Info("ambiguous date or time in transcript")
		return e.finish(span, ResultAmbiguous, e.ask(askToClarify)), nil
	default:
		return e.finish(span, ResultNeedsTime, e.ask(askForTime)), nil
	}
	slot := calendar.NewSlot(at, AppointmentDuration)
	span.SetAttributes(attribute.String("calendar.slot_start", slot.Start.Format(time.RFC3339)))

	if slot.Start.Before(now) {
		return e.finish(span, ResultPastTime, e.ask("That time has already passed. "+askForTime)), nil
	}
	if e.hours != nil && !e.hours.Contains(slot) {
		return e.finish(span, ResultClosed, e.ask(
			"We book appointments Monday through Friday between 8 AM and 6 PM, and Saturdays between 9 AM and 2 PM. "+
				"What other day and time would work for you?",
		)), nil
	}

	release, err := e.locker.Acquire(ctx, slot.Key(req.CalendarID), e.lockTTL)
	if errors.Is(err, ErrSlotLocked) {
		logger.Info("slot locked by concurrent caller", "slot_start", slot.Start)
		return e.finish(span, ResultBusy, e.busy(slot)), nil
	}
	if err != nil {
		logger.Error("slot lock unavailable", "error", err)
		span.RecordError(err)
		return e.finish(span, ResultUnavailable, dialogue.SpeakAndTransfer(apologyTransfer, e.transfer)), nil
	}
	defer release()

	avail, err := e.gateway.CheckAvailability(ctx, slot, req.CalendarID)
	if err != nil {
		logger.Error("availability check failed", "error", err, "slot_start", slot.Start)
		span.RecordError(err)
		return e.finish(span, ResultUnavailable, dialogue.SpeakAndTransfer(apologyTransfer, e.transfer)), nil
	}
	if !avail.Available() {
		logger.Info("requested slot is busy", "slot_start", slot.Start, "conflicts", len(avail.Busy))
		return e.finish(span, ResultBusy, e.busy(slot)), nil
	}

	committed, err := e.gateway.BookAppointment(ctx, calendar.Appointment{
		CalendarID:  req.CalendarID,
		Slot:        slot,
		Summary:     e.summary,
		Description: describeCaller(req.CallerRef),
		CallerRef:   req.CallerRef,
	})
	if err != nil {
		logger.Error("appointment insert failed", "error", err, "slot_start", slot.Start)
		span.RecordError(err)
		return e.finish(span, ResultUnavailable, dialogue.SpeakAndTransfer(apologyTransfer, e.transfer)), nil
	}

	logger.Info("appointment booked", "event_id", committed.EventID, "slot_start", slot.Start)
	return e.finish(span, ResultBooked, dialogue.Speak(confirmation(slot))), nil
}

func (e *Engine) finish(span trace.Span, result string, out dialogue.Outcome) dialogue.Outcome {
	span.SetAttributes(attribute.String("scheduling.result", result))
	if e.metrics != nil {
		e.metrics.ObserveScheduling(result)
	}
	return out
}

func (e *Engine) ask(text string) dialogue.Outcome {
	opts := e.gather
	opts.Hints = []string{"tomorrow", "today", "morning", "afternoon", "monday", "friday", "representative"}
	return dialogue.SpeakAndGather(text, opts)
}

func (e *Engine) busy(slot calendar.Slot) dialogue.Outcome {
	return e.ask(fmt.Sprintf(
		"I'm sorry, we're already booked on %s at %s. What other date and time would work for you?",
		slot.Start.Format("Monday, January 2"),
		slot.Start.Format("3:04 PM"),
	))
}

func confirmation(slot calendar.Slot) string {
	return fmt.Sprintf(
		"You're all set. Your appointment is booked for %s from %s to %s %s. We look forward to seeing you!",
		slot.Start.Format("Monday, January 2"),
		slot.Start.Format("3:04 PM"),
		slot.End.Format("3:04 PM"),
		slot.Start.Format("MST"),
	)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func describeCaller(caller string) string {
	if caller == "" {
		caller = "unknown number"
	}
	return "Booked by the phone assistant. Caller: " + caller
}
