package dialogue

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/baughelectric/call-assistant/pkg/logging"
)

var dialogueTracer = otel.Tracer("callassistant.internal.dialogue")

// ScheduleRequest is everything the scheduling engine needs for one turn.
type ScheduleRequest struct {
	Transcript string
	CallerRef  string
	Timezone   string
	CalendarID string
}

// Scheduler books appointments. A returned error is treated as an
// unhandled fault and converted to a human transfer.
type Scheduler interface {
	Schedule(ctx context.Context, req ScheduleRequest) (Outcome, error)
}

type intentObserver interface {
	ObserveIntent(intent string)
}

// Script holds the spoken copy and gather settings for the fixed branches.
type Script struct {
	BusinessName      string
	HoursText         string
	ServicesText      string
	ServiceAreaText   string
	Language          string
	SpeechTimeout     int
	InterDigitTimeout int
}

// Config wires an Orchestrator.
type Config struct {
	Script     Script
	Transfer   Destination
	Scheduler  Scheduler
	CalendarID string
	Timezone   string
	Logger     *logging.Logger
	Metrics    intentObserver
}

// Orchestrator is the per-turn dialogue state machine. It is stateless
// across turns and safe for concurrent use.
type Orchestrator struct {
	script     Script
	transfer   Destination
	scheduler  Scheduler
	calendarID string
	timezone   string
	logger     *logging.Logger
	metrics    intentObserver
}

// NewOrchestrator builds an orchestrator from cfg.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Script.Language == "" {
		cfg.Script.Language = "en-US"
	}
	if cfg.Script.SpeechTimeout <= 0 {
		cfg.Script.SpeechTimeout = 5
	}
	return &Orchestrator{
		script:     cfg.Script,
		transfer:   cfg.Transfer,
		scheduler:  cfg.Scheduler,
		calendarID: cfg.CalendarID,
		timezone:   cfg.Timezone,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Handle produces exactly one outcome for evt. It never returns an error and
// never panics; faults become an apology plus a transfer to a human.
func (o *Orchestrator) Handle(ctx context.Context, evt CallEvent) (out Outcome) {
	ctx, span := dialogueTracer.Start(ctx, "dialogue.handle")
	defer span.End()
	span.SetAttributes(attribute.String("call.event_type", string(evt.Type)))

	logger := o.logger.WithCall(evt.CallControlID, evt.From)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("dialogue: panic during turn: %v", r)
			logger.Error("call turn panicked", "error", err, "event_type", evt.Type)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			out = o.fault()
		}
		span.SetAttributes(attribute.String("dialogue.outcome", string(out.Kind)))
	}()

	switch evt.Type {
	case EventCallInitiated:
		return o.greeting()
	case EventGatherEnded:
		return o.respond(ctx, logger, evt)
	default:
		logger.Debug("ignoring call event", "event_type", evt.Type)
		return Acknowledge()
	}
}

func (o *Orchestrator) respond(ctx context.Context, logger *logging.Logger, evt CallEvent) Outcome {
	normalized := Normalize(evt.Transcript)
	intent := Classify(normalized)
	if o.metrics != nil {
		o.metrics.ObserveIntent(string(intent))
	}
	logger.Info("classified caller intent", "intent", intent)
	logger.Debug("caller transcript", "transcript", normalized)

	switch intent {
	case IntentTransferToHuman:
		return Transfer(o.transfer)
	case IntentScheduleAppointment:
		return o.schedule(ctx, logger, evt, normalized)
	case IntentAskHours:
		return SpeakAndGather(o.script.HoursText, o.gather("schedule", "services", "location", "human"))
	case IntentAskServices:
		return SpeakAndGather(
			o.script.ServicesText+" Would you like to schedule an appointment, or should I connect you with a representative?",
			o.gather("schedule", "human", "representative", "yes", "no"),
		)
	case IntentAskLocation:
		return SpeakAndGather(o.script.ServiceAreaText, o.gather("human", "representative", "hours", "services", "schedule"))
	default:
		return o.fallback()
	}
}

func (o *Orchestrator) schedule(ctx context.Context, logger *logging.Logger, evt CallEvent, normalized string) Outcome {
	if o.scheduler == nil {
		logger.Error("scheduling requested without a scheduler")
		return o.fault()
	}
	out, err := o.scheduler.Schedule(ctx, ScheduleRequest{
		Transcript: normalized,
		CallerRef:  evt.From,
		Timezone:   o.timezone,
		CalendarID: o.calendarID,
	})
	if err != nil {
		logger.Error("scheduling failed", "error", err)
		return o.fault()
	}
	if out.Kind == "" {
		logger.Error("scheduling returned empty outcome", "error", errors.New("dialogue: empty outcome"))
		return o.fault()
	}
	return out
}

func (o *Orchestrator) greeting() Outcome {
	text := fmt.Sprintf(
		"Hello, thanks for calling %s, your trusted local electrical and HVAC experts. "+
			"I can tell you about our hours, services, or location, or schedule an appointment. How can I help you today?",
		o.script.BusinessName,
	)
	opts := o.gather("hours", "services", "location", "schedule", "appointment", "human", "representative")
	opts.InterDigitTimeout = o.script.InterDigitTimeout
	return SpeakAndGather(text, opts)
}

func (o *Orchestrator) fallback() Outcome {
	return SpeakAndGather(
		"I'm sorry, I didn't catch that. You can ask about our hours, services, or location, or say schedule to book an appointment. "+
			"Or say representative to speak with a human.",
		o.gather("human", "representative", "hours", "services", "location", "schedule"),
	)
}

func (o *Orchestrator) fault() Outcome {
	return SpeakAndTransfer(
		"I'm sorry, something went wrong on our end. Let me connect you with someone who can help.",
		o.transfer,
	)
}

func (o *Orchestrator) gather(hints ...string) GatherOptions {
	return GatherOptions{
		Language:      o.script.Language,
		Hints:         hints,
		SpeechTimeout: o.script.SpeechTimeout,
	}
}
