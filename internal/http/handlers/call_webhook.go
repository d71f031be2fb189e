package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/baughelectric/call-assistant/internal/calendar"
	"github.com/baughelectric/call-assistant/internal/callcontrol"
	"github.com/baughelectric/call-assistant/internal/dialogue"
	"github.com/baughelectric/call-assistant/pkg/logging"
)

const (
	maxWebhookBody = 1 << 20
	// defaultReplayWait bounds how long a retry waits for the first delivery
	// of the same event to record its reply.
	defaultReplayWait = 3 * time.Second
	replayPoll        = 100 * time.Millisecond
	saveTimeout       = 2 * time.Second
)

type turnHandler interface {
	Handle(ctx context.Context, evt dialogue.CallEvent) dialogue.Outcome
}

type processedTracker interface {
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	StoredResponse(ctx context.Context, eventID string) ([]byte, error)
	SaveResponse(ctx context.Context, eventID string, response []byte) error
}

type turnMetrics interface {
	ObserveTurn(eventType, outcome string)
	ObserveWebhookLatency(eventType string, seconds float64)
}

// CallWebhookHandler serves the call-control webhook: one inbound event in,
// one command list out.
type CallWebhookHandler struct {
	dialogue  turnHandler
	compiler  callcontrol.Compiler
	verifier  *callcontrol.Verifier
	processed  processedTracker
	replayWait time.Duration
	readiness  calendar.Readiness
	logger     *logging.Logger
	metrics    turnMetrics
}

type CallWebhookConfig struct {
	Dialogue turnHandler
	Compiler callcontrol.Compiler
	// Verifier may be nil, which disables signature checks.
	Verifier *callcontrol.Verifier
	// Processed may be nil, which disables retry dedupe.
	Processed processedTracker
	// ReplayWait bounds how long a retried delivery waits for the original
	// reply. Zero means three seconds.
	ReplayWait time.Duration
	Readiness  calendar.Readiness
	Logger     *logging.Logger
	Metrics    turnMetrics
}

func NewCallWebhookHandler(cfg CallWebhookConfig) *CallWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.ReplayWait <= 0 {
		cfg.ReplayWait = defaultReplayWait
	}
	return &CallWebhookHandler{
		dialogue:   cfg.Dialogue,
		compiler:   cfg.Compiler,
		verifier:   cfg.Verifier,
		processed:  cfg.Processed,
		replayWait: cfg.ReplayWait,
		readiness:  cfg.Readiness,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// HandleCall processes one call-control event and replies with commands.
func (h *CallWebhookHandler) HandleCall(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.verifier.Verify(r.Header.Get(callcontrol.HeaderTimestamp), r.Header.Get(callcontrol.HeaderSignature), body); err != nil {
		h.logger.Warn("invalid telnyx call webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
	env, err := callcontrol.ParseEvent(body)
	if err != nil {
		h.logger.Warn("invalid call webhook payload", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	evt := env.CallEvent()
	logger := h.logger.WithCall(evt.CallControlID, evt.From)

	// The turn outlives a dropped connection so a retry can be given its reply.
	ctx := context.WithoutCancel(r.Context())

	claimed, duplicate := h.claim(ctx, logger, evt)
	if duplicate {
		h.replay(r.Context(), w, logger, evt, start)
		return
	}

	logger.Info("call event received", "event_type", evt.Type, "event_id", evt.ID)
	if evt.Transcript != "" {
		logger.Debug("caller transcript", "transcript", evt.Transcript)
	}
	out := dialogue.Acknowledge()
	if h.dialogue != nil {
		out = h.dialogue.Handle(ctx, evt)
	}
	logger.Info("call turn answered", "event_type", evt.Type, "outcome", out.Kind)

	reply, err := json.Marshal(h.compiler.Compile(out))
	if err != nil {
		logger.Error("failed to encode call commands", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if claimed {
		saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
		if err := h.processed.SaveResponse(saveCtx, evt.ID, reply); err != nil {
			logger.Error("failed to store call reply", "error", err, "event_id", evt.ID)
		}
		cancel()
	}
	h.observe(evt, string(out.Kind), start)
	writeRawJSON(w, http.StatusOK, reply)
}

// claim records the event id. claimed is true when this delivery owns the
// event; duplicate is true when an earlier delivery does. A store failure
// yields neither and the turn proceeds, since the caller is live on the line.
func (h *CallWebhookHandler) claim(ctx context.Context, logger *logging.Logger, evt dialogue.CallEvent) (claimed, duplicate bool) {
	if h.processed == nil || evt.ID == "" {
		return false, false
	}
	ok, err := h.processed.MarkProcessed(ctx, evt.ID, string(evt.Type))
	if err != nil {
		logger.Error("failed to mark telnyx event processed", "error", err, "event_id", evt.ID)
		return false, false
	}
	return ok, !ok
}

// replay answers a retried delivery with the reply recorded for the first
// one, waiting while that turn is still running.
func (h *CallWebhookHandler) replay(ctx context.Context, w http.ResponseWriter, logger *logging.Logger, evt dialogue.CallEvent, start time.Time) {
	body := h.storedReply(ctx, logger, evt.ID)
	if body == nil {
		logger.Warn("no stored reply for duplicate telnyx delivery", "event_id", evt.ID, "event_type", evt.Type)
		h.observe(evt, string(dialogue.OutcomeAcknowledge), start)
		writeJSON(w, http.StatusOK, h.compiler.Compile(dialogue.Acknowledge()))
		return
	}
	logger.Info("duplicate telnyx delivery replayed", "event_id", evt.ID, "event_type", evt.Type)
	h.observe(evt, "replay", start)
	writeRawJSON(w, http.StatusOK, body)
}

func (h *CallWebhookHandler) storedReply(ctx context.Context, logger *logging.Logger, eventID string) []byte {
	ctx, cancel := context.WithTimeout(ctx, h.replayWait)
	defer cancel()
	ticker := time.NewTicker(replayPoll)
	defer ticker.Stop()
	for {
		body, err := h.processed.StoredResponse(ctx, eventID)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("failed to load stored call reply", "error", err, "event_id", eventID)
			}
			return nil
		}
		if body != nil {
			return body
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (h *CallWebhookHandler) observe(evt dialogue.CallEvent, outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveTurn(string(evt.Type), outcome)
		h.metrics.ObserveWebhookLatency(string(evt.Type), time.Since(start).Seconds())
	}
}

// Probe answers GET on the webhook path so the platform can check reachability.
func (h *CallWebhookHandler) Probe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from Telnyx Webhook"})
}

// HealthCheck reports liveness and whether the calendar gateway came up.
func (h *CallWebhookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "ok",
		"calendar_ready": h.readiness.Ready,
	}
	if !h.readiness.Ready && h.readiness.Reason != "" {
		resp["calendar_reason"] = h.readiness.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

