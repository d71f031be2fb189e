package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baughelectric/call-assistant/internal/api/router"
	"github.com/baughelectric/call-assistant/internal/calendar"
	"github.com/baughelectric/call-assistant/internal/callcontrol"
	appconfig "github.com/baughelectric/call-assistant/internal/config"
	"github.com/baughelectric/call-assistant/internal/dialogue"
	"github.com/baughelectric/call-assistant/internal/events"
	"github.com/baughelectric/call-assistant/internal/http/handlers"
	"github.com/baughelectric/call-assistant/internal/observability/metrics"
	"github.com/baughelectric/call-assistant/internal/scheduling"
	"github.com/baughelectric/call-assistant/pkg/logging"
)

// App is the fully wired call assistant.
type App struct {
	Handler   http.Handler
	Readiness calendar.Readiness
	closers   []func()
}

// Close releases pooled connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Options overrides process-wide dependencies, mainly for tests.
type Options struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	// Gateway replaces the Google Calendar gateway when set.
	Gateway   calendar.Gateway
	Readiness *calendar.Readiness
	Now       func() time.Time
}

// Build wires config into a router. Calendar, Redis, and Postgres failures
// degrade the corresponding feature; only a bad database URL is fatal.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	app := &App{}

	callMetrics := metrics.NewCallMetrics(opts.Registry)

	gateway, readiness := opts.Gateway, calendar.Readiness{Ready: opts.Gateway != nil}
	if gateway == nil {
		gw, r := calendar.NewGoogleGateway(ctx, calendar.GoogleConfig{
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
			Timeout:         cfg.CalendarTimeout,
			Metrics:         callMetrics,
		}, logger)
		gateway, readiness = gw, r
	}
	if opts.Readiness != nil {
		readiness = *opts.Readiness
	}
	if cfg.GoogleCalendarID == "" && readiness.Ready {
		readiness = calendar.NotReady(fmt.Errorf("calendar: GOOGLE_CALENDAR_ID not configured"))
	}
	app.Readiness = readiness

	var locker scheduling.SlotLocker = scheduling.NoopSlotLocker{}
	if rdb := BuildRedisClient(ctx, cfg, logger, true); rdb != nil {
		locker = scheduling.NewRedisSlotLocker(rdb)
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		logger.Info("slot locking enabled", "redis_addr", cfg.RedisAddr)
	}

	var processed *events.ProcessedStore
	pool, err := BuildPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		processed = events.NewProcessedStore(pool, events.ProviderTelnyx)
		app.closers = append(app.closers, pool.Close)
		logger.Info("webhook dedupe enabled")
	}

	transfer := dialogue.Destination{To: cfg.TransferToNumber, From: cfg.TransferFromNumber}
	var hours scheduling.OpeningHours
	if cfg.BookingEnforceOpenHours {
		hours = scheduling.DefaultOpeningHours()
	}
	engine := scheduling.NewEngine(scheduling.Config{
		Gateway:   gateway,
		Readiness: readiness,
		Parser:    scheduling.NewWhenParser(opts.Now),
		Locker:    locker,
		LockTTL:   cfg.SlotLockTTL,
		Hours:     hours,
		Summary:   cfg.AppointmentSummary,
		Transfer:  transfer,
		Gather: dialogue.GatherOptions{
			Language:      cfg.TelnyxLanguage,
			SpeechTimeout: cfg.TelnyxSpeechTimeout,
		},
		Now:     opts.Now,
		Logger:  logger,
		Metrics: callMetrics,
	})

	orchestrator := dialogue.NewOrchestrator(dialogue.Config{
		Script: dialogue.Script{
			BusinessName:      cfg.BusinessName,
			HoursText:         cfg.BusinessHoursText,
			ServicesText:      cfg.ServicesText,
			ServiceAreaText:   cfg.ServiceAreaText,
			Language:          cfg.TelnyxLanguage,
			SpeechTimeout:     cfg.TelnyxSpeechTimeout,
			InterDigitTimeout: cfg.TelnyxInterDigitTimeout,
		},
		Transfer:   transfer,
		Scheduler:  engine,
		CalendarID: cfg.GoogleCalendarID,
		Timezone:   cfg.CalendarTimezone,
		Logger:     logger,
		Metrics:    callMetrics,
	})

	webhookCfg := handlers.CallWebhookConfig{
		Dialogue:  orchestrator,
		Compiler:  callcontrol.Compiler{Voice: cfg.TelnyxVoice},
		Verifier:  callcontrol.NewVerifier(cfg.TelnyxWebhookSecret, cfg.TelnyxWebhookMaxSkew),
		Readiness: readiness,
		Logger:    logger,
		Metrics:   callMetrics,
	}
	if processed != nil {
		webhookCfg.Processed = processed
	}
	if !webhookCfg.Verifier.Enabled() {
		logger.Warn("TELNYX_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	app.Handler = router.New(&router.Config{
		Logger:         logger,
		CallWebhook:    handlers.NewCallWebhookHandler(webhookCfg),
		MetricsHandler: promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}),
	})
	return app, nil
}
