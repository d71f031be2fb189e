package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/baughelectric/call-assistant/pkg/logging"
)

var calendarTracer = otel.Tracer("callassistant.internal.calendar")

// ErrMissingCredentials means neither inline nor file credentials were supplied.
var ErrMissingCredentials = errors.New("calendar: service account credentials not configured")

const defaultCallTimeout = 5 * time.Second

type latencyObserver interface {
	ObserveCalendarLatency(operation string, seconds float64)
}

// GoogleConfig controls how the Google Calendar gateway is built.
type GoogleConfig struct {
	CredentialsJSON string
	CredentialsFile string
	// Timeout bounds every individual API call.
	Timeout time.Duration
	// ClientOptions are appended after credentials; tests use them to point
	// the client at a fake endpoint.
	ClientOptions []option.ClientOption
	Metrics       latencyObserver
}

// GoogleGateway talks to Google Calendar with a service account.
type GoogleGateway struct {
	svc     *gcal.Service
	timeout time.Duration
	logger  *logging.Logger
	metrics latencyObserver
}

var _ Gateway = (*GoogleGateway)(nil)

// NewGoogleGateway builds the gateway once at startup. It never fails hard:
// a credential or client error yields a gateway that answers ErrNotReady and
// a Readiness value describing why.
func NewGoogleGateway(ctx context.Context, cfg GoogleConfig, logger *logging.Logger) (*GoogleGateway, Readiness) {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	gw := &GoogleGateway{timeout: timeout, logger: logger, metrics: cfg.Metrics}

	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case len(cfg.ClientOptions) == 0:
		logger.Warn("calendar gateway not ready", "error", ErrMissingCredentials)
		return gw, NotReady(ErrMissingCredentials)
	}
	opts = append(opts, option.WithScopes(gcal.CalendarScope))
	opts = append(opts, cfg.ClientOptions...)

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		err = fmt.Errorf("calendar: init google client: %w", err)
		logger.Error("calendar gateway not ready", "error", err)
		return gw, NotReady(err)
	}
	gw.svc = svc
	logger.Info("calendar gateway ready")
	return gw, Readiness{Ready: true}
}

// CheckAvailability queries free/busy for exactly the requested slot.
func (g *GoogleGateway) CheckAvailability(ctx context.Context, slot Slot, calendarID string) (Availability, error) {
	if g == nil || g.svc == nil {
		return Availability{}, ErrNotReady
	}
	ctx, span := calendarTracer.Start(ctx, "calendar.freebusy")
	defer span.End()
	span.SetAttributes(
		attribute.String("calendar.id", calendarID),
		attribute.String("calendar.slot_start", slot.Start.Format(time.RFC3339)),
	)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	start := time.Now()

	req := &gcal.FreeBusyRequest{
		TimeMin:  slot.Start.Format(time.RFC3339),
		TimeMax:  slot.End.Format(time.RFC3339),
		TimeZone: locationName(slot),
		Items:    []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}
	resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	g.observe("freebusy", start)
	if err != nil {
		gwErr := g.wrap(ctx, "freebusy", err)
		span.RecordError(gwErr)
		span.SetStatus(codes.Error, "freebusy failed")
		return Availability{}, gwErr
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		err := &GatewayError{Op: "freebusy", Err: fmt.Errorf("calendar %q missing from response", calendarID)}
		span.RecordError(err)
		return Availability{}, err
	}
	if len(cal.Errors) > 0 {
		err := &GatewayError{Op: "freebusy", Err: fmt.Errorf("calendar %q: %s", calendarID, cal.Errors[0].Reason)}
		span.RecordError(err)
		return Availability{}, err
	}

	periods := make([]Interval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		iv, err := parsePeriod(p, slot.Location)
		if err != nil {
			// An unreadable period may cover the slot, so the answer is unknown.
			gwErr := &GatewayError{Op: "freebusy", Err: err}
			g.logger.Error("unreadable busy period", "error", err, "calendar_id", calendarID)
			span.RecordError(gwErr)
			span.SetStatus(codes.Error, "unparseable busy period")
			return Availability{}, gwErr
		}
		periods = append(periods, iv)
	}
	busy := BusyOverlapping(slot, periods)
	span.SetAttributes(attribute.Int("calendar.busy_count", len(busy)))
	return Availability{Busy: busy}, nil
}

// BookAppointment inserts an event. The call is not idempotent: booking the
// same slot twice yields two events.
func (g *GoogleGateway) BookAppointment(ctx context.Context, appt Appointment) (Committed, error) {
	if g == nil || g.svc == nil {
		return Committed{}, ErrNotReady
	}
	ctx, span := calendarTracer.Start(ctx, "calendar.insert")
	defer span.End()
	span.SetAttributes(
		attribute.String("calendar.id", appt.CalendarID),
		attribute.String("calendar.slot_start", appt.Slot.Start.Format(time.RFC3339)),
	)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	start := time.Now()

	tz := locationName(appt.Slot)
	event := &gcal.Event{
		Summary:     appt.Summary,
		Description: appt.Description,
		Start:       &gcal.EventDateTime{DateTime: appt.Slot.Start.Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: appt.Slot.End.Format(time.RFC3339), TimeZone: tz},
	}
	if appt.CallerRef != "" {
		event.ExtendedProperties = &gcal.EventExtendedProperties{
			Private: map[string]string{"caller": appt.CallerRef},
		}
	}

	created, err := g.svc.Events.Insert(appt.CalendarID, event).Context(ctx).Do()
	g.observe("insert", start)
	if err != nil {
		gwErr := g.wrap(ctx, "insert", err)
		span.RecordError(gwErr)
		span.SetStatus(codes.Error, "insert failed")
		return Committed{}, gwErr
	}
	span.SetAttributes(attribute.String("calendar.event_id", created.Id))
	return Committed{EventID: created.Id, HTMLLink: created.HtmlLink, Slot: appt.Slot}, nil
}

func (g *GoogleGateway) wrap(ctx context.Context, op string, err error) *GatewayError {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	return &GatewayError{Op: op, Err: err}
}

func (g *GoogleGateway) observe(op string, start time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.ObserveCalendarLatency(op, time.Since(start).Seconds())
}

func parsePeriod(p *gcal.TimePeriod, loc *time.Location) (Interval, error) {
	if p == nil {
		return Interval{}, errors.New("nil period")
	}
	start, err := time.Parse(time.RFC3339, p.Start)
	if err != nil {
		return Interval{}, fmt.Errorf("parse busy start %q: %w", p.Start, err)
	}
	end, err := time.Parse(time.RFC3339, p.End)
	if err != nil {
		return Interval{}, fmt.Errorf("parse busy end %q: %w", p.End, err)
	}
	if loc != nil {
		start, end = start.In(loc), end.In(loc)
	}
	return Interval{Start: start, End: end}, nil
}

func locationName(s Slot) string {
	if s.Location == nil {
		return "UTC"
	}
	return s.Location.String()
}
