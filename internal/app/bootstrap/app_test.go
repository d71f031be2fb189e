package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baughelectric/call-assistant/internal/calendar"
	appconfig "github.com/baughelectric/call-assistant/internal/config"
	"github.com/baughelectric/call-assistant/pkg/logging"
)

type countingGateway struct {
	books int
}

func (g *countingGateway) CheckAvailability(context.Context, calendar.Slot, string) (calendar.Availability, error) {
	return calendar.Availability{}, nil
}

func (g *countingGateway) BookAppointment(_ context.Context, appt calendar.Appointment) (calendar.Committed, error) {
	g.books++
	return calendar.Committed{EventID: "evt", Slot: appt.Slot}, nil
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		TelnyxVoice:             "female",
		TelnyxLanguage:          "en-US",
		TelnyxSpeechTimeout:     5,
		TelnyxInterDigitTimeout: 2,
		BusinessName:            appconfig.DefaultBusinessName,
		TransferToNumber:        "+17177362829",
		TransferFromNumber:      "+17172978787",
		BusinessHoursText:       appconfig.DefaultHoursText,
		ServicesText:            appconfig.DefaultServicesText,
		ServiceAreaText:         appconfig.DefaultAreaText,
		GoogleCalendarID:        "shop@example.com",
		CalendarTimezone:        "America/New_York",
		CalendarTimeout:         time.Second,
		AppointmentSummary:      "Service Appointment",
		BookingEnforceOpenHours: true,
		SlotLockTTL:             time.Minute,
	}
}

func post(t *testing.T, h http.Handler, body string) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhooks/telnyx/call", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return rr.Body.String()
}

func TestBuildWiresSchedulingEndToEnd(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, newYork) }
	gw := &countingGateway{}
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	app, err := Build(context.Background(), cfg, logging.Discard(), Options{
		Registry: prometheus.NewRegistry(),
		Gateway:  gw,
		Now:      now,
	})
	require.NoError(t, err)
	defer app.Close()

	assert.True(t, app.Readiness.Ready)
	body := post(t, app.Handler, `{"data":{"event_type":"call.gather.ended","payload":{"from":"+15551230000","transcript":"book me tomorrow at 3pm"}}}`)
	assert.Contains(t, body, "3:00 PM to 4:00 PM EDT")
	assert.Equal(t, 1, gw.books)
}

func TestBuildWithoutCredentialsDegradesToTransfer(t *testing.T) {
	app, err := Build(context.Background(), testConfig(), logging.Discard(), Options{
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	defer app.Close()

	assert.False(t, app.Readiness.Ready)
	body := post(t, app.Handler, `{"data":{"event_type":"call.gather.ended","payload":{"transcript":"schedule tomorrow at 3pm"}}}`)
	assert.Contains(t, body, `"type":"dial"`)
	assert.Contains(t, body, "+17177362829")
}

func TestBuildMissingCalendarIDIsNotReady(t *testing.T) {
	cfg := testConfig()
	cfg.GoogleCalendarID = ""

	app, err := Build(context.Background(), cfg, logging.Discard(), Options{
		Registry: prometheus.NewRegistry(),
		Gateway:  &countingGateway{},
	})
	require.NoError(t, err)
	defer app.Close()

	assert.False(t, app.Readiness.Ready)
	assert.Contains(t, app.Readiness.Reason, "GOOGLE_CALENDAR_ID")
}

func TestBuildRedisClientDisabledOrUnreachable(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), testConfig(), logging.Discard(), true))

	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()
	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.Discard(), true))
}

func TestBuildPostgresPoolDisabled(t *testing.T) {
	pool, err := BuildPostgresPool(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Nil(t, pool)
}
