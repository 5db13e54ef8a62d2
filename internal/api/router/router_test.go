package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/auth"
	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/internal/emailactions"
	"github.com/systemsmatic/backend/internal/http/handlers"
	"github.com/systemsmatic/backend/internal/jobqueue"
	"github.com/systemsmatic/backend/internal/mailer"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/internal/tokens"
)

const testSecret = "router-test-secret"

type recordingSender struct {
	mu   sync.Mutex
	Sent []mailer.EmailMessage
}

func (s *recordingSender) Send(_ context.Context, msg mailer.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, msg)
	return nil
}

type testApp struct {
	handler http.Handler
	sender  *recordingSender
	auth    *auth.Service
}

// newTestApp wires the full application against in-memory stores, the same
// shape cmd/api builds in production.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	contactRepo := contacts.NewInMemoryRepository()
	tokenStore := tokens.NewInMemoryStore()
	issuer := tokens.NewIssuer(tokenStore, 0, nil)

	sender := &recordingSender{}
	mailerSvc := mailer.NewService(sender, mailer.NewInMemoryLogStore(), issuer,
		mailer.Config{PublicBaseURL: "https://systemsmatic.example", AdminEmail: "contact@systemsmatic.example"},
		nil, nil)

	queue := jobqueue.NewInMemoryScheduler()
	appointmentSvc := appointments.NewService(appointments.NewInMemoryRepository(), contactRepo, mailerSvc, noopReminderScheduler{}, nil)
	quoteSvc := quotes.NewService(quotes.NewInMemoryRepository(), contactRepo, mailerSvc, nil)
	actionSvc := emailactions.NewService(tokens.NewVerifier(tokenStore), appointmentSvc, quoteSvc, nil, nil)

	authSvc := auth.NewService(auth.NewInMemoryRepository(), testSecret, 0, nil)
	_, err := authSvc.Register(context.Background(), "admin@systemsmatic.example", "passw0rd!", auth.RoleAdmin)
	require.NoError(t, err)

	handler := New(&Config{
		PublicHandler:     handlers.NewPublicHandler(appointmentSvc, quoteSvc, nil),
		EmailActions:      handlers.NewEmailActionsHandler(actionSvc, issuer, "test", nil),
		AuthHandler:       handlers.NewAuthHandler(authSvc, nil),
		AdminAppointments: handlers.NewAdminAppointmentsHandler(appointmentSvc, nil),
		AdminQuotes:       handlers.NewAdminQuotesHandler(quoteSvc, nil),
		AdminDashboard:    handlers.NewAdminDashboardHandler(appointmentSvc, quoteSvc, mailerSvc, queue, nil),
		AdminJWTSecret:    testSecret,
	})
	return &testApp{handler: handler, sender: sender, auth: authSvc}
}

type noopReminderScheduler struct{}

func (noopReminderScheduler) Schedule(context.Context, string, time.Time) error { return nil }
func (noopReminderScheduler) Cancel(context.Context, string) error              { return nil }

func (app *testApp) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) login(t *testing.T) string {
	t.Helper()
	rec := app.request(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "admin@systemsmatic.example",
		"password": "passw0rd!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)
	rec := app.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBackofficeRequiresJWT(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{"/backoffice/appointments/", "/backoffice/quotes/", "/backoffice/dashboard/", "/backoffice/profile"} {
		rec := app.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	token := app.login(t)
	rec := app.request(t, http.MethodGet, "/backoffice/appointments/", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestBookingFlowEndToEnd walks the happy path through the public router:
// client books, admin clicks the accept link from the notification email,
// double click is refused.
func TestBookingFlowEndToEnd(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/appointments", "", map[string]any{
		"firstName": "Paul",
		"lastName":  "Nestor",
		"email":     "paul.nestor@example.com",
		"reason":    appointments.ReasonMaintenance,
		"consent":   true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var a appointments.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))

	// The admin notification carries the accept link.
	require.NotEmpty(t, app.sender.Sent)
	acceptToken := extractActionToken(t, app.sender.Sent[0].Body, "/accept")

	rec = app.request(t, http.MethodPost, "/email-actions/appointments/"+a.ID+"/accept", "", map[string]any{"token": acceptToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rendez-vous accepté avec succès")

	rec = app.request(t, http.MethodPost, "/email-actions/appointments/"+a.ID+"/accept", "", map[string]any{"token": acceptToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token déjà utilisé")
}

// extractActionToken pulls the token query param of the first action URL
// ending in suffix from an email body.
func extractActionToken(t *testing.T, body, suffix string) string {
	t.Helper()
	marker := suffix + "?token="
	idx := strings.Index(body, marker)
	require.GreaterOrEqual(t, idx, 0, "no %s link in email body", suffix)
	rest := body[idx+len(marker):]
	end := strings.IndexAny(rest, "\"'& <")
	if end == -1 {
		end = len(rest)
	}
	return rest[:end]
}

func TestRateLimitOnPublicForms(t *testing.T) {
	app := newTestAppWithRateLimit(t)

	var last int
	for i := 0; i < 5; i++ {
		rec := app.request(t, http.MethodPost, "/quotes", "", map[string]any{
			"firstName":   "Lucie",
			"lastName":    "Ramon",
			"email":       "lucie@example.com",
			"message":     "Installation clim",
			"acceptTerms": true,
		})
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// Health stays unthrottled.
	rec := app.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func newTestAppWithRateLimit(t *testing.T) *testApp {
	t.Helper()
	base := newTestApp(t)

	contactRepo := contacts.NewInMemoryRepository()
	tokenStore := tokens.NewInMemoryStore()
	issuer := tokens.NewIssuer(tokenStore, 0, nil)
	mailerSvc := mailer.NewService(base.sender, mailer.NewInMemoryLogStore(), issuer,
		mailer.Config{PublicBaseURL: "https://systemsmatic.example", AdminEmail: "contact@systemsmatic.example"},
		nil, nil)
	appointmentSvc := appointments.NewService(appointments.NewInMemoryRepository(), contactRepo, mailerSvc, noopReminderScheduler{}, nil)
	quoteSvc := quotes.NewService(quotes.NewInMemoryRepository(), contactRepo, mailerSvc, nil)
	actionSvc := emailactions.NewService(tokens.NewVerifier(tokenStore), appointmentSvc, quoteSvc, nil, nil)

	base.handler = New(&Config{
		PublicHandler:     handlers.NewPublicHandler(appointmentSvc, quoteSvc, nil),
		EmailActions:      handlers.NewEmailActionsHandler(actionSvc, issuer, "test", nil),
		AuthHandler:       handlers.NewAuthHandler(base.auth, nil),
		AdminAppointments: handlers.NewAdminAppointmentsHandler(appointmentSvc, nil),
		AdminQuotes:       handlers.NewAdminQuotesHandler(quoteSvc, nil),
		AdminDashboard:    handlers.NewAdminDashboardHandler(appointmentSvc, quoteSvc, mailerSvc, jobqueue.NewInMemoryScheduler(), nil),
		AdminJWTSecret:    testSecret,
		FormRatePerSecond: 0.1,
		FormBurst:         2,
	})
	return base
}
