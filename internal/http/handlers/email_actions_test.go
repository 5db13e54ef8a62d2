package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/internal/emailactions"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/internal/tokens"
)

type noopAppointmentNotifier struct{}

func (noopAppointmentNotifier) AppointmentReceived(context.Context, *appointments.Appointment, *contacts.Contact) error {
	return nil
}
func (noopAppointmentNotifier) AppointmentConfirmed(context.Context, *appointments.Appointment, *contacts.Contact) error {
	return nil
}
func (noopAppointmentNotifier) AppointmentCancelled(context.Context, *appointments.Appointment, *contacts.Contact) error {
	return nil
}
func (noopAppointmentNotifier) RescheduleProposed(context.Context, *appointments.Appointment, *contacts.Contact, time.Time) error {
	return nil
}
func (noopAppointmentNotifier) AppointmentReminder(context.Context, *appointments.Appointment, *contacts.Contact) error {
	return nil
}

type noopQuoteNotifier struct{}

func (noopQuoteNotifier) QuoteReceived(context.Context, *quotes.Quote, *contacts.Contact) error {
	return nil
}
func (noopQuoteNotifier) QuoteAccepted(context.Context, *quotes.Quote, *contacts.Contact) error {
	return nil
}
func (noopQuoteNotifier) QuoteRejected(context.Context, *quotes.Quote, *contacts.Contact) error {
	return nil
}

type noopScheduler struct{}

func (noopScheduler) Schedule(context.Context, string, time.Time) error { return nil }
func (noopScheduler) Cancel(context.Context, string) error              { return nil }

type actionsEnv struct {
	handler        *EmailActionsHandler
	appointmentSvc *appointments.Service
	issuer         *tokens.Issuer
}

func newActionsEnv(t *testing.T, env string) *actionsEnv {
	t.Helper()
	contactRepo := contacts.NewInMemoryRepository()
	appointmentSvc := appointments.NewService(appointments.NewInMemoryRepository(), contactRepo, noopAppointmentNotifier{}, noopScheduler{}, nil)
	quoteSvc := quotes.NewService(quotes.NewInMemoryRepository(), contactRepo, noopQuoteNotifier{}, nil)

	store := tokens.NewInMemoryStore()
	issuer := tokens.NewIssuer(store, 0, nil)
	service := emailactions.NewService(tokens.NewVerifier(store), appointmentSvc, quoteSvc, nil, nil)
	return &actionsEnv{
		handler:        NewEmailActionsHandler(service, issuer, env, nil),
		appointmentSvc: appointmentSvc,
		issuer:         issuer,
	}
}

func (e *actionsEnv) newAppointment(t *testing.T) *appointments.Appointment {
	t.Helper()
	a, err := e.appointmentSvc.CreateRequest(context.Background(), &appointments.CreateAppointmentRequest{
		FirstName: "Paul",
		LastName:  "Nestor",
		Email:     "paul.nestor@example.com",
		Consent:   true,
	})
	require.NoError(t, err)
	return a
}

func (e *actionsEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.Routes().ServeHTTP(rec, req)
	return rec
}

func TestAcceptAppointmentEndpoint(t *testing.T) {
	e := newActionsEnv(t, "development")
	a := e.newAppointment(t)
	tok, err := e.issuer.Issue(context.Background(), tokens.EntityAppointment, a.ID, tokens.ActionAccept)
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/appointments/"+a.ID+"/accept", map[string]any{"token": tok})
	require.Equal(t, http.StatusOK, rec.Code)

	var result emailactions.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "Rendez-vous accepté avec succès", result.Message)
	assert.Equal(t, appointments.StatusConfirmed, result.Appointment.Status)
}

func TestUsedTokenMapsTo400WithFrenchMessage(t *testing.T) {
	e := newActionsEnv(t, "development")
	a := e.newAppointment(t)
	tok, err := e.issuer.Issue(context.Background(), tokens.EntityAppointment, a.ID, tokens.ActionAccept)
	require.NoError(t, err)

	first := e.do(t, http.MethodPost, "/appointments/"+a.ID+"/accept", map[string]any{"token": tok})
	require.Equal(t, http.StatusOK, first.Code)

	second := e.do(t, http.MethodPost, "/appointments/"+a.ID+"/accept", map[string]any{"token": tok})
	require.Equal(t, http.StatusBadRequest, second.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Token déjà utilisé", resp.Message)
}

func TestMismatchedTokenMapsTo400(t *testing.T) {
	e := newActionsEnv(t, "development")
	a := e.newAppointment(t)
	tok, err := e.issuer.Issue(context.Background(), tokens.EntityAppointment, a.ID, tokens.ActionReject)
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/appointments/"+a.ID+"/accept", map[string]any{"token": tok})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token invalide pour cette action")
}

func TestUnknownTokenMapsTo400(t *testing.T) {
	e := newActionsEnv(t, "development")
	a := e.newAppointment(t)

	rec := e.do(t, http.MethodPost, "/appointments/"+a.ID+"/reject", map[string]any{"token": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token invalide")
}

func TestUnknownFieldsRejected(t *testing.T) {
	e := newActionsEnv(t, "development")
	a := e.newAppointment(t)

	rec := e.do(t, http.MethodPost, "/appointments/"+a.ID+"/accept", map[string]any{"token": "x", "extra": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyTokenEndpoint(t *testing.T) {
	e := newActionsEnv(t, "development")
	a := e.newAppointment(t)
	tok, err := e.issuer.Issue(context.Background(), tokens.EntityAppointment, a.ID, tokens.ActionAccept)
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/verify-token/"+tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var peek tokens.PeekResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &peek))
	assert.True(t, peek.Valid)
	assert.Equal(t, "appointment", peek.Type)

	rec = e.do(t, http.MethodGet, "/verify-token/bogus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &peek))
	assert.False(t, peek.Valid)
}

func TestCreateTestTokensForbiddenInProduction(t *testing.T) {
	e := newActionsEnv(t, "production")
	rec := e.do(t, http.MethodPost, "/test/create-tokens", map[string]any{"type": "appointment", "entityId": "a-1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateTestTokensInDevelopment(t *testing.T) {
	e := newActionsEnv(t, "development")
	rec := e.do(t, http.MethodPost, "/test/create-tokens", map[string]any{"type": "appointment", "entityId": "a-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool              `json:"success"`
		Tokens  map[string]string `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Tokens, 3)
	for action, tok := range resp.Tokens {
		assert.Len(t, tok, 64, fmt.Sprintf("token for %s", action))
	}
}
