package http

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-notifyd/internal/application/notification"
	"github.com/go-notifyd/internal/config"
	"github.com/go-notifyd/internal/domain"
	"github.com/go-notifyd/internal/events"
	"github.com/go-notifyd/internal/events/testbus"
	jwtinfra "github.com/go-notifyd/internal/infrastructure/jwt"
	"github.com/go-notifyd/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	router http.Handler
	store  *memory.NotificationStore
	bus    *testbus.Bus
}

func newHarness(t *testing.T, verifier *jwtinfra.Provider) *harness {
	t.Helper()
	store := memory.NewNotificationStore()
	bus := testbus.New(t)
	svc := notification.NewService(notification.ServiceDeps{
		Store:     store,
		Publisher: bus,
		Policy:    domain.DefaultPolicy(),
		Version:   "test",
		Logger:    zerolog.Nop(),
	})
	deps := &Deps{Service: svc, Live: store, Signals: bus}
	if verifier != nil {
		deps.Verifier = verifier
	}
	return &harness{
		router: NewRouter(&config.Config{AllowedOrigins: []string{"*"}}, deps),
		store:  store,
		bus:    bus,
	}
}

func (h *harness) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, r)
	return rr
}

func TestRouter_Lifecycle(t *testing.T) {
	h := newHarness(t, nil)

	rr := h.do(t, http.MethodPost, "/v1/notifications", "", map[string]any{
		"app_name": "a", "summary": "hi", "body": "there", "expire_timeout": 0,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var created struct{ ID uint32 }
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, uint32(1), created.ID)

	rr = h.do(t, http.MethodGet, "/v1/notifications", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var all map[string]domain.Notification
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&all))
	require.Len(t, all, 1)
	assert.Equal(t, "hi", all["1"].Summary)

	rr = h.do(t, http.MethodDelete, "/v1/notifications/1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, h.bus.WaitFor(events.EventNotificationClosed, time.Second))
	assert.Equal(t, domain.ReasonClosed, h.bus.Closed()[0].Reason)

	rr = h.do(t, http.MethodGet, "/v1/notifications/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 0, h.store.Len())
}

func TestRouter_DismissEmitsDismissed(t *testing.T) {
	h := newHarness(t, nil)
	id := h.store.InsertNew(domain.Notification{Summary: "x"})

	rr := h.do(t, http.MethodPost, "/v1/notifications/1/dismiss", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	require.True(t, h.bus.WaitFor(events.EventNotificationClosed, time.Second))
	closed := h.bus.Closed()
	require.Len(t, closed, 1)
	assert.Equal(t, id, closed[0].ID)
	assert.Equal(t, domain.ReasonDismissed, closed[0].Reason)
}

func TestRouter_ServerInfoAndHealth(t *testing.T) {
	h := newHarness(t, nil)

	rr := h.do(t, http.MethodGet, "/v1/server-information", "", nil)
	assert.JSONEq(t, `{"name":"notifyd","vendor":"freedesktop.org","version":"test","spec_version":"1.2"}`, rr.Body.String())

	rr = h.do(t, http.MethodGet, "/v1/capabilities", "", nil)
	assert.JSONEq(t, `["body","persistence"]`, rr.Body.String())

	rr = h.do(t, http.MethodGet, "/v1/health-check/ping", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_JournalNotMountedWhenDisabled(t *testing.T) {
	h := newHarness(t, nil)
	rr := h.do(t, http.MethodGet, "/v1/journal/mail", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func newProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))
	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}), 0600))

	p, err := jwtinfra.NewProvider(&config.Config{JWTPrivateKeyPath: privPath, JWTPublicKeyPath: pubPath, JWTExpiry: time.Hour})
	require.NoError(t, err)
	return p
}

func TestRouter_Scopes(t *testing.T) {
	p := newProvider(t)
	h := newHarness(t, p)

	reader, err := p.Sign("dashboard", jwtinfra.ScopeRead)
	require.NoError(t, err)
	writer, err := p.Sign("mailer", jwtinfra.ScopeRead, jwtinfra.ScopeNotify)
	require.NoError(t, err)

	body := map[string]any{"summary": "s"}

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/v1/health-check/ping", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/v1/notifications", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/v1/notifications", reader, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodPost, "/v1/notifications", reader, body).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/v1/notifications", writer, body).Code)
	assert.Equal(t, 1, h.store.Len())
}

func TestRouter_MalformedID(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodDelete, "/v1/notifications/-3", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/v1/notifications/99999999999", "", nil).Code)
}
