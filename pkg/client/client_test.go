package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-notifyd/internal/application/notification"
	"github.com/go-notifyd/internal/config"
	"github.com/go-notifyd/internal/domain"
	"github.com/go-notifyd/internal/events/testbus"
	"github.com/go-notifyd/internal/infrastructure/dynamo"
	"github.com/go-notifyd/internal/infrastructure/memory"
	transport "github.com/go-notifyd/internal/transport/http"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Client, *testbus.Bus) {
	t.Helper()
	store := memory.NewNotificationStore()
	bus := testbus.New(t)
	svc := notification.NewService(notification.ServiceDeps{
		Store:     store,
		Publisher: bus,
		Policy:    domain.DefaultPolicy(),
		Version:   "0.1.0",
		Logger:    zerolog.Nop(),
	})
	router := transport.NewRouter(&config.Config{AllowedOrigins: []string{"*"}}, &transport.Deps{
		Service: svc,
		Live:    store,
		Signals: bus,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), bus
}

type stubJournal struct {
	app     string
	limit   int32
	entries []dynamo.Entry
}

func (s *stubJournal) Recent(_ context.Context, appName string, limit int32) ([]dynamo.Entry, error) {
	s.app, s.limit = appName, limit
	return s.entries, nil
}

func TestClient_Journal(t *testing.T) {
	journal := &stubJournal{entries: []dynamo.Entry{
		{EventID: "02", NotificationID: 4, AppName: "mail", Summary: "b", Urgency: "normal", Reason: 2, ReasonText: "dismissed by user", ClosedAt: "2024-01-01T00:00:06.000000000Z"},
		{EventID: "01", NotificationID: 3, AppName: "mail", Summary: "a", Urgency: "low", Reason: 1, ReasonText: "expired", ClosedAt: "2024-01-01T00:00:05.000000000Z"},
	}}
	router := transport.NewRouter(&config.Config{AllowedOrigins: []string{"*"}}, &transport.Deps{
		Service: notification.NewService(notification.ServiceDeps{
			Store:     memory.NewNotificationStore(),
			Publisher: testbus.New(t),
			Policy:    domain.DefaultPolicy(),
			Logger:    zerolog.Nop(),
		}),
		Live:    memory.NewNotificationStore(),
		Signals: testbus.New(t),
		Journal: journal,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	got, err := New(srv.URL).Journal(context.Background(), "mail", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mail", journal.app)
	assert.Equal(t, int32(5), journal.limit)
	assert.Equal(t, JournalEntry{
		EventID:        "02",
		NotificationID: 4,
		AppName:        "mail",
		Summary:        "b",
		Urgency:        "normal",
		Reason:         2,
		ReasonText:     "dismissed by user",
		ClosedAt:       "2024-01-01T00:00:06.000000000Z",
	}, got[0])
	assert.Equal(t, "01", got[1].EventID)
}

func TestClient_RoundTrip(t *testing.T) {
	c, _ := newServer(t)
	ctx := context.Background()

	id, err := c.Notify(ctx, NotifyParams{
		AppName:       "mail",
		Summary:       "hello",
		Hints:         map[string]any{"urgency": "critical"},
		ExpireTimeout: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)

	n, err := c.GetNotification(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hello", n.Summary)
	assert.Equal(t, domain.UrgencyCritical, n.Urgency)
	assert.Nil(t, n.ExpiresAt)

	all, err := c.GetNotifications(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, id)

	closed, err := c.CloseNotification(ctx, id)
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = c.CloseNotification(ctx, id)
	require.NoError(t, err)
	assert.False(t, closed)

	_, err = c.GetNotification(ctx, id)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_Dismiss(t *testing.T) {
	c, bus := newServer(t)
	ctx := context.Background()

	id, err := c.Notify(ctx, NotifyParams{Summary: "x"})
	require.NoError(t, err)

	ok, err := c.DismissNotification(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Eventually(t, func() bool { return len(bus.Closed()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.ReasonDismissed, bus.Closed()[0].Reason)
}

func TestClient_ServerInformation(t *testing.T) {
	c, _ := newServer(t)
	ctx := context.Background()

	info, err := c.GetServerInformation(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ServerInfo{Name: "notifyd", Vendor: "freedesktop.org", Version: "0.1.0", SpecVersion: "1.2"}, info)

	caps, err := c.GetCapabilities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "persistence"}, caps)
}

func TestClient_Signals(t *testing.T) {
	c, _ := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan Signal, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Signals(ctx, func(s Signal) { got <- s })
	}()

	// Keep notifying until the stream is attached and the first frame arrives.
	var id uint32
	var first Signal
	deadline := time.After(3 * time.Second)
attach:
	for {
		var err error
		id, err = c.Notify(ctx, NotifyParams{Summary: "s", ExpireTimeout: 0})
		require.NoError(t, err)
		select {
		case first = <-got:
			break attach
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("signal stream never delivered a frame")
		}
	}
	assert.Equal(t, "NotificationCreated", first.Name)

	_, err := c.CloseNotification(ctx, id)
	require.NoError(t, err)

	var closed ClosedSignal
wait:
	for {
		select {
		case s := <-got:
			if s.Name == "NotificationClosed" {
				require.NoError(t, json.Unmarshal(s.Data, &closed))
				break wait
			}
		case <-deadline:
			t.Fatal("no NotificationClosed frame")
		}
	}
	assert.Equal(t, id, closed.ID)
	assert.Equal(t, domain.ReasonClosed, closed.Reason)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Signals did not return after cancel")
	}
}
