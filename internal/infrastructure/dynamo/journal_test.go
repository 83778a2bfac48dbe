package dynamo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notifyd/internal/domain"
	"github.com/go-notifyd/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	puts      []*dynamodb.PutItemInput
	query     *dynamodb.QueryInput
	items     []map[string]types.AttributeValue
	tables    []string
	ttl       []string
	createErr error
	putErr    error
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = in
	return &dynamodb.QueryOutput{Items: f.items}, nil
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, *in.TableName)
	return &dynamodb.CreateTableOutput{}, f.createErr
}

func (f *fakeAPI) UpdateTimeToLive(_ context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl = append(f.ttl, *in.TimeToLiveSpecification.AttributeName)
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}

func (f *fakeAPI) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

var closedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func closedPayload() events.NotificationClosedPayload {
	return events.NotificationClosedPayload{
		EventID: "01HQ",
		At:      closedAt,
		ID:      9,
		Reason:  domain.ReasonExpired,
		Notification: domain.Notification{
			ID:        9,
			AppName:   "mail",
			Summary:   "inbox",
			Urgency:   domain.UrgencyLow,
			CreatedAt: closedAt.Add(-time.Minute),
		},
	}
}

func TestRecord_PutsEntryWithTTL(t *testing.T) {
	api := &fakeAPI{}
	j := NewClosureJournal(api, "journal", 24*time.Hour, 4, zerolog.Nop())

	require.NoError(t, j.Record(context.Background(), closedPayload()))
	require.Len(t, api.puts, 1)
	assert.Equal(t, "journal", *api.puts[0].TableName)

	var e Entry
	require.NoError(t, attributevalue.UnmarshalMap(api.puts[0].Item, &e))
	assert.Equal(t, "01HQ", e.EventID)
	assert.Equal(t, uint32(9), e.NotificationID)
	assert.Equal(t, "mail", e.AppName)
	assert.Equal(t, "low", e.Urgency)
	assert.Equal(t, uint32(1), e.Reason)
	assert.Equal(t, "expired", e.ReasonText)
	assert.Equal(t, "2024-03-01T10:00:00.000000000Z", e.ClosedAt)
	assert.Equal(t, closedAt.Add(24*time.Hour).Unix(), e.ExpiresAt)
}

func TestRecord_WrapsPutError(t *testing.T) {
	api := &fakeAPI{putErr: errors.New("boom")}
	j := NewClosureJournal(api, "journal", time.Hour, 1, zerolog.Nop())

	err := j.Record(context.Background(), closedPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put journal entry")
}

func TestNewEntry_ClosedAtSortsChronologically(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 5, 120_000_000, time.UTC)
	tests := []struct {
		name  string
		later time.Duration
	}{
		{"sub millisecond", 500 * time.Microsecond},
		{"one nanosecond", time.Nanosecond},
		{"next second", 880 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := closedPayload()
			p.At = base
			earlier := newEntry(p, time.Hour)
			p.At = base.Add(tt.later)
			later := newEntry(p, time.Hour)

			assert.Less(t, earlier.ClosedAt, later.ClosedAt)
			assert.Len(t, later.ClosedAt, len(earlier.ClosedAt))
		})
	}
}

func TestRecent_QueriesIndexNewestFirst(t *testing.T) {
	item, err := attributevalue.MarshalMap(newEntry(closedPayload(), time.Hour))
	require.NoError(t, err)
	api := &fakeAPI{items: []map[string]types.AttributeValue{item}}
	j := NewClosureJournal(api, "journal", time.Hour, 1, zerolog.Nop())

	entries, err := j.Recent(context.Background(), "mail", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inbox", entries[0].Summary)

	require.NotNil(t, api.query)
	assert.Equal(t, indexAppClosedAt, *api.query.IndexName)
	assert.False(t, *api.query.ScanIndexForward)
	assert.Equal(t, int32(10), *api.query.Limit)
}

func TestAttach_WritesClosedSignals(t *testing.T) {
	bus := events.New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Start(ctx)

	api := &fakeAPI{}
	j := NewClosureJournal(api, "journal", time.Hour, 8, zerolog.Nop())
	defer j.Attach(bus)()
	go j.Run(ctx)

	bus.PublishNotificationClosed(closedPayload())

	require.Eventually(t, func() bool { return api.putCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBootstrap_TableAndTTL(t *testing.T) {
	api := &fakeAPI{createErr: &types.ResourceInUseException{}}

	Bootstrap(context.Background(), api, "journal", zerolog.Nop())

	assert.Equal(t, []string{"journal"}, api.tables)
	assert.Equal(t, []string{"expires_at"}, api.ttl)
}
