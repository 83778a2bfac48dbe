package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-notifyd/internal/events"
	"github.com/rs/zerolog"
)

// Entry is one journal row: a notification as it was when it was closed.
type Entry struct {
	EventID        string   `dynamodbav:"event_id" json:"event_id" yaml:"event_id"`
	NotificationID uint32   `dynamodbav:"notification_id" json:"notification_id" yaml:"notification_id"`
	AppName        string   `dynamodbav:"app_name" json:"app_name" yaml:"app_name"`
	AppIcon        string   `dynamodbav:"app_icon,omitempty" json:"app_icon,omitempty" yaml:"app_icon,omitempty"`
	Summary        string   `dynamodbav:"summary" json:"summary" yaml:"summary"`
	Body           string   `dynamodbav:"body,omitempty" json:"body,omitempty" yaml:"body,omitempty"`
	Actions        []string `dynamodbav:"actions,omitempty" json:"actions,omitempty" yaml:"actions,omitempty"`
	Urgency        string   `dynamodbav:"urgency" json:"urgency" yaml:"urgency"`
	Reason         uint32   `dynamodbav:"reason" json:"reason" yaml:"reason"`
	ReasonText     string   `dynamodbav:"reason_text" json:"reason_text" yaml:"reason_text"`
	CreatedAt      string   `dynamodbav:"created_at" json:"created_at" yaml:"created_at"`
	ClosedAt       string   `dynamodbav:"closed_at" json:"closed_at" yaml:"closed_at"`
	// ExpiresAt is the DynamoDB TTL, in epoch seconds.
	ExpiresAt int64 `dynamodbav:"expires_at" json:"-" yaml:"-"`
}

// Subscriber is the subset of the event bus the journal attaches to.
type Subscriber interface {
	SubscribeNotificationClosed(fn func(events.NotificationClosedPayload)) func()
}

// ClosureJournal records every NotificationClosed signal. Writes happen on
// its own goroutine (Run) so that bus dispatch never waits on DynamoDB.
type ClosureJournal struct {
	client    API
	table     string
	retention time.Duration
	queue     chan events.NotificationClosedPayload
	log       zerolog.Logger
}

func NewClosureJournal(client API, table string, retention time.Duration, queueSize int, logger zerolog.Logger) *ClosureJournal {
	if queueSize < 1 {
		queueSize = 1
	}
	return &ClosureJournal{
		client:    client,
		table:     table,
		retention: retention,
		queue:     make(chan events.NotificationClosedPayload, queueSize),
		log:       logger,
	}
}

// Attach subscribes the journal to NotificationClosed.
func (j *ClosureJournal) Attach(bus Subscriber) func() {
	return bus.SubscribeNotificationClosed(func(p events.NotificationClosedPayload) {
		select {
		case j.queue <- p:
		default:
			j.log.Warn().Uint32("id", p.ID).Msg("journal queue full, dropping entry")
		}
	})
}

// Run writes queued entries until ctx is cancelled.
func (j *ClosureJournal) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-j.queue:
			if err := j.Record(ctx, p); err != nil {
				j.log.Error().Err(err).Uint32("id", p.ID).Msg("journal write failed")
			}
		}
	}
}

// Record stores one closure.
func (j *ClosureJournal) Record(ctx context.Context, p events.NotificationClosedPayload) error {
	item, err := attributevalue.MarshalMap(newEntry(p, j.retention))
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	_, err = j.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(j.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit closures for appName, newest first.
func (j *ClosureJournal) Recent(ctx context.Context, appName string, limit int32) ([]Entry, error) {
	out, err := j.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(j.table),
		IndexName:              aws.String(indexAppClosedAt),
		KeyConditionExpression: aws.String("app_name = :app"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":app": strValue(appName),
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	entries := []Entry{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal journal entries: %w", err)
	}
	return entries, nil
}

// timeLayout is fixed width so closed_at sorts chronologically as a string.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func newEntry(p events.NotificationClosedPayload, retention time.Duration) Entry {
	n := p.Notification
	closedAt := p.At
	if closedAt.IsZero() {
		closedAt = time.Now()
	}
	return Entry{
		EventID:        p.EventID,
		NotificationID: p.ID,
		AppName:        n.AppName,
		AppIcon:        n.AppIcon,
		Summary:        n.Summary,
		Body:           n.Body,
		Actions:        n.Actions,
		Urgency:        n.Urgency.String(),
		Reason:         uint32(p.Reason),
		ReasonText:     p.Reason.String(),
		CreatedAt:      n.CreatedAt.UTC().Format(timeLayout),
		ClosedAt:       closedAt.UTC().Format(timeLayout),
		ExpiresAt:      closedAt.Add(retention).Unix(),
	}
}
