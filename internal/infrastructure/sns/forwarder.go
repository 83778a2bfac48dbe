// Package sns forwards notifyd signals to an AWS SNS topic so that remote
// subscribers can observe NotificationCreated and NotificationClosed.
package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-notifyd/internal/config"
	"github.com/go-notifyd/internal/events"
	"github.com/go-notifyd/internal/infrastructure/awscfg"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// PublishAPI is the subset of *sns.Client the forwarder needs.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Subscriber is the subset of the event bus the forwarder attaches to.
type Subscriber interface {
	SubscribeNotificationCreated(fn func(events.NotificationCreatedPayload)) func()
	SubscribeNotificationClosed(fn func(events.NotificationClosedPayload)) func()
}

// Message is the JSON body published for every signal.
type Message struct {
	Signal     string    `json:"signal"`
	EventID    string    `json:"event_id"`
	At         time.Time `json:"at"`
	ID         uint32    `json:"id"`
	Replaced   *bool     `json:"replaced,omitempty"`
	Reason     uint32    `json:"reason,omitempty"`
	ReasonText string    `json:"reason_text,omitempty"`
	AppName    string    `json:"app_name,omitempty"`
	Summary    string    `json:"summary,omitempty"`
}

// Forwarder queues bus signals and publishes them to a topic at a bounded
// rate. Bus dispatch never waits on the network: when the queue is full the
// signal is dropped and logged.
type Forwarder struct {
	client  PublishAPI
	topic   string
	limiter *rate.Limiter
	queue   chan Message
	log     zerolog.Logger
}

func NewForwarder(client PublishAPI, topicARN string, limiter *rate.Limiter, queueSize int, logger zerolog.Logger) *Forwarder {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Forwarder{
		client:  client,
		topic:   topicARN,
		limiter: limiter,
		queue:   make(chan Message, queueSize),
		log:     logger,
	}
}

// NewClient creates an SNS client, honouring the LocalStack endpoint override.
func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.BaseEndpoint = awscfg.Endpoint(cfg)
	}), nil
}

// FromConfig wires a forwarder from cfg. It returns nil when no topic is set.
func FromConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Forwarder, error) {
	if cfg.SNSTopicARN == "" {
		return nil, nil
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.SNSPublishRate), cfg.SNSPublishBurst)
	return NewForwarder(client, cfg.SNSTopicARN, limiter, cfg.EventBufferSize, logger), nil
}

// Attach subscribes the forwarder to both signals. The returned function
// detaches it.
func (f *Forwarder) Attach(bus Subscriber) func() {
	offCreated := bus.SubscribeNotificationCreated(func(p events.NotificationCreatedPayload) {
		replaced := p.Replaced
		f.enqueue(Message{
			Signal:   events.EventNotificationCreated.Signal(),
			EventID:  p.EventID,
			At:       p.At,
			ID:       p.ID,
			Replaced: &replaced,
		})
	})
	offClosed := bus.SubscribeNotificationClosed(func(p events.NotificationClosedPayload) {
		f.enqueue(Message{
			Signal:     events.EventNotificationClosed.Signal(),
			EventID:    p.EventID,
			At:         p.At,
			ID:         p.ID,
			Reason:     uint32(p.Reason),
			ReasonText: p.Reason.String(),
			AppName:    p.Notification.AppName,
			Summary:    p.Notification.Summary,
		})
	})
	return func() {
		offCreated()
		offClosed()
	}
}

func (f *Forwarder) enqueue(m Message) {
	select {
	case f.queue <- m:
	default:
		f.log.Warn().Str("signal", m.Signal).Uint32("id", m.ID).Msg("sns queue full, dropping signal")
	}
}

// Run publishes queued messages until ctx is cancelled.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-f.queue:
			if err := f.limiter.Wait(ctx); err != nil {
				return
			}
			if err := f.publish(ctx, m); err != nil {
				f.log.Error().Err(err).Str("signal", m.Signal).Uint32("id", m.ID).Msg("sns publish failed")
			}
		}
	}
}

func (f *Forwarder) publish(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = f.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(f.topic),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"signal": {DataType: aws.String("String"), StringValue: aws.String(m.Signal)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", m.Signal, err)
	}
	return nil
}
