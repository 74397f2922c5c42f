// Package events publishes index change notifications (spec §6 Publisher
// extension point) to AWS EventBridge, satisfying index.Publisher[K,V].
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autocompleted/internal/index"
)

const source = "autocompleted"

// entryEvent is the JSON detail payload shipped with each EventBridge entry.
// EventID lets downstream consumers dedupe redelivered events; EventBridge
// itself assigns no caller-visible ID to PutEvents entries.
type entryEvent struct {
	EventID  string  `json:"event_id"`
	Kind     string  `json:"kind"`
	Key      string  `json:"key"`
	OldScore float64 `json:"old_score,omitempty"`
	NewScore float64 `json:"new_score,omitempty"`
}

// Publisher implements index.Publisher[string, string] on top of AWS
// EventBridge, mirroring the teacher's EventBridgePublisher partial-failure
// handling (adapted to the index's own Event type). Each event is sent as
// its own PutEvents call; events are not batched.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher builds a Publisher against eventBusName.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, eventBusName: eventBusName, logger: logger}
}

// Publish sends ev to EventBridge as a single PutEvents entry.
func (p *Publisher) Publish(ctx context.Context, ev index.Event[string, string]) error {
	detail := entryEvent{
		EventID:  uuid.NewString(),
		Kind:     string(ev.Kind),
		Key:      ev.Key,
		OldScore: ev.OldScore,
		NewScore: ev.NewScore,
	}

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String(source),
				DetailType:   aws.String(string(ev.Kind)),
				Detail:       aws.String(string(data)),
				Resources:    []string{fmt.Sprintf("arn:aws:autocompleted::entry/%s", ev.Key)},
			},
		},
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("events: publish to eventbridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("failed to publish index event",
					zap.String("kind", string(ev.Kind)),
					zap.String("error_code", *entry.ErrorCode),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("events: %d entries failed to publish", result.FailedEntryCount)
	}

	return nil
}
