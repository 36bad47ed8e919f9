package service

import (
	"context"
	"encoding/json"

	"notes-sync-be/internal/dto"
	"notes-sync-be/internal/pkg/logger"
	"notes-sync-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventRelay is where consumed note events end up (the NATS publisher in production).
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	relay      EventRelay
	logger     logger.ILogger
}

// NewConsumerService relays note lifecycle events from the in-process bus to relay.
// relay may be nil, in which case events are only logged.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	relay EventRelay,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		relay:      relay,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishNoteEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal note event", map[string]interface{}{"error": err, "message_id": msg.UUID})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Debug("ConsumerService", "Note event", map[string]interface{}{"type": payload.Type, "note_id": payload.NoteId})

	if cs.relay == nil {
		msg.Ack()
		return
	}

	evt := events.NewNoteEvent(payload.Type, payload.NoteId, payload.Title, payload.OccurredAt)
	if err := cs.relay.Publish(ctx, evt); err != nil {
		// Notifications downstream are auxiliary; a lost relay never blocks the bus.
		cs.logger.Warn("ConsumerService", "Failed to relay note event", map[string]interface{}{"error": err.Error(), "type": payload.Type})
	}
	msg.Ack()
}
