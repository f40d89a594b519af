package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BounceHandler is the slice of the verification manager the worker needs.
type BounceHandler interface {
	MarkBounced(ctx context.Context, leadID, reason string) error
}

// BounceWorker consumes deliverability signals and forces the affected
// verification to failed.
type BounceWorker struct {
	Channel       *amqp.Channel
	Verifications BounceHandler
	Logger        *zap.Logger
}

func NewBounceWorker(ch *amqp.Channel, verifications BounceHandler, logger *zap.Logger) *BounceWorker {
	return &BounceWorker{
		Channel:       ch,
		Verifications: verifications,
		Logger:        logger,
	}
}

func (w *BounceWorker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual is safer)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		w.Logger.Fatal("failed to register RabbitMQ consumer", zap.Error(err))
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload BouncePayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				w.Logger.Error("bounce message with invalid JSON, dropping", zap.Error(err))
				// Malformed message. Reject without requeue so it cannot jam the queue.
				d.Nack(false, false)
				continue
			}

			if payload.LeadID == "" {
				w.Logger.Error("bounce message without lead_id, dropping",
					zap.String("email", payload.Email))
				d.Nack(false, false)
				continue
			}

			err := w.Verifications.MarkBounced(context.Background(), payload.LeadID, payload.Reason)
			if err != nil {
				w.Logger.Error("failed to process bounce",
					zap.String("lead_id", payload.LeadID),
					zap.Error(err),
				)
				// Goes to the DLQ for manual follow-up.
				d.Nack(false, false)
				continue
			}

			w.Logger.Info("bounce processed",
				zap.String("lead_id", payload.LeadID),
				zap.String("reason", payload.Reason),
			)
			d.Ack(false)
		}
	}()

	w.Logger.Info("bounce worker waiting for messages", zap.String("queue", queueName))
	<-forever
}
