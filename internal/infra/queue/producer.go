package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadCapturedPayload announces a durably stored lead to downstream
// consumers (CRM sync, enrichment).
type LeadCapturedPayload struct {
	LeadID       string `json:"lead_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Source       string `json:"source"`
	CampaignID   string `json:"campaign_id,omitempty"`
	CampaignSlug string `json:"campaign_slug,omitempty"`
	CapturedAt   string `json:"captured_at"`
}

// BouncePayload is what the mail provider's webhook bridge publishes when a
// message to a lead could not be delivered.
type BouncePayload struct {
	LeadID string `json:"lead_id"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishLeadCaptured(ctx context.Context, payload LeadCapturedPayload) error {
	return p.publish(ctx, CapturedRoutingKey, payload)
}

func (p *RabbitMQProducer) PublishBounce(ctx context.Context, payload BouncePayload) error {
	return p.publish(ctx, BounceRoutingKey, payload)
}

func (p *RabbitMQProducer) publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}
