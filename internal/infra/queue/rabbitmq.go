package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.leads"
	DLXName      = "ex.leads.dlx"

	// Outbound lead-captured events for downstream CRM consumers.
	CapturedQueueName  = "q.leads.captured"
	CapturedRoutingKey = "k.lead.captured"

	// Inbound deliverability signals from the mail provider bridge.
	BounceQueueName  = "q.email.bounces"
	BounceRoutingKey = "k.email.bounce"

	DLQName = "q.leads.dlq"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(DLQName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(DLQName, CapturedRoutingKey, DLXName, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(DLQName, BounceRoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	// Nacked messages land on the DLX with their original routing key.
	args := amqp.Table{
		"x-dead-letter-exchange": DLXName,
	}

	err = ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(CapturedQueueName, true, false, false, false, args)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(CapturedQueueName, CapturedRoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	_, err = ch.QueueDeclare(BounceQueueName, true, false, false, false, args)
	if err != nil {
		return err
	}
	return ch.QueueBind(BounceQueueName, BounceRoutingKey, ExchangeName, false, nil)
}
