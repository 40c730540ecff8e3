package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"produce-lens/internal/model"
)

type PredictionPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewPredictionPublisher(conn *amqp.Connection, queueName string) *PredictionPublisher {
	return &PredictionPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *PredictionPublisher) Publish(ctx context.Context, prediction model.Prediction) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(prediction)
	if err != nil {
		return fmt.Errorf("marshal prediction payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    prediction.RequestID,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish prediction failed: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable queue both publisher and worker use.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return nil
}
