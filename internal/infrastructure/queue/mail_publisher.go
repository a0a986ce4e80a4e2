package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gearguard/gearguard/internal/core/domain"
)

const defaultPublishTimeout = 5 * time.Second

// MailPublisher sends mail messages to the outbox queue. It implements
// ports.MailPublisher.
type MailPublisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewMailPublisher(ch *amqp.Channel, timeout time.Duration) *MailPublisher {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &MailPublisher{ch: ch, timeout: timeout}
}

func (p *MailPublisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"", // default exchange
		MailQueue,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish mail message: %w", err)
	}
	return nil
}
