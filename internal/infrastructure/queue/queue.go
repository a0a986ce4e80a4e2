// Package queue is the AMQP plumbing for the mail outbox. The API server
// publishes MailMessages to a durable queue; the mailer worker consumes
// them and talks SMTP, so a slow or dead mail server never blocks a
// request.
package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MailQueue is the durable queue carrying mail messages between the API
// server and the mailer worker.
const MailQueue = "email_queue"

// Connect dials the broker, opens a channel, and declares the mail queue.
// The caller owns both returned handles and must close them.
func Connect(dsn string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		MailQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}

	return conn, ch, nil
}
