// Package notifysvc delivers user-facing notifications. Sends are
// fire-and-forget with respect to transaction state: callers log failures
// and move on.
package notifysvc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Notifier interface {
	Send(ctx context.Context, address, subject, body string) error
}

// MailJob is the message consumed by the mail worker.
type MailJob struct {
	Address string `json:"address"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type amqpNotifier struct {
	url   string
	queue string
}

// NewAMQP publishes mail jobs to a durable queue. Connections are opened per
// send; notification volume here is a handful per confirmed transaction.
func NewAMQP(url, queue string) Notifier { return &amqpNotifier{url: url, queue: queue} }

func (n *amqpNotifier) Send(ctx context.Context, address, subject, body string) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so jobs survive broker restarts.
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		return err
	}

	payload, err := json.Marshal(MailJob{Address: address, Subject: subject, Body: body})
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
}

type logNotifier struct{ log *slog.Logger }

// NewLog is the no-broker fallback used in dev.
func NewLog(log *slog.Logger) Notifier { return &logNotifier{log: log} }

func (n *logNotifier) Send(_ context.Context, address, subject, body string) error {
	n.log.Info("mail (log only)", "to", address, "subject", subject, "body", body)
	return nil
}
