// Package queue publishes booking lifecycle events to RabbitMQ and runs
// the background consumer that turns them into an audit log.
package queue

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/game-server-booking/internal/booking"
)

const lifecycleQueueName = "booking.lifecycle"

// Publisher publishes lifecycle events to the booking.lifecycle queue.
// Each publish opens a short-lived connection; the engine treats publish
// failures as non-fatal, so a broker outage never blocks a booking.
type Publisher struct {
    url string
}

// NewPublisher returns a Publisher for the given broker URL.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url}
}

// PublishLifecycle publishes one event to the booking.lifecycle queue.
// Any error is logged and returned so the caller can choose to ignore
// it. Messages are marked as persistent.
func (p *Publisher) PublishLifecycle(ctx context.Context, ev booking.LifecycleEvent) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(
        lifecycleQueueName, // name
        true,               // durable
        false,              // autoDelete
        false,              // exclusive
        false,              // noWait
        nil,                // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",                 // default exchange
        lifecycleQueueName, // routing key = queue name
        false,              // mandatory
        false,              // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }

    return nil
}
