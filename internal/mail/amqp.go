package mail

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// Client publishes and consumes mail messages on a durable RabbitMQ queue
type Client struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	queueName    string
}

// NewClient dials the broker and declares the exchange, queue and binding
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name on a direct exchange
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Enqueue publishes a persistent JSON message
func (c *Client) Enqueue(ctx context.Context, msg *Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         string(msg.Kind),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.Debug().Str("kind", string(msg.Kind)).Str("queue", c.queueName).Msg("Mail enqueued")
	return nil
}

// Consume delivers messages to handler until ctx is cancelled. A failed message
// is requeued once and dropped on its second failure.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, *Message) error) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	log.Info().Str("queue", c.queueName).Msg("Started consuming mail messages")

	for {
		select {
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("Stopping mail consumption")
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler func(context.Context, *Message) error) {
	msg, err := MessageFromJSON(delivery.Body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode mail message")
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !delivery.Redelivered
		log.Error().Err(err).
			Str("kind", string(msg.Kind)).
			Bool("requeue", requeue).
			Msg("Failed to deliver mail")
		_ = delivery.Nack(false, requeue)
		return
	}

	_ = delivery.Ack(false)
	log.Info().Str("kind", string(msg.Kind)).Msg("Mail delivered")
}

// NotifyClose returns a channel that receives the connection close error
func (c *Client) NotifyClose() chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// ExponentialBackoff returns the reconnect delay for an attempt, capped at 30s
func ExponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		attempt = 5
	}
	d := time.Second << attempt
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
