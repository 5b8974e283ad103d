package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"expense-tracker/internal/models"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher delivers newly created notifications somewhere outside the database.
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
	Close() error
}

// LogPublisher writes notifications to the structured log.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, n *models.Notification) error {
	slog.InfoContext(ctx, "Notification created",
		"user_id", n.UserID,
		"kind", n.Kind,
		"month", n.Month,
		"message", n.Message)
	return nil
}

func (LogPublisher) Close() error { return nil }

// message is the AMQP payload.
type message struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	BudgetID  *uint     `json:"budget_id,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Month     string    `json:"month"`
	CreatedAt time.Time `json:"created_at"`
}

// AMQPPublisher publishes notifications as persistent JSON messages to a direct exchange.
type AMQPPublisher struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
}

func NewAMQPPublisher(url, exchange, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, routingKey: routingKey}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(message{
		ID:        n.ID,
		UserID:    n.UserID,
		BudgetID:  n.BudgetID,
		Kind:      n.Kind,
		Message:   n.Message,
		Month:     n.Month,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
