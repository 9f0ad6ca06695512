/**
 * @description
 * This package provides a producer for publishing rewards events to RabbitMQ.
 * It encapsulates the logic for connecting to the broker and publishing a
 * message to a durable topic exchange.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// RewardsExchange is the topic exchange every rewards event is published to.
const RewardsExchange = "toucanwin.rewards"

// Routing keys for rewards events.
const (
	RouteReceiptProcessed    = "receipt.processed"
	RouteLevelUp             = "level.up"
	RouteAchievementUnlocked = "achievement.unlocked"
	RouteStreakMilestone     = "streak.milestone"
	RouteTokensSpent         = "tokens.spent"
)

// ReceiptProcessedEvent is published after a receipt is accepted and rewarded.
type ReceiptProcessedEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	ReceiptID    uuid.UUID `json:"receipt_id"`
	PointsEarned int64     `json:"points_earned"`
	TokensEarned int64     `json:"tokens_earned"`
	StoreName    string    `json:"store_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// LevelUpEvent is published whenever a point mutation raises a user's level.
type LevelUpEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	PreviousLevel int       `json:"previous_level"`
	NewLevel      int       `json:"new_level"`
	NewTitle      string    `json:"new_title"`
	Timestamp     time.Time `json:"timestamp"`
}

// AchievementUnlockedEvent is published when a star or badge is earned.
type AchievementUnlockedEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	Family        string    `json:"family"`
	PointsValue   int64     `json:"points_value"`
	Timestamp     time.Time `json:"timestamp"`
}

// TokensSpentEvent is published when bid tokens are debited.
type TokensSpentEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Purpose   string    `json:"purpose"`
	Balance   int64     `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
	Close()
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is unavailable at startup.
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"publish skipped\" exchange=%s routing_key=%s", exchange, routingKey)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch}, nil
}

// Publish sends a message to a specific exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	// Ensure the exchange exists (durable topic)
	if err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", exchange, err)
		// Attempt simple channel reopen once
		if p.conn != nil {
			if ch, chErr := p.conn.Channel(); chErr == nil {
				p.channel = ch
				if err2 := p.channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err2 != nil {
					return err2
				}
			} else {
				return chErr
			}
		} else {
			return err
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(publishCtx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
}

// Close shuts down the channel and connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
