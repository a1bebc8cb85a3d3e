package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"auction-engine/utils"
)

// Queue names, one per event kind so consumers can subscribe selectively.
const (
	QueueHighestBidChanged = "auction.highest_bid_changed"
	QueueBidCancelled      = "auction.bid_cancelled"
	QueueAuctionEnded      = "auction.ended"
)

// RabbitPublisher delivers events to RabbitMQ as persistent JSON messages on
// durable queues. Publishing is at-least-once: a failed publish is logged and
// returned, and callers retry or drop according to their own policy.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitPublisher dials the broker and declares the event queues.
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	for _, name := range []string{QueueHighestBidChanged, QueueBidCancelled, QueueAuctionEnded} {
		// Durable so messages survive broker restarts.
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("rabbitmq declare %s: %w", name, err)
		}
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}

func (p *RabbitPublisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", queue, err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		utils.Error("rabbitmq publish failed", map[string]any{"queue": queue, "error": err.Error()})
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// PublishHighestBidChanged sends a HighestBidChanged event.
func (p *RabbitPublisher) PublishHighestBidChanged(ctx context.Context, event HighestBidChanged) error {
	return p.publish(ctx, QueueHighestBidChanged, event)
}

// PublishBidCancelled sends a BidCancelled event.
func (p *RabbitPublisher) PublishBidCancelled(ctx context.Context, event BidCancelled) error {
	return p.publish(ctx, QueueBidCancelled, event)
}

// PublishAuctionEnded sends an AuctionEnded event.
func (p *RabbitPublisher) PublishAuctionEnded(ctx context.Context, event AuctionEnded) error {
	return p.publish(ctx, QueueAuctionEnded, event)
}
