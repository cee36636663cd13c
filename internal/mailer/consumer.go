package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/models"
	"admissions_service/internal/rabbitmq"
)

type Sender interface {
	Send(to string, email Email) error
}

// Deduper remembers delivered message ids so broker redeliveries are not
// mailed twice.
type Deduper interface {
	MarkDelivered(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

type Consumer struct {
	log      *slog.Logger
	sender   Sender
	dedupe   Deduper
	dedupTTL time.Duration
}

// NewConsumer builds a queue handler. dedupe may be nil.
func NewConsumer(log *slog.Logger, sender Sender, dedupe Deduper, dedupTTL time.Duration) *Consumer {
	return &Consumer{
		log:      log,
		sender:   sender,
		dedupe:   dedupe,
		dedupTTL: dedupTTL,
	}
}

// Handle processes one delivery. Malformed messages return rabbitmq.ErrDrop;
// send failures return a plain error so the broker redelivers.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	const op = "mailer.Consumer.Handle"

	log := c.log.With(slog.String("op", op))

	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Error("failed to unmarshal message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, rabbitmq.ErrDrop)
	}

	log = log.With(
		slog.String("message_id", msg.ID),
		slog.String("purpose", string(msg.Purpose)),
	)

	if msg.Email == "" {
		log.Error("message without recipient")
		return fmt.Errorf("%s: %w", op, rabbitmq.ErrDrop)
	}

	email, err := Render(msg)
	if err != nil {
		log.Error("failed to render message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, rabbitmq.ErrDrop)
	}

	claimed := c.dedupe != nil && msg.ID != ""
	if claimed {
		first, err := c.dedupe.MarkDelivered(ctx, msg.ID, c.dedupTTL)
		if err != nil {
			// Send without a claim.
			log.Warn("dedupe unavailable", sl.Err(err))
			claimed = false
		} else if !first {
			log.Info("message already delivered, skipping")
			return nil
		}
	}

	if err := c.sender.Send(msg.Email, email); err != nil {
		log.Error("failed to send message", sl.Err(err))

		if claimed {
			if err := c.dedupe.Forget(ctx, msg.ID); err != nil {
				log.Warn("failed to release dedupe claim", sl.Err(err))
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("message sent successfully")

	return nil
}
