// Package notify dispatches outbound emails through the message queue.
// Dispatch is asynchronous and bounded; a failed dispatch is logged and
// counted but never reported back to the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"admissions_service/internal/config"
	sl "admissions_service/internal/lib/logger/sl"
	"admissions_service/internal/metrics"
	"admissions_service/internal/models"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const defaultBackoff = 100 * time.Millisecond

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Notifier struct {
	log      *slog.Logger
	pub      Publisher
	timeout  time.Duration
	attempts uint64
	backoff  time.Duration
	wg       sync.WaitGroup
}

func New(log *slog.Logger, pub Publisher, cfg config.Notify) *Notifier {
	n := &Notifier{
		log:      log,
		pub:      pub,
		timeout:  cfg.Timeout,
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
	}

	if n.attempts == 0 {
		n.attempts = 1
	}
	if n.backoff <= 0 {
		n.backoff = defaultBackoff
	}
	if n.timeout <= 0 {
		n.timeout = 5 * time.Second
	}

	return n
}

// Send queues msg for delivery and returns immediately.
func (n *Notifier) Send(msg models.Message) {
	if msg.Email == "" {
		n.log.Debug("notification without recipient dropped", slog.String("purpose", string(msg.Purpose)))
		return
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	n.wg.Add(1)

	go func() {
		defer n.wg.Done()
		n.dispatch(msg)
	}()
}

func (n *Notifier) ApplicationReviewed(evt models.ApplicationReviewed) {
	n.Send(models.Message{
		Email:       evt.Contact,
		Purpose:     models.PurposeAdmissionReviewed,
		Recipient:   evt.ParentName,
		StudentName: evt.StudentName,
		Status:      evt.Status,
		Notes:       evt.Notes,
	})
}

// Wait blocks until every in-flight dispatch has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(msg models.Message) {
	const op = "notify.dispatch"

	log := n.log.With(
		slog.String("op", op),
		slog.String("message_id", msg.ID),
		slog.String("purpose", string(msg.Purpose)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(n.attempts-1, retry.NewConstant(n.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := n.pub.SendMessage(ctx, msg); err != nil {
			log.Warn("notification attempt failed", sl.Err(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		metrics.Notifications.WithLabelValues(string(msg.Purpose), "failed").Inc()
		log.Error("failed to dispatch notification", sl.Err(err))
		return
	}

	metrics.Notifications.WithLabelValues(string(msg.Purpose), "sent").Inc()
	log.Info("notification dispatched")
}

// LogPublisher stands in for the broker when none is configured.
type LogPublisher struct {
	Log *slog.Logger
}

func (p LogPublisher) SendMessage(_ context.Context, msg models.Message) error {
	p.Log.Info("email not queued, no broker configured",
		slog.String("message_id", msg.ID),
		slog.String("purpose", string(msg.Purpose)),
	)

	return nil
}
