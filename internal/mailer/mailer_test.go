package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"admissions_service/internal/models"
	"admissions_service/internal/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	email, err := Render(models.Message{
		Email:     "sara@example.com",
		Purpose:   models.PurposeEmailVerification,
		Recipient: "sara",
		Link:      "http://frontend/verify-email?token=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "Verify your email", email.Subject)
	assert.Contains(t, email.HTML, "Dear sara")
	assert.Contains(t, email.HTML, `href="http://frontend/verify-email?token=abc"`)

	email, err = Render(models.Message{
		Email:       "sara@example.com",
		Purpose:     models.PurposeAdmissionReviewed,
		Recipient:   "Sara",
		StudentName: "<b>Ali</b>",
		Status:      models.StatusApproved,
		Notes:       "welcome",
	})
	require.NoError(t, err)
	assert.Equal(t, "Admission application approved", email.Subject)
	assert.Contains(t, email.HTML, "&lt;b&gt;Ali&lt;/b&gt;")
	assert.Contains(t, email.HTML, "has been approved")
	assert.Contains(t, email.HTML, "welcome")

	email, err = Render(models.Message{
		Email:   "sara@example.com",
		Purpose: models.PurposeAdmissionReviewed,
		Status:  models.StatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, "Admission application reviewed", email.Subject)
	assert.NotContains(t, email.HTML, "Notes:")
	assert.Contains(t, email.HTML, "Dear sara@example.com")

	_, err = Render(models.Message{Email: "a@example.com", Purpose: "spam"})
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeSender) Send(to string, _ Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) MarkDelivered(_ context.Context, id string, _ time.Duration) (bool, error) {
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func (f *fakeDeduper) Forget(_ context.Context, id string) error {
	delete(f.seen, id)
	return nil
}

func body(t *testing.T, msg models.Message) []byte {
	t.Helper()
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	return b
}

func TestConsumerDropsMalformed(t *testing.T) {
	c := NewConsumer(slog.New(slog.DiscardHandler), &fakeSender{}, nil, time.Hour)

	assert.ErrorIs(t, c.Handle(context.Background(), []byte("{")), rabbitmq.ErrDrop)
	assert.ErrorIs(t, c.Handle(context.Background(), body(t, models.Message{Purpose: models.PurposePasswordReset})), rabbitmq.ErrDrop)
	assert.ErrorIs(t, c.Handle(context.Background(), body(t, models.Message{Email: "a@example.com", Purpose: "spam"})), rabbitmq.ErrDrop)
}

func TestConsumerSkipsRedelivery(t *testing.T) {
	sender := &fakeSender{}
	c := NewConsumer(slog.New(slog.DiscardHandler), sender, &fakeDeduper{seen: map[string]bool{}}, time.Hour)

	msg := body(t, models.Message{ID: "m-1", Email: "a@example.com", Purpose: models.PurposePasswordReset, Link: "x"})

	require.NoError(t, c.Handle(context.Background(), msg))
	require.NoError(t, c.Handle(context.Background(), msg))

	assert.Equal(t, []string{"a@example.com"}, sender.sent)
}

func TestConsumerSendFailureReleasesClaim(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	dedupe := &fakeDeduper{seen: map[string]bool{}}
	c := NewConsumer(slog.New(slog.DiscardHandler), sender, dedupe, time.Hour)

	msg := body(t, models.Message{ID: "m-1", Email: "a@example.com", Purpose: models.PurposePasswordReset})

	err := c.Handle(context.Background(), msg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, rabbitmq.ErrDrop, "send failures are requeued")
	assert.Empty(t, dedupe.seen)

	sender.err = nil
	require.NoError(t, c.Handle(context.Background(), msg))
	assert.Equal(t, []string{"a@example.com"}, sender.sent)
}
