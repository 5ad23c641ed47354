package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/events"
)

// Task kinds processed by the background worker.
const (
	TaskOrderEmail = "notify:order_email"
	TaskPurgeCarts = "cart:purge_stale"
)

// OrderEmailPayload is the asynq payload for transactional order emails.
type OrderEmailPayload struct {
	Topic   string `json:"topic"`
	OrderID string `json:"orderId"`
	Email   string `json:"email"`
	Total   string `json:"total,omitempty"`
}

// Enqueuer pushes notification work onto asynq so the request path never
// waits on email delivery. It implements events.Notifier.
type Enqueuer struct {
	Client *asynq.Client
	Logger zerolog.Logger
}

// Notify implements events.Notifier by enqueueing an email task for topics
// that carry a recipient.
func (e Enqueuer) Notify(ctx context.Context, event events.Event) error {
	if e.Client == nil {
		return nil
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	task := OrderEmailPayload{Topic: event.Topic, OrderID: event.AggregateID, Email: to}
	if total, ok := payload["total"].(string); ok {
		task.Total = total
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, asynq.NewTask(TaskOrderEmail, data),
		asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	if err != nil {
		e.Logger.Warn().Err(err).Str("topic", event.Topic).Msg("enqueue notification failed")
	}
	return err
}

// CartPurger removes stale carts; satisfied by repo.CartsRepo.
type CartPurger interface {
	PurgeStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// Worker handles background tasks.
type Worker struct {
	Mail    common.EmailSender
	Carts   CartPurger
	CartTTL time.Duration
	Logger  zerolog.Logger
}

// Register attaches handlers to the asynq mux.
func (w Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskOrderEmail, w.handleOrderEmail)
	mux.HandleFunc(TaskPurgeCarts, w.handlePurgeCarts)
}

func (w Worker) handleOrderEmail(_ context.Context, t *asynq.Task) error {
	var p OrderEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if w.Mail == nil || p.Email == "" {
		return nil
	}
	body := bodyFor(p.Topic, map[string]any{"orderId": p.OrderID, "total": p.Total}, time.Now())
	if err := w.Mail.Send(p.Email, subjectFor(p.Topic), body); err != nil {
		w.Logger.Error().Err(err).Str("topic", p.Topic).Msg("send notification email")
		return err
	}
	return nil
}

func (w Worker) handlePurgeCarts(ctx context.Context, _ *asynq.Task) error {
	if w.Carts == nil {
		return nil
	}
	ttl := w.CartTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	removed, err := w.Carts.PurgeStale(ctx, ttl)
	if err != nil {
		return err
	}
	if removed > 0 {
		w.Logger.Info().Int64("removed", removed).Msg("purged stale carts")
	}
	return nil
}
