package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimtrunov/MediaWatch/internal/core"
	"github.com/vadimtrunov/MediaWatch/internal/retry"
)

// Reconciler keeps exactly one dashboard message in sync with the rendered
// document. It edits the persisted message in place; when the platform
// reports the message gone, it clears the state and creates a fresh one in
// the same call, persisting the new ID before reporting success.
type Reconciler struct {
	publisher core.Publisher
	store     *StateStore
	policy    retry.Policy
	logger    *slog.Logger

	mu        sync.Mutex
	messageID int // 0 means no message exists yet
}

// NewReconciler restores the message ID from the store. A corrupt state
// file degrades to "no message"; the next publish creates a new one.
func NewReconciler(publisher core.Publisher, store *StateStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	id, err := store.Load()
	if err != nil {
		logger.Warn("dashboard state unreadable, starting fresh", "error", err)
		id = 0
	}

	return &Reconciler{
		publisher: publisher,
		store:     store,
		policy:    retry.DefaultPolicy(),
		logger:    logger,
		messageID: id,
	}
}

// MessageID returns the currently tracked message ID, 0 when none.
func (r *Reconciler) MessageID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messageID
}

// Publish reconciles the dashboard message with doc. The lock makes this
// the single serialization point between scheduled cycles and admin-forced
// refreshes.
func (r *Reconciler) Publish(ctx context.Context, doc core.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.messageID != 0 {
		err := r.withRateLimitRetry(ctx, func(ctx context.Context) error {
			return r.publisher.EditDashboard(ctx, r.messageID, doc)
		})
		switch {
		case err == nil:
			return nil
		case core.IsPublishKind(err, core.PublishNotFound):
			r.logger.Warn("dashboard message gone, creating a new one", "message_id", r.messageID)
			r.messageID = 0
			// fall through to create below
		default:
			return fmt.Errorf("edit dashboard: %w", err)
		}
	}

	id, err := r.create(ctx, doc)
	if err != nil {
		return err
	}
	r.messageID = id
	return nil
}

// create sends a new dashboard message and persists its ID before
// returning, so a crash right after cannot orphan an untracked message.
func (r *Reconciler) create(ctx context.Context, doc core.Document) (int, error) {
	var id int
	err := r.withRateLimitRetry(ctx, func(ctx context.Context) error {
		var sendErr error
		id, sendErr = r.publisher.SendDashboard(ctx, doc)
		return sendErr
	})
	if err != nil {
		return 0, fmt.Errorf("send dashboard: %w", err)
	}

	if err := r.store.Save(id); err != nil {
		return 0, fmt.Errorf("persist message id %d: %w", id, err)
	}
	r.logger.Info("dashboard message created", "message_id", id)
	return id, nil
}

// withRateLimitRetry retries only rate-limit responses, honoring the
// platform's minimum wait. Forbidden and not-found pass straight through.
func (r *Reconciler) withRateLimitRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, r.policy, func(err error) (bool, time.Duration) {
		var pe *core.PublishError
		if errors.As(err, &pe) && pe.Kind == core.PublishRateLimited {
			return true, pe.RetryAfter
		}
		return false, 0
	}, fn)
}
