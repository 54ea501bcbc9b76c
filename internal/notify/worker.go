// Package notify delivers unlock notifications to customers. Delivery runs on
// a River queue job enqueued inside the unlock transaction, so a committed
// debit always has exactly one pending notification; delivery failures are
// retried by River and never touch the money.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// KindJobUnlocked is the notification kind recorded for the customer.
const KindJobUnlocked = "job_unlocked"

type JobUnlockedArgs struct {
	JobID        uuid.UUID `json:"job_id"`
	JobTitle     string    `json:"job_title"`
	CustomerID   uuid.UUID `json:"customer_id"`
	ProviderID   uuid.UUID `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	AmountPaise  int64     `json:"amount_paise"`
}

func (JobUnlockedArgs) Kind() string { return KindJobUnlocked }

// NotificationStore persists the in-app notification row.
type NotificationStore interface {
	InsertNotification(ctx context.Context, userID uuid.UUID, kind string, payload json.RawMessage) error
}

type JobUnlockedWorker struct {
	river.WorkerDefaults[JobUnlockedArgs]
	store      NotificationStore
	webhookURL string
	httpClient *http.Client
	log        *slog.Logger
}

// NewJobUnlockedWorker creates the worker. webhookURL is optional; when set,
// the payload is also POSTed there (e.g. an SMS/push gateway bridge).
func NewJobUnlockedWorker(store NotificationStore, webhookURL string, log *slog.Logger) *JobUnlockedWorker {
	if log == nil {
		log = slog.Default()
	}
	return &JobUnlockedWorker{
		store:      store,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (w *JobUnlockedWorker) Work(ctx context.Context, job *river.Job[JobUnlockedArgs]) error {
	args := job.Args

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	if err := w.store.InsertNotification(ctx, args.CustomerID, KindJobUnlocked, payload); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if w.webhookURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	w.log.Info("unlock notification delivered", "job_id", args.JobID, "customer_id", args.CustomerID)
	return nil
}
