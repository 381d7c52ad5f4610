package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
)

const (
	// DefaultBatchSize is the number of deliveries processed per poll.
	DefaultBatchSize = 50
	// DefaultPollInterval is the time between polls for due deliveries.
	DefaultPollInterval = 5 * time.Second
)

// Worker drains the delivery queue, signing and POSTing each payload.
type Worker struct {
	repo         *Repository
	cipher       *SecretCipher
	client       *http.Client
	logger       *slog.Logger
	batchSize    int
	pollInterval time.Duration
	started      bool
}

// NewWorker creates a webhook delivery worker.
func NewWorker(repo *Repository, cipher *SecretCipher, logger *slog.Logger) *Worker {
	return &Worker{
		repo:         repo,
		cipher:       cipher,
		client:       NewHTTPClient(),
		logger:       logger.With("component", "notify.worker"),
		batchSize:    DefaultBatchSize,
		pollInterval: DefaultPollInterval,
	}
}

// Run starts the delivery loop. Blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.started {
		return errors.New("worker already started")
	}
	w.started = true

	w.logger.Info("webhook worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
			}
		}
	}
}

// processOnce fetches and attempts a batch of due deliveries.
func (w *Worker) processOnce(ctx context.Context) error {
	deliveries, err := w.repo.GetPendingDeliveries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending deliveries: %w", err)
	}

	for _, delivery := range deliveries {
		if err := w.deliver(ctx, delivery); err != nil {
			w.logger.Warn("delivery failed",
				"delivery_id", delivery.ID,
				"error", err,
			)
		}
	}

	return nil
}

// deliver attempts one webhook POST.
func (w *Worker) deliver(ctx context.Context, delivery *model.WebhookDelivery) error {
	endpoint, err := w.repo.GetEndpoint(ctx, delivery.EndpointID)
	if err != nil {
		if errors.Is(err, ErrEndpointNotFound) {
			return w.repo.UpdateDeliveryFailure(ctx, delivery.ID, nil, "endpoint deleted", time.Now(), true)
		}
		return err
	}

	if !endpoint.IsActive() {
		return w.repo.UpdateDeliveryFailure(ctx, delivery.ID, nil, "endpoint disabled", time.Now(), true)
	}

	secret, err := w.cipher.Decrypt(endpoint.SecretEnc)
	if err != nil {
		// Undecryptable secret will never deliver; stop retrying.
		return w.repo.UpdateDeliveryFailure(ctx, delivery.ID, nil, "secret decryption failed", time.Now(), true)
	}

	timestamp := time.Now().Unix()
	signature := Sign(secret, timestamp, []byte(delivery.PayloadJSON))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.TargetURL, bytes.NewReader([]byte(delivery.PayloadJSON)))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	setDeliveryHeaders(req, signature, strconv.FormatInt(timestamp, 10), delivery.ID)

	start := time.Now()
	resp, err := w.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return w.handleDeliveryError(ctx, delivery, nil, err.Error())
	}
	defer resp.Body.Close()

	// Drain a little so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.logger.Info("webhook delivered",
			"delivery_id", delivery.ID,
			"target_host", ExtractHost(endpoint.TargetURL),
			"http_status", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
		)
		return w.repo.UpdateDeliverySuccess(ctx, delivery.ID, resp.StatusCode)
	}

	return w.handleDeliveryError(ctx, delivery, &resp.StatusCode, fmt.Sprintf("HTTP %d", resp.StatusCode))
}

// handleDeliveryError records the failed attempt and schedules the retry.
func (w *Worker) handleDeliveryError(ctx context.Context, delivery *model.WebhookDelivery, httpStatus *int, errMsg string) error {
	nextAttempt := delivery.AttemptCount + 1
	exhausted := IsExhausted(nextAttempt, delivery.MaxAttempts)

	w.logger.Warn("webhook delivery failed",
		"delivery_id", delivery.ID,
		"attempt", nextAttempt,
		"exhausted", exhausted,
		"error", errMsg,
	)

	return w.repo.UpdateDeliveryFailure(ctx, delivery.ID, httpStatus, errMsg, NextRetryAt(nextAttempt), exhausted)
}

// SetBatchSize overrides the default batch size.
func (w *Worker) SetBatchSize(size int) {
	if size > 0 {
		w.batchSize = size
	}
}

// SetPollInterval overrides the default poll interval.
func (w *Worker) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		w.pollInterval = interval
	}
}
