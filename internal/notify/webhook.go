package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Webhook posts committed ledger entries to an external URL. Delivery is best
// effort: failures are logged and never reach the ledger caller.
type Webhook struct {
	url    string
	client *resty.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url: url,
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

func (w *Webhook) Notify(ctx context.Context, entry *models.LedgerEntry) {
	if err := w.send(ctx, entry); err != nil {
		logrus.WithFields(logrus.Fields{
			"entry_id": entry.ID,
			"user_id":  entry.UserID,
		}).Warnf("failed to deliver webhook: %v", err)
	}
}

func (w *Webhook) send(ctx context.Context, entry *models.LedgerEntry) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(entry).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status code: %d %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}
