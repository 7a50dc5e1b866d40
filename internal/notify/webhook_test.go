package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/models"
)

func TestWebhookSend(t *testing.T) {
	var got models.LedgerEntry
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	entry := &models.LedgerEntry{
		ID:           "e1",
		UserID:       "u1",
		Kind:         models.EntryKindAdjust,
		Requested:    -10,
		Applied:      -4,
		BalanceAfter: 0,
		OperatorID:   "op",
	}

	w := NewWebhook(srv.URL, time.Second)
	if err := w.send(context.Background(), entry); err != nil {
		t.Fatalf("send() error = %v", err)
	}

	if got.ID != "e1" || got.UserID != "u1" || got.Applied != -4 || got.OperatorID != "op" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second)
	if err := w.send(context.Background(), &models.LedgerEntry{ID: "e1"}); err == nil {
		t.Fatal("expected error on 502")
	}

	// Notify swallows the error.
	w.Notify(context.Background(), &models.LedgerEntry{ID: "e2"})
}
