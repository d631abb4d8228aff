package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/giygas/pediatric-drug-calculator/interfaces"
)

func TestDoseCalculated(t *testing.T) {
	n := DoseCalculated("600.0 - 1350.0 mg/day", "Amoxicillin")

	if n.Title != "Dosage Calculated" {
		t.Errorf("Expected title 'Dosage Calculated', got %q", n.Title)
	}
	if n.Body != "600.0 - 1350.0 mg/day for Amoxicillin" {
		t.Errorf("Unexpected body %q", n.Body)
	}
}

func TestWebhookPostsJSON(t *testing.T) {
	var received interfaces.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := DoseCalculated("60.0 - 120.0 mg/day", "Phenobarbital")
	if err := NewWebhook(server.URL).Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if received != n {
		t.Errorf("Expected %+v, got %+v", n, received)
	}
}

func TestWebhookRejected(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewWebhook(server.URL).Notify(context.Background(), DoseCalculated("1.0 - 2.0 mg/day", "X"))
	if err == nil {
		t.Error("Expected error for 400 response")
	}
	if calls.Load() == 0 {
		t.Error("Expected webhook to be called")
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Notify(context.Background(), interfaces.Notification{}); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}
