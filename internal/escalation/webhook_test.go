package escalation

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewWebhookRequiresURL(t *testing.T) {
	if w := NewWebhook(WebhookConfig{}); w != nil {
		t.Fatal("expected nil webhook for empty URL")
	}
}

func TestWebhookDeliversPayload(t *testing.T) {
	var got CrisisPayload
	var contentType, headerVal string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		headerVal = r.Header.Get("X-Auth")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{
		URL:     srv.URL,
		Headers: map[string]string{"X-Auth": "secret"},
	})
	err := wh.TriggerCrisisPipeline(CrisisPayload{
		DecisionID: "d-1",
		Trigger:    "possible self-harm risk",
		Timestamp:  "2026-01-02T03:04:05.000Z",
	})
	if err != nil {
		t.Fatalf("TriggerCrisisPipeline: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("content type = %q", contentType)
	}
	if headerVal != "secret" {
		t.Errorf("X-Auth = %q, want secret", headerVal)
	}
	if got.DecisionID != "d-1" || got.Trigger != "possible self-harm risk" {
		t.Errorf("payload = %+v", got)
	}
}

func TestWebhookStopsOnClientError(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{URL: srv.URL})
	err := wh.TriggerCrisisPipeline(CrisisPayload{DecisionID: "d-2"})
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error = %v, want HTTP 403 mention", err)
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry on 4xx)", n)
	}
}

func TestWebhookRetriesOnServerError(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{URL: srv.URL})
	if err := wh.TriggerCrisisPipeline(CrisisPayload{DecisionID: "d-3"}); err != nil {
		t.Fatalf("TriggerCrisisPipeline: %v", err)
	}
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Errorf("server saw %d requests, want 2", n)
	}
}

func TestConsoleSentinelPrintsResources(t *testing.T) {
	var buf strings.Builder
	c := &Console{Out: &buf}
	err := c.TriggerCrisisPipeline(CrisisPayload{DecisionID: "d-4", Trigger: "harm"})
	if err != nil {
		t.Fatalf("TriggerCrisisPipeline: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PAUSED", "d-4", "harm", "988", "override"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
