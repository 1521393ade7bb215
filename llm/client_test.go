package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["model"] != "llama3" {
			t.Fatalf("unexpected model: %v", req["model"])
		}
		if req["stream"] != false {
			t.Fatalf("expected stream=false, got %v", req["stream"])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama3","response":"the answer","done":true}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3", time.Second)
	got, err := client.Complete(context.Background(), "what is the answer")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "the answer" {
		t.Fatalf("unexpected completion: %q", got)
	}
}

func TestClientCompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"model not loaded"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3", time.Second)
	_, err := client.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestClientCompleteMissingResponseField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama3","done":true}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3", time.Second)
	_, err := client.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error for missing response field")
	}
}

func TestClientCompleteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3", 20*time.Millisecond)
	_, err := client.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
}
