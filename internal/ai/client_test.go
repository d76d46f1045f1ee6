package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestGenerateWithoutKey(t *testing.T) {
	c := NewClient(ClientConfig{})
	if c.Available() {
		t.Fatalf("client without key should be unavailable")
	}
	if _, err := c.Generate(context.Background(), GenerateRequest{Input: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth = %q", got)
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if _, ok := payload["response_format"]; !ok {
			t.Errorf("response_format missing for JSONObject request")
		}
		w.Write([]byte(chatResponse(`{"subject":"hi"}`)))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	got, err := c.Generate(context.Background(), GenerateRequest{
		Instructions: "write",
		Input:        "something",
		JSONObject:   true,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != `{"subject":"hi"}` {
		t.Fatalf("got %q", got)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatResponse("ok")))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL, MaxRetries: 2})
	got, err := c.Generate(context.Background(), GenerateRequest{Input: "x"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q", got)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL, MaxRetries: 3})
	if _, err := c.Generate(context.Background(), GenerateRequest{Input: "x"}); err == nil {
		t.Fatalf("400 should be an error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retry)", calls.Load())
	}
}

func TestSetCredentialsTakesEffect(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(chatResponse("ok")))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{})
	if c.Available() {
		t.Fatalf("client without key should be unavailable")
	}

	c.SetCredentials("rotated-key", "", srv.URL)
	if !c.Available() {
		t.Fatalf("client should be available after the key arrives")
	}

	got, err := c.Generate(context.Background(), GenerateRequest{Input: "x"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q", got)
	}
	if auth := gotAuth.Load(); auth != "Bearer rotated-key" {
		t.Fatalf("auth = %v, want the rotated key", auth)
	}

	// Clearing the key flips the client back to unavailable.
	c.SetCredentials("", "", srv.URL)
	if c.Available() {
		t.Fatalf("client with cleared key should be unavailable")
	}
}

func TestGenerateRequiresInput(t *testing.T) {
	c := NewClient(ClientConfig{APIKey: "k"})
	if _, err := c.Generate(context.Background(), GenerateRequest{}); err == nil {
		t.Fatalf("empty input should be an error")
	}
}
