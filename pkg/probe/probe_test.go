package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fastOptions keeps probe tests under a second.
func fastOptions() Options {
	return Options{
		Timeout:      500 * time.Millisecond,
		Interval:     10 * time.Millisecond,
		ProbeTimeout: 100 * time.Millisecond,
	}
}

func TestWaitForReady_ImmediateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := WaitForReady(context.Background(), server.URL, fastOptions()); err != nil {
		t.Errorf("Expected immediate readiness, got %v", err)
	}
}

func TestWaitForReady_RecoversAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := WaitForReady(context.Background(), server.URL, fastOptions()); err != nil {
		t.Fatalf("Expected readiness after two failed probes, got %v", err)
	}
	if got := calls.Load(); got < 3 {
		t.Errorf("Expected at least 3 probes, got %d", got)
	}
}

func TestWaitForReady_DeadlineExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := WaitForReady(context.Background(), server.URL, fastOptions())
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}
}

func TestWaitForReady_ClientErrorIsNotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nothing here", http.StatusNotFound)
	}))
	defer server.Close()

	err := WaitForReady(context.Background(), server.URL, fastOptions())
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected 404 to count as not ready, got %v", err)
	}
}

func TestWaitForReady_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := WaitForReady(context.Background(), url, fastOptions())
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady against closed server, got %v", err)
	}
}

func TestWaitForReady_InvalidURL(t *testing.T) {
	err := WaitForReady(context.Background(), "://no-scheme", fastOptions())
	if err == nil {
		t.Fatal("Expected error for invalid url")
	}
	if errors.Is(err, ErrNotReady) {
		t.Errorf("Invalid url must fail fast, not poll: %v", err)
	}
}

func TestWaitForReady_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "starting", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	opts := fastOptions()
	opts.Timeout = 10 * time.Second

	start := time.Now()
	err := WaitForReady(ctx, server.URL, opts)
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady on cancellation, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected prompt return on cancellation, took %v", elapsed)
	}
}
