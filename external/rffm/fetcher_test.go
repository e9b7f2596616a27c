package rffm

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/federation-scraper/internal/usecase"
)

func TestPageFetcher_RetriesRateLimitUntilSuccess(t *testing.T) {
	t.Parallel()

	const throttled = 3
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= throttled {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
			return
		}
		_, _ = w.Write([]byte("<html>payload ñ</html>"))
	}))
	defer srv.Close()

	for _, kind := range []TransportKind{TransportNetHTTP, TransportFastHTTP} {
		calls.Store(0)
		fetcher := testFetcher(NewTransport(kind, 5*time.Second, ""))

		body, err := fetcher.Fetch(context.Background(), srv.URL+"/page")
		if err != nil {
			t.Fatalf("%s: fetch: %v", kind, err)
		}
		if string(body) != "<html>payload ñ</html>" {
			t.Fatalf("%s: body modified: %q", kind, body)
		}
		if got := calls.Load(); got != throttled+1 {
			t.Fatalf("%s: server saw %d requests, want %d", kind, got, throttled+1)
		}
		if got := fetcher.Attempts(); got != throttled+1 {
			t.Fatalf("%s: fetcher counted %d attempts, want %d", kind, got, throttled+1)
		}
		if got := fetcher.Throttled(); got != throttled {
			t.Fatalf("%s: fetcher counted %d throttled responses, want %d", kind, got, throttled)
		}
	}
}

func TestPageFetcher_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := testFetcher(NewNetHTTPTransport(srv.Client(), time.Second, ""))
	_, err := fetcher.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, usecase.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("non-429 status must not be retried, got %d calls", got)
	}
}

func TestPageFetcher_TransportErrorIsFetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	fetcher := testFetcher(NewNetHTTPTransport(nil, time.Second, ""))
	_, err := fetcher.Fetch(context.Background(), url)
	if !errors.Is(err, usecase.ErrFetch) {
		t.Fatalf("expected ErrFetch for closed server, got %v", err)
	}
}

func TestPageFetcher_ContextCancelStopsRetryLoop(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetcher := NewPageFetcher(NewNetHTTPTransport(srv.Client(), time.Second, ""), 5*time.Millisecond, nil)
	_, err := fetcher.Fetch(ctx, srv.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if fetcher.Attempts() < 2 {
		t.Fatalf("expected the 429 to be retried before the deadline, got %d attempts", fetcher.Attempts())
	}
}

func TestPageFetcher_OversizedBodyIsFetchError(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	for _, kind := range []TransportKind{TransportNetHTTP, TransportFastHTTP} {
		fetcher := testFetcher(NewTransport(kind, 10*time.Second, ""))
		got, err := fetcher.Fetch(context.Background(), srv.URL)
		if !errors.Is(err, usecase.ErrFetch) {
			t.Fatalf("%s: expected ErrFetch, got %v", kind, err)
		}
		if got != nil {
			t.Fatalf("%s: expected no body, got %d bytes", kind, len(got))
		}
	}
}

func TestPageFetcher_BodyAtLimitIsReturned(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte("b"), maxBodyBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	fetcher := testFetcher(NewNetHTTPTransport(srv.Client(), 10*time.Second, ""))
	got, err := fetcher.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("body modified: got %d bytes", len(got))
	}
}

func TestPageFetcher_FollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>moved</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, kind := range []TransportKind{TransportNetHTTP, TransportFastHTTP} {
		fetcher := testFetcher(NewTransport(kind, 5*time.Second, ""))
		body, err := fetcher.Fetch(context.Background(), srv.URL+"/old")
		if err != nil {
			t.Fatalf("%s: fetch: %v", kind, err)
		}
		if string(body) != "<html>moved</html>" {
			t.Fatalf("%s: unexpected body %q", kind, body)
		}
	}
}
