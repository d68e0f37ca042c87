package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// recordWaits swaps the fetcher's sleep for one that records each delay.
func recordWaits(f *Fetcher) *[]time.Duration {
	var waits []time.Duration
	f.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestFetchWithRetryHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"slow down","retry_after":2}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	waits := recordWaits(f)

	resp, err := f.FetchWithRetry(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("FetchWithRetry: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
	if len(*waits) != 2 || (*waits)[0] != 2*time.Second || (*waits)[1] != 2*time.Second {
		t.Errorf("waits = %v, want [2s 2s]", *waits)
	}
}

func TestFetchWithRetryRetryAfterSources(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		header string
		want   time.Duration
	}{
		{name: "body number", body: `{"retry_after":3}`, want: 3 * time.Second},
		{name: "body fractional", body: `{"retry_after":0.5}`, want: 500 * time.Millisecond},
		{name: "body string", body: `{"retry_after":"4"}`, want: 4 * time.Second},
		{name: "header fallback", body: `{}`, header: "5", want: 5 * time.Second},
		{name: "body wins over header", body: `{"retry_after":1}`, header: "9", want: 1 * time.Second},
		{name: "unparseable defaults", body: `{"retry_after":"soon"}`, want: defaultRetryAfter},
		{name: "plain text defaults", body: `Too Many Requests`, want: defaultRetryAfter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					if tt.header != "" {
						w.Header().Set("Retry-After", tt.header)
					}
					w.WriteHeader(http.StatusTooManyRequests)
					w.Write([]byte(tt.body))
					return
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			f := NewFetcher(srv.Client())
			waits := recordWaits(f)

			resp, err := f.FetchWithRetry(context.Background(), http.MethodGet, srv.URL, nil)
			if err != nil {
				t.Fatalf("FetchWithRetry: %v", err)
			}
			resp.Body.Close()

			if len(*waits) != 1 || (*waits)[0] != tt.want {
				t.Errorf("waits = %v, want [%v]", *waits, tt.want)
			}
		})
	}
}

func TestFetchWithRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retry_after":7}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	waits := recordWaits(f)

	_, err := f.FetchWithRetry(context.Background(), http.MethodGet, srv.URL, nil)

	var rl *RetryExhaustedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want *RetryExhaustedError", err)
	}
	if rl.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", rl.Attempts)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", rl.RetryAfter)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("requests = %d, want 4", got)
	}
	if len(*waits) != 3 {
		t.Errorf("waits = %v, want 3 waits", *waits)
	}
}

func TestFetchWithRetryMaxRetriesOption(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), WithMaxRetries(0))
	recordWaits(f)

	_, err := f.FetchWithRetry(context.Background(), http.MethodGet, srv.URL, nil)
	var rl *RetryExhaustedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want *RetryExhaustedError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestFetchWithRetryDoesNotRetryOtherStatuses(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		f := NewFetcher(srv.Client())
		resp, err := f.FetchWithRetry(context.Background(), http.MethodGet, srv.URL, nil)
		if err != nil {
			t.Fatalf("status %d: FetchWithRetry: %v", status, err)
		}
		resp.Body.Close()
		if resp.StatusCode != status {
			t.Errorf("status = %d, want %d", resp.StatusCode, status)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("status %d: requests = %d, want 1", status, got)
		}
		srv.Close()
	}
}

type failingDoer struct {
	calls int
	err   error
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, d.err
}

func TestFetchWithRetryNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	doer := &failingDoer{err: cause}
	f := NewFetcher(doer)
	waits := recordWaits(f)

	_, err := f.FetchWithRetry(context.Background(), http.MethodGet, "http://api.invalid/campaigns", nil)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("NetworkError does not wrap cause")
	}
	if doer.calls != 4 {
		t.Errorf("calls = %d, want 4", doer.calls)
	}
	if len(*waits) != 0 {
		t.Errorf("network failures should retry without waiting, got %v", *waits)
	}
}

func TestFetchWithRetryContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := NewFetcher(srv.Client())
	f.wait = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := f.FetchWithRetry(ctx, http.MethodGet, srv.URL, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		kind    Kind
	}{
		{name: "message field", status: 404, body: `{"message":"not found"}`, wantMsg: "not found", kind: KindNotFound},
		{name: "error field", status: 400, body: `{"error":"bad id"}`, wantMsg: "bad id", kind: KindBadRequest},
		{name: "plain text", status: 500, body: "upstream exploded", wantMsg: "upstream exploded", kind: KindServer},
		{name: "empty body", status: 503, body: "", wantMsg: "request failed with status 503", kind: KindServer},
		{name: "json without message", status: 403, body: `{"code":1}`, wantMsg: "request failed with status 403", kind: KindClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.WriteHeader(tt.status)
			rec.WriteString(tt.body)

			_, err := ParseResponse[Campaign](rec.Result())

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.Kind() != tt.kind {
				t.Errorf("Kind = %s, want %s", apiErr.Kind(), tt.kind)
			}
		})
	}
}

func TestParseResponseDecodes(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteString(`{"id":"c1","name":"Spring Sale","status":"active","budget":1200.5}`)

	c, err := ParseResponse[Campaign](rec.Result())
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if c.ID != "c1" || c.Name != "Spring Sale" || c.Status != StatusActive || c.Budget != 1200.5 {
		t.Errorf("decoded %+v", c)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: &APIError{Status: 404, Message: "campaign missing"}, want: "Not found: campaign missing"},
		{err: &APIError{Status: 502, Message: "bad gateway"}, want: "Server error (502): bad gateway"},
		{err: &APIError{Status: 400, Message: "bad id"}, want: "bad id"},
		{err: &RetryExhaustedError{Attempts: 4, RetryAfter: 3 * time.Second}, want: "Too many requests, try again in 3s"},
		{err: &NetworkError{Attempts: 4, Err: errors.New("refused")}, want: "Could not reach the campaign API"},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
