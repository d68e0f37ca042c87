package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouterHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRouterExposesCounters(t *testing.T) {
	StreamErrors.Inc()
	FetchRequests.WithLabelValues(FetchRateLimited).Inc()
	RecordRateLimitWait(2 * time.Second)

	srv := httptest.NewServer(NewRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{
		"pulse_stream_errors_total",
		`pulse_fetch_requests_total{outcome="rate_limited"}`,
		"pulse_fetch_rate_limit_wait_seconds_bucket",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("/metrics missing %s", name)
		}
	}
}

func TestCounterVecLabels(t *testing.T) {
	before := testutil.ToFloat64(StreamMessages.WithLabelValues(MessageMerged))
	StreamMessages.WithLabelValues(MessageMerged).Inc()
	after := testutil.ToFloat64(StreamMessages.WithLabelValues(MessageMerged))
	if after-before != 1 {
		t.Errorf("merged messages delta = %v, want 1", after-before)
	}
}
