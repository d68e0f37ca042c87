package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) (*APIClient, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.Client())
	recordWaits(f)
	return NewAPIClient(srv.URL+"/", f), &calls
}

func TestFetchCampaigns(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns" {
			t.Errorf("path = %s, want /campaigns", r.URL.Path)
		}
		w.Write([]byte(`{"campaigns":[{"id":"c1","name":"Alpha","status":"active"},{"id":"c2","name":"Beta","status":"paused"}],"total":2}`))
	})

	list, err := api.FetchCampaigns(context.Background())
	if err != nil {
		t.Fatalf("FetchCampaigns: %v", err)
	}
	if list.Total != 2 || len(list.Campaigns) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list.Campaigns[1].Status != StatusPaused {
		t.Errorf("second status = %s, want paused", list.Campaigns[1].Status)
	}
}

func TestFetchInsights(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns/insights" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"insights":{"total_campaigns":4,"active_campaigns":2,"total_spend":1234.5,"avg_ctr":2.25}}`))
	})

	agg, err := api.FetchInsights(context.Background())
	if err != nil {
		t.Fatalf("FetchInsights: %v", err)
	}
	if agg.TotalCampaigns != 4 || agg.ActiveCampaigns != 2 || agg.TotalSpend != 1234.5 || agg.AvgCTR != 2.25 {
		t.Errorf("aggregate = %+v", agg)
	}
}

func TestFetchCampaign(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/campaigns/spring%20sale" {
			t.Errorf("path = %s", r.URL.EscapedPath())
		}
		w.Write([]byte(`{"campaign":{"id":"spring sale","name":"Spring","budget":500,"platforms":["meta","google"]}}`))
	})

	c, err := api.FetchCampaign(context.Background(), "spring sale")
	if err != nil {
		t.Fatalf("FetchCampaign: %v", err)
	}
	if c.ID != "spring sale" || c.Budget != 500 || len(c.Platforms) != 2 {
		t.Errorf("campaign = %+v", c)
	}
}

func TestFetchCampaignInsights(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns/c9/insights" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"insights":{"campaign_id":"c9","timestamp":"2024-05-01T10:00:00Z","clicks":10,"spend":4.5}}`))
	})

	ins, err := api.FetchCampaignInsights(context.Background(), "c9")
	if err != nil {
		t.Fatalf("FetchCampaignInsights: %v", err)
	}
	if ins.CampaignID != "c9" || ins.Clicks != 10 || ins.Spend != 4.5 || ins.Timestamp != "2024-05-01T10:00:00Z" {
		t.Errorf("insights = %+v", ins)
	}
}

func TestEmptyCampaignIDFailsBeforeRequest(t *testing.T) {
	api, calls := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	for _, id := range []string{"", "   "} {
		if _, err := api.FetchCampaign(context.Background(), id); !errors.Is(err, ErrEmptyCampaignID) {
			t.Errorf("FetchCampaign(%q) err = %v, want ErrEmptyCampaignID", id, err)
		}
		if _, err := api.FetchCampaignInsights(context.Background(), id); !errors.Is(err, ErrEmptyCampaignID) {
			t.Errorf("FetchCampaignInsights(%q) err = %v, want ErrEmptyCampaignID", id, err)
		}
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestFetchCampaignNotFound(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	})

	_, err := api.FetchCampaign(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != 404 || apiErr.Message != "not found" || apiErr.Kind() != KindNotFound {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestFetchCampaignsRateLimitedThenOK(t *testing.T) {
	var n atomic.Int32
	api, calls := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"retry_after":1}`))
			return
		}
		w.Write([]byte(`{"campaigns":[],"total":0}`))
	})

	list, err := api.FetchCampaigns(context.Background())
	if err != nil {
		t.Fatalf("FetchCampaigns: %v", err)
	}
	if list.Total != 0 {
		t.Errorf("total = %d", list.Total)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}
