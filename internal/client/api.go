package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIClient makes REST calls to the campaign API through a Fetcher.
type APIClient struct {
	baseURL string
	fetcher *Fetcher
}

// NewAPIClient creates a client targeting baseURL (e.g. "https://api.example.com").
func NewAPIClient(baseURL string, fetcher *Fetcher) *APIClient {
	if fetcher == nil {
		fetcher = NewFetcher(&http.Client{Timeout: 10 * time.Second})
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

// BaseURL returns the normalised base URL.
func (c *APIClient) BaseURL() string { return c.baseURL }

// FetchCampaigns fetches GET /campaigns.
func (c *APIClient) FetchCampaigns(ctx context.Context) (*CampaignList, error) {
	out, err := get[CampaignList](ctx, c, "/campaigns")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchInsights fetches the dashboard aggregate from GET /campaigns/insights.
func (c *APIClient) FetchInsights(ctx context.Context) (*InsightsAggregate, error) {
	out, err := get[aggregateEnvelope](ctx, c, "/campaigns/insights")
	if err != nil {
		return nil, err
	}
	return &out.Insights, nil
}

// FetchCampaign fetches GET /campaigns/{id}.
func (c *APIClient) FetchCampaign(ctx context.Context, id string) (*Campaign, error) {
	path, err := campaignPath(id, "")
	if err != nil {
		return nil, err
	}
	out, err := get[campaignEnvelope](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &out.Campaign, nil
}

// FetchCampaignInsights fetches GET /campaigns/{id}/insights.
func (c *APIClient) FetchCampaignInsights(ctx context.Context, id string) (*Insights, error) {
	path, err := campaignPath(id, "/insights")
	if err != nil {
		return nil, err
	}
	out, err := get[insightsEnvelope](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &out.Insights, nil
}

func get[T any](ctx context.Context, c *APIClient, path string) (T, error) {
	resp, err := c.fetcher.FetchWithRetry(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return ParseResponse[T](resp)
}

// campaignPath builds /campaigns/{id}{suffix}, rejecting blank ids.
func campaignPath(id, suffix string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyCampaignID
	}
	return "/campaigns/" + url.PathEscape(id) + suffix, nil
}
