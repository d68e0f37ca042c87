// Package client provides the campaign API client, the rate-limit-aware
// fetch layer and the live insights stream.
// Types mirror the API wire format.
package client

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// CampaignStatus is a campaign's lifecycle state.
type CampaignStatus string

const (
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
)

// Campaign is a single campaign as returned by /campaigns and /campaigns/{id}.
type Campaign struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      CampaignStatus `json:"status"`
	Budget      float64        `json:"budget"`
	DailyBudget float64        `json:"daily_budget"`
	BrandID     int64          `json:"brand_id"`
	Platforms   []string       `json:"platforms"`
	CreatedAt   string         `json:"created_at"`
}

// CampaignList is the /campaigns payload.
type CampaignList struct {
	Campaigns []Campaign `json:"campaigns"`
	Total     int        `json:"total"`
}

// Insights is the latest known metric set for one campaign.
type Insights struct {
	CampaignID     string    `json:"campaign_id"`
	Timestamp      Timestamp `json:"timestamp"`
	Clicks         float64   `json:"clicks"`
	Conversions    float64   `json:"conversions"`
	Spend          float64   `json:"spend"`
	CTR            float64   `json:"ctr"`
	CPC            float64   `json:"cpc"`
	ConversionRate float64   `json:"conversion_rate"`
}

// InsightsAggregate is the dashboard-wide /campaigns/insights payload.
type InsightsAggregate struct {
	TotalCampaigns     int     `json:"total_campaigns"`
	ActiveCampaigns    int     `json:"active_campaigns"`
	PausedCampaigns    int     `json:"paused_campaigns"`
	CompletedCampaigns int     `json:"completed_campaigns"`
	TotalImpressions   float64 `json:"total_impressions"`
	TotalClicks        float64 `json:"total_clicks"`
	TotalConversions   float64 `json:"total_conversions"`
	TotalSpend         float64 `json:"total_spend"`
	AvgCTR             float64 `json:"avg_ctr"`
	AvgCPC             float64 `json:"avg_cpc"`
	AvgConversionRate  float64 `json:"avg_conversion_rate"`
}

type campaignEnvelope struct {
	Campaign Campaign `json:"campaign"`
}

type insightsEnvelope struct {
	Insights Insights `json:"insights"`
}

type aggregateEnvelope struct {
	Insights InsightsAggregate `json:"insights"`
}

// errorBody is the error shape any endpoint may return.
type errorBody struct {
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	RetryAfter json.RawMessage `json:"retry_after"`
}

// retryAfter returns retry_after in seconds. It accepts a number or a
// numeric string.
func (b errorBody) retryAfter() (float64, bool) {
	v := strings.Trim(strings.TrimSpace(string(b.RetryAfter)), `"`)
	if v == "" || v == "null" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}

// Timestamp holds the wire timestamp as text. Servers send either an
// ISO-8601 string or a bare number; both are kept verbatim.
type Timestamp string

// UnmarshalJSON accepts a JSON string or number. null leaves the value as is.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("timestamp: want string or number, got %s", data)
	}
	*t = Timestamp(data)
	return nil
}

func (t Timestamp) String() string { return string(t) }
