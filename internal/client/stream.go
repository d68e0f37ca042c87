package client

import (
	"bytes"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/campaign-pulse/tui/internal/logging"
	"github.com/campaign-pulse/tui/internal/metrics"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 1 * time.Second
)

// Status is the connection state of a Subscription.
type Status string

const (
	StreamIdle         Status = "idle"
	StreamConnecting   Status = "connecting"
	StreamLive         Status = "live"
	StreamReconnecting Status = "reconnecting"
	StreamError        Status = "error"
)

// Handlers are the callbacks a Transport invokes for one connection.
type Handlers struct {
	OnOpen    func()
	OnMessage func(data []byte)
	OnError   func(err error)
}

// Conn is an open push connection.
type Conn interface {
	Close() error
}

// Transport opens push connections. Open must return without blocking and
// must not invoke any handler before it returns; handlers run later on the
// transport's own goroutine. After Close, further handler calls are
// allowed but ignored.
type Transport interface {
	Open(url string, h Handlers) Conn
}

// Timer is a pending callback scheduled on a Clock.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock wraps time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RetryPolicy bounds reconnects. Attempt n (0-based) waits BaseDelay*2^n.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// ResetOnResume restarts the attempt count when a hidden view becomes
	// visible again. When false the count carries over.
	ResetOnResume bool
}

// Delay returns the wait before reconnect attempt n.
func (p RetryPolicy) Delay(n int) time.Duration {
	return p.BaseDelay * time.Duration(int64(1)<<uint(n))
}

// StreamClient starts insight subscriptions against one API base URL.
type StreamClient struct {
	baseURL   string
	transport Transport
	clock     Clock
	policy    RetryPolicy
	log       zerolog.Logger
}

// StreamOption customises a StreamClient.
type StreamOption func(*StreamClient)

// WithRetryPolicy replaces the default 5 attempts / 1s policy.
func WithRetryPolicy(p RetryPolicy) StreamOption {
	return func(c *StreamClient) {
		if p.MaxAttempts >= 0 && p.BaseDelay > 0 {
			c.policy = p
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk Clock) StreamOption {
	return func(c *StreamClient) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// NewStreamClient creates a stream client. A nil transport uses SSE.
func NewStreamClient(baseURL string, transport Transport, opts ...StreamOption) *StreamClient {
	if transport == nil {
		transport = NewSSETransport(nil)
	}
	c := &StreamClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		clock:     realClock{},
		policy:    RetryPolicy{MaxAttempts: defaultMaxAttempts, BaseDelay: defaultBaseDelay},
		log:       logging.With("stream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamURL returns the push endpoint for a campaign.
func (c *StreamClient) StreamURL(campaignID string) string {
	return c.baseURL + "/campaigns/" + url.PathEscape(campaignID) + "/insights/stream"
}

// Start creates a subscription seeded with initial and schedules its first
// connect for the next clock tick. It never connects synchronously.
func (c *StreamClient) Start(campaignID string, initial Insights) *Subscription {
	s := &Subscription{
		campaignID: campaignID,
		url:        c.StreamURL(campaignID),
		transport:  c.transport,
		clock:      c.clock,
		policy:     c.policy,
		log:        c.log.With().Str("campaign_id", campaignID).Logger(),
		insights:   initial,
		status:     StreamIdle,
		changed:    make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.scheduleLocked(0)
	s.mu.Unlock()
	return s
}

// State is a point-in-time copy of a subscription.
type State struct {
	CampaignID string
	Insights   Insights
	Status     Status
	Attempts   int
}

// Subscription keeps one campaign's insights fresh over a push connection.
// It owns at most one connection and one pending timer at any time.
type Subscription struct {
	campaignID string
	url        string
	transport  Transport
	clock      Clock
	policy     RetryPolicy
	log        zerolog.Logger

	mu       sync.Mutex
	insights Insights
	status   Status
	attempts int
	conn     Conn
	connGen  uint64 // identifies the live connection; bumped when it is dropped
	timer    Timer
	timerGen uint64 // identifies the pending timer; bumped when it is cancelled
	hidden   bool
	closed   bool

	changed chan struct{}
}

// Changed signals after any state change. Signals coalesce: one pending
// signal covers any number of changes, so readers call State afterwards.
func (s *Subscription) Changed() <-chan struct{} { return s.changed }

// State returns a copy of the current state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		CampaignID: s.campaignID,
		Insights:   s.insights,
		Status:     s.status,
		Attempts:   s.attempts,
	}
}

// Connect opens the push connection. It is a no-op while a connection is
// open, while the view is hidden, and after Close.
func (s *Subscription) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectLocked()
}

func (s *Subscription) connectLocked() {
	if s.closed || s.hidden || s.conn != nil {
		return
	}
	s.cancelTimerLocked()

	if s.attempts > 0 {
		s.setStatusLocked(StreamReconnecting)
	} else {
		s.setStatusLocked(StreamConnecting)
	}

	s.connGen++
	gen := s.connGen
	metrics.StreamConnects.WithLabelValues(metrics.ConnectAttempt).Inc()
	s.log.Debug().Int("attempt", s.attempts).Str("url", s.url).Msg("opening stream")

	s.conn = s.transport.Open(s.url, Handlers{
		OnOpen:    func() { s.handleOpen(gen) },
		OnMessage: func(data []byte) { s.handleMessage(gen, data) },
		OnError:   func(err error) { s.handleError(gen, err) },
	})
}

// Stop closes the connection and cancels any pending timer. The status
// returns to idle. Stop is idempotent; Connect may be called again later.
func (s *Subscription) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Subscription) stopLocked() {
	s.dropConnLocked()
	s.cancelTimerLocked()
	s.setStatusLocked(StreamIdle)
}

// Close tears the subscription down for good. Every later call is a no-op.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.closed = true
	s.log.Debug().Msg("subscription closed")
}

// SetVisible pauses the subscription while its view is hidden and
// schedules a fresh connect when it becomes visible again.
func (s *Subscription) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if !visible {
		if s.hidden {
			return
		}
		s.hidden = true
		s.stopLocked()
		s.log.Debug().Msg("view hidden, stream paused")
		return
	}

	if !s.hidden {
		return
	}
	s.hidden = false
	if s.policy.ResetOnResume {
		s.attempts = 0
	}
	s.log.Debug().Int("attempts", s.attempts).Msg("view visible, resuming stream")
	s.scheduleLocked(0)
}

func (s *Subscription) handleOpen(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.connGen || s.conn == nil {
		return
	}
	s.attempts = 0
	s.setStatusLocked(StreamLive)
	metrics.StreamConnects.WithLabelValues(metrics.ConnectOpen).Inc()
	s.log.Info().Msg("stream live")
}

func (s *Subscription) handleMessage(gen uint64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.connGen || s.conn == nil {
		return
	}

	next, err := MergeInsights(s.insights, data)
	if err != nil {
		metrics.StreamMessages.WithLabelValues(metrics.MessageInvalid).Inc()
		s.log.Warn().Err(err).Msg("dropping unparseable stream message")
		return
	}
	s.insights = next
	metrics.StreamMessages.WithLabelValues(metrics.MessageMerged).Inc()
	s.notifyLocked()
}

func (s *Subscription) handleError(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.connGen || s.conn == nil {
		return
	}
	metrics.StreamErrors.Inc()
	s.dropConnLocked()
	s.cancelTimerLocked()

	if s.attempts >= s.policy.MaxAttempts {
		s.setStatusLocked(StreamError)
		metrics.StreamGiveUps.Inc()
		s.log.Error().Err(err).Int("attempts", s.attempts).Msg("stream unavailable, giving up")
		return
	}

	delay := s.policy.Delay(s.attempts)
	s.attempts++
	s.setStatusLocked(StreamReconnecting)
	metrics.StreamReconnectsScheduled.Inc()
	s.log.Warn().Err(err).Int("attempt", s.attempts).Dur("delay", delay).Msg("stream dropped, reconnecting")
	s.scheduleLocked(delay)
}

// scheduleLocked replaces any pending timer with a connect after d.
func (s *Subscription) scheduleLocked(d time.Duration) {
	s.cancelTimerLocked()
	gen := s.timerGen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.timerGen {
			return
		}
		s.timer = nil
		s.connectLocked()
	})
}

func (s *Subscription) cancelTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Subscription) dropConnLocked() {
	s.connGen++
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *Subscription) setStatusLocked(st Status) {
	if s.status == st {
		return
	}
	s.status = st
	s.notifyLocked()
}

func (s *Subscription) notifyLocked() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// MergeInsights applies one stream payload to prev. The payload is either
// {"insights": {...}} or the insight fields themselves; only the fields it
// carries are overwritten.
func MergeInsights(prev Insights, data []byte) (Insights, error) {
	var env struct {
		Insights json.RawMessage `json:"insights"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return prev, err
	}

	body := data
	if raw := bytes.TrimSpace(env.Insights); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		body = raw
	}

	next := prev
	if err := json.Unmarshal(body, &next); err != nil {
		return prev, err
	}
	return next, nil
}
