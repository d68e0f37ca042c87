package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/campaign-pulse/tui/internal/app"
	"github.com/campaign-pulse/tui/internal/client"
	"github.com/campaign-pulse/tui/internal/config"
	"github.com/campaign-pulse/tui/internal/logging"
	"github.com/campaign-pulse/tui/internal/metrics"
)

func main() {
	configPath := flag.String("config", "pulse.yaml", "Path to the YAML config file (optional)")
	baseURL := flag.String("base-url", "", "Campaign API base URL (overrides config)")
	campaign := flag.String("campaign", "", "Open this campaign's detail page on start")
	printConfig := flag.Bool("print-config", false, "Print the effective config and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fatal(err)
		}
		fmt.Print(out)
		return
	}

	base, err := cfg.BaseURL()
	if err != nil {
		fatal(err)
	}

	logCloser, err := logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		fatal(err)
	}
	defer logCloser.Close()
	log := logging.With("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server stopped")
			}
		}()
	}

	fetcher := client.NewFetcher(
		&http.Client{Timeout: cfg.API.Timeout},
		client.WithMaxRetries(cfg.Fetch.MaxRetries),
		client.WithDefaultRetryAfter(cfg.Fetch.DefaultRetryAfter),
	)
	api := client.NewAPIClient(base, fetcher)

	streams := client.NewStreamClient(base, newTransport(cfg.Stream.Transport),
		client.WithRetryPolicy(client.RetryPolicy{
			MaxAttempts:   cfg.Stream.MaxAttempts,
			BaseDelay:     cfg.Stream.BaseDelay,
			ResetOnResume: cfg.Stream.ResetOnResume,
		}),
	)

	log.Info().
		Str("base_url", base).
		Str("transport", cfg.Stream.Transport).
		Msg("starting")

	m := app.New(app.Options{
		API:             api,
		Streams:         streams,
		APIHost:         apiHost(base),
		PageSize:        cfg.UI.PageSize,
		PauseOnBlur:     cfg.Stream.PauseOnBlur,
		InitialCampaign: *campaign,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())

	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("program exited")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newTransport(name string) client.Transport {
	if name == config.TransportWebSocket {
		return client.NewWebSocketTransport(nil)
	}
	return client.NewSSETransport(nil)
}

// apiHost returns the host part of base for the status bar.
func apiHost(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
