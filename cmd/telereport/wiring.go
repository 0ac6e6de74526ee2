package main

import (
	"fmt"
	"time"

	"telereport/internal/annual"
	"telereport/internal/collect"
	"telereport/internal/config"
	"telereport/internal/dialer"
	"telereport/internal/quote"
	"telereport/internal/stats"
	"telereport/internal/telegram"
)

// openStore opens the configured counter store.
func openStore(c *config.Config) (stats.Store, error) {
	store, err := stats.Open(c.Stats.Backend, c.StatsPath(dataDir), time.Now)
	if err != nil {
		return nil, fmt.Errorf("opening counter store: %w", err)
	}
	return store, nil
}

// newCollector builds the filesystem and peer collectors.
func newCollector(c *config.Config) *collect.Collector {
	return collect.New(collect.Config{
		Root:              c.Paths.Root,
		BootstrapArtifact: c.Paths.BootstrapArtifact,
		ExtensionDirs:     c.Paths.ExtensionDirs,
		ExtensionSuffix:   c.Paths.ExtensionSuffix,
	}, time.Now)
}

// newController wires the report controller. The caller closes the store.
func newController(c *config.Config) (*annual.Controller, stats.Store, error) {
	store, err := openStore(c)
	if err != nil {
		return nil, nil, err
	}

	dial, err := dialer.FromURL(c.Telegram.Proxy)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	quotes := quote.New(c.Quote.URL, dialer.HTTPClient(dial, c.GetQuoteTimeout()))

	ctrl := annual.New(store, newCollector(c), quotes, annual.Options{
		HostName:  c.Report.HostName,
		Location:  c.GetLocation(),
		SlowAfter: c.GetQuoteTimeout() + 5*time.Second,
	})
	return ctrl, store, nil
}

// newTelegramClient builds the MTProto client from configuration.
func newTelegramClient(c *config.Config) (*telegram.Client, error) {
	return telegram.New(telegram.Config{
		AppID:       c.Telegram.AppID,
		AppHash:     c.Telegram.AppHash,
		SessionPath: c.SessionPath(dataDir),
		Proxy:       c.Telegram.Proxy,
	}, logger.Named("telegram"))
}
