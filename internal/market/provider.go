package market

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bpih-platform/internal/forecast"
)

// Default currency pair for the exchange-rate signal
const (
	DefaultBase   = "USD"
	DefaultTarget = "IDR"
)

// Quote is a gold price observation in USD per troy ounce
type Quote struct {
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	Source        string    `json:"source"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// SignalProvider supplies the external market indicators
type SignalProvider interface {
	GoldPrice(ctx context.Context) (Quote, error)
	ExchangeRate(ctx context.Context, base, target string) (float64, error)
}

// UnavailableError is returned when a live signal cannot be obtained
type UnavailableError struct {
	Signal string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s signal unavailable: %s: %v", e.Signal, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s signal unavailable: %s", e.Signal, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsTransient is true: upstream outages and rate limits clear on their own
func (e *UnavailableError) IsTransient() bool {
	return true
}

// Snapshot is the pair of signals fed to the forecaster
type Snapshot struct {
	Gold         Quote   `json:"gold"`
	ExchangeRate float64 `json:"exchange_rate"`
}

// Signals converts the snapshot to forecaster input
func (s Snapshot) Signals() forecast.Signals {
	return forecast.Signals{GoldPrice: s.Gold.Price, ExchangeRate: s.ExchangeRate}
}

// FetchSnapshot queries both signals concurrently
func FetchSnapshot(ctx context.Context, p SignalProvider) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q, err := p.GoldPrice(gctx)
		if err != nil {
			return err
		}
		snap.Gold = q
		return nil
	})
	g.Go(func() error {
		rate, err := p.ExchangeRate(gctx, DefaultBase, DefaultTarget)
		if err != nil {
			return err
		}
		snap.ExchangeRate = rate
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
