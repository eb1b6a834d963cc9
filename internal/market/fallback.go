package market

import (
	"context"
	"time"

	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

// Demo values used whenever live data is unavailable
const (
	StaticGoldPrice    = 2000.50
	StaticExchangeRate = 15000.0
)

// StaticProvider always returns the same demo values
type StaticProvider struct {
	Gold Quote
	Rate float64
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		Gold: Quote{
			Price:         StaticGoldPrice,
			Change:        15.25,
			ChangePercent: 0.77,
			High:          2010.00,
			Low:           1985.00,
			Open:          1995.00,
			Source:        "static",
		},
		Rate: StaticExchangeRate,
	}
}

func (s *StaticProvider) GoldPrice(_ context.Context) (Quote, error) {
	q := s.Gold
	q.FetchedAt = time.Now().UTC()
	return q, nil
}

func (s *StaticProvider) ExchangeRate(_ context.Context, _, _ string) (float64, error) {
	return s.Rate, nil
}

// FallbackProvider serves the primary's values and substitutes the static ones
// on any failure. It never returns an error.
type FallbackProvider struct {
	primary  SignalProvider
	fallback *StaticProvider
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

func NewFallbackProvider(primary SignalProvider, fallback *StaticProvider, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *FallbackProvider {
	return &FallbackProvider{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

func (f *FallbackProvider) GoldPrice(ctx context.Context) (Quote, error) {
	q, err := f.primary.GoldPrice(ctx)
	if err == nil {
		f.metrics.RecordSignalFetch("gold", "live")
		return q, nil
	}

	f.logger.Warn(ctx, "[SIGNAL_FALLBACK] Gold price unavailable, using static value", logging.Fields{
		"error":  err.Error(),
		"static": f.fallback.Gold.Price,
	})
	f.metrics.RecordSignalFetch("gold", "fallback")
	return f.fallback.GoldPrice(ctx)
}

func (f *FallbackProvider) ExchangeRate(ctx context.Context, base, target string) (float64, error) {
	rate, err := f.primary.ExchangeRate(ctx, base, target)
	if err == nil {
		f.metrics.RecordSignalFetch("exchange_rate", "live")
		return rate, nil
	}

	f.logger.Warn(ctx, "[SIGNAL_FALLBACK] Exchange rate unavailable, using static value", logging.Fields{
		"error":  err.Error(),
		"pair":   base + "/" + target,
		"static": f.fallback.Rate,
	})
	f.metrics.RecordSignalFetch("exchange_rate", "fallback")
	return f.fallback.ExchangeRate(ctx, base, target)
}
