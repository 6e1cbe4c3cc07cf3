package pipeline

import (
	"context"
	"fmt"
	"time"

	"orderviz/internal/clients_api/csvfeed"
	"orderviz/internal/features/aggregate"
	"orderviz/internal/features/orders"
	"orderviz/internal/infra/config"
	"orderviz/internal/infra/log"

	"go.uber.org/zap"
)

// Fetcher loads the raw CSV text. *csvfeed.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, resource string) ([]byte, error)
}

// Summary is everything the charts are drawn from.
type Summary struct {
	Source string
	Rows   int
	Ragged int
	Policy orders.Policy

	SecondMeasure orders.Measure

	Daily      aggregate.Series
	DailyStats aggregate.Stats

	Payment      aggregate.Series
	PaymentStats aggregate.Stats

	DeliveryFee      aggregate.Series
	DeliveryFeeStats aggregate.Stats
}

// SecondMeasure maps the daily_measure setting to the column summed next
// to Order Value.
func SecondMeasure(name string) (orders.Measure, error) {
	switch name {
	case "", "commission":
		return orders.CommissionFee, nil
	case "delivery":
		return orders.DeliveryFee, nil
	}
	return "", fmt.Errorf("unknown daily measure %q (want commission or delivery)", name)
}

// NewFetcher builds the CSV loader from the fetch section.
func NewFetcher(cfg config.FetchConfig) *csvfeed.Client {
	opts := csvfeed.DefaultOptions()
	opts.Timeout = cfg.Timeout
	opts.MaxRetries = cfg.MaxRetries
	opts.RateLimit = cfg.RateLimit
	opts.MaxResponseSize = cfg.MaxResponseSize
	return csvfeed.NewClient(opts)
}

// Aggregate runs load, parse, decode and the three reductions.
func Aggregate(ctx context.Context, cfg *config.Config, fetcher Fetcher) (*Summary, error) {
	policy, err := orders.ParsePolicy(cfg.Aggregate.Policy)
	if err != nil {
		return nil, err
	}
	second, err := SecondMeasure(cfg.Aggregate.DailyMeasure)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := fetcher.Fetch(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	ds, err := orders.Parse(string(body))
	if err != nil {
		return nil, err
	}
	if err := ds.RequireColumns(
		orders.ColPlacedAt,
		orders.ColOrderValue,
		string(second),
		orders.ColPaymentMethod,
		orders.ColDeliveryFee,
	); err != nil {
		return nil, err
	}
	if ds.Ragged > 0 {
		log.LogWarn("Ragged rows in dataset", zap.Int("ragged", ds.Ragged), zap.Int("rows", len(ds.Rows)))
	}

	list := orders.DecodeAll(ds)
	byTime := list
	if cfg.Aggregate.Sort {
		byTime = orders.SortByPlacedAt(list)
	}

	s := &Summary{
		Source:        cfg.Source,
		Rows:          len(ds.Rows),
		Ragged:        ds.Ragged,
		Policy:        policy,
		SecondMeasure: second,
	}

	s.Daily, s.DailyStats, err = aggregate.DailySums(byTime, []orders.Measure{orders.OrderValue, second}, policy)
	if err != nil {
		return nil, err
	}
	s.Payment, s.PaymentStats = aggregate.CategoryCounts(byTime, orders.ColPaymentMethod)
	// The frequency bound is a prefix of the file, so it reads file order.
	s.DeliveryFee, s.DeliveryFeeStats, err = aggregate.ValueFrequency(list, orders.DeliveryFee, cfg.Aggregate.FrequencyLimit, policy)
	if err != nil {
		return nil, err
	}

	log.LogInfo("Orders aggregated",
		zap.String("source", cfg.Source),
		zap.Int("rows", s.Rows),
		zap.Int("days", len(s.Daily.Labels)),
		zap.Int("daily_skipped", s.DailyStats.Skipped),
		zap.Int("payment_methods", len(s.Payment.Labels)),
		zap.Int("delivery_fees", len(s.DeliveryFee.Labels)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return s, nil
}
