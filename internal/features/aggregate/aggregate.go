package aggregate

// Pure reductions over decoded orders. Each call builds its buckets from
// scratch and returns a fresh Series; nothing is shared between calls.

import (
	"fmt"

	"orderviz/internal/features/orders"

	"github.com/shopspring/decimal"
)

// DailySums sums each measure per calendar date. An order whose date or
// any of the measures is rejected by policy is left out of every measure,
// so the datasets always describe the same orders.
func DailySums(list []orders.Order, measures []orders.Measure, policy orders.Policy) (Series, Stats, error) {
	if len(measures) == 0 {
		return Series{}, Stats{}, fmt.Errorf("daily sums need at least one measure")
	}

	b := newBucket[[]decimal.Decimal]()
	stats := Stats{Considered: len(list)}

	values := make([]decimal.Decimal, len(measures))
	for _, o := range list {
		key, outcome, err := policy.ResolveDate(o)
		if err != nil {
			return Series{}, stats, err
		}
		if outcome == orders.Skipped {
			stats.Skipped++
			continue
		}

		skip, substituted := false, false
		for i, m := range measures {
			v, outcome, err := policy.ResolveValue(o, m)
			if err != nil {
				return Series{}, stats, err
			}
			switch outcome {
			case orders.Skipped:
				skip = true
			case orders.Substituted:
				substituted = true
			}
			values[i] = v
		}
		if skip {
			stats.Skipped++
			continue
		}
		if substituted {
			stats.Substituted++
		}
		stats.Used++

		sums := b.get(key)
		if sums == nil {
			sums = make([]decimal.Decimal, len(measures))
		}
		for i, v := range values {
			sums[i] = sums[i].Add(v)
		}
		b.set(key, sums)
	}

	s := Series{Labels: b.keys, Datasets: make([]Dataset, len(measures))}
	for i, m := range measures {
		s.Datasets[i] = Dataset{Name: string(m), Values: make([]float64, len(b.keys))}
		for j, k := range b.keys {
			s.Datasets[i].Values[j] = b.values[k][i].InexactFloat64()
		}
	}
	return s, stats, nil
}

// CategoryCounts counts orders per distinct non-empty value of column.
// Labels keep first-seen order.
func CategoryCounts(list []orders.Order, column string) (Series, Stats) {
	b := newBucket[int]()
	stats := Stats{Considered: len(list)}

	for _, o := range list {
		v, ok := o.Field(column)
		if !ok || v == "" {
			stats.Skipped++
			continue
		}
		stats.Used++
		b.set(v, b.get(v)+1)
	}

	return Series{Labels: b.keys, Datasets: []Dataset{counts(column, b)}}, stats
}

// ValueFrequency counts how often each distinct value of measure occurs
// among the first limit orders (all orders when limit <= 0). Values are
// keyed by their canonical decimal form, so 30 and 30.00 share a bucket.
func ValueFrequency(list []orders.Order, measure orders.Measure, limit int, policy orders.Policy) (Series, Stats, error) {
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}

	b := newBucket[int]()
	stats := Stats{Considered: len(list)}

	for _, o := range list {
		v, outcome, err := policy.ResolveValue(o, measure)
		if err != nil {
			return Series{}, stats, err
		}
		switch outcome {
		case orders.Skipped:
			stats.Skipped++
			continue
		case orders.Substituted:
			stats.Substituted++
		}
		stats.Used++

		key := v.String()
		b.set(key, b.get(key)+1)
	}

	return Series{Labels: b.keys, Datasets: []Dataset{counts(string(measure), b)}}, stats, nil
}

func counts(name string, b *bucket[int]) Dataset {
	d := Dataset{Name: name, Values: make([]float64, len(b.keys))}
	for i, k := range b.keys {
		d.Values[i] = float64(b.values[k])
	}
	return d
}
