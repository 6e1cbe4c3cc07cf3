package aggregate

// Series is the rendering boundary: labels plus named value lists that
// are index-aligned with them.
type Series struct {
	Labels   []string
	Datasets []Dataset
}

type Dataset struct {
	Name   string
	Values []float64
}

// Aligned reports whether every dataset has one value per label.
func (s Series) Aligned() bool {
	for _, d := range s.Datasets {
		if len(d.Values) != len(s.Labels) {
			return false
		}
	}
	return true
}

// Empty reports whether there is nothing to plot.
func (s Series) Empty() bool {
	return len(s.Labels) == 0 || len(s.Datasets) == 0
}

// Total sums dataset i.
func (s Series) Total(i int) float64 {
	var t float64
	for _, v := range s.Datasets[i].Values {
		t += v
	}
	return t
}

// Stats describes how many orders a reduction looked at and what it did
// with them.
type Stats struct {
	Considered  int
	Used        int
	Skipped     int
	Substituted int
}

// bucket keeps keys in first-seen order.
type bucket[V any] struct {
	keys   []string
	values map[string]V
}

func newBucket[V any]() *bucket[V] {
	return &bucket[V]{values: make(map[string]V)}
}

func (b *bucket[V]) get(key string) V {
	return b.values[key]
}

func (b *bucket[V]) set(key string, v V) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
}
