package orders

import (
	"slices"
)

// SortByPlacedAt returns a copy ordered by timestamp, ascending. Equal
// timestamps keep their input order, and orders without a valid
// timestamp follow all the others in input order.
func SortByPlacedAt(in []Order) []Order {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b Order) int {
		switch {
		case a.PlacedValid && !b.PlacedValid:
			return -1
		case !a.PlacedValid && b.PlacedValid:
			return 1
		case !a.PlacedValid:
			return 0
		}
		return a.PlacedAt.Compare(b.PlacedAt)
	})
	return out
}
