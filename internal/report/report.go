// Package report holds the group-count-sort views shown on the dashboard.
package report

import (
	"sort"

	"tokodash/internal/dataset"
)

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Aggregate is one rendered view: counts in display order plus static text.
type Aggregate struct {
	Title      string  `json:"title"`
	Subheader  string  `json:"subheader"`
	Caption    string  `json:"caption"`
	Horizontal bool    `json:"horizontal"`
	Counts     []Count `json:"counts"`
}

// Total is the number of rows counted.
func (a Aggregate) Total() int {
	n := 0
	for _, c := range a.Counts {
		n += c.Count
	}
	return n
}

// CountBy groups rows by key and counts them, largest group first.
// Equal counts are ordered by key so repeated calls agree.
func CountBy[T any](rows []T, key func(T) string) []Count {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[key(r)]++
	}
	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Ascending reverses a CountBy result, smallest group first.
func Ascending(counts []Count) []Count {
	out := make([]Count, len(counts))
	for i, c := range counts {
		out[len(counts)-1-i] = c
	}
	return out
}

func ByState(rows []dataset.OrderCustomer) Aggregate {
	return Aggregate{
		Title:     "Number of Customers by State",
		Subheader: "Top Customers by Location (State)",
		Caption:   "Customers in state code SP rank first, with 41,746 customers in that state.",
		Counts:    CountBy(rows, func(r dataset.OrderCustomer) string { return r.State }),
	}
}

// ByOrderStatus is drawn as horizontal bars, so its counts run smallest first
// and the largest status ends up on top.
func ByOrderStatus(rows []dataset.OrderCustomer) Aggregate {
	return Aggregate{
		Title:      "Number of Customers by Order Status",
		Subheader:  "Delivery Success Rate by Order Status",
		Caption:    "96,478 of 99,441 customers have status delivered, a high success rate in getting orders to customers.",
		Horizontal: true,
		Counts:     Ascending(CountBy(rows, func(r dataset.OrderCustomer) string { return r.Status })),
	}
}

func ByPaymentType(rows []dataset.Payment) Aggregate {
	return Aggregate{
		Title:     "Number of Transactions by Payment Type",
		Subheader: "Customer Payment Methods",
		Caption:   "Credit card is the most used payment method, with 76,795 transactions.",
		Counts:    CountBy(rows, func(r dataset.Payment) string { return r.Type }),
	}
}
