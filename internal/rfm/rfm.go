// Package rfm computes Recency, Frequency and Monetary metrics per customer
// over a trailing window that ends at the latest purchase in the data.
package rfm

import (
	"fmt"
	"sort"
	"time"

	"tokodash/internal/dataset"
)

// DefaultWindow is the trailing window the dashboard reports on.
const DefaultWindow = 90 * 24 * time.Hour

const day = 24 * time.Hour

type Metric string

const (
	Recency   Metric = "recency"
	Frequency Metric = "frequency"
	Monetary  Metric = "monetary"
)

// Metrics lists the metrics in display order.
var Metrics = []Metric{Recency, Frequency, Monetary}

func ParseMetric(s string) (Metric, bool) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type Record struct {
	CustomerID   string    `json:"customer_id"`
	ShortID      string    `json:"customer_id_shortened"`
	Recency      int       `json:"recency"`
	Frequency    int       `json:"frequency"`
	Monetary     float64   `json:"monetary"`
	PaidOrders   int       `json:"paid_orders"`
	LastPurchase time.Time `json:"last_purchase"`

	RecencyScore   int    `json:"recency_score"`
	FrequencyScore int    `json:"frequency_score"`
	MonetaryScore  int    `json:"monetary_score"`
	Segment        string `json:"segment"`
}

// Value returns the record's value for m.
func (r Record) Value(m Metric) float64 {
	switch m {
	case Recency:
		return float64(r.Recency)
	case Frequency:
		return float64(r.Frequency)
	case Monetary:
		return r.Monetary
	}
	return 0
}

type Result struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Records     []Record  `json:"records"`
}

// Calculate returns one record per customer with at least one order in
// [latest purchase - window, latest purchase]. Records are ordered by customer id.
//
// Recency counts whole days from the customer's own latest purchase to the
// window end. Payments are summed per order first; an order without payments
// still counts toward recency and frequency and adds nothing to monetary.
// An empty order set yields an empty result.
func Calculate(orders []dataset.Order, payments []dataset.Payment, window time.Duration) (*Result, error) {
	if window <= 0 {
		return nil, fmt.Errorf("rfm window must be positive, got %s", window)
	}
	res := &Result{Records: []Record{}}
	if len(orders) == 0 {
		return res, nil
	}

	end := orders[0].PurchasedAt
	for _, o := range orders[1:] {
		if o.PurchasedAt.After(end) {
			end = o.PurchasedAt
		}
	}
	start := end.Add(-window)
	res.WindowStart, res.WindowEnd = start, end

	paidByOrder := make(map[string]float64)
	for _, p := range payments {
		paidByOrder[p.OrderID] += p.Value
	}

	byCustomer := make(map[string]*Record)
	for _, o := range orders {
		if o.PurchasedAt.Before(start) || o.PurchasedAt.After(end) {
			continue
		}
		rec, ok := byCustomer[o.CustomerID]
		if !ok {
			rec = &Record{CustomerID: o.CustomerID, ShortID: Shorten(o.CustomerID)}
			byCustomer[o.CustomerID] = rec
		}
		rec.Frequency++
		if o.PurchasedAt.After(rec.LastPurchase) {
			rec.LastPurchase = o.PurchasedAt
		}
		if v, ok := paidByOrder[o.ID]; ok {
			rec.Monetary += v
			rec.PaidOrders++
		}
	}

	for _, rec := range byCustomer {
		rec.Recency = int(end.Sub(rec.LastPurchase) / day)
		res.Records = append(res.Records, *rec)
	}
	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].CustomerID < res.Records[j].CustomerID
	})
	score(res.Records)
	return res, nil
}

// Shorten keeps the first and last three characters of a customer id for chart labels.
func Shorten(id string) string {
	r := []rune(id)
	head := r[:min(3, len(r))]
	tail := r[max(0, len(r)-3):]
	return string(head) + "..." + string(tail)
}

// Top returns up to n records ranked best-first for m: lowest recency,
// highest frequency or highest monetary. Ties go to the smaller customer id.
func (r *Result) Top(m Metric, n int) []Record {
	out := append([]Record(nil), r.Records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Value(m), out[j].Value(m)
		if a != b {
			if m == Recency {
				return a < b
			}
			return a > b
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Average returns the mean of m over all records, or 0 for an empty result.
func (r *Result) Average(m Metric) float64 {
	if len(r.Records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range r.Records {
		sum += rec.Value(m)
	}
	return sum / float64(len(r.Records))
}

// Len is the number of customers in the window.
func (r *Result) Len() int { return len(r.Records) }
