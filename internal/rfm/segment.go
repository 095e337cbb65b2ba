package rfm

import "sort"

const (
	SegmentChampions = "Champions"
	SegmentLoyal     = "Loyal"
	SegmentAtRisk    = "At Risk"
	SegmentLost      = "Lost"
)

// SegmentNames lists segment names best-first.
var SegmentNames = []string{SegmentChampions, SegmentLoyal, SegmentAtRisk, SegmentLost}

type SegmentCount struct {
	Segment   string  `json:"segment"`
	Customers int     `json:"customers"`
	Monetary  float64 `json:"monetary"`
}

func recencyScore(days int) int {
	switch {
	case days <= 30:
		return 5
	case days <= 90:
		return 4
	case days <= 180:
		return 3
	case days <= 365:
		return 2
	default:
		return 1
	}
}

func frequencyScore(orders int) int {
	switch {
	case orders >= 20:
		return 5
	case orders >= 11:
		return 4
	case orders >= 6:
		return 3
	case orders >= 3:
		return 2
	default:
		return 1
	}
}

func segmentFor(total int) string {
	switch {
	case total >= 12:
		return SegmentChampions
	case total >= 9:
		return SegmentLoyal
	case total >= 6:
		return SegmentAtRisk
	default:
		return SegmentLost
	}
}

// ntile mirrors SQL NTILE(buckets): the first n%buckets buckets hold one extra row.
func ntile(i, n, buckets int) int {
	q, r := n/buckets, n%buckets
	if i < r*(q+1) {
		return i/(q+1) + 1
	}
	return r + (i-r*(q+1))/q + 1
}

// score fills the R, F and M scores and the segment of every record.
// The monetary score is the record's quintile in ascending monetary order.
func score(records []Record) {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := records[order[a]], records[order[b]]
		if ra.Monetary != rb.Monetary {
			return ra.Monetary < rb.Monetary
		}
		return ra.CustomerID < rb.CustomerID
	})
	for pos, idx := range order {
		records[idx].MonetaryScore = ntile(pos, len(records), 5)
	}
	for i := range records {
		rec := &records[i]
		rec.RecencyScore = recencyScore(rec.Recency)
		rec.FrequencyScore = frequencyScore(rec.Frequency)
		rec.Segment = segmentFor(rec.RecencyScore + rec.FrequencyScore + rec.MonetaryScore)
	}
}

// Segments counts customers and their monetary total per segment, best-first.
// Every segment is present even when empty.
func (r *Result) Segments() []SegmentCount {
	idx := make(map[string]int, len(SegmentNames))
	out := make([]SegmentCount, len(SegmentNames))
	for i, s := range SegmentNames {
		out[i].Segment = s
		idx[s] = i
	}
	for _, rec := range r.Records {
		sc := &out[idx[rec.Segment]]
		sc.Customers++
		sc.Monetary += rec.Monetary
	}
	return out
}
