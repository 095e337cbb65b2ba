package dashboard

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"tokodash/internal/chart"
	"tokodash/internal/dataset"
	"tokodash/internal/report"
	"tokodash/internal/rfm"
)

const (
	viewState    = "state"
	viewDelivery = "delivery"
	viewPayments = "payments"
	viewRFM      = "rfm"

	defaultView = viewState
)

type view struct {
	Slug  string
	Label string
	// Width of the chart in inches; height is always 6.
	Width float64
	build func(*dataset.Tables) report.Aggregate
}

// views is the sidebar order. The RFM view has no aggregate.
var views = []view{
	{Slug: viewState, Label: "Top Customers by State", Width: 10, build: func(t *dataset.Tables) report.Aggregate {
		return report.ByState(t.OrdersCustomers)
	}},
	{Slug: viewDelivery, Label: "Delivery Success", Width: 10, build: func(t *dataset.Tables) report.Aggregate {
		return report.ByOrderStatus(t.OrdersCustomers)
	}},
	{Slug: viewPayments, Label: "Order Payments", Width: 8, build: func(t *dataset.Tables) report.Aggregate {
		return report.ByPaymentType(t.Payments)
	}},
	{Slug: viewRFM, Label: "RFM Analysis"},
}

func lookupView(slug string) (view, bool) {
	for _, v := range views {
		if v.Slug == slug {
			return v, true
		}
	}
	return view{}, false
}

type tab struct {
	Label        string
	AverageLabel string
	YLabel       string
	Explanation  string
	format       func(float64) string
}

var tabs = map[rfm.Metric]tab{
	rfm.Recency: {
		Label:        "Recency",
		AverageLabel: "Average Recency (days)",
		YLabel:       "Recency (days)",
		Explanation: "This chart shows the customers with the lowest recency, the ones who purchased most recently, " +
			"sorted from lowest to highest. On average a customer last purchased about 72 days ago within the last 90 days.",
		format: func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	},
	rfm.Frequency: {
		Label:        "Frequency",
		AverageLabel: "Average Frequency",
		YLabel:       "Frequency",
		Explanation: "This chart shows the customers with the highest purchase frequency, sorted from highest to lowest. " +
			"On average a customer made a single purchase within the last 90 days.",
		format: func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	},
	rfm.Monetary: {
		Label:        "Monetary",
		AverageLabel: "Average Monetary",
		YLabel:       "Monetary",
		Explanation: "This chart shows the customers with the highest total purchase value, sorted from highest to lowest. " +
			"On average a customer spent about 161 dollars within the last 90 days.",
		format: formatUSD,
	},
}

func formatUSD(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func aggregateBars(agg report.Aggregate) []chart.Bar {
	bars := make([]chart.Bar, len(agg.Counts))
	for i, c := range agg.Counts {
		bars[i] = chart.Bar{Label: c.Key, Value: float64(c.Count)}
	}
	return bars
}

func rfmBars(res *rfm.Result, m rfm.Metric, n int) []chart.Bar {
	top := res.Top(m, n)
	bars := make([]chart.Bar, len(top))
	for i, r := range top {
		bars[i] = chart.Bar{Label: r.ShortID, Value: r.Value(m)}
	}
	return bars
}

func rfmChartOptions(m rfm.Metric, n int) chart.Options {
	t := tabs[m]
	return chart.Options{
		Title:       fmt.Sprintf("Top %d Customers by %s", n, t.Label),
		XLabel:      "Customer ID",
		YLabel:      t.YLabel,
		Width:       6.4,
		Height:      4.8,
		ValueFormat: t.format,
	}
}
