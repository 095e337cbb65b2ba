package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"tokodash/internal/config"
	"tokodash/internal/dataset"
	"tokodash/internal/export"
	"tokodash/internal/report"
	"tokodash/internal/rfm"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	dataDir := flag.String("data", "", "Directory holding the CSV files (overrides config)")
	dsn := flag.String("dsn", "", "Read from a SQL database instead of CSV files (overrides config)")
	windowDays := flag.Int("window-days", 0, "RFM window in days (overrides config)")
	top := flag.Int("top", 0, "Customers listed per metric (overrides config)")
	withViews := flag.Bool("views", false, "Also print the state, delivery and payment counts")
	xlsxPath := flag.String("xlsx", "", "Also write the RFM workbook to this path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		fatalf("config: %v", err)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		fatalf("config: %v", err)
	}
	if *dataDir != "" {
		cfg.Data.Source = config.SourceCSV
		cfg.Data.Dir = *dataDir
	}
	if *dsn != "" {
		cfg.Data.Source = config.SourceSQL
		cfg.Data.DSN = *dsn
	}
	if *windowDays != 0 {
		cfg.RFM.WindowDays = *windowDays
	}
	if *top != 0 {
		cfg.RFM.TopN = *top
	}
	if err := cfg.Validate(); err != nil {
		fatalf("config: %v", err)
	}

	tables, err := cfg.Source().Load(context.Background())
	if err != nil {
		fatalf("load: %v", err)
	}
	res, err := rfm.Calculate(tables.Orders, tables.Payments, cfg.Window())
	if err != nil {
		fatalf("rfm: %v", err)
	}

	if *withViews {
		printViews(os.Stdout, tables)
	}
	printRFM(os.Stdout, res, cfg.RFM.TopN)

	if *xlsxPath != "" {
		f, err := os.Create(*xlsxPath)
		if err != nil {
			fatalf("create workbook: %v", err)
		}
		if err := export.WriteWorkbook(f, res); err != nil {
			f.Close()
			fatalf("write workbook: %v", err)
		}
		if err := f.Close(); err != nil {
			fatalf("write workbook: %v", err)
		}
		color.Green("\nWorkbook written to %s", *xlsxPath)
	}
}

var heading = color.New(color.FgYellow, color.Bold)

func printViews(w io.Writer, t *dataset.Tables) {
	for _, agg := range []report.Aggregate{
		report.ByState(t.OrdersCustomers),
		report.ByOrderStatus(t.OrdersCustomers),
		report.ByPaymentType(t.Payments),
	} {
		heading.Fprintf(w, "\n%s\n", agg.Title)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Key", "Count"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, c := range agg.Counts {
			table.Append([]string{c.Key, humanize.Comma(int64(c.Count))})
		}
		table.SetFooter([]string{"Total", humanize.Comma(int64(agg.Total()))})
		table.Render()
	}
}

func printRFM(w io.Writer, res *rfm.Result, n int) {
	heading.Fprintf(w, "\nRFM Analysis\n")
	if res.Len() == 0 {
		fmt.Fprintln(w, "No purchases in window.")
		return
	}
	fmt.Fprintf(w, "Window: %s to %s\n", res.WindowStart.Format(dataset.TimestampLayout), res.WindowEnd.Format(dataset.TimestampLayout))
	fmt.Fprintf(w, "Customers: %s\n", humanize.Comma(int64(res.Len())))
	fmt.Fprintf(w, "Average Recency (days): %.1f\n", res.Average(rfm.Recency))
	fmt.Fprintf(w, "Average Frequency: %.2f\n", res.Average(rfm.Frequency))
	fmt.Fprintf(w, "Average Monetary: $%s\n", humanize.FormatFloat("#,###.##", res.Average(rfm.Monetary)))

	for _, m := range rfm.Metrics {
		heading.Fprintf(w, "\nTop %d Customers by %s\n", n, metricLabel(m))
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Rank", "Customer ID", "Recency", "Frequency", "Monetary", "Segment"})
		for i, r := range res.Top(m, n) {
			table.Append([]string{
				strconv.Itoa(i + 1),
				r.ShortID,
				strconv.Itoa(r.Recency),
				strconv.Itoa(r.Frequency),
				humanize.FormatFloat("#,###.##", r.Monetary),
				r.Segment,
			})
		}
		table.Render()
	}

	heading.Fprintf(w, "\nCustomer Segments\n")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Segment", "Customers", "Monetary"})
	for _, sc := range res.Segments() {
		table.Append([]string{sc.Segment, humanize.Comma(int64(sc.Customers)), humanize.FormatFloat("#,###.##", sc.Monetary)})
	}
	table.Render()
}

func metricLabel(m rfm.Metric) string {
	switch m {
	case rfm.Recency:
		return "Recency"
	case rfm.Frequency:
		return "Frequency"
	}
	return "Monetary"
}

func fatalf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
