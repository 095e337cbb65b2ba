package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"tokodash/internal/config"
	"tokodash/internal/dataset"
	"tokodash/internal/report"
	"tokodash/internal/rfm"
)

var (
	configPath  = flag.String("config", "", "Optional YAML config file")
	dataDir     = flag.String("data", "", "Directory holding the CSV files (overrides config)")
	dsn         = flag.String("dsn", "", "Read from a SQL database instead of CSV files (overrides config)")
	outputDir   = flag.String("out-dir", "outputs", "Output directory")
	sqlitePath  = flag.String("sqlite", "", "SQLite output path (default outputs/tokodash.sqlite)")
	profilePath = flag.String("profile", "", "Profile markdown output path (default outputs/tokodash_profile.md)")
	csvDir      = flag.String("csv-out", "", "If set, also write the loaded tables as CSV files into this directory")
	quiet       = flag.Bool("quiet", false, "Disable the progress bar")
)

func main() {
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
	if err := cfg.Validate(); err != nil {
		fatalf("config: %v", err)
	}

	outSQLite := *sqlitePath
	outProfile := *profilePath
	if outSQLite == "" {
		outSQLite = filepath.Join(*outputDir, "tokodash.sqlite")
	}
	if outProfile == "" {
		outProfile = filepath.Join(*outputDir, "tokodash_profile.md")
	}
	if err := os.MkdirAll(filepath.Dir(outSQLite), 0o755); err != nil {
		fatalf("mkdir outputs: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(outProfile), 0o755); err != nil {
		fatalf("mkdir outputs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src := cfg.Source()
	tables, err := src.Load(ctx)
	if err != nil {
		fatalf("load %s: %v", src, err)
	}

	var bar *progressbar.ProgressBar
	progress := func() {}
	if !*quiet {
		bar = progressbar.Default(int64(dataset.SnapshotRows(tables)), "writing snapshot")
		progress = func() { _ = bar.Add(1) }
	}
	if err := dataset.WriteSnapshot(ctx, outSQLite, tables, progress); err != nil {
		fatalf("write sqlite: %v", err)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	res, err := rfm.Calculate(tables.Orders, tables.Payments, cfg.Window())
	if err != nil {
		fatalf("rfm: %v", err)
	}
	if err := os.WriteFile(outProfile, []byte(buildProfile(tables, res)), 0o644); err != nil {
		fatalf("write profile: %v", err)
	}
	if *csvDir != "" {
		if err := dataset.WriteCSVDir(*csvDir, cfg.Data.Files, tables); err != nil {
			fatalf("write csv: %v", err)
		}
	}

	fmt.Printf("Source: %s\n", src)
	fmt.Printf("Load:   %s\n", tables.LoadID)
	for _, name := range dataset.TableNames {
		fmt.Printf("  %-18s %s rows\n", name, humanize.Comma(int64(tables.Counts()[name])))
	}
	fmt.Printf("SQLite:  %s\n", outSQLite)
	fmt.Printf("Profile: %s\n", outProfile)
	if *csvDir != "" {
		fmt.Printf("CSV:     %s\n", *csvDir)
	}
}

func buildProfile(t *dataset.Tables, res *rfm.Result) string {
	counts := t.Counts()
	lines := []string{
		"# tokodash snapshot profile",
		"",
		fmt.Sprintf("- Source: `%s`", t.Source),
		fmt.Sprintf("- Load id: `%s`", t.LoadID),
		fmt.Sprintf("- Loaded at: %s", t.LoadedAt.Format(time.RFC3339)),
		"",
		"## Dataset shape",
	}
	for _, name := range dataset.TableNames {
		lines = append(lines, fmt.Sprintf("- `%s`: %s rows, sha256 `%s`", name, humanize.Comma(int64(counts[name])), t.Fingerprint(name)))
	}
	lines = append(lines, "", "## Uniqueness / duplicates")
	lines = append(lines,
		uniquenessLine("customers.customer_id", t.Customers, func(c dataset.Customer) string { return c.ID }),
		uniquenessLine("orders.order_id", t.Orders, func(o dataset.Order) string { return o.ID }),
		uniquenessLine("order_reviews.review_id", t.Reviews, func(r dataset.Review) string { return r.ID }),
	)

	lines = append(lines, "", "## Purchase timestamps")
	if len(t.Orders) == 0 {
		lines = append(lines, "- No orders")
	} else {
		minT, maxT := t.Orders[0].PurchasedAt, t.Orders[0].PurchasedAt
		for _, o := range t.Orders[1:] {
			if o.PurchasedAt.Before(minT) {
				minT = o.PurchasedAt
			}
			if o.PurchasedAt.After(maxT) {
				maxT = o.PurchasedAt
			}
		}
		lines = append(lines,
			fmt.Sprintf("- Earliest: %s", minT.Format(dataset.TimestampLayout)),
			fmt.Sprintf("- Latest: %s", maxT.Format(dataset.TimestampLayout)),
		)
	}

	for _, agg := range []report.Aggregate{
		report.ByState(t.OrdersCustomers),
		report.ByOrderStatus(t.OrdersCustomers),
		report.ByPaymentType(t.Payments),
	} {
		lines = append(lines, "", "## "+agg.Title)
		top := append([]report.Count(nil), agg.Counts...)
		sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
		for i := 0; i < len(top) && i < 10; i++ {
			lines = append(lines, fmt.Sprintf("- `%s`: %s", top[i].Key, humanize.Comma(int64(top[i].Count))))
		}
	}

	lines = append(lines, "", "## RFM window")
	if res.Len() == 0 {
		lines = append(lines, "- No purchases in window")
	} else {
		lines = append(lines,
			fmt.Sprintf("- Window: %s to %s", res.WindowStart.Format(dataset.TimestampLayout), res.WindowEnd.Format(dataset.TimestampLayout)),
			fmt.Sprintf("- Customers: %s", humanize.Comma(int64(res.Len()))),
			fmt.Sprintf("- Average recency: %.1f days", res.Average(rfm.Recency)),
			fmt.Sprintf("- Average frequency: %.2f", res.Average(rfm.Frequency)),
			fmt.Sprintf("- Average monetary: %.2f", res.Average(rfm.Monetary)),
		)
		for _, sc := range res.Segments() {
			lines = append(lines, fmt.Sprintf("- %s: %s customers", sc.Segment, humanize.Comma(int64(sc.Customers))))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func uniquenessLine[T any](label string, rows []T, key func(T) string) string {
	seen := make(map[string]struct{}, len(rows))
	dup := 0
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			dup++
			continue
		}
		seen[k] = struct{}{}
	}
	return fmt.Sprintf("- `%s` unique=%s, duplicate_rows=%s", label, humanize.Comma(int64(len(seen))), humanize.Comma(int64(dup)))
}

func fatalf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
