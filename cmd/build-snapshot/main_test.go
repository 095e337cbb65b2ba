package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"tokodash/internal/dataset"
	"tokodash/internal/rfm"
)

func loadShop(t *testing.T) *dataset.Tables {
	t.Helper()
	src := dataset.CSVSource{Dir: filepath.Join("..", "..", "testdata", "shop"), Files: dataset.DefaultFiles()}
	tables, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	return tables
}

func TestBuildProfile(t *testing.T) {
	tables := loadShop(t)
	res, err := rfm.Calculate(tables.Orders, tables.Payments, rfm.DefaultWindow)
	if err != nil {
		t.Fatalf("rfm: %v", err)
	}
	profile := buildProfile(tables, res)

	for _, want := range []string{
		"- `orders`: 8 rows",
		"- `orders.order_id` unique=8, duplicate_rows=0",
		"- Earliest: 2018-01-10 10:00:00",
		"- Latest: 2018-06-30 12:00:00",
		"## Number of Customers by State",
		"- `SP`: 6",
		"- Window: 2018-04-01 12:00:00 to 2018-06-30 12:00:00",
		"- Customers: 4",
		"- Average recency: 23.8 days",
	} {
		if !strings.Contains(profile, want) {
			t.Errorf("profile missing %q\n%s", want, profile)
		}
	}
}

func TestBuildProfile_EmptyDataset(t *testing.T) {
	res, err := rfm.Calculate(nil, nil, rfm.DefaultWindow)
	if err != nil {
		t.Fatalf("rfm: %v", err)
	}
	profile := buildProfile(&dataset.Tables{}, res)
	if !strings.Contains(profile, "- No orders") || !strings.Contains(profile, "- No purchases in window") {
		t.Fatalf("unexpected empty profile:\n%s", profile)
	}
}

func TestUniquenessLine(t *testing.T) {
	got := uniquenessLine("ids", []string{"a", "b", "a", "a"}, func(s string) string { return s })
	if got != "- `ids` unique=2, duplicate_rows=2" {
		t.Fatalf("got %q", got)
	}
}
