package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Files names the CSV file backing each table.
type Files struct {
	Customers       string `yaml:"customers"`
	Orders          string `yaml:"orders"`
	OrdersCustomers string `yaml:"orders_customers"`
	Reviews         string `yaml:"reviews"`
	Payments        string `yaml:"payments"`
}

// DefaultFiles are the file names the dataset is published with.
func DefaultFiles() Files {
	return Files{
		Customers:       "fix_customers.csv",
		Orders:          "fix_orders.csv",
		OrdersCustomers: "orders_customers.csv",
		Reviews:         "fix_order_reviews.csv",
		Payments:        "fix_order_payments.csv",
	}
}

func (f Files) byTable() map[string]string {
	return map[string]string{
		TableCustomers:       f.Customers,
		TableOrders:          f.Orders,
		TableOrdersCustomers: f.OrdersCustomers,
		TableReviews:         f.Reviews,
		TablePayments:        f.Payments,
	}
}

// CSVSource reads every table from a file in Dir.
type CSVSource struct {
	Dir   string
	Files Files
}

func (s CSVSource) String() string { return "csv:" + s.Dir }

func (s CSVSource) Load(ctx context.Context) (*Tables, error) {
	names := s.Files.byTable()
	t := &Tables{}
	for _, spec := range tableSpecs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.Dir, names[spec.name])
		if err := loadCSVTable(path, spec, t); err != nil {
			return nil, fmt.Errorf("load %s: %w", spec.name, err)
		}
	}
	t.seal(s.String())
	return t, nil
}

func loadCSVTable(path string, spec tableSpec, t *Tables) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: file is empty", path)
	}
	if err != nil {
		return err
	}
	// ReuseRecord recycles the slice, so the header must be copied first.
	headers = append([]string(nil), headers...)
	rr, err := newRowReader(filepath.Base(path), headers, spec)
	if err != nil {
		return err
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		line, _ := r.FieldPos(0)
		rr.reset(line, rec)
		if err := spec.decode(t, rr); err != nil {
			return err
		}
	}
	return nil
}
