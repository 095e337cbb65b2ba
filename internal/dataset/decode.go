package dataset

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errEmpty = errors.New("empty value")

// tableSpec describes how one table is decoded, independent of where the rows come from.
type tableSpec struct {
	name     string
	required []string
	optional []string
	decode   func(*Tables, *rowReader) error
}

var tableSpecs = []tableSpec{
	{
		name:     TableCustomers,
		required: []string{"customer_id", "customer_state"},
		optional: []string{"customer_unique_id", "customer_zip_code_prefix", "customer_city"},
		decode:   decodeCustomer,
	},
	{
		name:     TableOrders,
		required: []string{"order_id", "customer_id", "order_status", "order_purchase_timestamp"},
		decode:   decodeOrder,
	},
	{
		name:     TableOrdersCustomers,
		required: []string{"order_id", "customer_id", "order_status", "customer_state"},
		decode:   decodeOrderCustomer,
	},
	{
		name:     TableReviews,
		required: []string{"review_id", "order_id", "review_score"},
		decode:   decodeReview,
	},
	{
		name:     TablePayments,
		required: []string{"order_id", "payment_type", "payment_value"},
		optional: []string{"payment_sequential", "payment_installments"},
		decode:   decodePayment,
	},
}

func (s tableSpec) columns() []string {
	out := make([]string, 0, len(s.required)+len(s.optional))
	out = append(out, s.required...)
	return append(out, s.optional...)
}

// rowReader exposes one record by column name. source and line only feed error messages.
type rowReader struct {
	source string
	line   int
	index  map[string]int
	values []string
}

func newRowReader(source string, headers []string, spec tableSpec) (*rowReader, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range spec.required {
		if _, ok := index[col]; !ok {
			return nil, &ColumnError{Source: source, Column: col}
		}
	}
	return &rowReader{source: source, index: index}, nil
}

func (r *rowReader) reset(line int, values []string) {
	r.line = line
	r.values = values
}

func (r *rowReader) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r *rowReader) fail(col string, err error) error {
	return &ValueError{Source: r.source, Line: r.line, Column: col, Value: r.str(col), Err: err}
}

func (r *rowReader) float(col string) (float64, error) {
	s := r.str(col)
	if s == "" {
		return 0, r.fail(col, errEmpty)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.fail(col, err)
	}
	return f, nil
}

// optionalInt reads an integer column that may be absent or blank.
// Values such as "3.0" are accepted since exports from dataframes write them.
func (r *rowReader) optionalInt(col string) (int, error) {
	s := r.str(col)
	if s == "" {
		return 0, nil
	}
	return r.parseInt(col, s)
}

func (r *rowReader) integer(col string) (int, error) {
	s := r.str(col)
	if s == "" {
		return 0, r.fail(col, errEmpty)
	}
	return r.parseInt(col, s)
}

func (r *rowReader) parseInt(col, s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		if err == nil {
			err = errors.New("not an integer")
		}
		return 0, r.fail(col, err)
	}
	return int(f), nil
}

var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (r *rowReader) timestamp(col string) (time.Time, error) {
	s := r.str(col)
	if s == "" {
		return time.Time{}, r.fail(col, errEmpty)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, r.fail(col, err)
	}
	return t, nil
}

// ParseTimestamp accepts the timestamp layouts found in exports of this dataset.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func decodeCustomer(t *Tables, r *rowReader) error {
	t.Customers = append(t.Customers, Customer{
		ID:        r.str("customer_id"),
		UniqueID:  r.str("customer_unique_id"),
		ZipPrefix: r.str("customer_zip_code_prefix"),
		City:      r.str("customer_city"),
		State:     r.str("customer_state"),
	})
	return nil
}

func decodeOrder(t *Tables, r *rowReader) error {
	ts, err := r.timestamp("order_purchase_timestamp")
	if err != nil {
		return err
	}
	t.Orders = append(t.Orders, Order{
		ID:          r.str("order_id"),
		CustomerID:  r.str("customer_id"),
		Status:      r.str("order_status"),
		PurchasedAt: ts,
	})
	return nil
}

func decodeOrderCustomer(t *Tables, r *rowReader) error {
	t.OrdersCustomers = append(t.OrdersCustomers, OrderCustomer{
		OrderID:    r.str("order_id"),
		CustomerID: r.str("customer_id"),
		Status:     r.str("order_status"),
		State:      r.str("customer_state"),
	})
	return nil
}

func decodeReview(t *Tables, r *rowReader) error {
	score, err := r.integer("review_score")
	if err != nil {
		return err
	}
	t.Reviews = append(t.Reviews, Review{
		ID:      r.str("review_id"),
		OrderID: r.str("order_id"),
		Score:   score,
	})
	return nil
}

func decodePayment(t *Tables, r *rowReader) error {
	value, err := r.float("payment_value")
	if err != nil {
		return err
	}
	seq, err := r.optionalInt("payment_sequential")
	if err != nil {
		return err
	}
	inst, err := r.optionalInt("payment_installments")
	if err != nil {
		return err
	}
	t.Payments = append(t.Payments, Payment{
		OrderID:      r.str("order_id"),
		Sequential:   seq,
		Type:         r.str("payment_type"),
		Installments: inst,
		Value:        value,
	})
	return nil
}
