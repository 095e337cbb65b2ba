// Package dataset loads the five e-commerce tables the dashboard reports on.
//
// Tables come either from a directory of CSV files or from a SQL snapshot
// (SQLite file, MySQL/MariaDB or PostgreSQL). Both sources decode rows through
// the same column specs, so a missing column or an unparsable value fails the
// load with a *ColumnError or *ValueError naming where it happened.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot table names. The CSV source maps each one to a file.
const (
	TableCustomers       = "customers"
	TableOrders          = "orders"
	TableOrdersCustomers = "orders_customers"
	TableReviews         = "order_reviews"
	TablePayments        = "order_payments"
)

// TableNames lists the tables in load order.
var TableNames = []string{TableCustomers, TableOrders, TableOrdersCustomers, TableReviews, TablePayments}

// TimestampLayout is how purchase timestamps are written to CSV files and snapshots.
const TimestampLayout = "2006-01-02 15:04:05"

type Customer struct {
	ID        string `json:"customer_id"`
	UniqueID  string `json:"customer_unique_id,omitempty"`
	ZipPrefix string `json:"customer_zip_code_prefix,omitempty"`
	City      string `json:"customer_city,omitempty"`
	State     string `json:"customer_state"`
}

type Order struct {
	ID          string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	Status      string    `json:"order_status"`
	PurchasedAt time.Time `json:"order_purchase_timestamp"`
}

// OrderCustomer is one row of the pre-joined orders x customers table.
type OrderCustomer struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"order_status"`
	State      string `json:"customer_state"`
}

type Payment struct {
	OrderID      string  `json:"order_id"`
	Sequential   int     `json:"payment_sequential"`
	Type         string  `json:"payment_type"`
	Installments int     `json:"payment_installments"`
	Value        float64 `json:"payment_value"`
}

type Review struct {
	ID      string `json:"review_id"`
	OrderID string `json:"order_id"`
	Score   int    `json:"review_score"`
}

// Tables holds one fully loaded dataset. It is never mutated after Load returns.
type Tables struct {
	LoadID   string
	LoadedAt time.Time
	Source   string

	Customers       []Customer
	Orders          []Order
	OrdersCustomers []OrderCustomer
	Reviews         []Review
	Payments        []Payment

	fingerprints map[string]string
}

// Source loads a complete set of tables.
type Source interface {
	Load(ctx context.Context) (*Tables, error)
	String() string
}

// Counts returns the row count of every table keyed by table name.
func (t *Tables) Counts() map[string]int {
	return map[string]int{
		TableCustomers:       len(t.Customers),
		TableOrders:          len(t.Orders),
		TableOrdersCustomers: len(t.OrdersCustomers),
		TableReviews:         len(t.Reviews),
		TablePayments:        len(t.Payments),
	}
}

// Fingerprint returns the SHA-256 of a table's rows, or "" for an unknown table.
// Equal fingerprints mean equal content, whichever source the rows came from.
func (t *Tables) Fingerprint(table string) string {
	return t.fingerprints[table]
}

// seal stamps a freshly decoded dataset with its identity and fingerprints.
func (t *Tables) seal(source string) {
	t.LoadID = uuid.NewString()
	t.LoadedAt = time.Now().UTC()
	t.Source = source
	t.fingerprints = map[string]string{
		TableCustomers:       fingerprint(t.Customers),
		TableOrders:          fingerprint(t.Orders),
		TableOrdersCustomers: fingerprint(t.OrdersCustomers),
		TableReviews:         fingerprint(t.Reviews),
		TablePayments:        fingerprint(t.Payments),
	}
}

func fingerprint[T any](rows []T) string {
	h := sha256.New()
	for _, r := range rows {
		fmt.Fprintf(h, "%+v\n", r)
	}
	return hex.EncodeToString(h.Sum(nil))
}
