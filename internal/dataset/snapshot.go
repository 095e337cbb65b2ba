package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type snapshotColumn struct {
	name  string
	ctype string
}

type snapshotTable struct {
	name    string
	columns []snapshotColumn
	indexes []string
	rows    func(t *Tables) [][]any
}

func textColumns(names ...string) []snapshotColumn {
	out := make([]snapshotColumn, len(names))
	for i, n := range names {
		out[i] = snapshotColumn{name: n, ctype: "TEXT"}
	}
	return out
}

var snapshotTables = []snapshotTable{
	{
		name:    TableCustomers,
		columns: textColumns("customer_id", "customer_unique_id", "customer_zip_code_prefix", "customer_city", "customer_state"),
		indexes: []string{"customer_id"},
		rows: func(t *Tables) [][]any {
			out := make([][]any, len(t.Customers))
			for i, c := range t.Customers {
				out[i] = []any{c.ID, c.UniqueID, c.ZipPrefix, c.City, c.State}
			}
			return out
		},
	},
	{
		name:    TableOrders,
		columns: textColumns("order_id", "customer_id", "order_status", "order_purchase_timestamp"),
		indexes: []string{"order_id", "customer_id"},
		rows: func(t *Tables) [][]any {
			out := make([][]any, len(t.Orders))
			for i, o := range t.Orders {
				out[i] = []any{o.ID, o.CustomerID, o.Status, formatTimestamp(o.PurchasedAt)}
			}
			return out
		},
	},
	{
		name:    TableOrdersCustomers,
		columns: textColumns("order_id", "customer_id", "order_status", "customer_state"),
		rows: func(t *Tables) [][]any {
			out := make([][]any, len(t.OrdersCustomers))
			for i, oc := range t.OrdersCustomers {
				out[i] = []any{oc.OrderID, oc.CustomerID, oc.Status, oc.State}
			}
			return out
		},
	},
	{
		name: TableReviews,
		columns: []snapshotColumn{
			{"review_id", "TEXT"}, {"order_id", "TEXT"}, {"review_score", "INTEGER"},
		},
		indexes: []string{"order_id"},
		rows: func(t *Tables) [][]any {
			out := make([][]any, len(t.Reviews))
			for i, r := range t.Reviews {
				out[i] = []any{r.ID, r.OrderID, r.Score}
			}
			return out
		},
	},
	{
		name: TablePayments,
		columns: []snapshotColumn{
			{"order_id", "TEXT"}, {"payment_sequential", "INTEGER"}, {"payment_type", "TEXT"},
			{"payment_installments", "INTEGER"}, {"payment_value", "REAL"},
		},
		indexes: []string{"order_id"},
		rows: func(t *Tables) [][]any {
			out := make([][]any, len(t.Payments))
			for i, p := range t.Payments {
				out[i] = []any{p.OrderID, p.Sequential, p.Type, p.Installments, p.Value}
			}
			return out
		},
	},
}

// formatTimestamp writes whole seconds in TimestampLayout and anything finer
// as RFC 3339 so ParseTimestamp reads back the same instant.
func formatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return t.Format(time.RFC3339Nano)
	}
	return t.Format(TimestampLayout)
}

// SnapshotRows is the number of rows WriteSnapshot inserts for t.
func SnapshotRows(t *Tables) int {
	n := 0
	for _, c := range t.Counts() {
		n += c
	}
	return n
}

// WriteSnapshot replaces the SQLite file at path with the contents of t.
// progress, if set, is called once per inserted row.
func WriteSnapshot(ctx context.Context, path string, t *Tables, progress func()) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, st := range snapshotTables {
		if err := writeSnapshotTable(ctx, db, st, st.rows(t), progress); err != nil {
			return fmt.Errorf("write %s: %w", st.name, err)
		}
	}
	return writeSnapshotMeta(ctx, db, t)
}

func writeSnapshotTable(ctx context.Context, db *sql.DB, st snapshotTable, rows [][]any, progress func()) error {
	defs := make([]string, len(st.columns))
	cols := make([]string, len(st.columns))
	for i, c := range st.columns {
		defs[i] = fmt.Sprintf("%q %s", c.name, c.ctype)
		cols[i] = fmt.Sprintf("%q", c.name)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, st.name)); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, st.name, strings.Join(defs, ","))); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, st.name, strings.Join(cols, ","), ph))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return err
		}
		if progress != nil {
			progress()
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, col := range st.indexes {
		q := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "idx_%s_%s" ON %q(%q)`, st.name, col, st.name, col)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func writeSnapshotMeta(ctx context.Context, db *sql.DB, t *Tables) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE "snapshot_meta" ("key" TEXT PRIMARY KEY, "value" TEXT)`); err != nil {
		return err
	}
	meta := map[string]string{
		"load_id":    t.LoadID,
		"source":     t.Source,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	for table, n := range t.Counts() {
		meta["rows_"+table] = strconv.Itoa(n)
		meta["sha256_"+table] = t.Fingerprint(table)
	}
	for k, v := range meta {
		if _, err := db.ExecContext(ctx, `INSERT INTO "snapshot_meta" ("key", "value") VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}
