package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteCSVDir writes every table of t into dir using the given file names.
// The output reads back through CSVSource with identical fingerprints;
// sub-second order timestamps are written as RFC 3339.
func WriteCSVDir(dir string, files Files, t *Tables) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	names := files.byTable()
	for _, st := range snapshotTables {
		path := filepath.Join(dir, names[st.name])
		header := make([]string, len(st.columns))
		for i, c := range st.columns {
			header[i] = c.name
		}
		if err := writeCSVFile(path, header, st.rows(t)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writeCSVFile(path string, header []string, rows [][]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeCSVRecord(w, header); err != nil {
		f.Close()
		return err
	}
	rec := make([]string, len(header))
	for _, r := range rows {
		for i, v := range r {
			rec[i] = csvField(v)
		}
		if err := writeCSVRecord(w, rec); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func csvField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// writeCSVRecord quotes only the fields that need it, the way pandas' to_csv does.
func writeCSVRecord(w io.Writer, rec []string) error {
	for i, field := range rec {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if needsCSVQuote(field) {
			field = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := io.WriteString(w, field); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func needsCSVQuote(s string) bool {
	return strings.ContainsAny(s, ",\"\n\r")
}
