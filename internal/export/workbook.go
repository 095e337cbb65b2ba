// Package export writes RFM results to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tokodash/internal/dataset"
	"tokodash/internal/rfm"
)

const (
	SheetRecords  = "RFM"
	SheetSegments = "Segments"
)

// RecordHeaders is the header row of the records sheet.
var RecordHeaders = []string{
	"customer_id", "customer_id_shortened", "last_purchase", "recency", "frequency", "monetary",
	"paid_orders", "recency_score", "frequency_score", "monetary_score", "segment",
}

// WriteWorkbook writes one row per RFM record plus a segment summary sheet.
func WriteWorkbook(w io.Writer, res *rfm.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRecords); err != nil {
		return err
	}
	for i, h := range RecordHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetRecords, cell, h); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetRecords, "A", "A", 36)
	_ = f.SetColWidth(SheetRecords, "B", "C", 20)

	for i, r := range res.Records {
		row := []any{
			r.CustomerID, r.ShortID, r.LastPurchase.Format(dataset.TimestampLayout), r.Recency, r.Frequency,
			r.Monetary, r.PaidOrders, r.RecencyScore, r.FrequencyScore, r.MonetaryScore, r.Segment,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetRecords, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(SheetSegments); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetSegments, "A1", &[]any{"segment", "customers", "monetary"}); err != nil {
		return err
	}
	for i, sc := range res.Segments() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetSegments, cell, &[]any{sc.Segment, sc.Customers, sc.Monetary}); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetSegments, "A", "A", 16)

	return f.Write(w)
}
