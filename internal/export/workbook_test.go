package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tokodash/internal/dataset"
	"tokodash/internal/rfm"
)

func shopResult(t *testing.T) *rfm.Result {
	t.Helper()
	src := dataset.CSVSource{Dir: filepath.Join("..", "..", "testdata", "shop"), Files: dataset.DefaultFiles()}
	tables, err := src.Load(context.Background())
	require.NoError(t, err)
	res, err := rfm.Calculate(tables.Orders, tables.Payments, rfm.DefaultWindow)
	require.NoError(t, err)
	return res
}

func TestWriteWorkbook(t *testing.T) {
	res := shopResult(t)
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, res))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRecords, SheetSegments}, f.GetSheetList())

	rows, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	require.Len(t, rows, 1+res.Len())
	assert.Equal(t, RecordHeaders, rows[0])
	assert.Equal(t, res.Records[0].CustomerID, rows[1][0])
	assert.Equal(t, res.Records[0].ShortID, rows[1][1])

	segs, err := f.GetRows(SheetSegments)
	require.NoError(t, err)
	require.Len(t, segs, 1+len(rfm.SegmentNames))
	assert.Equal(t, []string{"segment", "customers", "monetary"}, segs[0])
	assert.Equal(t, rfm.SegmentNames[0], segs[1][0])
}

func TestWriteWorkbook_Empty(t *testing.T) {
	res, err := rfm.Calculate(nil, nil, rfm.DefaultWindow)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, res))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetRecords)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
