package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tokodash/internal/dataset"
	"tokodash/internal/export"
	"tokodash/internal/report"
	"tokodash/internal/rfm"
)

func shopSource() dataset.CSVSource {
	return dataset.CSVSource{Dir: filepath.Join("..", "..", "testdata", "shop"), Files: dataset.DefaultFiles()}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(context.Background(), Options{Source: shopSource()})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestNew_LoadFailure(t *testing.T) {
	src := dataset.CSVSource{Dir: t.TempDir(), Files: dataset.DefaultFiles()}
	_, err := New(context.Background(), Options{Source: src})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRootRedirectsToDefaultView(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/views/state", rec.Header().Get("Location"))
}

func TestSelectView(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/views?view=rfm")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/views/rfm", rec.Header().Get("Location"))

	rec = get(t, h, "/views?view=nope")
	assert.Equal(t, "/views/state", rec.Header().Get("Location"))
}

func TestAggregateViews(t *testing.T) {
	tests := []struct {
		path      string
		subheader string
		chart     string
	}{
		{"/views/state", "Top Customers by Location (State)", "/charts/state.svg"},
		{"/views/delivery", "Delivery Success Rate by Order Status", "/charts/delivery.svg"},
		{"/views/payments", "Customer Payment Methods", "/charts/payments.svg"},
	}
	h := newTestServer(t).Handler()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "<title>Tokopaedi Dashboard</title>")
			assert.Contains(t, body, tt.subheader)
			assert.Contains(t, body, tt.chart)
			assert.Contains(t, body, "Developer by Khoirun Niswa")
			for _, label := range []string{"Top Customers by State", "Delivery Success", "Order Payments", "RFM Analysis"} {
				assert.Contains(t, body, label)
			}
			assert.NotContains(t, body, "See explanation")
		})
	}
}

func TestUnknownView(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/views/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRFMView_Tabs(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/views/rfm")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Best Customers Based on RFM Parameters")
	assert.Contains(t, body, "Average Recency (days)")
	assert.Contains(t, body, "23.8")
	assert.Contains(t, body, "/charts/rfm-recency.svg")
	assert.Contains(t, body, "See explanation")
	assert.Contains(t, body, "72 days")

	rec = get(t, h, "/views/rfm?tab=frequency")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Average Frequency")
	assert.Contains(t, rec.Body.String(), "1.50")

	rec = get(t, h, "/views/rfm?tab=monetary")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Average Monetary")
	assert.Contains(t, body, "161 dollars")
	assert.Contains(t, body, "$215.74", "Loyal segment total")
}

func TestRFMView_BadTab(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/views/rfm?tab=loyalty")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCharts(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/charts/state.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = get(t, h, "/charts/rfm-monetary.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/charts/state.gif").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/nope.svg").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/rfm.svg").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/rfm-loyalty.svg").Code)
}

func TestAPIView(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/api/views/payments")
	require.Equal(t, http.StatusOK, rec.Code)

	var agg report.Aggregate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agg))
	assert.Equal(t, []report.Count{{Key: "credit_card", Count: 4}, {Key: "boleto", Count: 2}, {Key: "debit_card", Count: 1}, {Key: "voucher", Count: 1}}, agg.Counts)
}

func TestAPIRFM(t *testing.T) {
	h := newTestServer(t).Handler()
	for _, path := range []string{"/api/rfm", "/api/views/rfm"} {
		rec := get(t, h, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var payload struct {
			Records  []rfm.Record       `json:"records"`
			Averages map[string]float64 `json:"averages"`
			Segments []rfm.SegmentCount `json:"segments"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Len(t, payload.Records, 4)
		assert.InDelta(t, 23.75, payload.Averages["recency"], 1e-9)
		assert.InDelta(t, 1.5, payload.Averages["frequency"], 1e-9)
		assert.Len(t, payload.Segments, len(rfm.SegmentNames))
	}
}

func TestAPIDataset(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s.Handler(), "/api/dataset")
	require.Equal(t, http.StatusOK, rec.Code)

	var info datasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, s.Tables().LoadID, info.LoadID)
	require.Len(t, info.Tables, 5)
	assert.Equal(t, dataset.TableOrders, info.Tables[1].Name)
	assert.Equal(t, 8, info.Tables[1].Rows)
	assert.Len(t, info.Tables[1].Fingerprint, 64)
}

func TestExportRFM(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/export/rfm.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rfm.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetRecords)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, export.RecordHeaders, rows[0])
	assert.Equal(t, "cust_aaa001", rows[1][0])

	segs, err := f.GetRows(export.SheetSegments)
	require.NoError(t, err)
	assert.Len(t, segs, 1+len(rfm.SegmentNames))
}

func TestReload(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	before := s.Tables().LoadID

	_, err := s.RFM()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, before, s.Tables().LoadID)
	assert.Zero(t, s.cache.Stats().Entries, "reload purges memoized results")

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/admin/reload").Code)
}

type failingSource struct {
	dataset.Source
	fail bool
}

func (f *failingSource) Load(ctx context.Context) (*dataset.Tables, error) {
	if f.fail {
		return nil, errors.New("source offline")
	}
	return f.Source.Load(ctx)
}

func TestReload_FailureKeepsDataset(t *testing.T) {
	src := &failingSource{Source: shopSource()}
	s, err := New(context.Background(), Options{Source: src})
	require.NoError(t, err)
	before := s.Tables()

	src.fail = true
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Same(t, before, s.Tables())
}

func TestReload_IdenticalContentRecomputes(t *testing.T) {
	s := newTestServer(t)
	first, err := s.RFM()
	require.NoError(t, err)

	_, err = s.Reload(context.Background())
	require.NoError(t, err)
	second, err := s.RFM()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, int64(2), s.cache.Stats().Misses)
}

type swapSource struct {
	dataset.Source
	empty bool
}

func (w *swapSource) Load(ctx context.Context) (*dataset.Tables, error) {
	if w.empty {
		return &dataset.Tables{Source: "empty"}, nil
	}
	return w.Source.Load(ctx)
}

func TestRFMFor_UsesGivenTables(t *testing.T) {
	src := &swapSource{Source: shopSource()}
	s, err := New(context.Background(), Options{Source: src})
	require.NoError(t, err)
	held := s.Tables()

	src.empty = true
	_, err = s.Reload(context.Background())
	require.NoError(t, err)

	res, err := s.RFMFor(held)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Len())

	current, err := s.RFM()
	require.NoError(t, err)
	assert.Zero(t, current.Len())

	rec := get(t, s.Handler(), "/views/rfm")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Source: empty")
	assert.NotContains(t, rec.Body.String(), "$215.74")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$1,234.56", formatUSD(1234.56))
	assert.Equal(t, "$0.00", formatUSD(0))
	assert.Equal(t, "41,746", formatCount(41746))
}
