package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"tokodash/internal/chart"
	"tokodash/internal/dataset"
	"tokodash/internal/report"
	"tokodash/internal/rfm"
)

const pageTitle = "Tokopaedi Dashboard"

type navItem struct {
	Slug     string
	Label    string
	Selected bool
}

type tabItem struct {
	Slug   string
	Label  string
	Active bool
}

type segmentRow struct {
	Segment   string
	Customers string
	Monetary  string
}

type rfmPanel struct {
	Tabs        []tabItem
	Tab         tab
	Average     string
	ChartURL    string
	Customers   string
	WindowStart string
	WindowEnd   string
	Segments    []segmentRow
	ExportURL   string
}

type pageData struct {
	Title     string
	Nav       []navItem
	Aggregate *report.Aggregate
	Total     string
	ChartURL  string
	RFM       *rfmPanel
	Source    string
	LoadedAgo string
	LoadID    string
}

func (s *Server) handleSelectView(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("view")
	if _, ok := lookupView(slug); !ok {
		slug = defaultView
	}
	http.Redirect(w, r, "/views/"+slug, http.StatusFound)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(chi.URLParam(r, "view"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	t := s.Tables()
	data := pageData{
		Title:     pageTitle,
		Nav:       navItems(v.Slug),
		Source:    t.Source,
		LoadedAgo: humanize.Time(t.LoadedAt),
		LoadID:    t.LoadID,
	}

	if v.Slug == viewRFM {
		metric := rfm.Recency
		if q := r.URL.Query().Get("tab"); q != "" {
			if metric, ok = rfm.ParseMetric(q); !ok {
				http.Error(w, "unknown tab", http.StatusBadRequest)
				return
			}
		}
		res, err := s.RFMFor(t)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			s.logger.Error("rfm calculation failed", "error", err)
			return
		}
		data.RFM = newRFMPanel(res, metric)
	} else {
		agg := v.build(t)
		data.Aggregate = &agg
		data.Total = formatCount(agg.Total())
		data.ChartURL = "/charts/" + v.Slug + ".svg"
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.logger.Error("template error", "view", v.Slug, "error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func navItems(selected string) []navItem {
	items := make([]navItem, len(views))
	for i, v := range views {
		items[i] = navItem{Slug: v.Slug, Label: v.Label, Selected: v.Slug == selected}
	}
	return items
}

func newRFMPanel(res *rfm.Result, metric rfm.Metric) *rfmPanel {
	t := tabs[metric]
	p := &rfmPanel{
		Tab:       t,
		Average:   t.format(res.Average(metric)),
		ChartURL:  "/charts/rfm-" + string(metric) + ".svg",
		Customers: formatCount(res.Len()),
		ExportURL: "/export/rfm.xlsx",
	}
	if !res.WindowEnd.IsZero() {
		p.WindowStart = res.WindowStart.Format(dataset.TimestampLayout)
		p.WindowEnd = res.WindowEnd.Format(dataset.TimestampLayout)
	}
	for _, m := range rfm.Metrics {
		p.Tabs = append(p.Tabs, tabItem{Slug: string(m), Label: tabs[m].Label, Active: m == metric})
	}
	for _, sc := range res.Segments() {
		p.Segments = append(p.Segments, segmentRow{
			Segment:   sc.Segment,
			Customers: formatCount(sc.Customers),
			Monetary:  formatUSD(sc.Monetary),
		})
	}
	return p
}

// handleChart renders one chart. Names are view slugs or rfm-<metric>.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, ok := chart.ParseFormat(chi.URLParam(r, "format"))
	if !ok {
		http.Error(w, "unsupported chart format", http.StatusBadRequest)
		return
	}
	name := chi.URLParam(r, "chart")

	var (
		bars []chart.Bar
		opt  chart.Options
	)
	if v, ok := lookupView(name); ok && v.build != nil {
		agg := v.build(s.Tables())
		bars = aggregateBars(agg)
		opt = chart.Options{Title: agg.Title, Horizontal: agg.Horizontal, Width: v.Width, Height: 6}
	} else if m, found := strings.CutPrefix(name, "rfm-"); found {
		metric, ok := rfm.ParseMetric(m)
		if !ok {
			http.NotFound(w, r)
			return
		}
		res, err := s.RFM()
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			s.logger.Error("rfm calculation failed", "error", err)
			return
		}
		bars = rfmBars(res, metric, s.topN)
		opt = rfmChartOptions(metric, s.topN)
	} else {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, bars, opt, format); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.logger.Error("chart render failed", "chart", name, "error", err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	v, ok := lookupView(chi.URLParam(r, "view"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if v.build == nil {
		s.handleAPIRFM(w, r)
		return
	}
	s.writeJSON(w, v.build(s.Tables()))
}

type rfmPayload struct {
	*rfm.Result
	Averages map[rfm.Metric]float64 `json:"averages"`
	Segments []rfm.SegmentCount     `json:"segments"`
}

func (s *Server) handleAPIRFM(w http.ResponseWriter, r *http.Request) {
	res, err := s.RFM()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.logger.Error("rfm calculation failed", "error", err)
		return
	}
	avg := make(map[rfm.Metric]float64, len(rfm.Metrics))
	for _, m := range rfm.Metrics {
		avg[m] = res.Average(m)
	}
	s.writeJSON(w, rfmPayload{Result: res, Averages: avg, Segments: res.Segments()})
}

type tableInfo struct {
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	Fingerprint string `json:"fingerprint"`
}

type datasetInfo struct {
	LoadID   string         `json:"load_id"`
	LoadedAt time.Time      `json:"loaded_at"`
	Source   string         `json:"source"`
	Tables   []tableInfo    `json:"tables"`
	Cache    rfm.CacheStats `json:"rfm_cache"`
}

func (s *Server) datasetInfo(t *dataset.Tables) datasetInfo {
	counts := t.Counts()
	info := datasetInfo{
		LoadID:   t.LoadID,
		LoadedAt: t.LoadedAt,
		Source:   t.Source,
		Cache:    s.cache.Stats(),
	}
	for _, name := range dataset.TableNames {
		info.Tables = append(info.Tables, tableInfo{Name: name, Rows: counts[name], Fingerprint: t.Fingerprint(name)})
	}
	return info
}

func (s *Server) handleAPIDataset(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.datasetInfo(s.Tables()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	t, err := s.Reload(r.Context())
	if err != nil {
		http.Error(w, "reload failed", http.StatusInternalServerError)
		s.logger.Error("reload failed", "error", err)
		return
	}
	s.writeJSON(w, s.datasetInfo(t))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encode error", "error", err)
	}
}
