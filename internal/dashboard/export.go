package dashboard

import (
	"bytes"
	"net/http"

	"tokodash/internal/export"
)

func (s *Server) handleExportRFM(w http.ResponseWriter, r *http.Request) {
	res, err := s.RFM()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.logger.Error("rfm calculation failed", "error", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, res); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		s.logger.Error("export failed", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="rfm.xlsx"`)
	_, _ = buf.WriteTo(w)
}
