package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bendahara/internal/core"
	"bendahara/internal/report"
	"bendahara/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportData fetches the owner's transactions for the requested period and
// applies the optional type filter. The period defaults to the current
// month so an unparameterized request still yields a meaningful report.
func (s *Server) reportData(r *http.Request, ownerID string) ([]core.Transaction, report.Period, core.Totals, error) {
	now := time.Now().UTC()
	period := report.Period{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   now,
	}

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		if t, ok := parseDayOrTime(v); ok {
			period.Start = t
		}
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		if t, ok := parseDayOrTime(v); ok {
			if len(v) == len("2006-01-02") {
				t = t.Add(24*time.Hour - time.Millisecond)
			}
			period.End = t
		}
	}

	spec := storage.QuerySpec{
		StartISO: core.ISOTime(period.Start),
		EndISO:   core.ISOTime(period.End),
	}
	txs, _, err := s.store.Query(r.Context(), ownerID, spec)
	if err != nil {
		return nil, report.Period{}, core.Totals{}, fmt.Errorf("report query: %w", err)
	}

	filter := core.Filter{Type: strings.TrimSpace(q.Get("type"))}
	txs = filter.Apply(txs)

	return txs, period, core.Summarize(txs), nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	owner, ok := s.identity(w, r)
	if !ok {
		return
	}

	txs, period, totals, err := s.reportData(r, owner.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report fetch failed", "error", err, "owner", owner.UID)
		writeError(w, http.StatusInternalServerError, "Gagal memuat laporan")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":       period.Label(),
		"start":        core.ISOTime(period.Start),
		"end":          core.ISOTime(period.End),
		"totals":       totalsOf(totals),
		"transactions": viewsOf(txs),
	})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	owner, ok := s.identity(w, r)
	if !ok {
		return
	}

	txs, period, totals, err := s.reportData(r, owner.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export fetch failed", "error", err, "owner", owner.UID)
		writeError(w, http.StatusInternalServerError, "Gagal membuat laporan")
		return
	}

	blob, err := report.Workbook(txs, period, totals)
	if err != nil {
		slog.ErrorContext(r.Context(), "Workbook build failed", "error", err, "owner", owner.UID)
		writeError(w, http.StatusInternalServerError, "Gagal membuat laporan")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+period.FilenameXLSX()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	owner, ok := s.identity(w, r)
	if !ok {
		return
	}

	txs, period, totals, err := s.reportData(r, owner.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export fetch failed", "error", err, "owner", owner.UID)
		writeError(w, http.StatusInternalServerError, "Gagal membuat laporan")
		return
	}

	blob, err := report.Document(txs, period, totals)
	if err != nil {
		slog.ErrorContext(r.Context(), "Document build failed", "error", err, "owner", owner.UID)
		writeError(w, http.StatusInternalServerError, "Gagal membuat laporan")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+period.FilenamePDF()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}
