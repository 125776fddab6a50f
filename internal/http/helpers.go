package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bendahara/internal/auth"
	"bendahara/internal/core"
)

type transactionView struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	TypeLabel   string `json:"type_label"`
	Category    string `json:"category"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
	DateDisplay string `json:"date_display"`
	Description string `json:"description"`
}

type totalsView struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

func viewOf(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        string(t.Type),
		TypeLabel:   t.Type.Label(),
		Category:    t.Category,
		Amount:      t.Amount.Rupiah,
		Date:        core.ISOTime(t.Date),
		DateDisplay: core.DisplayDate(t.Date),
		Description: t.Description,
	}
}

func viewsOf(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, viewOf(t))
	}
	return out
}

func totalsOf(t core.Totals) totalsView {
	return totalsView{Income: t.Income.Rupiah, Expense: t.Expense.Rupiah, Balance: t.Balance.Rupiah}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "Metode tidak diizinkan")
}

// identity resolves the bearer token to an owner identity, writing a 401
// and returning false when the request carries no valid session.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Sesi tidak ditemukan. Silakan masuk kembali.")
		return auth.Identity{}, false
	}
	id, err := s.auth.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Sesi berakhir. Silakan masuk kembali.")
		return auth.Identity{}, false
	}
	return id, true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// parseRange reads start/end query parameters. Dates may be given as plain
// calendar days or full timestamps; a day-only end bound is widened to the
// end of that day so the range stays inclusive.
func parseRange(r *http.Request) (startISO, endISO string) {
	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		if t, ok := parseDayOrTime(v); ok {
			startISO = core.ISOTime(t)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		if t, ok := parseDayOrTime(v); ok {
			if len(v) == len("2006-01-02") {
				t = t.Add(24*time.Hour - time.Millisecond)
			}
			endISO = core.ISOTime(t)
		}
	}
	return startISO, endISO
}

func parseDayOrTime(v string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
