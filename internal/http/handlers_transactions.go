package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bendahara/internal/core"
	"bendahara/internal/storage"
)

const defaultPageSize = 50

type createTransactionRequest struct {
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Format permintaan tidak valid")
		return
	}

	// Validate the raw input before parsing: ParseAmount strips every
	// non-digit rune, so a sign would otherwise vanish silently.
	rawAmount := req.Amount.String()
	if !core.ValidateAmount(rawAmount) {
		writeError(w, http.StatusUnprocessableEntity, "Jumlah harus lebih dari 0 dan kurang dari 1 miliar")
		return
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Jumlah harus lebih dari 0 dan kurang dari 1 miliar")
		return
	}

	date := core.ParseISOTime(strings.TrimSpace(req.Date))
	if date.IsZero() {
		date = time.Now().UTC()
	}

	t := core.Transaction{
		Type:        core.TransactionType(strings.TrimSpace(req.Type)),
		Category:    core.Sanitize(req.Category),
		Amount:      amount,
		Date:        date,
		Description: core.Sanitize(req.Description),
	}

	id, err := s.txs.Create(r.Context(), owner, t)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidType):
			writeError(w, http.StatusUnprocessableEntity, "Tipe transaksi tidak valid")
		case errors.Is(err, core.ErrInvalidAmount):
			writeError(w, http.StatusUnprocessableEntity, "Jumlah harus lebih dari 0 dan kurang dari 1 miliar")
		case errors.Is(err, core.ErrInvalidCategory):
			writeError(w, http.StatusUnprocessableEntity, "Kategori harus 2-30 karakter")
		case errors.Is(err, core.ErrInvalidDescription):
			writeError(w, http.StatusUnprocessableEntity, "Keterangan harus 3-100 karakter")
		case errors.Is(err, core.ErrInvalidDate):
			writeError(w, http.StatusUnprocessableEntity, "Tanggal tidak valid")
		default:
			slog.ErrorContext(r.Context(), "Create transaction failed", "error", err, "owner", owner.UID)
			writeError(w, http.StatusInternalServerError, "Gagal menambahkan transaksi. Silakan coba lagi.")
		}
		return
	}

	// New figures exist now; anything cached for this owner is stale.
	s.dashGen.Bump(owner.UID)

	t.ID = id
	t.UserID = owner.UID
	writeJSON(w, http.StatusCreated, viewOf(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	startISO, endISO := parseRange(r)

	limit := defaultPageSize
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	spec := storage.QuerySpec{
		StartISO: startISO,
		EndISO:   endISO,
		Limit:    limit,
		Cursor:   strings.TrimSpace(q.Get("cursor")),
	}

	txs, nextCursor, err := s.store.Query(r.Context(), owner.UID, spec)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err, "owner", owner.UID)
		writeError(w, http.StatusInternalServerError, "Gagal memuat transaksi")
		return
	}

	// Type, search, and exact-day predicates refine the fetched page.
	filter := core.Filter{
		Type:   strings.TrimSpace(q.Get("type")),
		Search: strings.TrimSpace(q.Get("q")),
	}
	if v := strings.TrimSpace(q.Get("day")); v != "" {
		if d, ok := parseDayOrTime(v); ok {
			filter.Day = d
		}
	}
	txs = filter.Apply(txs)

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": viewsOf(txs),
		"next_cursor":  nextCursor,
	})
}
