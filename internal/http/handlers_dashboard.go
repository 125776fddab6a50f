package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bendahara/internal/core"
	"bendahara/internal/storage"
)

// Lookback windows per timeframe.
const (
	timeframeDaily   = "daily"
	timeframeWeekly  = "weekly"
	timeframeMonthly = "monthly"

	dailyBucketCount = 7
	topCategoryCount = 6
	recentCount      = 5
)

type dailyBucketView struct {
	Label   string `json:"label"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

type categorySumView struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
}

type dashboardView struct {
	Timeframe  string            `json:"timeframe"`
	Totals     totalsView        `json:"totals"`
	Daily      []dailyBucketView `json:"daily"`
	Categories []categorySumView `json:"categories"`
	Recent     []transactionView `json:"recent"`
}

func lookback(timeframe string) (time.Duration, bool) {
	switch timeframe {
	case timeframeDaily:
		return 7 * 24 * time.Hour, true
	case timeframeWeekly:
		return 30 * 24 * time.Hour, true
	case timeframeMonthly:
		return 90 * 24 * time.Hour, true
	}
	return 0, false
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	owner, ok := s.identity(w, r)
	if !ok {
		return
	}

	timeframe := strings.TrimSpace(r.URL.Query().Get("timeframe"))
	if timeframe == "" {
		timeframe = timeframeWeekly
	}
	window, ok := lookback(timeframe)
	if !ok {
		writeError(w, http.StatusBadRequest, "Timeframe tidak dikenal")
		return
	}

	// The generation in the key ties the entry to the owner's write count
	// at request time. A write between issue and completion bumps the
	// generation, so a slow stale response lands under a dead key instead
	// of overwriting fresher figures.
	key := fmt.Sprintf("%s|%s|%d", owner.UID, timeframe, s.dashGen.Current(owner.UID))

	if view, found := s.dashCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "owner", owner.UID, "timeframe", timeframe)
		writeJSON(w, http.StatusOK, view)
		return
	}

	result, err, _ := s.dashGroup.Do(key, func() (any, error) {
		view, err := s.buildDashboard(r.Context(), owner.UID, timeframe, window)
		if err != nil {
			return dashboardView{}, err
		}
		s.dashCache.Set(key, view)
		return view, nil
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard build failed", "error", err, "owner", owner.UID, "timeframe", timeframe)
		writeError(w, http.StatusInternalServerError, "Gagal memuat dasbor")
		return
	}

	writeJSON(w, http.StatusOK, result.(dashboardView))
}

func (s *Server) buildDashboard(ctx context.Context, ownerID, timeframe string, window time.Duration) (dashboardView, error) {
	now := time.Now().UTC()
	spec := storage.QuerySpec{
		StartISO: core.ISOTime(now.Add(-window)),
		EndISO:   core.ISOTime(now),
	}

	txs, _, err := s.store.Query(ctx, ownerID, spec)
	if err != nil {
		return dashboardView{}, fmt.Errorf("dashboard query: %w", err)
	}

	view := dashboardView{
		Timeframe: timeframe,
		Totals:    totalsOf(core.Summarize(txs)),
	}

	for _, b := range core.DailySeries(txs, dailyBucketCount) {
		view.Daily = append(view.Daily, dailyBucketView{
			Label:   b.Label,
			Income:  b.Income.Rupiah,
			Expense: b.Expense.Rupiah,
		})
	}
	for _, c := range core.CategoryDistribution(txs, topCategoryCount) {
		view.Categories = append(view.Categories, categorySumView{
			Name:   c.Name,
			Amount: c.Amount.Rupiah,
			Type:   string(c.Type),
		})
	}

	// Query returns newest first, so the head of the page is the recent list.
	recent := txs
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	view.Recent = viewsOf(recent)

	return view, nil
}
