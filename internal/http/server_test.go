package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bendahara/internal/auth"
	"bendahara/internal/services"
	"bendahara/internal/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	authSvc := auth.NewService(repo, time.Hour)
	txs := services.NewTransactionService(repo, nil)
	srv := NewServer(":0", repo, authSvc, txs)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func loginAs(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": "rahasia123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "rahasia123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	decodeBody(t, rr, &out)
	if out.Token == "" {
		t.Fatal("login returned empty token")
	}
	return out.Token
}

func createTransaction(t *testing.T, srv *Server, token, typ, category, date string, amount int64) {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        typ,
		"category":    category,
		"amount":      amount,
		"date":        date,
		"description": "catatan " + category,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "bendahara@example.com")

	// Duplicate email conflicts.
	rr := doJSON(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"email": "bendahara@example.com", "password": "rahasia123",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register status=%d", rr.Code)
	}

	// Wrong password is a generic 401.
	rr = doJSON(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "bendahara@example.com", "password": "salah",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d", rr.Code)
	}

	// Valid token reaches protected routes.
	rr = doJSON(t, srv, http.MethodGet, "/api/categories", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("categories status=%d", rr.Code)
	}
	var cats map[string][]string
	decodeBody(t, rr, &cats)
	if len(cats["income"]) == 0 || len(cats["expense"]) == 0 {
		t.Fatalf("categories missing suggestions: %v", cats)
	}

	// Missing and bogus tokens are rejected.
	for _, tok := range []string{"", "bukan-token"} {
		rr = doJSON(t, srv, http.MethodGet, "/api/transactions", tok, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("token %q status=%d", tok, rr.Code)
		}
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "kasir@example.com")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{"type": "income", "category": "Sponsor", "amount": 0, "description": "catatan valid"}},
		{"negative amount", map[string]any{"type": "expense", "category": "Konsumsi", "amount": -5000, "description": "catatan valid"}},
		{"amount at cap", map[string]any{"type": "income", "category": "Sponsor", "amount": 1_000_000_000, "description": "catatan valid"}},
		{"short description", map[string]any{"type": "income", "category": "Sponsor", "amount": 5000, "description": "ab"}},
		{"short category", map[string]any{"type": "income", "category": "S", "amount": 5000, "description": "catatan valid"}},
		{"unknown type", map[string]any{"type": "transfer", "category": "Sponsor", "amount": 5000, "description": "catatan valid"}},
	}
	for _, tc := range cases {
		rr := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tc.body)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status=%d body=%s", tc.name, rr.Code, rr.Body.String())
		}
	}

	// Nothing invalid may have been stored.
	rr := doJSON(t, srv, http.MethodGet, "/api/transactions", token, nil)
	var out struct {
		Transactions []transactionView `json:"transactions"`
	}
	decodeBody(t, rr, &out)
	if len(out.Transactions) != 0 {
		t.Fatalf("invalid writes reached the store: %d records", len(out.Transactions))
	}
}

func TestListTransactionsWithFilters(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "panitia@example.com")

	createTransaction(t, srv, token, "income", "Pendaftaran", "2024-05-01T09:00:00.000Z", 250_000)
	createTransaction(t, srv, token, "expense", "Beli Kopi", "2024-05-02T10:00:00.000Z", 40_000)
	createTransaction(t, srv, token, "income", "Sponsor", "2024-05-03T11:00:00.000Z", 500_000)

	// Unfiltered list, newest first.
	rr := doJSON(t, srv, http.MethodGet, "/api/transactions", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	var out struct {
		Transactions []transactionView `json:"transactions"`
		NextCursor   string            `json:"next_cursor"`
	}
	decodeBody(t, rr, &out)
	if len(out.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(out.Transactions))
	}
	if out.Transactions[0].Category != "Sponsor" {
		t.Fatalf("expected newest first, got %q", out.Transactions[0].Category)
	}

	// Type filter.
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?type=income", token, nil)
	decodeBody(t, rr, &out)
	if len(out.Transactions) != 2 {
		t.Fatalf("type filter: expected 2, got %d", len(out.Transactions))
	}

	// Search matches category case-insensitively.
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?q=kopi", token, nil)
	decodeBody(t, rr, &out)
	if len(out.Transactions) != 1 || out.Transactions[0].Category != "Beli Kopi" {
		t.Fatalf("search filter: got %+v", out.Transactions)
	}

	// Inclusive date range.
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?start=2024-05-01&end=2024-05-02", token, nil)
	decodeBody(t, rr, &out)
	if len(out.Transactions) != 2 {
		t.Fatalf("range filter: expected 2, got %d", len(out.Transactions))
	}

	// Exact day.
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?day=2024-05-02", token, nil)
	decodeBody(t, rr, &out)
	if len(out.Transactions) != 1 || out.Transactions[0].Category != "Beli Kopi" {
		t.Fatalf("day filter: got %+v", out.Transactions)
	}

	// Another owner sees nothing.
	other := loginAs(t, srv, "lain@example.com")
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", other, nil)
	decodeBody(t, rr, &out)
	if len(out.Transactions) != 0 {
		t.Fatalf("owner scoping leaked %d transactions", len(out.Transactions))
	}
}

func TestListTransactionsPagination(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "arsip@example.com")

	for i := 1; i <= 5; i++ {
		date := fmt.Sprintf("2024-06-%02dT08:00:00.000Z", i)
		createTransaction(t, srv, token, "income", "Donasi", date, int64(i)*10_000)
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		path := "/api/transactions?limit=2"
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		rr := doJSON(t, srv, http.MethodGet, path, token, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("page status=%d", rr.Code)
		}
		var out struct {
			Transactions []transactionView `json:"transactions"`
			NextCursor   string            `json:"next_cursor"`
		}
		decodeBody(t, rr, &out)
		for _, tx := range out.Transactions {
			if seen[tx.ID] {
				t.Fatalf("duplicate record %s across pages", tx.ID)
			}
			seen[tx.ID] = true
		}
		pages++
		if out.NextCursor == "" {
			break
		}
		cursor = out.NextCursor
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 records across pages, got %d", len(seen))
	}
	if pages != 3 {
		t.Fatalf("expected 3 pages, got %d", pages)
	}
}

func TestDashboard(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "dasbor@example.com")

	now := time.Now().UTC()
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02T15:04:05.000Z")
	}
	createTransaction(t, srv, token, "income", "Pendaftaran", day(-1), 100_000)
	createTransaction(t, srv, token, "expense", "Konsumsi", day(-1), 30_000)
	createTransaction(t, srv, token, "income", "Sponsor", day(0), 50_000)

	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard?timeframe=daily", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body.String())
	}
	var view dashboardView
	decodeBody(t, rr, &view)

	if view.Totals.Income != 150_000 || view.Totals.Expense != 30_000 || view.Totals.Balance != 120_000 {
		t.Fatalf("totals mismatch: %+v", view.Totals)
	}
	if len(view.Daily) != 2 {
		t.Fatalf("expected 2 daily buckets, got %d", len(view.Daily))
	}
	if len(view.Categories) != 3 {
		t.Fatalf("expected 3 category slices, got %d", len(view.Categories))
	}
	if len(view.Recent) != 3 {
		t.Fatalf("expected 3 recent transactions, got %d", len(view.Recent))
	}

	// Omitted timeframe defaults to weekly.
	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("default dashboard status=%d", rr.Code)
	}
	var def dashboardView
	decodeBody(t, rr, &def)
	if def.Timeframe != "weekly" {
		t.Fatalf("default timeframe %q, want weekly", def.Timeframe)
	}

	// Unknown timeframe is rejected.
	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard?timeframe=yearly", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown timeframe status=%d", rr.Code)
	}
}

func TestDashboardReflectsWritesImmediately(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "segar@example.com")

	nowISO := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	createTransaction(t, srv, token, "income", "Donasi", nowISO, 10_000)

	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard?timeframe=daily", token, nil)
	var before dashboardView
	decodeBody(t, rr, &before)
	if before.Totals.Income != 10_000 {
		t.Fatalf("initial income=%d", before.Totals.Income)
	}

	// A write must defeat the cached view.
	createTransaction(t, srv, token, "income", "Donasi", nowISO, 5_000)

	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard?timeframe=daily", token, nil)
	var after dashboardView
	decodeBody(t, rr, &after)
	if after.Totals.Income != 15_000 {
		t.Fatalf("dashboard served stale figures: income=%d", after.Totals.Income)
	}
}

func TestReportAndExports(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "laporan@example.com")

	createTransaction(t, srv, token, "income", "Sponsor", "2024-05-10T09:00:00.000Z", 300_000)
	createTransaction(t, srv, token, "expense", "Bayar Wasit", "2024-05-11T09:00:00.000Z", 120_000)

	rr := doJSON(t, srv, http.MethodGet, "/api/reports?start=2024-05-01&end=2024-05-31", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("report status=%d", rr.Code)
	}
	var out struct {
		Period       string            `json:"period"`
		Totals       totalsView        `json:"totals"`
		Transactions []transactionView `json:"transactions"`
	}
	decodeBody(t, rr, &out)
	if out.Totals.Income != 300_000 || out.Totals.Expense != 120_000 || out.Totals.Balance != 180_000 {
		t.Fatalf("report totals mismatch: %+v", out.Totals)
	}
	if len(out.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(out.Transactions))
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/reports/export.xlsx?start=2024-05-01&end=2024-05-31", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("xlsx status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != xlsxContentType {
		t.Fatalf("xlsx content type %q", got)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "Laporan_Keuangan_2024-05-01_2024-05-31.xlsx") {
		t.Fatalf("xlsx disposition %q", cd)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("xlsx body empty")
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/reports/export.pdf?start=2024-05-01&end=2024-05-31", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("pdf status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("pdf content type %q", got)
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("pdf body does not start with magic bytes")
	}
}

func TestMethodChecks(t *testing.T) {
	srv := testServer(t)
	token := loginAs(t, srv, "metode@example.com")

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/register"},
		{http.MethodGet, "/api/login"},
		{http.MethodDelete, "/api/transactions"},
		{http.MethodPost, "/api/dashboard"},
		{http.MethodPost, "/api/reports"},
		{http.MethodPost, "/api/reports/export.xlsx"},
		{http.MethodPost, "/api/reports/export.pdf"},
	}
	for _, tc := range cases {
		rr := doJSON(t, srv, tc.method, tc.path, token, nil)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status=%d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly limited", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("61st request within a minute should be limited")
	}
	// Other clients are unaffected.
	if !rl.allow("10.0.0.2") {
		t.Fatal("separate client should not be limited")
	}
}

func TestLRUCacheEvictionAndTTL(t *testing.T) {
	c := newLRUCache[int](2, 50*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts a

	if _, found := c.Get("a"); found {
		t.Fatal("oldest entry should have been evicted")
	}
	if v, found := c.Get("c"); !found || v != 3 {
		t.Fatalf("expected c=3, got %d found=%v", v, found)
	}

	time.Sleep(60 * time.Millisecond)
	if _, found := c.Get("c"); found {
		t.Fatal("expired entry should not be served")
	}
	if cleaned := c.CleanExpired(); cleaned != 1 {
		t.Fatalf("expected 1 expired entry cleaned, got %d", cleaned)
	}
}
