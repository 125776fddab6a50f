package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"bendahara/internal/core"
)

func testPeriod() Period {
	return Period{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func testData() ([]core.Transaction, core.Totals) {
	txs := []core.Transaction{
		{
			Type:        core.Income,
			Category:    "Sponsor",
			Amount:      core.Money{Rupiah: 100000},
			Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			Description: "Sponsor utama",
			UserID:      "u1",
		},
		{
			Type:        core.Expense,
			Category:    "Konsumsi",
			Amount:      core.Money{Rupiah: 25000},
			Date:        time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
			Description: "Nasi bungkus panitia",
			UserID:      "u1",
		},
	}
	return txs, core.Summarize(txs)
}

func TestPeriodLabelAndFilenames(t *testing.T) {
	p := testPeriod()
	if got := p.Label(); got != "1/1/2024 - 31/1/2024" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := p.FilenameXLSX(); got != "Laporan_Keuangan_2024-01-01_2024-01-31.xlsx" {
		t.Fatalf("unexpected xlsx filename %q", got)
	}
	if got := p.FilenamePDF(); got != "Laporan_Keuangan_2024-01-01_2024-01-31.pdf" {
		t.Fatalf("unexpected pdf filename %q", got)
	}
}

func TestWorkbook(t *testing.T) {
	txs, totals := testData()
	b, err := Workbook(txs, testPeriod(), totals)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != Title || sheets[1] != SummarySheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(Title)
	if err != nil {
		t.Fatalf("read report sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "Pemasukan" || rows[1][2] != "Sponsor" || rows[1][4] != "100000" {
		t.Fatalf("unexpected first row %v", rows[1])
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("read summary sheet: %v", err)
	}
	if summary[1][1] != "1/1/2024 - 31/1/2024" {
		t.Fatalf("unexpected period cell %q", summary[1][1])
	}
	if summary[2][1] != "100000" || summary[3][1] != "25000" || summary[4][1] != "75000" {
		t.Fatalf("unexpected totals %v", summary)
	}
}

func TestWorkbookEmpty(t *testing.T) {
	b, err := Workbook(nil, testPeriod(), core.Summarize(nil))
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(Title)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestDocument(t *testing.T) {
	txs, totals := testData()
	b, err := Document(txs, testPeriod(), totals)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	if len(b) < 500 {
		t.Fatalf("suspiciously small document: %d bytes", len(b))
	}
}
