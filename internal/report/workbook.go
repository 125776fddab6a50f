package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"bendahara/internal/core"
)

// Workbook renders the two-sheet XLSX artifact: one row per transaction on
// the report sheet, then a summary sheet with the period label and totals.
// Rendering is all-or-nothing: bytes are returned only on full success.
func Workbook(txs []core.Transaction, p Period, totals core.Totals) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Title); err != nil {
		return nil, fmt.Errorf("rename report sheet: %w", err)
	}

	header := []any{"Tanggal", "Tipe", "Kategori", "Keterangan", "Jumlah"}
	if err := f.SetSheetRow(Title, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, r := range tableRows(txs) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row coordinates: %w", err)
		}
		values := []any{r.Date, r.Type, r.Category, r.Description, r.Amount}
		if err := f.SetSheetRow(Title, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Ringkasan Laporan"},
		{"Periode", p.Label()},
		{"Total Pemasukan", totals.Income.Rupiah},
		{"Total Pengeluaran", totals.Expense.Rupiah},
		{"Saldo", totals.Balance.Rupiah},
	}
	for i, line := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary coordinates: %w", err)
		}
		if err := f.SetSheetRow(SummarySheet, cell, &line); err != nil {
			return nil, fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
