package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"bendahara/internal/core"
)

// Document renders the single-section A4 PDF artifact: title, period
// subtitle, a three-line summary block, then the five-column transaction
// table. Pagination beyond what the layout engine does itself is not
// attempted.
func Document(txs []core.Transaction, p Period, totals core.Totals) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Periode: "+p.Label(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Total Pemasukan: "+formatRupiah(totals.Income.Rupiah), "", 1, "L", true, 0, "")
	pdf.CellFormat(0, 7, "Total Pengeluaran: "+formatRupiah(totals.Expense.Rupiah), "", 1, "L", true, 0, "")
	pdf.CellFormat(0, 7, "Saldo: "+formatRupiah(totals.Balance.Rupiah), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	widths := [5]float64{30, 25, 35, 55, 35}
	headers := [5]string{"Tanggal", "Tipe", "Kategori", "Keterangan", "Jumlah"}

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range tableRows(txs) {
		sign := "+"
		if r.Type == core.Expense.Label() {
			sign = "-"
		}
		cells := [5]string{r.Date, r.Type, r.Category, r.Description, sign + " " + formatRupiah(r.Amount)}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return buf.Bytes(), nil
}
