// Package report turns an already-filtered transaction list plus
// precomputed totals into export artifacts. Formatters are pure
// presentational transforms: they never re-fetch or re-filter, so an export
// always matches the figures shown at the moment it was requested.
package report

import (
	"fmt"
	"time"

	"bendahara/internal/core"
)

// Sheet and document labels.
const (
	Title        = "Laporan Keuangan"
	SummarySheet = "Ringkasan"
)

// Period is the inclusive reporting date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// Label is the human-readable period subtitle ("1/5/2024 - 31/5/2024").
func (p Period) Label() string {
	return core.ShortDate(p.Start) + " - " + core.ShortDate(p.End)
}

// FilenameXLSX encodes the period bounds in sortable ISO date form.
func (p Period) FilenameXLSX() string {
	return p.filename("xlsx")
}

func (p Period) FilenamePDF() string {
	return p.filename("pdf")
}

func (p Period) filename(ext string) string {
	return fmt.Sprintf("Laporan_Keuangan_%s_%s.%s",
		p.Start.UTC().Format("2006-01-02"), p.End.UTC().Format("2006-01-02"), ext)
}

// row is one five-column table line shared by both formats.
type row struct {
	Date        string
	Type        string
	Category    string
	Description string
	Amount      int64
}

func tableRows(txs []core.Transaction) []row {
	rows := make([]row, len(txs))
	for i, t := range txs {
		rows[i] = row{
			Date:        core.ShortDate(t.Date),
			Type:        t.Type.Label(),
			Category:    t.Category,
			Description: t.Description,
			Amount:      t.Amount.Rupiah,
		}
	}
	return rows
}

func formatRupiah(n int64) string {
	return fmt.Sprintf("Rp %d", n)
}
