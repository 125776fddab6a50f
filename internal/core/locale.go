package core

import (
	"fmt"
	"time"
)

// InvalidDateLabel is the bucket label produced for records whose date could
// not be parsed. Grouping must keep working for the remaining valid records.
const InvalidDateLabel = "Invalid Date"

var (
	weekdayNames = [7]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
	monthNames   = [12]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
)

// DisplayDate renders a date the way the dashboard shows it: full Indonesian
// weekday, day of month, month name and year ("Senin, 2 Januari 2006").
func DisplayDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDateLabel
	}
	return fmt.Sprintf("%s, %d %s %d",
		weekdayNames[int(t.Weekday())], t.Day(), monthNames[int(t.Month())-1], t.Year())
}

// ShortDate renders a date in the compact d/m/yyyy form used in report rows
// and period labels.
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDateLabel
	}
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

// ISOTime renders a timestamp as zero-padded UTC ISO-8601. Range filters
// compare these strings directly, which is only sound because every bound
// and every stored date uses this exact representation.
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ParseISOTime accepts the stored ISO form plus common RFC 3339 variants.
// The zero time is returned for anything unparseable; downstream grouping
// turns that into the Invalid Date bucket instead of failing.
func ParseISOTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02T15:04:05.000Z",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
