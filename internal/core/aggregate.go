package core

import (
	"sort"
	"time"
)

// Totals summarizes a transaction list. Balance is always income minus
// expense; an empty list yields all zeros.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
}

// DailyBucket holds per-type sums for one calendar day. Day is the bucket's
// date truncated to midnight; it is the zero time for the Invalid Date
// bucket.
type DailyBucket struct {
	Day     time.Time
	Label   string
	Income  Money
	Expense Money
}

// CategorySum is one slice of the category distribution. Type records the
// last type seen for the category and is informational only.
type CategorySum struct {
	Name   string
	Amount Money
	Type   TransactionType
}

// Summarize computes totals in one pass. Pure: aggregating the same list
// twice yields identical results.
func Summarize(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income.Rupiah += tx.Amount.Rupiah
		case Expense:
			t.Expense.Rupiah += tx.Amount.Rupiah
		}
	}
	t.Balance.Rupiah = t.Income.Rupiah - t.Expense.Rupiah
	return t
}

// DailySeries groups transactions into one bucket per distinct calendar day,
// keyed by the localized display date. Days with no transactions produce no
// bucket. Buckets are sorted ascending by day (the Invalid Date bucket,
// having the zero time, sorts first) and when more than n exist only the
// most recent n are kept. n <= 0 keeps everything.
func DailySeries(txs []Transaction, n int) []DailyBucket {
	byLabel := make(map[string]int)
	var buckets []DailyBucket
	for _, tx := range txs {
		label := DisplayDate(tx.Date)
		i, ok := byLabel[label]
		if !ok {
			var day time.Time
			if !tx.Date.IsZero() {
				y, m, d := tx.Date.Date()
				day = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			}
			i = len(buckets)
			byLabel[label] = i
			buckets = append(buckets, DailyBucket{Day: day, Label: label})
		}
		switch tx.Type {
		case Income:
			buckets[i].Income.Rupiah += tx.Amount.Rupiah
		case Expense:
			buckets[i].Expense.Rupiah += tx.Amount.Rupiah
		}
	}
	sort.SliceStable(buckets, func(a, b int) bool {
		return buckets[a].Day.Before(buckets[b].Day)
	})
	if n > 0 && len(buckets) > n {
		buckets = buckets[len(buckets)-n:]
	}
	return buckets
}

// CategoryDistribution sums amounts per category string (the category alone
// is the grouping key, regardless of type), sorts descending by sum and
// keeps the top k. Ties keep encounter order. k <= 0 keeps everything.
func CategoryDistribution(txs []Transaction, k int) []CategorySum {
	byName := make(map[string]int)
	var sums []CategorySum
	for _, tx := range txs {
		i, ok := byName[tx.Category]
		if !ok {
			i = len(sums)
			byName[tx.Category] = i
			sums = append(sums, CategorySum{Name: tx.Category})
		}
		sums[i].Amount.Rupiah += tx.Amount.Rupiah
		sums[i].Type = tx.Type
	}
	sort.SliceStable(sums, func(a, b int) bool {
		return sums[a].Amount.Rupiah > sums[b].Amount.Rupiah
	})
	if k > 0 && len(sums) > k {
		sums = sums[:k]
	}
	return sums
}
