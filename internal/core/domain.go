package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// MaxAmount is the exclusive upper bound for a transaction amount (1 miliar rupiah).
const MaxAmount int64 = 1_000_000_000

type (
	TransactionType string

	Money struct {
		Rupiah int64
	}

	// Transaction is a single treasury movement. Records are immutable once
	// created: the lifecycle is create, then read forever.
	Transaction struct {
		ID          string
		Type        TransactionType
		Category    string
		Amount      Money
		Date        time.Time // when the transaction occurred, not when it was recorded
		Description string
		UserID      string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDescription = errors.New("invalid description (3-100 characters)")
	ErrInvalidCategory    = errors.New("invalid category (2-30 characters)")
	ErrInvalidDate        = errors.New("invalid date")
	ErrMissingOwner       = errors.New("missing owner identity")
)

// Suggested category lists per type. These seed the client's pickers; the
// store accepts any category string that passes length validation.
var (
	IncomeCategories = []string{
		"Pendaftaran",
		"Sponsor",
		"Donasi",
		"Kopi Kopji",
		"Tiket dan Parkir",
		"Iuran Warung",
		"Kartu Merah Dan Kuning",
		"Lainnya",
	}
	ExpenseCategories = []string{
		"Beli Kopi",
		"Operasional",
		"Perlengkapan",
		"Konsumsi",
		"Transportasi",
		"Izin Keramaian",
		"Keamanan Harian",
		"Bayar Wasit",
		"Bayar Warung",
		"Bayar Anak Gawang",
		"Lainnya",
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Label returns the localized display label for the type.
func (t TransactionType) Label() string {
	if t == Income {
		return "Pemasukan"
	}
	return "Pengeluaran"
}

// SuggestedCategories returns the category list offered for a type.
func SuggestedCategories(t TransactionType) []string {
	if t == Income {
		return append([]string(nil), IncomeCategories...)
	}
	return append([]string(nil), ExpenseCategories...)
}

func (m Money) Validate() error {
	if m.Rupiah <= 0 || m.Rupiah >= MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateAmount reports whether a raw amount string is a number in the
// open interval (0, 1_000_000_000).
func ValidateAmount(s string) bool {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	return n > 0 && n < float64(MaxAmount)
}

// ParseAmount strips every non-digit rune and parses the remainder as whole
// rupiah, so formatted input like "50.000" is accepted.
func ParseAmount(s string) (Money, error) {
	digits := strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, s)
	if digits == "" {
		return Money{}, ErrInvalidAmount
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Rupiah: n}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func ValidateDescription(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 3 && n <= 100
}

func ValidateCategory(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 2 && n <= 30
}

// Sanitize trims whitespace and strips angle brackets from free-text input.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, s)
}

// Validate checks every client-side invariant before a write is attempted.
// Validation failures must never reach the store.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !ValidateCategory(t.Category) {
		return ErrInvalidCategory
	}
	if !ValidateDescription(t.Description) {
		return ErrInvalidDescription
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingOwner
	}
	return nil
}
