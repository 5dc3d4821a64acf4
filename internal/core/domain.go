package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Category is a spending category from the fixed taxonomy.
type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Groceries     Category = "Groceries"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Bills         Category = "Bills"
	Health        Category = "Health"
	// Errand marks purchases fronted on behalf of someone who will reimburse
	// the user ("under mom", "paid by mom", "claim from mom"). A purchase made
	// FOR someone at the user's own cost keeps its normal category instead.
	Errand Category = "Errand"
	Others Category = "Others"
)

// Taxonomy lists every valid category in presentation order. Storage and the
// extraction prompt expose this order; matching itself is order-independent.
var Taxonomy = []Category{
	Food,
	Transport,
	Groceries,
	Shopping,
	Entertainment,
	Bills,
	Health,
	Errand,
	Others,
}

type (
	// Date is the calendar date an expense originated, derived from the
	// message timestamp rather than processing time.
	Date struct {
		time.Time
	}

	// Expense is one normalized expense record. It is built once per inbound
	// message and never mutated afterwards.
	Expense struct {
		Date     Date
		Name     string
		Category Category
		Amount   float64
	}
)

var (
	ErrEmptyName       = errors.New("empty expense name")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrUnknownCategory = errors.New("category not in taxonomy")
	ErrZeroDate        = errors.New("date cannot be zero")
)

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String renders the date as dd/mm/yyyy, zero-padded with a four-digit year.
func (d Date) String() string {
	return d.Format("02/01/2006")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// IsValid reports whether c is a member of the taxonomy.
func (c Category) IsValid() bool {
	for _, t := range Taxonomy {
		if c == t {
			return true
		}
	}
	return false
}

// NormalizeCategory maps an arbitrary string onto the taxonomy. Matching is
// case-insensitive after trimming; anything unrecognized becomes Others so an
// arbitrary free-text value never reaches storage.
func NormalizeCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, t := range Taxonomy {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return Others
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)
	}
	if e.Amount < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeAmount, e.Amount)
	}
	return nil
}

// TitleCase capitalizes the first letter of each space-separated word and
// lowercases the rest ("chicken rice" -> "Chicken Rice").
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// FormatAmount renders an amount with exactly two decimals for user-facing
// output. Storage keeps the full value.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
