package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	// Date is a calendar date; the time-of-day component is normalized away
	// so bucketing never depends on it.
	Date struct {
		time.Time
	}

	// Money is a positive amount in whole rupiah.
	Money struct {
		Units int64
	}

	Transaction struct {
		ID        string
		OwnerID   string
		Kind      Kind
		Category  string
		Amount    Money
		Note      string
		Date      Date
		CreatedAt time.Time
	}
)

// Category sets are fixed per kind; the order is the display order.
var (
	IncomeCategories = []string{
		"Salary", "Allowance", "Bonus", "Gift", "Asset Sale", "Incoming Transfer", "Other",
	}
	ExpenseCategories = []string{
		"Food", "Transport", "Shopping", "Entertainment", "Bills", "Education", "Health", "Other",
	}
)

var (
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidCategory = errors.New("category does not belong to kind")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrMissingOwner    = errors.New("missing owner id")
	ErrNoteTooLong     = errors.New("note too long (max 200 characters)")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Categories returns the category set for the kind, nil for an invalid kind.
func (k Kind) Categories() []string {
	switch k {
	case Income:
		return IncomeCategories
	case Expense:
		return ExpenseCategories
	}
	return nil
}

// ValidCategory reports whether name belongs to the kind's category set.
func (k Kind) ValidCategory(name string) bool {
	for _, c := range k.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Key returns the YYYY-MM-DD form used for storage and map keys.
func (d Date) Key() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date n calendar days later (negative n goes back).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(o Date) bool {
	return d.Year() == o.Year() && d.YearDay() == o.YearDay()
}

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrMissingOwner
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if !t.Kind.ValidCategory(t.Category) {
		return ErrInvalidCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Note) > 200 {
		return ErrNoteTooLong
	}
	return t.Date.Validate()
}

// Signed returns the amount with income positive and expense negative.
func (t Transaction) Signed() int64 {
	if t.Kind == Income {
		return t.Amount.Units
	}
	return -t.Amount.Units
}

// ValidationErr reports whether err belongs to the pre-store validation
// family, i.e. it must be surfaced to the user without touching the store.
func ValidationErr(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidKind),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrMissingOwner),
		errors.Is(err, ErrNoteTooLong),
		errors.Is(err, ErrInvalidFilter):
		return true
	}
	return false
}
