package core

import (
	"testing"
	"time"
)

func TestFilterKindValid(t *testing.T) {
	for _, k := range []FilterKind{FilterAll, FilterToday, FilterWeek, FilterMonth, FilterRange} {
		if !k.Valid() {
			t.Fatalf("%s should be valid", k)
		}
	}
	if FilterKind("yesterday").Valid() {
		t.Fatalf("unknown filter kind must be invalid")
	}
}

func TestFilterTransactions(t *testing.T) {
	ref := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx("u1", Expense, "Food", 1000, NewDate(2025, 3, 15)),
		tx("u1", Expense, "Transport", 2000, NewDate(2025, 3, 12)),
		tx("u1", Income, "Salary", 5000000, NewDate(2025, 3, 1)),
		tx("u1", Expense, "Bills", 3000, NewDate(2025, 2, 20)),
	}

	cases := []struct {
		name string
		f    Filter
		want int
	}{
		{"all", Filter{Kind: FilterAll}, 4},
		{"today", Filter{Kind: FilterToday}, 1},
		{"week", Filter{Kind: FilterWeek}, 2},
		{"month", Filter{Kind: FilterMonth}, 3},
		{"range both", Filter{Kind: FilterRange, Start: NewDate(2025, 3, 1), End: NewDate(2025, 3, 12)}, 2},
		{"range open end", Filter{Kind: FilterRange, Start: NewDate(2025, 3, 12)}, 2},
		{"range open start", Filter{Kind: FilterRange, End: NewDate(2025, 3, 1)}, 2},
		{"range empty bounds", Filter{Kind: FilterRange}, 4},
		{"range inverted", Filter{Kind: FilterRange, Start: NewDate(2025, 3, 12), End: NewDate(2025, 3, 1)}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterTransactions(txs, tc.f, ref)
			if len(got) != tc.want {
				t.Fatalf("got %d transactions, want %d", len(got), tc.want)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	ref := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx("u1", Expense, "Food", 1000, NewDate(2025, 3, 15)),
		tx("u1", Expense, "Transport", 2000, NewDate(2025, 3, 12)),
		tx("u1", Income, "Salary", 5000000, NewDate(2025, 3, 10)),
	}
	got := FilterTransactions(txs, Filter{Kind: FilterWeek}, ref)
	if len(got) != 3 {
		t.Fatalf("got %d, want 3", len(got))
	}
	for i := range got {
		if got[i].ID != txs[i].ID {
			t.Fatalf("order changed at %d: %s vs %s", i, got[i].ID, txs[i].ID)
		}
	}
}

func TestFilterRangeIsDayInclusive(t *testing.T) {
	ref := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{tx("u1", Expense, "Food", 1000, NewDate(2025, 3, 10))}

	f := Filter{Kind: FilterRange, Start: NewDate(2025, 3, 10), End: NewDate(2025, 3, 10)}
	if got := FilterTransactions(txs, f, ref); len(got) != 1 {
		t.Fatalf("single-day range should include its own day")
	}
}
