package sheets

import (
	"testing"
	"time"

	"dompet/internal/core"
)

func TestTxRowRoundTrip(t *testing.T) {
	tx := core.Transaction{
		ID:        "abc-123",
		OwnerID:   "u1",
		Kind:      core.Expense,
		Category:  "Food",
		Amount:    core.Money{Units: 25000},
		Note:      "makan siang",
		Date:      core.NewDate(2025, 3, 15),
		CreatedAt: time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC),
	}

	got, ok := parseTxRow(toStrings(txRow(tx)))
	if !ok {
		t.Fatalf("row did not parse")
	}
	if got.ID != tx.ID || got.OwnerID != tx.OwnerID || got.Kind != tx.Kind {
		t.Fatalf("got %+v", got)
	}
	if got.Amount.Units != 25000 || got.Note != "makan siang" {
		t.Fatalf("got %+v", got)
	}
	if !got.Date.SameDay(tx.Date) || !got.CreatedAt.Equal(tx.CreatedAt) {
		t.Fatalf("got %+v", got)
	}
}

func TestNewRowIdentity(t *testing.T) {
	tx := core.Transaction{
		OwnerID:  "u1",
		Kind:     core.Expense,
		Category: "Food",
		Amount:   core.Money{Units: 25000},
		Date:     core.NewDate(2025, 3, 15),
	}

	filled := newRowIdentity(tx)
	if filled.ID == "" || filled.CreatedAt.IsZero() {
		t.Fatalf("identity not assigned: %+v", filled)
	}

	got, ok := parseTxRow(toStrings(txRow(filled)))
	if !ok {
		t.Fatalf("row written for a fresh transaction did not parse")
	}
	if got.ID != filled.ID || got.OwnerID != "u1" {
		t.Fatalf("got %+v", got)
	}

	kept := newRowIdentity(filled)
	if kept.ID != filled.ID || !kept.CreatedAt.Equal(filled.CreatedAt) {
		t.Fatalf("existing identity should be preserved")
	}
}

func TestParseTxRowRejectsMalformed(t *testing.T) {
	cases := [][]string{
		nil,
		{"id"},
		{"", "u1", "expense", "Food", "100", "", "2025-03-15"},
		{"id", "", "expense", "Food", "100", "", "2025-03-15"},
		{"id", "u1", "transfer", "Food", "100", "", "2025-03-15"},
		{"id", "u1", "expense", "Food", "zero", "", "2025-03-15"},
		{"id", "u1", "expense", "Food", "0", "", "2025-03-15"},
		{"id", "u1", "expense", "Food", "100", "", "not-a-date"},
	}
	for i, cols := range cases {
		if _, ok := parseTxRow(cols); ok {
			t.Fatalf("case %d should not parse: %v", i, cols)
		}
	}
}

func TestParseTxRowDefaultsCreatedAt(t *testing.T) {
	got, ok := parseTxRow([]string{"id", "u1", "income", "Salary", "100", "", "2025-03-15"})
	if !ok {
		t.Fatalf("row did not parse")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("createdAt should default to the transaction date")
	}
}

func TestRefRow(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"Transactions!A5:H5", 5, true},
		{"Transactions!A12", 12, true},
		{"A5:H5", 0, false},
		{"Transactions!AH", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := refRow(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("refRow(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("refRow(%q) expected error", tc.in)
		}
	}
}
