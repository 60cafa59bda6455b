package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Units: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Units: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Units: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestKindCategories(t *testing.T) {
	if !Income.ValidCategory("Salary") {
		t.Fatalf("Salary should be a valid income category")
	}
	if Income.ValidCategory("Food") {
		t.Fatalf("Food must not be a valid income category")
	}
	if !Expense.ValidCategory("Food") {
		t.Fatalf("Food should be a valid expense category")
	}
	if Kind("transfer").Valid() {
		t.Fatalf("unknown kind must be invalid")
	}
	if got := Kind("transfer").Categories(); got != nil {
		t.Fatalf("unknown kind categories = %v, want nil", got)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		OwnerID:  "u1",
		Kind:     Expense,
		Category: "Food",
		Amount:   Money{Units: 50000},
		Note:     "kopi sama roti",
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{OwnerID: "", Kind: Expense, Category: "Food", Amount: Money{Units: 1}, Date: NewDate(2025, 1, 1)},
		{OwnerID: "u1", Kind: "other", Category: "Food", Amount: Money{Units: 1}, Date: NewDate(2025, 1, 1)},
		{OwnerID: "u1", Kind: Income, Category: "Food", Amount: Money{Units: 1}, Date: NewDate(2025, 1, 1)},
		{OwnerID: "u1", Kind: Expense, Category: "Food", Amount: Money{Units: 0}, Date: NewDate(2025, 1, 1)},
		{OwnerID: "u1", Kind: Expense, Category: "Food", Amount: Money{Units: 1}, Date: Date{}},
	}
	for i, tx := range bads {
		err := tx.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !ValidationErr(err) {
			t.Fatalf("case %d: %v should be a validation error", i, err)
		}
	}
}

func TestTransactionSigned(t *testing.T) {
	in := Transaction{Kind: Income, Amount: Money{Units: 100}}
	out := Transaction{Kind: Expense, Amount: Money{Units: 40}}
	if in.Signed() != 100 {
		t.Fatalf("income signed = %d, want 100", in.Signed())
	}
	if out.Signed() != -40 {
		t.Fatalf("expense signed = %d, want -40", out.Signed())
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2025, 3, 1)
	if d.Key() != "2025-03-01" {
		t.Fatalf("key = %s", d.Key())
	}
	if got := d.AddDays(-1).Key(); got != "2025-02-28" {
		t.Fatalf("addDays(-1) = %s", got)
	}
	if !DateOf(time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)).SameDay(d) {
		t.Fatalf("time of day must not affect the calendar date")
	}
	if _, err := ParseDate("2025-13-01"); err == nil {
		t.Fatalf("expected parse error")
	}
	parsed, err := ParseDate("2025-03-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.SameDay(d) {
		t.Fatalf("parsed %s, want %s", parsed.Key(), d.Key())
	}
}
