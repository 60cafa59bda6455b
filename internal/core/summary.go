package core

import "time"

// dayLabels are short Indonesian weekday names, indexed by time.Weekday.
var dayLabels = [7]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

type (
	// WindowTotals carries the income/expense/net sums for one time window.
	WindowTotals struct {
		Income  int64
		Expense int64
		Net     int64
	}

	// DayNet is one bar of the 7-day chart: the net balance of a single
	// calendar day with its weekday label.
	DayNet struct {
		Date  Date
		Label string
		Net   int64
	}

	// Summary is the full set of derived statistics for a transaction list,
	// anchored at a reference instant. It is recomputed from scratch on
	// every change; there is no incremental state.
	Summary struct {
		Total WindowTotals
		Today WindowTotals
		Week  WindowTotals // last 7 calendar days, reference day inclusive
		Month WindowTotals // first of the reference month through the reference day

		// DailySeries always has exactly 7 entries, oldest first.
		DailySeries []DayNet
		// MaxAbsNet is the largest |net| in DailySeries; callers scale bar
		// heights against it and apply a minimum floor when it is zero.
		MaxAbsNet int64

		// Today's distinct categories, order-preserving, capped at 3.
		TodayIncomeCategories  []string
		TodayExpenseCategories []string
	}
)

func (w *WindowTotals) add(t Transaction) {
	if t.Kind == Income {
		w.Income += t.Amount.Units
	} else {
		w.Expense += t.Amount.Units
	}
	w.Net = w.Income - w.Expense
}

// Summarize computes all dashboard statistics in a single pass over the
// transaction list. It is a pure function of its arguments: the same list
// and reference instant always produce the same Summary.
func Summarize(txs []Transaction, ref time.Time) Summary {
	today := DateOf(ref)
	weekStart := today.AddDays(-6)
	monthStart := NewDate(today.Year(), int(today.Month()), 1)

	s := Summary{DailySeries: make([]DayNet, 7)}
	byDay := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		d := weekStart.AddDays(i)
		s.DailySeries[i] = DayNet{Date: d, Label: dayLabels[d.Weekday()]}
		byDay[d.Key()] = i
	}

	var incomeCats, expenseCats []string
	for _, tx := range txs {
		s.Total.add(tx)

		if tx.Date.SameDay(today) {
			s.Today.add(tx)
			if tx.Kind == Income {
				incomeCats = append(incomeCats, tx.Category)
			} else {
				expenseCats = append(expenseCats, tx.Category)
			}
		}
		if !tx.Date.Before(weekStart.Time) && !tx.Date.After(today.Time) {
			s.Week.add(tx)
		}
		if !tx.Date.Before(monthStart.Time) && !tx.Date.After(today.Time) {
			s.Month.add(tx)
		}
		if i, ok := byDay[tx.Date.Key()]; ok {
			s.DailySeries[i].Net += tx.Signed()
		}
	}

	for _, e := range s.DailySeries {
		n := e.Net
		if n < 0 {
			n = -n
		}
		if n > s.MaxAbsNet {
			s.MaxAbsNet = n
		}
	}

	s.TodayIncomeCategories = dedupeHead(incomeCats, 3)
	s.TodayExpenseCategories = dedupeHead(expenseCats, 3)
	return s
}

// CategoriesLabel joins up to three category names for display, with a
// literal placeholder when the list is empty.
func CategoriesLabel(cats []string) string {
	if len(cats) == 0 {
		return "-"
	}
	out := cats[0]
	for _, c := range cats[1:] {
		out += ", " + c
	}
	return out
}

// dedupeHead removes duplicates preserving first-seen order and keeps at
// most max entries.
func dedupeHead(in []string, max int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}
