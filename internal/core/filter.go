package core

import (
	"errors"
	"time"
)

var ErrInvalidFilter = errors.New("invalid history filter")

const (
	FilterAll   FilterKind = "all"
	FilterToday FilterKind = "today"
	FilterWeek  FilterKind = "week"
	FilterMonth FilterKind = "month"
	FilterRange FilterKind = "range"
)

type (
	// FilterKind selects how the history list is narrowed.
	FilterKind string

	// Filter is a history filter specification. Start and End only apply to
	// FilterRange; a zero Date leaves that side of the range unbounded. The
	// end bound is inclusive through the whole end day.
	Filter struct {
		Kind  FilterKind
		Start Date
		End   Date
	}
)

func (k FilterKind) Valid() bool {
	switch k {
	case FilterAll, FilterToday, FilterWeek, FilterMonth, FilterRange:
		return true
	}
	return false
}

// FilterTransactions returns the subsequence of txs matched by f, preserving
// the input order. Named periods are anchored at ref's calendar date the same
// way Summarize anchors its windows.
func FilterTransactions(txs []Transaction, f Filter, ref time.Time) []Transaction {
	today := DateOf(ref)

	var start, end Date
	switch f.Kind {
	case FilterAll:
		return txs
	case FilterToday:
		start, end = today, today
	case FilterWeek:
		start, end = today.AddDays(-6), today
	case FilterMonth:
		start, end = NewDate(today.Year(), int(today.Month()), 1), today
	case FilterRange:
		start, end = f.Start, f.End
		if start.IsZero() && end.IsZero() {
			return txs
		}
	default:
		return txs
	}

	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if !start.IsZero() && tx.Date.Before(start.Time) {
			continue
		}
		// Inclusive through the end of the end day.
		if !end.IsZero() && !tx.Date.Before(end.AddDays(1).Time) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
