package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"dompet/internal/core"
)

// Row layout, columns A through H:
// id, owner_id, kind, category, amount, note, date, created_at.

// newRowIdentity fills in the id and created_at columns for a transaction
// that has not been persisted anywhere yet.
func newRowIdentity(tx core.Transaction) core.Transaction {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	return tx
}

func txRow(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.OwnerID,
		string(tx.Kind),
		tx.Category,
		tx.Amount.Units,
		tx.Note,
		tx.Date.Key(),
		tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// parseTxRow converts one sheet row back into a transaction. Rows written by
// hand or by older versions may be partial or malformed; those report !ok and
// the caller skips them.
func parseTxRow(cols []string) (core.Transaction, bool) {
	if len(cols) < 7 {
		return core.Transaction{}, false
	}
	id := cols[0]
	owner := cols[1]
	kind := core.Kind(cols[2])
	if id == "" || owner == "" || !kind.Valid() {
		return core.Transaction{}, false
	}
	units, err := strconv.ParseInt(strings.TrimSpace(cols[4]), 10, 64)
	if err != nil || units <= 0 {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(cols[6])
	if err != nil {
		return core.Transaction{}, false
	}

	tx := core.Transaction{
		ID:       id,
		OwnerID:  owner,
		Kind:     kind,
		Category: cols[3],
		Amount:   core.Money{Units: units},
		Note:     cols[5],
		Date:     date,
	}
	if len(cols) >= 8 {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(cols[7])); err == nil {
			tx.CreatedAt = ts
		}
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = date.Time
	}
	return tx, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// refRow extracts the 1-based row number from an A1-style range such as
// "Transactions!A5:H5".
func refRow(ref string) (int64, error) {
	_, cells, ok := strings.Cut(ref, "!")
	if !ok {
		return 0, fmt.Errorf("malformed row reference %q", ref)
	}
	first, _, _ := strings.Cut(cells, ":")
	digits := strings.TrimLeft(first, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || row < 1 {
		return 0, fmt.Errorf("malformed row reference %q", ref)
	}
	return row, nil
}
