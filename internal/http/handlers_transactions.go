package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"dompet/internal/auth"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/store"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	user, err := s.currentUser(r)
	if err != nil {
		s.rejectUnauthenticated(w, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error", applog.FieldError, err, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	kind := core.Kind(sanitizeInput(r.Form.Get("kind")))
	category := sanitizeInput(r.Form.Get("category"))
	note := sanitizeInput(r.Form.Get("note"))
	amountStr := sanitizeInput(r.Form.Get("amount"))
	dateStr := sanitizeInput(r.Form.Get("date"))

	units, err := core.ParseAmount(amountStr)
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Invalid amount")
		return
	}

	date := core.DateOf(time.Now())
	if dateStr != "" {
		date, err = core.ParseDate(dateStr)
		if err != nil {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Invalid date")
			return
		}
	}

	tx := core.Transaction{
		OwnerID:  user.ID,
		Kind:     kind,
		Category: category,
		Amount:   core.Money{Units: units},
		Note:     note,
		Date:     date,
	}
	if err := tx.Validate(); err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.Insert(r.Context(), tx); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to save transaction",
			applog.FieldError, err,
			applog.FieldUserID, user.ID,
			applog.FieldKind, string(tx.Kind),
			applog.FieldCategory, tx.Category,
			applog.FieldAmount, tx.Amount.Units,
			applog.FieldOperation, applog.OpCreate)
		writeErrorFragment(w, http.StatusInternalServerError, "Error saving transaction")
		return
	}

	atomic.AddInt64(&s.appMetrics.totalTransactions, 1)
	s.httpLog.LogTransactionCreated(r.Context(), user.ID, tx.ID, string(tx.Kind), tx.Category, tx.Amount.Units)

	s.invalidateOwner(user.ID)
	w.Header().Set("HX-Trigger", `{"transaction:created": {}, "form:reset": {}}`)
	writeSuccessFragment(w, "Recorded "+string(tx.Kind)+" of "+core.FormatRupiah(tx.Amount.Units)+" ("+tx.Category+")")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		w.Header().Set("Allow", "POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := s.currentUser(r)
	if err != nil {
		s.rejectUnauthenticated(w, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeErrorFragment(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if id == "" {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Missing transaction id")
		return
	}

	if err := s.store.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Another owner's id and a nonexistent id answer identically.
			writeErrorFragment(w, http.StatusNotFound, "Transaction not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete transaction",
			applog.FieldError, err,
			applog.FieldUserID, user.ID,
			applog.FieldTxID, id,
			applog.FieldOperation, applog.OpDelete)
		writeErrorFragment(w, http.StatusInternalServerError, "Error deleting transaction")
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction deleted",
		applog.FieldUserID, user.ID,
		applog.FieldTxID, id,
		applog.FieldOperation, applog.OpDelete)

	s.invalidateOwner(user.ID)
	w.Header().Set("HX-Trigger", `{"transaction:deleted": {"id": `+strconv.Quote(id)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

// rejectUnauthenticated answers a request whose session is missing or stale.
// htmx requests get an HX-Redirect so the swap target is never replaced with
// the login page.
func (s *Server) rejectUnauthenticated(w http.ResponseWriter, err error) {
	if !auth.AuthErr(err) {
		s.logger.Error("Session check failed", applog.FieldError, err)
	}
	w.Header().Set("HX-Redirect", "/login")
	writeErrorFragment(w, http.StatusUnauthorized, "Please sign in")
}
