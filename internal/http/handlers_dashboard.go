package http

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"dompet/internal/core"
	applog "dompet/internal/log"
)

// windowView is a render-ready income/expense/net triple.
type windowView struct {
	Income      string
	Expense     string
	Net         string
	NetNegative bool
}

// barView is one bar of the 7-day net chart. Height is a percentage of the
// chart area, already floored so a nonzero day never renders invisibly.
type barView struct {
	Label    string
	Net      string
	Height   int
	Negative bool
}

type summaryView struct {
	Total windowView
	Today windowView
	Week  windowView
	Month windowView

	Bars []barView

	TodayIncomeCategories  string
	TodayExpenseCategories string
}

type historyRow struct {
	ID       string
	Date     string
	Kind     string
	Category string
	Amount   string
	Note     string
	Negative bool
}

type historyView struct {
	Filter core.FilterKind
	Start  string
	End    string
	Rows   []historyRow
	Empty  bool
}

func toWindowView(w core.WindowTotals) windowView {
	return windowView{
		Income:      core.FormatRupiah(w.Income),
		Expense:     core.FormatRupiah(w.Expense),
		Net:         core.FormatRupiah(w.Net),
		NetNegative: w.Net < 0,
	}
}

// buildSummaryView turns a Summary into template data. Bar heights scale
// against the largest absolute net of the series; a flat week still shows
// stub bars so the chart keeps its shape.
func buildSummaryView(sum core.Summary) summaryView {
	v := summaryView{
		Total:                  toWindowView(sum.Total),
		Today:                  toWindowView(sum.Today),
		Week:                   toWindowView(sum.Week),
		Month:                  toWindowView(sum.Month),
		TodayIncomeCategories:  core.CategoriesLabel(sum.TodayIncomeCategories),
		TodayExpenseCategories: core.CategoriesLabel(sum.TodayExpenseCategories),
	}

	for _, d := range sum.DailySeries {
		height := 4
		if sum.MaxAbsNet > 0 && d.Net != 0 {
			abs := d.Net
			if abs < 0 {
				abs = -abs
			}
			height = int((abs*100 + sum.MaxAbsNet/2) / sum.MaxAbsNet)
			if height < 4 {
				height = 4
			}
			if height > 100 {
				height = 100
			}
		}
		v.Bars = append(v.Bars, barView{
			Label:    d.Label,
			Net:      core.FormatRupiah(d.Net),
			Height:   height,
			Negative: d.Net < 0,
		})
	}
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	user, err := s.currentUser(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := map[string]any{
		"Theme":             currentTheme(r),
		"Email":             user.Email,
		"IncomeCategories":  core.IncomeCategories,
		"ExpenseCategories": core.ExpenseCategories,
		"Today":             core.DateOf(time.Now()).Key(),
	}
	s.renderPage(w, r, "dashboard.html", data)
}

// handleSummary renders the aggregation partial.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	user, err := s.currentUser(r)
	if err != nil {
		s.rejectUnauthenticated(w, err)
		return
	}

	txs, err := s.ownerTransactions(r.Context(), user.ID)
	if err != nil {
		s.httpLog.LogError(r.Context(), "Summary list error", err, applog.ComponentHTTP, applog.OpList, applog.NewFields().WithUser(user.ID))
		_, _ = w.Write([]byte(`<section id="summary" class="summary"><div class="placeholder">Error loading summary</div></section>`))
		return
	}

	view := buildSummaryView(core.Summarize(txs, time.Now()))
	s.renderPartial(w, r, "summary.html", view,
		`<section id="summary" class="summary"><div class="placeholder">Error rendering summary</div></section>`)
}

// handleHistory renders the filtered transaction list partial.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	user, err := s.currentUser(r)
	if err != nil {
		s.rejectUnauthenticated(w, err)
		return
	}

	filter, err := parseHistoryFilter(r)
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txs, err := s.ownerTransactions(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "History list error", applog.FieldError, err, applog.FieldUserID, user.ID)
		_, _ = w.Write([]byte(`<section id="history" class="history"><div class="placeholder">Error loading history</div></section>`))
		return
	}

	matched := core.FilterTransactions(txs, filter, time.Now())
	view := historyView{
		Filter: filter.Kind,
		Empty:  len(matched) == 0,
	}
	if !filter.Start.IsZero() {
		view.Start = filter.Start.Key()
	}
	if !filter.End.IsZero() {
		view.End = filter.End.Key()
	}
	for _, t := range matched {
		view.Rows = append(view.Rows, historyRow{
			ID:       t.ID,
			Date:     t.Date.Key(),
			Kind:     string(t.Kind),
			Category: t.Category,
			Amount:   core.FormatRupiah(t.Signed()),
			Note:     t.Note,
			Negative: t.Kind == core.Expense,
		})
	}

	s.renderPartial(w, r, "history.html", view,
		`<section id="history" class="history"><div class="placeholder">Error rendering history</div></section>`)
}

// parseHistoryFilter reads the filter query parameters. Range bounds are
// optional; an absent bound leaves that side open.
func parseHistoryFilter(r *http.Request) (core.Filter, error) {
	kind := core.FilterKind(sanitizeInput(r.URL.Query().Get("filter")))
	if kind == "" {
		kind = core.FilterAll
	}
	if !kind.Valid() {
		return core.Filter{}, core.ErrInvalidFilter
	}

	f := core.Filter{Kind: kind}
	if kind != core.FilterRange {
		return f, nil
	}

	if v := sanitizeInput(r.URL.Query().Get("start")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, core.ErrInvalidDate
		}
		f.Start = d
	}
	if v := sanitizeInput(r.URL.Query().Get("end")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, core.ErrInvalidDate
		}
		f.End = d
	}
	return f, nil
}

// handleTheme toggles the light/dark preference cookie.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	next := "dark"
	if currentTheme(r) == "dark" {
		next = "light"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookieName,
		Value:    next,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path, "error_type", applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderPartial executes an htmx fragment template. When templates are
// missing or execution fails the swap still gets a static placeholder.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any, fallback string) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path, "error_type", applog.ErrorTypeConfiguration)
		_, _ = w.Write([]byte(fallback))
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", applog.FieldError, err, "template", name)
		_, _ = w.Write([]byte(fallback))
	}
}

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs a readiness check with dependency verification.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"entries": s.txCache.Size(),
		"hits":    atomic.LoadInt64(&s.appMetrics.cacheHits),
		"misses":  atomic.LoadInt64(&s.appMetrics.cacheMisses),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
