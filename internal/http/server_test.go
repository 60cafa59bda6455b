package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"dompet/internal/auth"
	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/store"
	"dompet/internal/store/memory"
)

type fakeStore struct {
	txs       []core.Transaction
	listCalls int
	failList  bool
}

func (f *fakeStore) Insert(ctx context.Context, tx core.Transaction) error {
	f.txs = append(f.txs, tx)
	return nil
}

func (f *fakeStore) ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	f.listCalls++
	if f.failList {
		return nil, store.WrapErr("list", context.DeadlineExceeded)
	}
	var out []core.Transaction
	for _, tx := range f.txs {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, ownerID, id string) error {
	for i, tx := range f.txs {
		if tx.ID == id && tx.OwnerID == ownerID {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeAuth struct {
	sessions map[string]auth.User
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (auth.User, string, error) {
	u := auth.User{ID: "new-user", Email: email}
	f.sessions["signup-token"] = u
	return u, "signup-token", nil
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (auth.User, string, error) {
	if password != "correct" {
		return auth.User{}, "", auth.ErrInvalidCredentials
	}
	u := auth.User{ID: "user-1", Email: email}
	f.sessions["login-token"] = u
	return u, "login-token", nil
}

func (f *fakeAuth) SignOut(ctx context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeAuth) CurrentUser(ctx context.Context, token string) (auth.User, error) {
	u, ok := f.sessions[token]
	if !ok {
		return auth.User{}, auth.ErrSessionInvalid
	}
	return u, nil
}

func (f *fakeAuth) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return "reset-token", nil
}

func (f *fakeAuth) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken != "reset-token" {
		return auth.ErrResetTokenInvalid
	}
	return nil
}

func newTestServer(t *testing.T) (*Server, *fakeStore, *fakeAuth) {
	t.Helper()
	st := &fakeStore{}
	ap := &fakeAuth{sessions: map[string]auth.User{
		"valid-token": {ID: "user-1", Email: "user@example.com"},
	}}
	logger := applog.New(applog.DefaultConfig())
	s := NewServer(":0", st, ap, 24*time.Hour, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, st, ap
}

func authedRequest(method, target string, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "valid-token"})
	return r
}

func TestIndexRedirectsWhenSignedOut(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestIndexRendersDashboard(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "user@example.com") {
		t.Error("dashboard should show the signed-in email")
	}
	if !strings.Contains(body, "Add transaction") {
		t.Error("dashboard should contain the entry form")
	}
}

func TestLoginPageRenders(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sign in") {
		t.Error("login page should contain the sign in form")
	}
}

func TestLoginSubmit(t *testing.T) {
	s, _, _ := newTestServer(t)

	form := url.Values{"email": {"user@example.com"}, "password": {"correct"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("HX-Redirect") != "/" {
		t.Error("successful login should redirect to the dashboard")
	}
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value == "login-token" {
			found = true
		}
	}
	if !found {
		t.Error("successful login should set the session cookie")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s, _, _ := newTestServer(t)

	form := url.Values{"email": {"user@example.com"}, "password": {"wrong"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Error("failed login should return an error fragment")
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	s, _, _ := newTestServer(t)

	form := url.Values{"email": {"a@b.com"}, "password": {"secret1"}, "confirm": {"secret2"}}
	r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	s, _, ap := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/logout", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, ok := ap.sessions["valid-token"]; ok {
		t.Error("logout should invalidate the session")
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout should clear the session cookie")
	}
}

func TestCreateTransaction(t *testing.T) {
	s, st, _ := newTestServer(t)

	form := url.Values{
		"kind":     {"expense"},
		"category": {"Food"},
		"amount":   {"50.000"},
		"date":     {"2025-03-10"},
		"note":     {"lunch"},
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/transactions", form.Encode()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if len(st.txs) != 1 {
		t.Fatalf("store has %d transactions, want 1", len(st.txs))
	}
	tx := st.txs[0]
	if tx.OwnerID != "user-1" || tx.Amount.Units != 50000 || tx.Category != "Food" {
		t.Errorf("stored transaction = %+v", tx)
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "transaction:created") {
		t.Error("create should fire the transaction:created event")
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s, st, _ := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"bad amount", url.Values{"kind": {"expense"}, "category": {"Food"}, "amount": {"abc"}}},
		{"zero amount", url.Values{"kind": {"expense"}, "category": {"Food"}, "amount": {"0"}}},
		{"wrong category for kind", url.Values{"kind": {"income"}, "category": {"Food"}, "amount": {"1000"}}},
		{"unknown kind", url.Values{"kind": {"transfer"}, "category": {"Food"}, "amount": {"1000"}}},
		{"bad date", url.Values{"kind": {"expense"}, "category": {"Food"}, "amount": {"1000"}, "date": {"10-03-2025"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/transactions", tt.form.Encode()))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
	if len(st.txs) != 0 {
		t.Errorf("invalid submissions must not reach the store, got %d", len(st.txs))
	}
}

func TestCreateTransactionRequiresSession(t *testing.T) {
	s, _, _ := newTestServer(t)

	form := url.Values{"kind": {"expense"}, "category": {"Food"}, "amount": {"1000"}}
	r := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("HX-Redirect") != "/login" {
		t.Error("unauthenticated request should redirect to login")
	}
}

func TestDeleteTransaction(t *testing.T) {
	s, st, _ := newTestServer(t)
	st.txs = []core.Transaction{
		{ID: "t1", OwnerID: "user-1", Kind: core.Expense, Category: "Food", Amount: core.Money{Units: 1000}, Date: core.NewDate(2025, 3, 10)},
		{ID: "t2", OwnerID: "someone-else", Kind: core.Expense, Category: "Food", Amount: core.Money{Units: 1000}, Date: core.NewDate(2025, 3, 10)},
	}

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/transactions/delete", "id=t1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(st.txs) != 1 {
		t.Errorf("store has %d transactions after delete, want 1", len(st.txs))
	}

	// Another owner's id behaves exactly like a nonexistent one.
	for _, id := range []string{"t2", "missing"} {
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/transactions/delete", "id="+id))
		if rec.Code != http.StatusNotFound {
			t.Errorf("delete %q: status = %d, want 404", id, rec.Code)
		}
	}
}

func TestCreateTransactionRoundTripsID(t *testing.T) {
	st := memory.New()
	ap := &fakeAuth{sessions: map[string]auth.User{
		"valid-token": {ID: "user-1", Email: "user@example.com"},
	}}
	logger := applog.New(applog.DefaultConfig())
	s := NewServer(":0", st, ap, 24*time.Hour, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})

	form := url.Values{
		"kind":     {"expense"},
		"category": {"Food"},
		"amount":   {"50.000"},
		"date":     {"2025-03-10"},
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/transactions", form.Encode()))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body: %s", rec.Code, rec.Body.String())
	}

	txs, err := st.ListByOwner(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].ID == "" {
		t.Fatalf("stored transaction must carry an id, got %+v", txs)
	}

	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/transactions/delete", "id="+txs[0].ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete by listed id: status = %d, want 200", rec.Code)
	}
}

func TestPartialsSurviveMissingTemplates(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.templates = nil

	for path, want := range map[string]string{
		"/ui/summary": "Error rendering summary",
		"/ui/history": "Error rendering history",
	} {
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, path, ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%s: body %q missing placeholder", path, rec.Body.String())
		}
	}
}

func TestSummaryPartial(t *testing.T) {
	s, st, _ := newTestServer(t)
	today := core.DateOf(time.Now())
	st.txs = []core.Transaction{
		{ID: "t1", OwnerID: "user-1", Kind: core.Income, Category: "Salary", Amount: core.Money{Units: 100000}, Date: today},
		{ID: "t2", OwnerID: "user-1", Kind: core.Expense, Category: "Food", Amount: core.Money{Units: 40000}, Date: today},
	}

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/ui/summary", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Rp100.000") {
		t.Errorf("summary should contain the formatted income, body: %s", body)
	}
	if !strings.Contains(body, "Rp60.000") {
		t.Error("summary should contain the net amount")
	}
	if !strings.Contains(body, "Sen") && !strings.Contains(body, "Min") {
		t.Error("summary should render weekday labels")
	}
}

func TestSummaryUsesCache(t *testing.T) {
	s, st, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/ui/summary", ""))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if st.listCalls != 1 {
		t.Errorf("listCalls = %d, want 1 (cached)", st.listCalls)
	}

	// A create invalidates the owner's cache.
	form := url.Values{"kind": {"expense"}, "category": {"Food"}, "amount": {"1000"}}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/transactions", form.Encode()))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/ui/summary", ""))
	if st.listCalls != 2 {
		t.Errorf("listCalls after invalidation = %d, want 2", st.listCalls)
	}
}

func TestHistoryPartial(t *testing.T) {
	s, st, _ := newTestServer(t)
	today := core.DateOf(time.Now())
	st.txs = []core.Transaction{
		{ID: "t1", OwnerID: "user-1", Kind: core.Expense, Category: "Food", Amount: core.Money{Units: 25000}, Note: "lunch", Date: today},
		{ID: "t2", OwnerID: "user-1", Kind: core.Income, Category: "Salary", Amount: core.Money{Units: 900000}, Date: today.AddDays(-40)},
	}

	tests := []struct {
		name       string
		target     string
		wantRows   []string
		absentRows []string
	}{
		{"all", "/ui/history?filter=all", []string{"lunch", "Salary"}, nil},
		{"today", "/ui/history?filter=today", []string{"lunch"}, []string{"Salary"}},
		{"range", "/ui/history?filter=range&start=" + today.AddDays(-50).Key() + "&end=" + today.AddDays(-30).Key(), []string{"Salary"}, []string{"lunch"}},
		{"inverted range", "/ui/history?filter=range&start=" + today.Key() + "&end=" + today.AddDays(-1).Key(), nil, []string{"lunch", "Salary"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, tt.target, ""))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := rec.Body.String()
			for _, want := range tt.wantRows {
				if !strings.Contains(body, want) {
					t.Errorf("body should contain %q", want)
				}
			}
			for _, absent := range tt.absentRows {
				if strings.Contains(body, absent) {
					t.Errorf("body should not contain %q", absent)
				}
			}
		})
	}
}

func TestSummaryDegradesOnStoreFailure(t *testing.T) {
	s, st, _ := newTestServer(t)
	st.failList = true

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/ui/summary", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error loading summary") {
		t.Error("store failure should degrade to a placeholder fragment")
	}
}

func TestHistoryRejectsUnknownFilter(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/ui/history?filter=yesterday", ""))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestThemeToggle(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/ui/theme", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var theme string
	for _, c := range rec.Result().Cookies() {
		if c.Name == themeCookieName {
			theme = c.Value
		}
	}
	if theme != "dark" {
		t.Errorf("first toggle should set dark, got %q", theme)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health body = %s", rec.Body.String())
	}
}

func TestRateLimitOnPost(t *testing.T) {
	s, _, _ := newTestServer(t)

	var lastCode int
	for i := 0; i < 70; i++ {
		r := authedRequest(http.MethodPost, "/ui/theme", "")
		r.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, r)
		lastCode = rec.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", lastCode)
	}
}
