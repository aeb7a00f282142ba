package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"carteira/internal/services"
	"carteira/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	srv := NewServer(":0", services.NewLedgerService(repo, nil), repo)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		repo.Close()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func TestMissingUserHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/dashboard", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHealthEndpointsSkipAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", "user-1", transactionRequest{
		Type:        "debit",
		Value:       "45,90",
		Date:        "2025-04-10",
		Category:    "Alimentação",
		Description: "Mercado",
		Method:      "pix",
		IsConfirmed: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[transactionResponse](t, rec)
	if created.ID == "" {
		t.Error("created transaction has no id")
	}
	if created.ValueCents != 4590 {
		t.Errorf("value_cents = %d, want 4590", created.ValueCents)
	}

	rec = doJSON(t, srv, http.MethodGet, "/transactions?year=2025&month=4", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decode[[]transactionResponse](t, rec)
	if len(list) != 1 {
		t.Fatalf("got %d transactions, want 1", len(list))
	}

	// Other users must not see it.
	rec = doJSON(t, srv, http.MethodGet, "/transactions", "user-2", nil)
	if other := decode[[]transactionResponse](t, rec); len(other) != 0 {
		t.Errorf("user-2 sees %d foreign transactions", len(other))
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		req  transactionRequest
	}{
		{"bad amount", transactionRequest{Type: "debit", Value: "abc", Date: "2025-04-10", Category: "C", Description: "D", Method: "pix"}},
		{"bad date", transactionRequest{Type: "debit", Value: "10,00", Date: "10/04/2025", Category: "C", Description: "D", Method: "pix"}},
		{"credit without card", transactionRequest{Type: "debit", Value: "10,00", Date: "2025-04-10", Category: "C", Description: "D", Method: "credit"}},
		{"bad invoice key", transactionRequest{Type: "debit", Value: "10,00", Date: "2025-04-10", Category: "C", Description: "D", Method: "pix", InvoiceKey: "2025/05"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/transactions", "user-1", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", "user-1", transactionRequest{
		Type: "debit", Value: "10,00", Date: "2025-04-10",
		Category: "C", Description: "D", Method: "pix",
	})
	created := decode[transactionResponse](t, rec)

	rec = doJSON(t, srv, http.MethodDelete, "/transactions/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/transactions/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCardLifecycleAndInvoices(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/cards", "user-1", cardRequest{
		Name: "Nubank", Limit: "5000,00", ClosingDay: 15, DueDay: 22,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card status = %d, body %s", rec.Code, rec.Body.String())
	}
	card := decode[cardResponse](t, rec)
	if card.BestBuyDay != 16 {
		t.Errorf("best_buy_day = %d, want 16", card.BestBuyDay)
	}

	rec = doJSON(t, srv, http.MethodPost, "/transactions", "user-1", transactionRequest{
		Type: "debit", Value: "250,00", Date: "2025-04-10",
		Category: "Compras", Description: "Fone", Method: "credit", CardID: card.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create charge status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/cards/invoices", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("invoices status = %d", rec.Code)
	}
	invoices := decode[[]cardInvoicesResponse](t, rec)
	if len(invoices) != 1 {
		t.Fatalf("got %d cards, want 1", len(invoices))
	}
	if invoices[0].UsedLimitCents+invoices[0].AvailableCents > 500000+25000 {
		t.Errorf("credit position inconsistent: %+v", invoices[0])
	}

	rec = doJSON(t, srv, http.MethodDelete, "/cards/"+card.ID, "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete card status = %d", rec.Code)
	}
}

func TestCardValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/cards", "user-1", cardRequest{
		Name: "Broken", Limit: "1000,00", ClosingDay: 32, DueDay: 10,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGoalSeedsFromHistory(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", "user-1", transactionRequest{
		Type: "debit", Value: "45,00", Date: "2025-04-10",
		Category: "Alimentação", Description: "Mercado", Method: "pix",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/goals", "user-1", goalRequest{
		Category: "Alimentação", Value: "900,00",
		StartDate: "2025-04-01", EndDate: "2025-04-30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", rec.Code, rec.Body.String())
	}
	goal := decode[goalResponse](t, rec)
	if goal.CurrentCents != 4500 {
		t.Errorf("current_cents = %d, want seed 4500", goal.CurrentCents)
	}
	if goal.Progress <= 0 {
		t.Errorf("progress = %f, want > 0", goal.Progress)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	payday := 5
	rec := doJSON(t, srv, http.MethodPut, "/profile", "user-1", profileRequest{
		PayDay: &payday, WorkModel: "clt", Focus: "debt",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/profile", "user-1", nil)
	profile := decode[profileResponse](t, rec)
	if profile.PayDay == nil || *profile.PayDay != 5 {
		t.Errorf("pay_day = %v, want 5", profile.PayDay)
	}
	if profile.Focus != "debt" {
		t.Errorf("focus = %q, want debt", profile.Focus)
	}
}

func TestProfileValidation(t *testing.T) {
	srv := newTestServer(t)

	payday := 0
	rec := doJSON(t, srv, http.MethodPut, "/profile", "user-1", profileRequest{PayDay: &payday})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDashboardReflectsWrites(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/dashboard", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	empty := decode[dashboardResponse](t, rec)
	if empty.GlobalBalanceCents != 0 {
		t.Errorf("empty balance = %d, want 0", empty.GlobalBalanceCents)
	}

	// A write must invalidate the cached dashboard.
	rec = doJSON(t, srv, http.MethodPost, "/transactions", "user-1", transactionRequest{
		Type: "credit", Value: "3000,00", Date: "2025-04-01",
		Category: "Salário", Description: "Salário", Method: "transfer", IsConfirmed: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/dashboard", "user-1", nil)
	after := decode[dashboardResponse](t, rec)
	if after.GlobalBalanceCents != 300000 {
		t.Errorf("balance after income = %d, want 300000", after.GlobalBalanceCents)
	}
	if after.Pace.Label == "" {
		t.Error("pace label missing")
	}
}
