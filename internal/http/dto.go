package http

import (
	"carteira/internal/core"
)

// Request and response shapes. Amounts travel as decimal strings on the
// way in ("45,90" or "45.90") and as cents on the way out, so clients
// never do float arithmetic on money.

type transactionRequest struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Description string `json:"description"`
	Method      string `json:"method"`
	CardID      string `json:"card_id,omitempty"`
	InvoiceKey  string `json:"invoice_key,omitempty"`
	IsFixed     bool   `json:"is_fixed,omitempty"`
	IsConfirmed bool   `json:"is_confirmed"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	ValueCents  int64  `json:"value_cents"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Description string `json:"description"`
	Method      string `json:"method"`
	CardID      string `json:"card_id,omitempty"`
	InvoiceKey  string `json:"invoice_key,omitempty"`
	IsFixed     bool   `json:"is_fixed"`
	IsConfirmed bool   `json:"is_confirmed"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		ValueCents:  t.Value.Cents,
		Date:        t.Date.Format("2006-01-02"),
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Description: t.Description,
		Method:      string(t.Method),
		CardID:      t.CardID,
		IsFixed:     t.IsFixed,
		IsConfirmed: t.IsConfirmed,
	}
	if t.InvoiceKey != nil {
		resp.InvoiceKey = t.InvoiceKey.String()
	}
	return resp
}

type cardRequest struct {
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
	Color      string `json:"color,omitempty"`
}

type cardResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LimitCents int64  `json:"limit_cents"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
	Color      string `json:"color,omitempty"`
	BestBuyDay int    `json:"best_buy_day"`
}

func toCardResponse(c core.Card) cardResponse {
	return cardResponse{
		ID:         c.ID,
		Name:       c.Name,
		LimitCents: c.Limit.Cents,
		ClosingDay: c.ClosingDay,
		DueDay:     c.DueDay,
		Color:      c.Color,
		BestBuyDay: c.BestBuyDay(),
	}
}

type invoiceResponse struct {
	Key          string                `json:"key"`
	TotalCents   int64                 `json:"total_cents"`
	IsPaid       bool                  `json:"is_paid"`
	PaidDate     string                `json:"paid_date,omitempty"`
	Transactions []transactionResponse `json:"transactions"`
}

type cardInvoicesResponse struct {
	Card            cardResponse      `json:"card"`
	OpenInvoice     invoiceResponse   `json:"open_invoice"`
	History         []invoiceResponse `json:"history"`
	Future          []invoiceResponse `json:"future"`
	UsedLimitCents  int64             `json:"used_limit_cents"`
	AvailableCents  int64             `json:"available_limit_cents"`
	UsagePercentage float64           `json:"usage_percentage"`
	BestBuyDay      int               `json:"best_buy_day"`
}

func toInvoiceResponse(inv core.Invoice) invoiceResponse {
	resp := invoiceResponse{
		Key:          inv.Key.String(),
		TotalCents:   inv.Total.Cents,
		IsPaid:       inv.IsPaid,
		Transactions: make([]transactionResponse, 0, len(inv.Transactions)),
	}
	if inv.PaidDate != nil {
		resp.PaidDate = inv.PaidDate.Format("2006-01-02")
	}
	for _, t := range inv.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(t))
	}
	return resp
}

func toCardInvoicesResponse(ci core.CardInvoices) cardInvoicesResponse {
	resp := cardInvoicesResponse{
		Card:            toCardResponse(ci.Card),
		OpenInvoice:     toInvoiceResponse(ci.OpenInvoice),
		History:         make([]invoiceResponse, 0, len(ci.History)),
		Future:          make([]invoiceResponse, 0, len(ci.Future)),
		UsedLimitCents:  ci.TotalUsedLimit.Cents,
		AvailableCents:  ci.AvailableLimit.Cents,
		UsagePercentage: ci.UsagePercentage,
		BestBuyDay:      ci.BestBuyDay,
	}
	for _, inv := range ci.History {
		resp.History = append(resp.History, toInvoiceResponse(inv))
	}
	for _, inv := range ci.Future {
		resp.Future = append(resp.Future, toInvoiceResponse(inv))
	}
	return resp
}

type goalRequest struct {
	Category  string `json:"category"`
	Value     string `json:"value"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type goalResponse struct {
	ID           string  `json:"id"`
	Category     string  `json:"category"`
	GoalCents    int64   `json:"goal_cents"`
	CurrentCents int64   `json:"current_cents"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Progress     float64 `json:"progress"`
}

func toGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:           g.ID,
		Category:     g.Category,
		GoalCents:    g.GoalValue.Cents,
		CurrentCents: g.CurrentValue.Cents,
		StartDate:    g.StartDate.Format("2006-01-02"),
		EndDate:      g.EndDate.Format("2006-01-02"),
		Progress:     g.Progress(),
	}
}

type profileRequest struct {
	PayDay    *int   `json:"pay_day"`
	PayDay2   *int   `json:"pay_day2"`
	WorkModel string `json:"work_model,omitempty"`
	Focus     string `json:"focus,omitempty"`
}

type profileResponse struct {
	PayDay    *int   `json:"pay_day,omitempty"`
	PayDay2   *int   `json:"pay_day2,omitempty"`
	WorkModel string `json:"work_model,omitempty"`
	Focus     string `json:"focus,omitempty"`
}

type paceResponse struct {
	Status           string  `json:"status"`
	Label            string  `json:"label"`
	SpendingProgress float64 `json:"spending_progress"`
	MonthProgress    float64 `json:"month_progress"`
}

type insightResponse struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type categorySpendResponse struct {
	Name       string  `json:"name"`
	TotalCents int64   `json:"total_cents"`
	Percentage float64 `json:"percentage"`
}

type dashboardResponse struct {
	GlobalBalanceCents    int64                   `json:"global_balance_cents"`
	MonthIncomeCents      int64                   `json:"month_income_cents"`
	MonthExpenseCents     int64                   `json:"month_expense_cents"`
	FutureIncomeCents     int64                   `json:"future_income_cents"`
	FutureExpenseCents    int64                   `json:"future_expense_cents"`
	PendingInvoicesCents  int64                   `json:"pending_invoices_cents"`
	ProjectedBalanceCents int64                   `json:"projected_balance_cents"`
	DaysUntilPayday       *int                    `json:"days_until_payday,omitempty"`
	Pace                  paceResponse            `json:"pace"`
	Insight               insightResponse         `json:"insight"`
	TopCategories         []categorySpendResponse `json:"top_categories"`
}

func toDashboardResponse(m core.DashboardMetrics) dashboardResponse {
	resp := dashboardResponse{
		GlobalBalanceCents:    m.GlobalBalance.Cents,
		MonthIncomeCents:      m.MonthIncome.Cents,
		MonthExpenseCents:     m.MonthExpense.Cents,
		FutureIncomeCents:     m.FutureIncome.Cents,
		FutureExpenseCents:    m.FutureExpense.Cents,
		PendingInvoicesCents:  m.PendingInvoicesTotal.Cents,
		ProjectedBalanceCents: m.ProjectedBalance.Cents,
		DaysUntilPayday:       m.DaysUntilPayday,
		Pace: paceResponse{
			Status:           string(m.Pace.Status),
			Label:            m.Pace.Label,
			SpendingProgress: m.Pace.SpendingProgress,
			MonthProgress:    m.Pace.MonthProgress,
		},
		Insight: insightResponse{
			Level:   string(m.Insight.Level),
			Message: m.Insight.Message,
		},
		TopCategories: make([]categorySpendResponse, 0, len(m.TopCategories)),
	}
	for _, c := range m.TopCategories {
		resp.TopCategories = append(resp.TopCategories, categorySpendResponse{
			Name:       c.Name,
			TotalCents: c.Total.Cents,
			Percentage: c.Percentage,
		})
	}
	return resp
}
