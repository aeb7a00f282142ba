package core

import (
	"strings"
	"testing"
)

func tx(typ TransactionType, method PaymentMethod, d Date, cents int64, category string) Transaction {
	return Transaction{
		ID:          "tx",
		Type:        typ,
		Value:       Money{Cents: cents},
		Date:        d,
		Category:    category,
		Description: "x",
		Method:      method,
	}
}

func TestGlobalBalanceExcludesCardSpending(t *testing.T) {
	today := NewDate(2025, 3, 15)
	txs := []Transaction{
		tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 500000, "Salário"),
		tx(Debit, MethodDebit, NewDate(2025, 3, 10), 100000, "Mercado"),
		tx(Debit, MethodCredit, NewDate(2025, 3, 10), 999999, "Mercado"), // card spending: no cash effect
		tx(Credit, MethodTransfer, NewDate(2025, 3, 20), 70000, "Extra"), // future: no effect on balance
	}
	m := ComputeMetrics(txs, Profile{}, nil, today)
	if m.GlobalBalance.Cents != 400000 {
		t.Fatalf("expected balance 400000, got %d", m.GlobalBalance.Cents)
	}
}

func TestMonthSplitAndProjectedBalance(t *testing.T) {
	today := NewDate(2025, 3, 15)
	txs := []Transaction{
		tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 300000, "Salário"),
		tx(Credit, MethodTransfer, NewDate(2025, 3, 25), 50000, "Extra"),
		tx(Debit, MethodDebit, NewDate(2025, 3, 5), 40000, "Mercado"),
		tx(Debit, MethodDebit, NewDate(2025, 3, 20), 30000, "Aluguel"),
		// Future card payment: excluded from future expense, invoices are
		// accounted through PendingInvoicesTotal instead.
		tx(Debit, MethodPix, NewDate(2025, 3, 28), 25000, CategoryCardPayment),
		// Future card-method debit: not a cash outflow.
		tx(Debit, MethodCredit, NewDate(2025, 3, 22), 15000, "Mercado"),
		// Another month entirely.
		tx(Debit, MethodDebit, NewDate(2025, 2, 5), 7000, "Mercado"),
	}
	cards := []CardInvoices{
		{OpenInvoice: Invoice{Total: Money{Cents: 20000}}},                // unpaid
		{OpenInvoice: Invoice{Total: Money{Cents: 9000}, IsPaid: true}},   // paid: not pending
		{OpenInvoice: Invoice{}},                                          // empty synthetic
	}

	m := ComputeMetrics(txs, Profile{}, cards, today)

	if m.MonthIncome.Cents != 300000 {
		t.Fatalf("realized income: expected 300000, got %d", m.MonthIncome.Cents)
	}
	if m.FutureIncome.Cents != 50000 {
		t.Fatalf("future income: expected 50000, got %d", m.FutureIncome.Cents)
	}
	if m.MonthExpense.Cents != 40000 {
		t.Fatalf("realized expense: expected 40000, got %d", m.MonthExpense.Cents)
	}
	if m.FutureExpense.Cents != 30000 {
		t.Fatalf("future expense: expected cash-only 30000, got %d", m.FutureExpense.Cents)
	}
	if m.PendingInvoicesTotal.Cents != 20000 {
		t.Fatalf("pending invoices: expected 20000, got %d", m.PendingInvoicesTotal.Cents)
	}

	// balance = 300000 - 40000 - 7000 = 253000 (Feb expense also realized)
	if m.GlobalBalance.Cents != 253000 {
		t.Fatalf("balance: expected 253000, got %d", m.GlobalBalance.Cents)
	}
	want := int64(253000 + 50000 - 30000 - 20000)
	if m.ProjectedBalance.Cents != want {
		t.Fatalf("projected: expected %d, got %d", want, m.ProjectedBalance.Cents)
	}
}

func TestDaysUntilPayday(t *testing.T) {
	five, ten, twenty, thirtyOne := 5, 10, 20, 31

	cases := []struct {
		name  string
		today Date
		p1    *int
		p2    *int
		want  *int
	}{
		{"none configured", NewDate(2025, 3, 15), nil, nil, nil},
		{"upcoming this month", NewDate(2025, 3, 15), &twenty, nil, intp(5)},
		{"today is payday", NewDate(2025, 3, 20), &twenty, nil, intp(0)},
		{"wraps to next month", NewDate(2025, 3, 25), &ten, nil, intp(16)},
		{"nearest of two", NewDate(2025, 3, 15), &five, &twenty, intp(5)},
		{"clamped in february", NewDate(2025, 2, 20), &thirtyOne, nil, intp(8)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DaysUntilPayday(tc.today, tc.p1, tc.p2)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("expected nil, got %d", *got)
			case tc.want != nil && got == nil:
				t.Errorf("expected %d, got nil", *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Errorf("expected %d, got %d", *tc.want, *got)
			}
		})
	}
}

func intp(v int) *int { return &v }

func TestPaceClassification(t *testing.T) {
	// 30-day month, day 27: monthProgress = 0.9
	today := NewDate(2025, 4, 27)
	income := tx(Credit, MethodTransfer, NewDate(2025, 4, 1), 200000, "Salário")

	spend := func(cents int64) []Transaction {
		return []Transaction{income, tx(Debit, MethodDebit, NewDate(2025, 4, 1), cents, "Mercado")}
	}

	t.Run("neutral without realized income", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Debit, MethodDebit, NewDate(2025, 4, 10), 1000, "Mercado"),
		}, Profile{}, nil, today)
		if m.Pace.Status != PaceNeutral {
			t.Errorf("expected neutral, got %s", m.Pace.Status)
		}
	})

	t.Run("exactly 95 percent is not exhausted", func(t *testing.T) {
		m := ComputeMetrics(spend(190000), Profile{}, nil, today) // 0.95 exactly
		if m.Pace.Label == "Esgotado" {
			t.Errorf("boundary is strict: 0.95 must not trigger")
		}
		if m.Pace.Status != PaceSuccess {
			t.Errorf("expected success at 0.95 vs month 0.9, got %s (%s)", m.Pace.Status, m.Pace.Label)
		}
	})

	t.Run("past 95 percent is exhausted", func(t *testing.T) {
		m := ComputeMetrics(spend(190020), Profile{}, nil, today) // 0.9501
		if m.Pace.Status != PaceDanger || m.Pace.Label != "Esgotado" {
			t.Errorf("expected Esgotado, got %s (%s)", m.Pace.Status, m.Pace.Label)
		}
	})

	// Day 3 of a 30-day month: monthProgress = 0.1
	early := NewDate(2025, 4, 3)

	t.Run("accelerated pace early in month", func(t *testing.T) {
		// 0.30 spent vs 0.10 elapsed: diff 0.20 > 0.15
		m := ComputeMetrics(spend(60000), Profile{}, nil, early)
		if m.Pace.Status != PaceDanger || m.Pace.Label != "Ritmo Acelerado" {
			t.Errorf("expected Ritmo Acelerado, got %s (%s)", m.Pace.Status, m.Pace.Label)
		}
	})

	t.Run("warning band", func(t *testing.T) {
		// 0.20 spent vs 0.10 elapsed: diff 0.10, between 0.05 and 0.15
		m := ComputeMetrics(spend(40000), Profile{}, nil, early)
		if m.Pace.Status != PaceWarning {
			t.Errorf("expected warning, got %s (%s)", m.Pace.Status, m.Pace.Label)
		}
	})

	t.Run("debt focus tightens thresholds", func(t *testing.T) {
		// diff 0.10 is warning by default but danger for debt focus (0.10 threshold is strict >)
		m := ComputeMetrics(spend(40100), Profile{Focus: FocusDebt}, nil, early)
		if m.Pace.Status != PaceDanger {
			t.Errorf("expected danger under debt focus, got %s", m.Pace.Status)
		}
	})

	t.Run("invest focus loosens danger only", func(t *testing.T) {
		// diff 0.13: danger by default (>0.15? no, 0.13<0.15 => warning)... use 0.16
		m := ComputeMetrics(spend(52000), Profile{Focus: FocusInvest}, nil, early) // 0.26 vs 0.10, diff 0.16
		if m.Pace.Status != PaceDanger {
			t.Errorf("expected danger, got %s", m.Pace.Status)
		}
		// diff 0.13 is still danger for invest (threshold 0.12)
		m = ComputeMetrics(spend(46000), Profile{Focus: FocusInvest}, nil, early) // 0.23 vs 0.10
		if m.Pace.Status != PaceDanger {
			t.Errorf("expected danger at diff 0.13 under invest focus, got %s", m.Pace.Status)
		}
	})

	t.Run("on pace", func(t *testing.T) {
		m := ComputeMetrics(spend(20000), Profile{}, nil, early) // 0.10 vs 0.10
		if m.Pace.Status != PaceSuccess {
			t.Errorf("expected success, got %s", m.Pace.Status)
		}
	})
}

func TestSmartInsightRules(t *testing.T) {
	today := NewDate(2025, 3, 15)
	payday := 20 // 5 days away

	t.Run("negative balance wins", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Debit, MethodDebit, NewDate(2025, 3, 1), 10000, "Mercado"),
		}, Profile{PayDay: &payday}, nil, today)
		if m.Insight.Level != InsightAlert {
			t.Errorf("expected alert, got %s: %s", m.Insight.Level, m.Insight.Message)
		}
	})

	t.Run("payday near with low balance", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 15000, "Salário"), // 150.00 < 200.00
		}, Profile{PayDay: &payday}, nil, today)
		if m.Insight.Level != InsightWarning {
			t.Errorf("expected warning, got %s: %s", m.Insight.Level, m.Insight.Message)
		}
	})

	t.Run("payday near with healthy balance", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 500000, "Salário"),
		}, Profile{PayDay: &payday}, nil, today)
		if m.Insight.Level != InsightInfo {
			t.Errorf("expected info, got %s: %s", m.Insight.Level, m.Insight.Message)
		}
	})

	t.Run("no payday configured skips payday rules", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 15000, "Salário"),
		}, Profile{}, nil, today)
		if m.DaysUntilPayday != nil {
			t.Fatalf("expected nil days until payday")
		}
		if strings.Contains(m.Insight.Message, "agamento") {
			t.Errorf("payday rules must be skipped entirely, got %q", m.Insight.Message)
		}
	})

	t.Run("autonomo without expected income", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 500000, "Projeto"),
		}, Profile{WorkModel: WorkModelAutonomo}, nil, today)
		if m.Insight.Level != InsightTip || !strings.Contains(m.Insight.Message, "receita prevista") {
			t.Errorf("expected expected-income tip, got %s: %s", m.Insight.Level, m.Insight.Message)
		}
	})

	t.Run("future expenses exceed balance", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 50000, "Salário"),
			tx(Debit, MethodDebit, NewDate(2025, 3, 25), 80000, "Aluguel"),
		}, Profile{}, nil, today)
		if m.Insight.Level != InsightWarning || !strings.Contains(m.Insight.Message, "despesas previstas") {
			t.Errorf("expected overspend warning, got %s: %s", m.Insight.Level, m.Insight.Message)
		}
	})

	t.Run("default encouragement", func(t *testing.T) {
		m := ComputeMetrics([]Transaction{
			tx(Credit, MethodTransfer, NewDate(2025, 3, 1), 500000, "Salário"),
		}, Profile{}, nil, today)
		if m.Insight.Level != InsightTip {
			t.Errorf("expected tip, got %s: %s", m.Insight.Level, m.Insight.Message)
		}
	})
}

func TestCategoryRanking(t *testing.T) {
	today := NewDate(2025, 3, 15)

	mk := func(cat, sub string, cents int64) Transaction {
		t := tx(Debit, MethodDebit, NewDate(2025, 3, 10), cents, cat)
		t.Subcategory = sub
		return t
	}

	txs := []Transaction{
		mk("Casa", "Aluguel", 100000),
		mk("Mercado", "", 50000),
		mk("Mercado", "", 10000),
		mk("Transporte", "Combustível", 30000),
		mk("Lazer", "Cinema", 20000),
		mk("Saúde", "Farmácia", 15000),
		mk("Educação", "Livros", 5000),
		// Excluded rows:
		tx(Debit, MethodPix, NewDate(2025, 3, 10), 99999, CategoryCardPayment),
		mk("Futuro", "", 70000), // will be re-dated below
	}
	txs[len(txs)-1].Date = NewDate(2025, 3, 25) // future this month: not realized

	m := ComputeMetrics(txs, Profile{}, nil, today)

	if len(m.TopCategories) != 5 {
		t.Fatalf("expected top 5, got %d", len(m.TopCategories))
	}
	if m.TopCategories[0].Name != "Aluguel" || m.TopCategories[0].Total.Cents != 100000 {
		t.Fatalf("expected Aluguel first, got %+v", m.TopCategories[0])
	}
	if m.TopCategories[1].Name != "Mercado" || m.TopCategories[1].Total.Cents != 60000 {
		t.Fatalf("expected Mercado grouped by category fallback, got %+v", m.TopCategories[1])
	}
	for _, cs := range m.TopCategories {
		if cs.Name == "Educação" || cs.Name == "Livros" {
			t.Fatalf("sixth category must not be ranked")
		}
	}

	// Shares are relative to the realized expense total (230000).
	wantPct := float64(100000) / float64(230000) * 100
	if diff := m.TopCategories[0].Percentage - wantPct; diff > 0.001 || diff < -0.001 {
		t.Fatalf("expected %.3f%%, got %.3f%%", wantPct, m.TopCategories[0].Percentage)
	}
}
