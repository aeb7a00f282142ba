package core

import (
	"fmt"
	"sort"
)

const (
	PaceDanger  PaceStatus = "danger"
	PaceWarning PaceStatus = "warning"
	PaceSuccess PaceStatus = "success"
	PaceNeutral PaceStatus = "neutral"
)

const (
	InsightAlert   InsightLevel = "alert"
	InsightWarning InsightLevel = "warning"
	InsightInfo    InsightLevel = "info"
	InsightTip     InsightLevel = "tip"
)

const (
	WorkModelCLT        = "clt"
	WorkModelAutonomo   = "autonomo"
	WorkModelFreelancer = "freelancer"
)

// lowBalanceCents is the balance under which an imminent payday becomes a
// warning instead of plain info.
const lowBalanceCents = 200_00

type (
	PaceStatus   string
	InsightLevel string

	// Pace classifies whether spending is outrunning income given how much
	// of the month has elapsed.
	Pace struct {
		Status           PaceStatus
		Label            string
		SpendingProgress float64
		MonthProgress    float64
	}

	Insight struct {
		Level   InsightLevel
		Message string
	}

	CategorySpend struct {
		Name       string
		Total      Money
		Percentage float64
	}

	DashboardMetrics struct {
		GlobalBalance        Money
		MonthIncome          Money // credits realized this month
		MonthExpense         Money // debits realized this month, card settlements excluded
		FutureIncome         Money // credits still due this month
		FutureExpense        Money // cash debits still due this month
		PendingInvoicesTotal Money // unpaid open invoices across all cards
		ProjectedBalance     Money
		DaysUntilPayday      *int
		Pace                 Pace
		Insight              Insight
		TopCategories        []CategorySpend
	}
)

// ComputeMetrics derives the dashboard view-model from the full ledger, the
// user profile and the aggregated card invoices. It is a pure function of
// its arguments; today must be the caller's snapshot date.
func ComputeMetrics(transactions []Transaction, profile Profile, cards []CardInvoices, today Date) DashboardMetrics {
	m := DashboardMetrics{}

	year, month := today.Year(), today.Month()
	for _, t := range transactions {
		// Cash balance: credit-method debits never touch it, they accrue
		// into the card invoice and settle through the payment transaction.
		if !t.Date.After(today) {
			switch {
			case t.Type == Credit:
				m.GlobalBalance = m.GlobalBalance.Add(t.Value)
			case t.Method.IsCash():
				m.GlobalBalance = m.GlobalBalance.Sub(t.Value)
			}
		}

		if !t.Date.SameMonth(year, month) {
			continue
		}
		future := t.Date.After(today)
		switch {
		case t.Type == Credit && !future:
			m.MonthIncome = m.MonthIncome.Add(t.Value)
		case t.Type == Credit:
			m.FutureIncome = m.FutureIncome.Add(t.Value)
		case t.Category == CategoryCardPayment:
			// Settlements are accounted through PendingInvoicesTotal.
		case !future:
			m.MonthExpense = m.MonthExpense.Add(t.Value)
		case t.Method.IsCash():
			m.FutureExpense = m.FutureExpense.Add(t.Value)
		}
	}

	for _, c := range cards {
		if !c.OpenInvoice.IsPaid && c.OpenInvoice.Total.Cents > 0 {
			m.PendingInvoicesTotal = m.PendingInvoicesTotal.Add(c.OpenInvoice.Total)
		}
	}

	m.ProjectedBalance = m.GlobalBalance.
		Add(m.FutureIncome).
		Sub(m.FutureExpense).
		Sub(m.PendingInvoicesTotal)

	m.DaysUntilPayday = DaysUntilPayday(today, profile.PayDay, profile.PayDay2)
	m.Pace = classifyPace(m, profile.Focus, today)
	m.Insight = buildInsight(m, profile)
	m.TopCategories = rankCategories(transactions, m.MonthExpense, today)
	return m
}

// DaysUntilPayday returns the forward distance in days to the nearest
// configured payday, or nil when none is configured. A payday falling today
// counts as zero days away.
func DaysUntilPayday(today Date, paydays ...*int) *int {
	best := -1
	for _, p := range paydays {
		if p == nil {
			continue
		}
		d := daysUntilDay(today, *p)
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return nil
	}
	return &best
}

func daysUntilDay(today Date, day int) int {
	target := clampDay(day, today.DaysInMonth())
	if target >= today.Day() {
		return target - today.Day()
	}
	next := NewDate(today.Year(), today.Month()+1, 1)
	target = clampDay(day, next.DaysInMonth())
	return today.DaysInMonth() - today.Day() + target
}

func clampDay(day, max int) int {
	if day > max {
		return max
	}
	return day
}

type paceThresholds struct {
	danger  float64
	warning float64
}

// thresholdsFor tunes the pace cut-offs to the user's declared focus. Paying
// down debt tightens both; an investing profile tolerates a slightly larger
// overshoot before danger.
func thresholdsFor(focus FinancialFocus) paceThresholds {
	switch focus {
	case FocusDebt:
		return paceThresholds{danger: 0.10, warning: 0.02}
	case FocusInvest:
		return paceThresholds{danger: 0.12, warning: 0.05}
	default:
		return paceThresholds{danger: 0.15, warning: 0.05}
	}
}

func classifyPace(m DashboardMetrics, focus FinancialFocus, today Date) Pace {
	monthProgress := float64(today.Day()) / float64(today.DaysInMonth())

	if m.MonthIncome.Cents == 0 {
		return Pace{Status: PaceNeutral, Label: "Sem Receitas", MonthProgress: monthProgress}
	}

	totalIncome := m.MonthIncome.Add(m.FutureIncome)
	spendingProgress := float64(m.MonthExpense.Cents) / float64(totalIncome.Cents)
	pace := Pace{SpendingProgress: spendingProgress, MonthProgress: monthProgress}

	th := thresholdsFor(focus)
	switch diff := spendingProgress - monthProgress; {
	case spendingProgress > 0.95:
		pace.Status, pace.Label = PaceDanger, "Esgotado"
	case diff > th.danger:
		pace.Status, pace.Label = PaceDanger, "Ritmo Acelerado"
	case diff > th.warning:
		pace.Status, pace.Label = PaceWarning, "Atenção ao Ritmo"
	default:
		pace.Status, pace.Label = PaceSuccess, "Ritmo Saudável"
	}
	return pace
}

// buildInsight picks a single tip for the dashboard. Rules are ordered by
// urgency; the first match wins.
func buildInsight(m DashboardMetrics, profile Profile) Insight {
	if m.GlobalBalance.Cents < 0 {
		return Insight{Level: InsightAlert,
			Message: "Seu saldo está negativo. Reveja os gastos deste mês."}
	}
	if d := m.DaysUntilPayday; d != nil && *d <= 7 {
		if m.GlobalBalance.Cents < lowBalanceCents {
			return Insight{Level: InsightWarning,
				Message: fmt.Sprintf("Pagamento em %d dia(s), mas o saldo está baixo. Segure os gastos até lá.", *d)}
		}
		return Insight{Level: InsightInfo,
			Message: fmt.Sprintf("Seu pagamento chega em %d dia(s).", *d)}
	}
	if (profile.WorkModel == WorkModelAutonomo || profile.WorkModel == WorkModelFreelancer) &&
		m.FutureIncome.Cents == 0 {
		return Insight{Level: InsightTip,
			Message: "Nenhuma receita prevista neste mês. Registre seus recebimentos esperados."}
	}
	// Unpaid open invoices count as committed future spending here:
	// the settlement will hit the cash balance just like any other
	// pending expense, even though it is tracked separately from
	// FutureExpense.
	if m.FutureExpense.Add(m.PendingInvoicesTotal).Cents > m.GlobalBalance.Cents {
		return Insight{Level: InsightWarning,
			Message: "As despesas previstas superam seu saldo atual."}
	}
	return Insight{Level: InsightTip,
		Message: "Continue registrando seus gastos para manter o controle."}
}

// rankCategories returns the five largest realized spending groups of the
// month, keyed by subcategory when present, with each group's share of the
// realized expense. Card settlements are excluded like everywhere else.
func rankCategories(transactions []Transaction, monthExpense Money, today Date) []CategorySpend {
	year, month := today.Year(), today.Month()
	totals := make(map[string]Money)
	for _, t := range transactions {
		if t.Type != Debit || t.Category == CategoryCardPayment {
			continue
		}
		if !t.Date.SameMonth(year, month) || t.Date.After(today) {
			continue
		}
		name := t.Subcategory
		if name == "" {
			name = t.Category
		}
		totals[name] = totals[name].Add(t.Value)
	}

	ranked := make([]CategorySpend, 0, len(totals))
	for name, total := range totals {
		cs := CategorySpend{Name: name, Total: total}
		if monthExpense.Cents > 0 {
			cs.Percentage = float64(total.Cents) / float64(monthExpense.Cents) * 100
		}
		ranked = append(ranked, cs)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total.Cents != ranked[j].Total.Cents {
			return ranked[i].Total.Cents > ranked[j].Total.Cents
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	return ranked
}
