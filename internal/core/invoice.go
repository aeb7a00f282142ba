package core

import "sort"

type (
	// Invoice is one monthly billing bucket of a card. It is derived from
	// transactions and never persisted.
	Invoice struct {
		Key          CycleKey
		Total        Money
		Transactions []Transaction
		IsPaid       bool
		PaidDate     *Date
	}

	// CardInvoices is a card enriched with its invoice buckets and credit
	// position. History is sorted most recent first, Future oldest first.
	CardInvoices struct {
		Card            Card
		OpenInvoice     Invoice
		History         []Invoice
		Future          []Invoice
		TotalUsedLimit  Money
		AvailableLimit  Money
		UsagePercentage float64
		BestBuyDay      int
	}
)

// AggregateInvoices buckets every card's credit spending into monthly
// invoices relative to today. Exactly one invoice per card is open; earlier
// keys are history, later keys future. Transactions referencing unknown
// cards are skipped.
func AggregateInvoices(cards []Card, transactions []Transaction, today Date) []CardInvoices {
	result := make([]CardInvoices, 0, len(cards))
	for _, card := range cards {
		result = append(result, aggregateCard(card, transactions, today))
	}
	return result
}

func aggregateCard(card Card, transactions []Transaction, today Date) CardInvoices {
	openKey := CycleKeyOf(today, card.ClosingDay)

	buckets := make(map[CycleKey]*Invoice)
	for _, t := range transactions {
		if t.CardID != card.ID || t.Method != MethodCredit || t.Type != Debit {
			continue
		}
		key := CycleKeyOf(t.Date, card.ClosingDay)
		// Fixed charges are not pre-accrued past the open invoice; the
		// recurring materializer re-creates them each month instead.
		if t.IsFixed && key.Compare(openKey) > 0 {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &Invoice{Key: key}
			buckets[key] = b
		}
		b.Total = b.Total.Add(t.Value)
		b.Transactions = append(b.Transactions, t)
	}

	var used Money
	for key, b := range buckets {
		if key.Compare(openKey) >= 0 {
			used = used.Add(b.Total)
		}
		reconcilePayment(card, b, transactions)
	}

	out := CardInvoices{
		Card:           card,
		OpenInvoice:    Invoice{Key: openKey},
		TotalUsedLimit: used,
		BestBuyDay:     card.BestBuyDay(),
	}
	for key, b := range buckets {
		switch cmp := key.Compare(openKey); {
		case cmp < 0:
			out.History = append(out.History, *b)
		case cmp > 0:
			out.Future = append(out.Future, *b)
		default:
			out.OpenInvoice = *b
		}
	}
	sort.Slice(out.History, func(i, j int) bool {
		return out.History[i].Key.Compare(out.History[j].Key) > 0
	})
	sort.Slice(out.Future, func(i, j int) bool {
		return out.Future[i].Key.Compare(out.Future[j].Key) < 0
	})

	if avail := card.Limit.Sub(used); avail.Cents > 0 {
		out.AvailableLimit = avail
	}
	if card.Limit.Cents > 0 {
		pct := float64(used.Cents) / float64(card.Limit.Cents) * 100
		if pct > 100 {
			pct = 100
		}
		out.UsagePercentage = pct
	}
	return out
}

// reconcilePayment marks an invoice paid when a cash payment transaction for
// it exists anywhere in the ledger. The InvoiceKey reference stamped at
// payment creation is authoritative; the synthesized description string is a
// fallback for rows that predate the key.
func reconcilePayment(card Card, inv *Invoice, transactions []Transaction) {
	legacy := PaymentDescription(card.Name, inv.Key)
	for _, t := range transactions {
		if t.Category != CategoryCardPayment || !t.Method.IsCash() {
			continue
		}
		keyed := t.InvoiceKey != nil && *t.InvoiceKey == inv.Key && t.CardID == card.ID
		if !keyed && t.Description != legacy {
			continue
		}
		inv.IsPaid = true
		paid := t.Date
		inv.PaidDate = &paid
		return
	}
}
