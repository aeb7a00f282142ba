package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

const (
	MethodCredit   PaymentMethod = "credit"
	MethodDebit    PaymentMethod = "debit"
	MethodTransfer PaymentMethod = "transfer"
	MethodMoney    PaymentMethod = "money"
	MethodPix      PaymentMethod = "pix"
)

const (
	FocusControl FinancialFocus = "control"
	FocusDebt    FinancialFocus = "debt"
	FocusSave    FinancialFocus = "save"
	FocusInvest  FinancialFocus = "invest"
)

// CategoryCardPayment marks transactions that settle a card invoice. They are
// cash movements but never count as ordinary month expenses.
const CategoryCardPayment = "Pagamento de Cartão"

type (
	TransactionType string
	PaymentMethod   string
	FinancialFocus  string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// CycleKey identifies one monthly invoice bucket of a card.
	CycleKey struct {
		Year  int
		Month int // 1-12
	}

	Transaction struct {
		ID          string
		Type        TransactionType
		Value       Money
		Date        Date
		Category    string
		Subcategory string
		Description string
		Method      PaymentMethod
		CardID      string    // set only when Method is credit
		InvoiceKey  *CycleKey // set on card-payment transactions at creation
		IsFixed     bool
		IsConfirmed bool
	}

	Card struct {
		ID         string
		Name       string
		Limit      Money
		ClosingDay int // 1-31, day the invoice cycle closes
		DueDay     int // 1-31
		Color      string
	}

	Goal struct {
		ID           string
		Category     string
		GoalValue    Money
		CurrentValue Money
		StartDate    Date
		EndDate      Date
	}

	Profile struct {
		UserID    string
		PayDay    *int // day of month, nil when not configured
		PayDay2   *int // optional second payday for biweekly income
		WorkModel string
		Focus     FinancialFocus
	}
)

var (
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrMissingCard       = errors.New("credit transaction requires a card")
	ErrInvalidClosingDay = errors.New("closing day must be between 1 and 31")
	ErrInvalidDueDay     = errors.New("due day must be between 1 and 31")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidDateRange  = errors.New("end date must not precede start date")
	ErrInvalidFocus      = errors.New("invalid financial focus")
	ErrInvalidPayDay     = errors.New("payday must be between 1 and 31")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to a calendar date at UTC midnight.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// After reports whether d falls on a later calendar day than other.
// A date equal to other is not after it: same-day is never "future".
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// SameMonth reports whether d falls in the given year and month.
func (d Date) SameMonth(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), d.Time.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// CycleKeyOf returns the invoice bucket a transaction dated d accrues to,
// given the card's closing day. Once the cycle has closed, spending rolls
// into the next month's bucket.
func CycleKeyOf(d Date, closingDay int) CycleKey {
	key := CycleKey{Year: d.Year(), Month: d.Month()}
	if d.Day() >= closingDay {
		key = key.Next()
	}
	return key
}

// Next returns the key of the following month.
func (k CycleKey) Next() CycleKey {
	if k.Month == 12 {
		return CycleKey{Year: k.Year + 1, Month: 1}
	}
	return CycleKey{Year: k.Year, Month: k.Month + 1}
}

// Prev returns the key of the preceding month.
func (k CycleKey) Prev() CycleKey {
	if k.Month == 1 {
		return CycleKey{Year: k.Year - 1, Month: 12}
	}
	return CycleKey{Year: k.Year, Month: k.Month - 1}
}

// Compare orders keys chronologically: -1 when k precedes other, 0 when
// equal, +1 when k follows other.
func (k CycleKey) Compare(other CycleKey) int {
	switch {
	case k.Year != other.Year:
		if k.Year < other.Year {
			return -1
		}
		return 1
	case k.Month != other.Month:
		if k.Month < other.Month {
			return -1
		}
		return 1
	}
	return 0
}

// String renders the key as "YYYY-MM", zero padded so lexicographic order
// matches chronological order.
func (k CycleKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// ParseCycleKey parses a "YYYY-MM" key produced by String.
func ParseCycleKey(s string) (CycleKey, error) {
	var k CycleKey
	if _, err := fmt.Sscanf(s, "%4d-%2d", &k.Year, &k.Month); err != nil {
		return CycleKey{}, fmt.Errorf("parse cycle key %q: %w", s, err)
	}
	if k.Month < 1 || k.Month > 12 {
		return CycleKey{}, fmt.Errorf("parse cycle key %q: month out of range", s)
	}
	return k, nil
}

var monthNames = [13]string{"", "Janeiro", "Fevereiro", "Março", "Abril",
	"Maio", "Junho", "Julho", "Agosto", "Setembro", "Outubro", "Novembro",
	"Dezembro"}

// MonthName returns the Portuguese name of month 1-12, or "" out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month]
}

// PaymentDescription synthesizes the legacy description stamped on invoice
// payment transactions. Reconciliation prefers the InvoiceKey reference;
// this string exists only to match rows created before the key was stamped.
func PaymentDescription(cardName string, key CycleKey) string {
	return fmt.Sprintf("Pagamento Fatura %s - %s/%d", cardName, MonthName(key.Month), key.Year)
}

func (t TransactionType) Validate() error {
	switch t {
	case Credit, Debit:
		return nil
	}
	return ErrInvalidType
}

func (m PaymentMethod) Validate() error {
	switch m {
	case MethodCredit, MethodDebit, MethodTransfer, MethodMoney, MethodPix:
		return nil
	}
	return ErrInvalidMethod
}

// IsCash reports whether the method moves the cash balance directly.
// Credit spending accrues into a card invoice instead.
func (m PaymentMethod) IsCash() bool {
	return m != MethodCredit
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Method.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Value.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Method == MethodCredit && strings.TrimSpace(t.CardID) == "" {
		return ErrMissingCard
	}
	return nil
}

func (c Card) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if err := c.Limit.Validate(); err != nil {
		return err
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidClosingDay
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

// BestBuyDay returns the day after closing, wrapping to 1 past 31. Buying
// right after the cycle closes maximizes days until the charge is billed.
func (c Card) BestBuyDay() int {
	day := c.ClosingDay + 1
	if day > 31 {
		return 1
	}
	return day
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Category) == "" {
		return ErrEmptyCategory
	}
	if err := g.GoalValue.Validate(); err != nil {
		return err
	}
	if err := g.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := g.EndDate.Validate(); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if g.EndDate.Before(g.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// Covers reports whether a transaction falls inside the goal's category and
// date range, and therefore moves its running total.
func (g Goal) Covers(t Transaction) bool {
	if t.Category != g.Category {
		return false
	}
	if t.Date.Before(g.StartDate) || t.Date.After(g.EndDate) {
		return false
	}
	return true
}

func (p Profile) Validate() error {
	switch p.Focus {
	case FocusControl, FocusDebt, FocusSave, FocusInvest, "":
	default:
		return ErrInvalidFocus
	}
	for _, day := range []*int{p.PayDay, p.PayDay2} {
		if day != nil && (*day < 1 || *day > 31) {
			return ErrInvalidPayDay
		}
	}
	return nil
}
