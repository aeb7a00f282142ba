// Package storage persists the ledger in SQLite. All methods take the user
// id explicitly; there is no ambient current-user state.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"carteira/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when a requested row does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction inserts a transaction for the user.
func (r *Repository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	var invoiceKey sql.NullString
	if t.InvoiceKey != nil {
		invoiceKey = sql.NullString{String: t.InvoiceKey.String(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, user_id, type, value_cents, date, category, subcategory,
			 description, method, card_id, invoice_key, is_fixed, is_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Type), t.Value.Cents, t.Date.Format(dateLayout),
		t.Category, t.Subcategory, t.Description, string(t.Method),
		t.CardID, invoiceKey, t.IsFixed, t.IsConfirmed)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"user_id", userID,
		"amount_cents", t.Value.Cents,
		"category", t.Category)
	return nil
}

// GetTransaction returns one live transaction of the user.
func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, value_cents, date, category, subcategory,
		       description, method, card_id, invoice_key, is_fixed, is_confirmed
		FROM transactions
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// GetTransactionAny returns a transaction whether or not it was soft
// deleted. The worker uses it to reverse goal totals after a delete event.
func (r *Repository) GetTransactionAny(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, value_cents, date, category, subcategory,
		       description, method, card_id, invoice_key, is_fixed, is_confirmed
		FROM transactions
		WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// SoftDeleteTransaction marks a transaction deleted and returns the row as
// it was, so callers can publish the reversal event.
func (r *Repository) SoftDeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := r.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("soft delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

// ListTransactions returns every live transaction of the user, oldest first.
func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, value_cents, date, category, subcategory,
		       description, method, card_id, invoice_key, is_fixed, is_confirmed
		FROM transactions
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY date, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsByMonth returns the user's live transactions of one month.
func (r *Repository) ListTransactionsByMonth(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, value_cents, date, category, subcategory,
		       description, method, card_id, invoice_key, is_fixed, is_confirmed
		FROM transactions
		WHERE user_id = ? AND deleted_at IS NULL AND date LIKE ? || '%'
		ORDER BY date, created_at`, userID, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListLatestFixedTransactions returns, across all users, the most recent
// instance of each fixed transaction series. The recurring worker uses these
// as templates for the next month's instance.
func (r *Repository) ListLatestFixedTransactions(ctx context.Context) (map[string][]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.user_id, t.id, t.type, t.value_cents, t.date, t.category, t.subcategory,
		       t.description, t.method, t.card_id, t.invoice_key, t.is_fixed, t.is_confirmed
		FROM transactions t
		JOIN (
			SELECT user_id, description, category, method, card_id, MAX(date) AS max_date
			FROM transactions
			WHERE is_fixed = 1 AND deleted_at IS NULL
			GROUP BY user_id, description, category, method, card_id
		) latest ON t.user_id = latest.user_id
		        AND t.description = latest.description
		        AND t.category = latest.category
		        AND t.method = latest.method
		        AND t.card_id = latest.card_id
		        AND t.date = latest.max_date
		WHERE t.is_fixed = 1 AND t.deleted_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list fixed transactions: %w", err)
	}
	defer rows.Close()

	byUser := make(map[string][]core.Transaction)
	for rows.Next() {
		var userID string
		t, err := scanTransactionFields(rows, &userID)
		if err != nil {
			return nil, fmt.Errorf("scan fixed transaction: %w", err)
		}
		byUser[userID] = append(byUser[userID], t)
	}
	return byUser, rows.Err()
}

// ExportRow is the flat shape handed to the spreadsheet exporter.
type ExportRow struct {
	ID          string
	UserID      string
	Date        string
	Type        string
	Description string
	Category    string
	Subcategory string
	Method      string
	ValueCents  int64
	CreatedAt   string
}

// ListUnexportedTransactions returns up to limit live rows not yet exported,
// oldest first.
func (r *Repository) ListUnexportedTransactions(ctx context.Context, limit int) ([]ExportRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, type, description, category, subcategory,
		       method, value_cents, created_at
		FROM transactions
		WHERE exported_at IS NULL AND deleted_at IS NULL
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported transactions: %w", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var e ExportRow
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Type, &e.Description,
			&e.Category, &e.Subcategory, &e.Method, &e.ValueCents, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkExported stamps a transaction as pushed to the spreadsheet.
func (r *Repository) MarkExported(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET exported_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction exported: %w", err)
	}
	return nil
}

// CreateCard inserts a card configuration for the user.
func (r *Repository) CreateCard(ctx context.Context, userID string, c core.Card) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cards (id, user_id, name, limit_cents, closing_day, due_day, color)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, userID, c.Name, c.Limit.Cents, c.ClosingDay, c.DueDay, c.Color)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// UpdateCard replaces the card's editable fields.
func (r *Repository) UpdateCard(ctx context.Context, userID string, c core.Card) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cards SET name = ?, limit_cents = ?, closing_day = ?, due_day = ?, color = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, c.Limit.Cents, c.ClosingDay, c.DueDay, c.Color, c.ID, userID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCard removes a card. Historical transactions keep their card_id;
// aggregation simply stops including them.
func (r *Repository) DeleteCard(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCard returns one card of the user.
func (r *Repository) GetCard(ctx context.Context, userID, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, limit_cents, closing_day, due_day, color
		FROM cards WHERE id = ? AND user_id = ?`, id, userID)
	var c core.Card
	err := row.Scan(&c.ID, &c.Name, &c.Limit.Cents, &c.ClosingDay, &c.DueDay, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, ErrNotFound
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// ListCards returns all cards of the user.
func (r *Repository) ListCards(ctx context.Context, userID string) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, limit_cents, closing_day, due_day, color
		FROM cards WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []core.Card
	for rows.Next() {
		var c core.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Limit.Cents, &c.ClosingDay, &c.DueDay, &c.Color); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateGoal inserts a goal for the user.
func (r *Repository) CreateGoal(ctx context.Context, userID string, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, category, goal_cents, current_cents, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, userID, g.Category, g.GoalValue.Cents, g.CurrentValue.Cents,
		g.StartDate.Format(dateLayout), g.EndDate.Format(dateLayout))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// DeleteGoal removes a goal of the user.
func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListGoals returns all goals of the user.
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, goal_cents, current_cents, start_date, end_date
		FROM goals WHERE user_id = ? ORDER BY start_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()
	return collectGoals(rows)
}

// ListGoalsByCategory returns the user's goals covering a category.
func (r *Repository) ListGoalsByCategory(ctx context.Context, userID, category string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, goal_cents, current_cents, start_date, end_date
		FROM goals WHERE user_id = ? AND category = ?`, userID, category)
	if err != nil {
		return nil, fmt.Errorf("list goals by category: %w", err)
	}
	defer rows.Close()
	return collectGoals(rows)
}

// UpdateGoalCurrent persists a goal's adjusted running total.
func (r *Repository) UpdateGoalCurrent(ctx context.Context, userID, id string, currentCents int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET current_cents = ? WHERE id = ? AND user_id = ?`,
		currentCents, id, userID)
	if err != nil {
		return fmt.Errorf("update goal total: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProfile returns the user's profile, or a zero-value profile when none
// was saved yet: an absent profile is a steady state, not an error.
func (r *Repository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pay_day, pay_day2, work_model, focus
		FROM profiles WHERE user_id = ?`, userID)

	p := core.Profile{UserID: userID}
	var payDay, payDay2 sql.NullInt64
	var focus string
	err := row.Scan(&payDay, &payDay2, &p.WorkModel, &focus)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if payDay.Valid {
		d := int(payDay.Int64)
		p.PayDay = &d
	}
	if payDay2.Valid {
		d := int(payDay2.Int64)
		p.PayDay2 = &d
	}
	p.Focus = core.FinancialFocus(focus)
	return p, nil
}

// UpsertProfile saves the user's profile.
func (r *Repository) UpsertProfile(ctx context.Context, p core.Profile) error {
	var payDay, payDay2 sql.NullInt64
	if p.PayDay != nil {
		payDay = sql.NullInt64{Int64: int64(*p.PayDay), Valid: true}
	}
	if p.PayDay2 != nil {
		payDay2 = sql.NullInt64{Int64: int64(*p.PayDay2), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, pay_day, pay_day2, work_model, focus, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			pay_day = excluded.pay_day,
			pay_day2 = excluded.pay_day2,
			work_model = excluded.work_model,
			focus = excluded.focus,
			updated_at = CURRENT_TIMESTAMP`,
		p.UserID, payDay, payDay2, p.WorkModel, string(p.Focus))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	return scanTransactionFields(row, nil)
}

func scanTransactionFields(row rowScanner, userID *string) (core.Transaction, error) {
	var (
		t          core.Transaction
		typ        string
		method     string
		dateStr    string
		invoiceKey sql.NullString
	)
	dest := []any{&t.ID, &typ, &t.Value.Cents, &dateStr, &t.Category,
		&t.Subcategory, &t.Description, &method, &t.CardID, &invoiceKey,
		&t.IsFixed, &t.IsConfirmed}
	if userID != nil {
		dest = append([]any{userID, &t.ID}, dest[1:]...)
	}
	if err := row.Scan(dest...); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.Method = core.PaymentMethod(method)

	parsed, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
	}
	t.Date = core.DateOf(parsed)

	if invoiceKey.Valid {
		key, err := core.ParseCycleKey(invoiceKey.String)
		if err != nil {
			return core.Transaction{}, err
		}
		t.InvoiceKey = &key
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func collectGoals(rows *sql.Rows) ([]core.Goal, error) {
	var out []core.Goal
	for rows.Next() {
		var g core.Goal
		var start, end string
		if err := rows.Scan(&g.ID, &g.Category, &g.GoalValue.Cents,
			&g.CurrentValue.Cents, &start, &end); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		startT, err := time.Parse(dateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("parse goal start date %q: %w", start, err)
		}
		endT, err := time.Parse(dateLayout, end)
		if err != nil {
			return nil, fmt.Errorf("parse goal end date %q: %w", end, err)
		}
		g.StartDate = core.DateOf(startT)
		g.EndDate = core.DateOf(endT)
		out = append(out, g)
	}
	return out, rows.Err()
}
