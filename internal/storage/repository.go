package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"santiye/internal/core"
	"santiye/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists invoices, price quotes and the sheet sync queue.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateInvoice stores the invoice header, its items and computed totals in a
// single transaction and returns the new id.
func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (invoice_no, supplier, invoice_date, due_date, currency, tax_rate,
			split_a, split_b, subtotal, tax_amount, grand_total, party_a_share, party_b_share)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.Number, inv.Supplier, inv.Date.String(), inv.DueDate.String(), inv.Currency, inv.TaxRate,
		inv.Split.PartyA, inv.Split.PartyB,
		inv.Totals.Subtotal, inv.Totals.TaxAmount, inv.Totals.GrandTotal,
		inv.Totals.PartyAShare, inv.Totals.PartyBShare,
	)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("invoice id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO invoice_items (invoice_id, position, product_id, quantity, unit_price, allocation)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range inv.Items {
		if _, err := stmt.ExecContext(ctx, id, i, item.ProductID, item.Quantity, item.UnitPrice, string(item.Allocation)); err != nil {
			return 0, fmt.Errorf("insert item %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit invoice: %w", err)
	}

	r.logger.InfoContext(ctx, "Invoice saved to SQLite",
		log.FieldInvoiceID, id,
		log.FieldInvoiceNo, inv.Number,
		log.FieldItems, len(inv.Items),
		log.FieldGrandTotal, inv.Totals.GrandTotal)

	return id, nil
}

const invoiceColumns = `id, invoice_no, supplier, invoice_date, due_date, currency, tax_rate, split_a, split_b,
	subtotal, tax_amount, grand_total, party_a_share, party_b_share, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s rowScanner) (core.Invoice, error) {
	var (
		inv                core.Invoice
		date, due, created string
	)
	err := s.Scan(&inv.ID, &inv.Number, &inv.Supplier, &date, &due, &inv.Currency, &inv.TaxRate,
		&inv.Split.PartyA, &inv.Split.PartyB,
		&inv.Totals.Subtotal, &inv.Totals.TaxAmount, &inv.Totals.GrandTotal,
		&inv.Totals.PartyAShare, &inv.Totals.PartyBShare, &created)
	if err != nil {
		return inv, err
	}
	if inv.Date, err = core.ParseDate(date); err != nil {
		return inv, fmt.Errorf("invoice %d date: %w", inv.ID, err)
	}
	if inv.DueDate, err = core.ParseDate(due); err != nil {
		return inv, fmt.Errorf("invoice %d due date: %w", inv.ID, err)
	}
	inv.CreatedAt = parseTimestamp(created)
	return inv, nil
}

// GetInvoice loads an invoice with its items. A missing id yields core.ErrNotFound.
func (r *SQLiteRepository) GetInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, fmt.Errorf("invoice %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price, allocation
		FROM invoice_items WHERE invoice_id = ? ORDER BY position`, id)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	inv.Items = []core.LineItem{}
	for rows.Next() {
		var (
			item  core.LineItem
			alloc string
		)
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &alloc); err != nil {
			return core.Invoice{}, fmt.Errorf("scan invoice item: %w", err)
		}
		item.Allocation = core.Allocation(alloc)
		inv.Items = append(inv.Items, item)
	}
	if err := rows.Err(); err != nil {
		return core.Invoice{}, fmt.Errorf("iterate invoice items: %w", err)
	}
	return inv, nil
}

// ListInvoices returns invoice headers, newest invoice date first. Items are
// not loaded.
func (r *SQLiteRepository) ListInvoices(ctx context.Context, limit int) ([]core.Invoice, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		ORDER BY invoice_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := []core.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

// ListChecksDue returns the checks falling due within [from, to], earliest first.
func (r *SQLiteRepository) ListChecksDue(ctx context.Context, from, to core.Date) ([]core.CheckDue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_no, supplier, due_date, grand_total, currency
		FROM invoices
		WHERE due_date >= ? AND due_date <= ?
		ORDER BY due_date, id`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list checks due: %w", err)
	}
	defer rows.Close()

	out := []core.CheckDue{}
	for rows.Next() {
		var (
			c   core.CheckDue
			due string
		)
		if err := rows.Scan(&c.InvoiceID, &c.Number, &c.Supplier, &due, &c.Amount, &c.Currency); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		if c.DueDate, err = core.ParseDate(due); err != nil {
			return nil, fmt.Errorf("check %d due date: %w", c.InvoiceID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateQuote(ctx context.Context, q core.PriceQuote) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO price_quotes (firm_name, product_name, detail, quote_date, price, currency)
		VALUES (?, ?, ?, ?, ?, ?)`,
		q.Firm, q.Product, q.Detail, q.Date.String(), q.Price, q.Currency)
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("quote id: %w", err)
	}

	r.logger.InfoContext(ctx, "Price quote saved to SQLite",
		log.FieldQuoteID, id,
		log.FieldFirm, q.Firm,
		log.FieldProduct, q.Product)

	return id, nil
}

func (r *SQLiteRepository) GetQuote(ctx context.Context, id int64) (core.PriceQuote, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM price_quotes WHERE id = ?`, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PriceQuote{}, fmt.Errorf("quote %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.PriceQuote{}, fmt.Errorf("get quote %d: %w", id, err)
	}
	return q, nil
}

const quoteColumns = `id, firm_name, product_name, detail, quote_date, price, currency`

func scanQuote(s rowScanner) (core.PriceQuote, error) {
	var (
		q    core.PriceQuote
		date string
	)
	if err := s.Scan(&q.ID, &q.Firm, &q.Product, &q.Detail, &date, &q.Price, &q.Currency); err != nil {
		return q, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return q, fmt.Errorf("quote %d date: %w", q.ID, err)
	}
	q.Date = d
	return q, nil
}

// ListQuotes returns every quote, most recent quote date first and, within a
// date, the latest insert first. The price matrix keeps the first quote it
// sees per firm and key, so this order makes the newest quote win.
func (r *SQLiteRepository) ListQuotes(ctx context.Context) ([]core.PriceQuote, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+quoteColumns+` FROM price_quotes ORDER BY quote_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	out := []core.PriceQuote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteQuote(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quote %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quote %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("quote %d: %w", id, core.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "Price quote deleted", log.FieldQuoteID, id)
	return nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
