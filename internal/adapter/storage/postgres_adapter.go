package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

const PostgresSchema = `
CREATE TABLE IF NOT EXISTS books (
	seq INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	isbn TEXT NOT NULL,
	borrowed BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS loans (
	seq INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	patron_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	category TEXT NOT NULL,
	borrowed_on DATE NOT NULL,
	due_on DATE NOT NULL,
	returned_on DATE
);
CREATE TABLE IF NOT EXISTS fines (
	seq INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	patron_id TEXT NOT NULL,
	amount_minor BIGINT NOT NULL,
	paid BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS patrons (
	seq INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL
);`

// PostgresAdapter is the pgx-backed record store. Saves delete and bulk-copy
// the table within one transaction.
type PostgresAdapter struct {
	pool *pgxpool.Pool
}

func NewPostgresAdapter(pool *pgxpool.Pool) *PostgresAdapter {
	return &PostgresAdapter{pool: pool}
}

func (p *PostgresAdapter) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) LoadBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, title, author, isbn, borrowed FROM books ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Borrowed); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	return books, nil
}

func (p *PostgresAdapter) SaveBooks(ctx context.Context, books []domain.Book) error {
	rows := make([][]any, 0, len(books))
	for i, b := range books {
		rows = append(rows, []any{i, b.ID, b.Title, b.Author, b.ISBN, b.Borrowed})
	}
	return p.replace(ctx, "books", []string{"seq", "id", "title", "author", "isbn", "borrowed"}, rows)
}

func (p *PostgresAdapter) LoadLoans(ctx context.Context) ([]domain.Loan, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, patron_id, item_id, category, borrowed_on, due_on, returned_on
		FROM loans ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var (
			l        domain.Loan
			category string
			returned *time.Time
		)
		if err := rows.Scan(&l.ID, &l.PatronID, &l.ItemID, &category, &l.BorrowedOn, &l.DueOn, &returned); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		l.Category = domain.Category(category)
		l.BorrowedOn = domain.Day(l.BorrowedOn)
		l.DueOn = domain.Day(l.DueOn)
		l.ReturnedOn = dayPtr(returned)
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	return loans, nil
}

func (p *PostgresAdapter) SaveLoans(ctx context.Context, loans []domain.Loan) error {
	rows := make([][]any, 0, len(loans))
	for i, l := range loans {
		rows = append(rows, []any{i, l.ID, l.PatronID, l.ItemID, string(l.Category), l.BorrowedOn, l.DueOn, l.ReturnedOn})
	}
	return p.replace(ctx, "loans",
		[]string{"seq", "id", "patron_id", "item_id", "category", "borrowed_on", "due_on", "returned_on"}, rows)
}

func (p *PostgresAdapter) LoadFines(ctx context.Context) ([]domain.Fine, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, patron_id, amount_minor, paid FROM fines ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query fines: %w", err)
	}
	defer rows.Close()

	var fines []domain.Fine
	for rows.Next() {
		var (
			f     domain.Fine
			minor int64
		)
		if err := rows.Scan(&f.ID, &f.PatronID, &minor, &f.Paid); err != nil {
			return nil, fmt.Errorf("scan fine: %w", err)
		}
		f.Amount = fromMinor(minor)
		fines = append(fines, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query fines: %w", err)
	}
	return fines, nil
}

func (p *PostgresAdapter) SaveFines(ctx context.Context, fines []domain.Fine) error {
	rows := make([][]any, 0, len(fines))
	for i, f := range fines {
		rows = append(rows, []any{i, f.ID, f.PatronID, toMinor(f.Amount), f.Paid})
	}
	return p.replace(ctx, "fines", []string{"seq", "id", "patron_id", "amount_minor", "paid"}, rows)
}

func (p *PostgresAdapter) LoadPatrons(ctx context.Context) ([]domain.Patron, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, email, password_hash FROM patrons ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query patrons: %w", err)
	}
	defer rows.Close()

	var patrons []domain.Patron
	for rows.Next() {
		var pt domain.Patron
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Email, &pt.PasswordHash); err != nil {
			return nil, fmt.Errorf("scan patron: %w", err)
		}
		patrons = append(patrons, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query patrons: %w", err)
	}
	return patrons, nil
}

func (p *PostgresAdapter) SavePatrons(ctx context.Context, patrons []domain.Patron) error {
	rows := make([][]any, 0, len(patrons))
	for i, pt := range patrons {
		rows = append(rows, []any{i, pt.ID, pt.Name, pt.Email, pt.PasswordHash})
	}
	return p.replace(ctx, "patrons", []string{"seq", "id", "name", "email", "password_hash"}, rows)
}

func (p *PostgresAdapter) replace(ctx context.Context, table string, cols []string, rows [][]any) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy %s: %w", table, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}
