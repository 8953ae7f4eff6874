package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

// MySQLSchema creates the ledger tables. The seq column preserves collection
// order, which for fines is the ledger order payments are allocated in.
var MySQLSchema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		seq INT NOT NULL,
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255) NOT NULL,
		isbn VARCHAR(32) NOT NULL,
		borrowed BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		seq INT NOT NULL,
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		patron_id VARCHAR(64) NOT NULL,
		item_id VARCHAR(64) NOT NULL,
		category VARCHAR(8) NOT NULL,
		borrowed_on DATE NOT NULL,
		due_on DATE NOT NULL,
		returned_on DATE NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fines (
		seq INT NOT NULL,
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		patron_id VARCHAR(64) NOT NULL,
		amount_minor BIGINT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS patrons (
		seq INT NOT NULL,
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(100) NOT NULL
	)`,
}

// MySQLAdapter stores each collection in a table and replaces the table's
// contents inside one transaction on every save. The DSN must set
// parseTime=true.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range MySQLSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) LoadBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, title, author, isbn, borrowed
		FROM books ORDER BY seq`)
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

func (m *MySQLAdapter) SaveBooks(ctx context.Context, books []domain.Book) error {
	rows := make([][]any, 0, len(books))
	for _, b := range books {
		rows = append(rows, []any{b.ID, b.Title, b.Author, b.ISBN, b.Borrowed})
	}
	return m.replace(ctx, "books", []string{"id", "title", "author", "isbn", "borrowed"}, rows)
}

func (m *MySQLAdapter) LoadLoans(ctx context.Context) ([]domain.Loan, error) {
	rows, err := m.db.QueryContext(ctx, `
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
			returned sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.PatronID, &l.ItemID, &category, &l.BorrowedOn, &l.DueOn, &returned); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		l.Category = domain.Category(category)
		l.BorrowedOn = domain.Day(l.BorrowedOn)
		l.DueOn = domain.Day(l.DueOn)
		if returned.Valid {
			l.ReturnedOn = dayPtr(&returned.Time)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	return loans, nil
}

func (m *MySQLAdapter) SaveLoans(ctx context.Context, loans []domain.Loan) error {
	rows := make([][]any, 0, len(loans))
	for _, l := range loans {
		var returned sql.NullTime
		if l.ReturnedOn != nil {
			returned = sql.NullTime{Time: *l.ReturnedOn, Valid: true}
		}
		rows = append(rows, []any{l.ID, l.PatronID, l.ItemID, string(l.Category), l.BorrowedOn, l.DueOn, returned})
	}
	return m.replace(ctx, "loans",
		[]string{"id", "patron_id", "item_id", "category", "borrowed_on", "due_on", "returned_on"}, rows)
}

func (m *MySQLAdapter) LoadFines(ctx context.Context) ([]domain.Fine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, patron_id, amount_minor, paid
		FROM fines ORDER BY seq`)
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

func (m *MySQLAdapter) SaveFines(ctx context.Context, fines []domain.Fine) error {
	rows := make([][]any, 0, len(fines))
	for _, f := range fines {
		rows = append(rows, []any{f.ID, f.PatronID, toMinor(f.Amount), f.Paid})
	}
	return m.replace(ctx, "fines", []string{"id", "patron_id", "amount_minor", "paid"}, rows)
}

func (m *MySQLAdapter) LoadPatrons(ctx context.Context) ([]domain.Patron, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash
		FROM patrons ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query patrons: %w", err)
	}
	defer rows.Close()

	var patrons []domain.Patron
	for rows.Next() {
		var p domain.Patron
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash); err != nil {
			return nil, fmt.Errorf("scan patron: %w", err)
		}
		patrons = append(patrons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query patrons: %w", err)
	}
	return patrons, nil
}

func (m *MySQLAdapter) SavePatrons(ctx context.Context, patrons []domain.Patron) error {
	rows := make([][]any, 0, len(patrons))
	for _, p := range patrons {
		rows = append(rows, []any{p.ID, p.Name, p.Email, p.PasswordHash})
	}
	return m.replace(ctx, "patrons", []string{"id", "name", "email", "password_hash"}, rows)
}

// replace swaps the whole table for rows. Nothing is visible to readers until
// commit, and any failure rolls back to the previous contents.
func (m *MySQLAdapter) replace(ctx context.Context, table string, cols []string, rows [][]any) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	if len(rows) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+1), ", ")
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (seq, %s) VALUES (%s)",
			table, strings.Join(cols, ", "), placeholders))
		if err != nil {
			return fmt.Errorf("prepare insert %s: %w", table, err)
		}
		defer stmt.Close()

		for i, row := range rows {
			if _, err := stmt.ExecContext(ctx, append([]any{i}, row...)...); err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}
