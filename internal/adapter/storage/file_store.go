package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

const (
	booksFile   = "books.json"
	loansFile   = "loans.json"
	finesFile   = "fines.json"
	patronsFile = "patrons.json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bookRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Borrowed bool   `json:"borrowed"`
}

type loanRecord struct {
	ID         string `json:"id"`
	PatronID   string `json:"patron_id"`
	ItemID     string `json:"item_id"`
	Category   string `json:"category"`
	BorrowedOn string `json:"borrowed_on"`
	DueOn      string `json:"due_on"`
	ReturnedOn string `json:"returned_on,omitempty"`
}

type fineRecord struct {
	ID       string          `json:"id"`
	PatronID string          `json:"patron_id"`
	Amount   decimal.Decimal `json:"amount"`
	Paid     bool            `json:"paid"`
}

type patronRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// FileStore keeps each collection in its own JSON file under one directory.
// Saves write a temporary file and rename it over the old one, so a failed
// save never leaves a half-written collection behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) LoadBooks(ctx context.Context) ([]domain.Book, error) {
	records, err := readCollection[bookRecord](f.path(booksFile))
	if err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(records))
	for _, r := range records {
		books = append(books, domain.Book(r))
	}
	return books, nil
}

func (f *FileStore) SaveBooks(ctx context.Context, books []domain.Book) error {
	records := make([]bookRecord, 0, len(books))
	for _, b := range books {
		records = append(records, bookRecord(b))
	}
	return f.writeCollection(booksFile, records)
}

func (f *FileStore) LoadLoans(ctx context.Context) ([]domain.Loan, error) {
	records, err := readCollection[loanRecord](f.path(loansFile))
	if err != nil {
		return nil, err
	}
	loans := make([]domain.Loan, 0, len(records))
	for _, r := range records {
		loan := domain.Loan{
			ID:       r.ID,
			PatronID: r.PatronID,
			ItemID:   r.ItemID,
			Category: domain.Category(r.Category),
		}
		if loan.BorrowedOn, err = parseDate(r.BorrowedOn); err != nil {
			return nil, fmt.Errorf("loan %s: %w", r.ID, err)
		}
		if loan.DueOn, err = parseDate(r.DueOn); err != nil {
			return nil, fmt.Errorf("loan %s: %w", r.ID, err)
		}
		if r.ReturnedOn != "" {
			returned, err := parseDate(r.ReturnedOn)
			if err != nil {
				return nil, fmt.Errorf("loan %s: %w", r.ID, err)
			}
			loan.ReturnedOn = &returned
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

func (f *FileStore) SaveLoans(ctx context.Context, loans []domain.Loan) error {
	records := make([]loanRecord, 0, len(loans))
	for _, l := range loans {
		r := loanRecord{
			ID:         l.ID,
			PatronID:   l.PatronID,
			ItemID:     l.ItemID,
			Category:   string(l.Category),
			BorrowedOn: l.BorrowedOn.Format(dateLayout),
			DueOn:      l.DueOn.Format(dateLayout),
		}
		if l.ReturnedOn != nil {
			r.ReturnedOn = l.ReturnedOn.Format(dateLayout)
		}
		records = append(records, r)
	}
	return f.writeCollection(loansFile, records)
}

func (f *FileStore) LoadFines(ctx context.Context) ([]domain.Fine, error) {
	records, err := readCollection[fineRecord](f.path(finesFile))
	if err != nil {
		return nil, err
	}
	fines := make([]domain.Fine, 0, len(records))
	for _, r := range records {
		fines = append(fines, domain.Fine(r))
	}
	return fines, nil
}

func (f *FileStore) SaveFines(ctx context.Context, fines []domain.Fine) error {
	records := make([]fineRecord, 0, len(fines))
	for _, fine := range fines {
		records = append(records, fineRecord(fine))
	}
	return f.writeCollection(finesFile, records)
}

func (f *FileStore) LoadPatrons(ctx context.Context) ([]domain.Patron, error) {
	records, err := readCollection[patronRecord](f.path(patronsFile))
	if err != nil {
		return nil, err
	}
	patrons := make([]domain.Patron, 0, len(records))
	for _, r := range records {
		patrons = append(patrons, domain.Patron(r))
	}
	return patrons, nil
}

func (f *FileStore) SavePatrons(ctx context.Context, patrons []domain.Patron) error {
	records := make([]patronRecord, 0, len(patrons))
	for _, p := range patrons {
		records = append(records, patronRecord(p))
	}
	return f.writeCollection(patronsFile, records)
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name)
}

// readCollection treats a missing file as an empty collection.
func readCollection[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return items, nil
}

func (f *FileStore) writeCollection(name string, items any) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), f.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
