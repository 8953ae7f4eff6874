package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

var errDiskFull = errors.New("disk full")

// Mock RecordStore
type mockStore struct {
	mu      sync.Mutex
	loans   []domain.Loan
	fines   []domain.Fine
	books   []domain.Book
	patrons []domain.Patron

	saveLoansErr error
	saveBooksErr error
	saves        int
}

func newMockStore() *mockStore {
	return &mockStore{}
}

func (m *mockStore) LoadLoans(ctx context.Context) ([]domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.loans), nil
}

func (m *mockStore) SaveLoans(ctx context.Context, loans []domain.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveLoansErr != nil {
		return m.saveLoansErr
	}
	m.saves++
	m.loans = slices.Clone(loans)
	return nil
}

func (m *mockStore) LoadFines(ctx context.Context) ([]domain.Fine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.fines), nil
}

func (m *mockStore) SaveFines(ctx context.Context, fines []domain.Fine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.fines = slices.Clone(fines)
	return nil
}

func (m *mockStore) LoadBooks(ctx context.Context) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.books), nil
}

func (m *mockStore) SaveBooks(ctx context.Context, books []domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveBooksErr != nil {
		return m.saveBooksErr
	}
	m.saves++
	m.books = slices.Clone(books)
	return nil
}

func (m *mockStore) LoadPatrons(ctx context.Context) ([]domain.Patron, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.patrons), nil
}

func (m *mockStore) SavePatrons(ctx context.Context, patrons []domain.Patron) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.patrons = slices.Clone(patrons)
	return nil
}

func (m *mockStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Mock Notifier
type sentMessage struct {
	to, subject, body string
}

type mockNotifier struct {
	sent   []sentMessage
	failTo map[string]bool
}

func (m *mockNotifier) Send(ctx context.Context, address, subject, body string) error {
	if m.failTo[address] {
		return fmt.Errorf("smtp: relay refused %s", address)
	}
	m.sent = append(m.sent, sentMessage{to: address, subject: subject, body: body})
	return nil
}

// Mock PatronDirectory
type mockDirectory map[string]domain.Patron

func (m mockDirectory) FindByID(ctx context.Context, patronID string) (*domain.Patron, error) {
	p, ok := m[patronID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

var today = time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return domain.Day(today).AddDate(0, 0, offset)
}

// testOptions gives each test its own lock, a fixed clock and readable IDs.
func testOptions() []Option {
	n := 0
	return []Option{
		WithClock(func() time.Time { return today }),
		WithLocker(NewLocalLocker()),
		WithIDGenerator(func(prefix string) string {
			n++
			return fmt.Sprintf("%s%d", prefix, n)
		}),
	}
}

func givenLoan(id, patronID, itemID string, category domain.Category, borrowedOffset, dueOffset int) domain.Loan {
	return domain.Loan{
		ID:         id,
		PatronID:   patronID,
		ItemID:     itemID,
		Category:   category,
		BorrowedOn: day(borrowedOffset),
		DueOn:      day(dueOffset),
	}
}

func returned(l domain.Loan, offset int) domain.Loan {
	d := day(offset)
	l.ReturnedOn = &d
	return l
}
