package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

type CatalogService struct {
	store port.BookRepository
	opts  options
}

func NewCatalogService(store port.BookRepository, opts ...Option) *CatalogService {
	return &CatalogService{
		store: store,
		opts:  newOptions(opts),
	}
}

// AddBook registers a book. ISBNs are unique, compared case-insensitively.
func (s *CatalogService) AddBook(ctx context.Context, title, author, isbn string) (domain.Book, error) {
	title, author, isbn = strings.TrimSpace(title), strings.TrimSpace(author), strings.TrimSpace(isbn)
	if title == "" || isbn == "" {
		return domain.Book{}, fmt.Errorf("title and isbn are required: %w", ErrInvalidArgument)
	}

	unlock, err := s.opts.locker.Lock(ctx)
	if err != nil {
		return domain.Book{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	books, err := s.store.LoadBooks(ctx)
	if err != nil {
		return domain.Book{}, fmt.Errorf("load books: %w", err)
	}
	for _, b := range books {
		if strings.EqualFold(b.ISBN, isbn) {
			return domain.Book{}, fmt.Errorf("isbn %s: %w", isbn, ErrAlreadyExists)
		}
	}

	book := domain.Book{
		ID:     s.opts.newID("B"),
		Title:  title,
		Author: author,
		ISBN:   isbn,
	}
	if err := s.store.SaveBooks(ctx, append(books, book)); err != nil {
		return domain.Book{}, fmt.Errorf("save books: %w", err)
	}

	s.opts.logger.Info("book added", "book_id", book.ID, "isbn", isbn)
	return book, nil
}

func (s *CatalogService) SearchByTitle(ctx context.Context, part string) ([]domain.Book, error) {
	return s.search(ctx, part, func(b domain.Book) string { return b.Title })
}

func (s *CatalogService) SearchByAuthor(ctx context.Context, part string) ([]domain.Book, error) {
	return s.search(ctx, part, func(b domain.Book) string { return b.Author })
}

// FindByISBN returns nil when no book carries the ISBN.
func (s *CatalogService) FindByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	books, err := s.store.LoadBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	isbn = strings.TrimSpace(isbn)
	for _, b := range books {
		if strings.EqualFold(b.ISBN, isbn) {
			return &b, nil
		}
	}
	return nil, nil
}

func (s *CatalogService) AllBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := s.store.LoadBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	return books, nil
}

func (s *CatalogService) search(ctx context.Context, part string, field func(domain.Book) string) ([]domain.Book, error) {
	books, err := s.store.LoadBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	keyword := strings.ToLower(part)
	var out []domain.Book
	for _, b := range books {
		if strings.Contains(strings.ToLower(field(b)), keyword) {
			out = append(out, b)
		}
	}
	return out, nil
}
