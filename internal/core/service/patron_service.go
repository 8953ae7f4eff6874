package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

// PatronService is the patron registry. It also serves as the identity
// directory the reminder sweep resolves patrons through.
type PatronService struct {
	store port.PatronRepository
	loans *LoanService
	fines *FineService
	opts  options
}

var _ port.PatronDirectory = (*PatronService)(nil)

func NewPatronService(store port.PatronRepository, loans *LoanService, fines *FineService, opts ...Option) *PatronService {
	return &PatronService{
		store: store,
		loans: loans,
		fines: fines,
		opts:  newOptions(opts),
	}
}

func (s *PatronService) Register(ctx context.Context, name, email, password string) (domain.Patron, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return domain.Patron{}, fmt.Errorf("name, email and password are required: %w", ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.passwordCost)
	if err != nil {
		return domain.Patron{}, fmt.Errorf("hash password: %w", err)
	}

	unlock, err := s.opts.locker.Lock(ctx)
	if err != nil {
		return domain.Patron{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	patrons, err := s.store.LoadPatrons(ctx)
	if err != nil {
		return domain.Patron{}, fmt.Errorf("load patrons: %w", err)
	}
	for _, p := range patrons {
		if strings.EqualFold(p.Email, email) {
			return domain.Patron{}, fmt.Errorf("email %s: %w", email, ErrAlreadyExists)
		}
	}

	patron := domain.Patron{
		ID:           s.opts.newID("P"),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.SavePatrons(ctx, append(patrons, patron)); err != nil {
		return domain.Patron{}, fmt.Errorf("save patrons: %w", err)
	}

	s.opts.logger.Info("patron registered", "patron_id", patron.ID)
	return patron, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown email or a wrong
// password alike.
func (s *PatronService) Authenticate(ctx context.Context, email, password string) (domain.Patron, error) {
	patrons, err := s.store.LoadPatrons(ctx)
	if err != nil {
		return domain.Patron{}, fmt.Errorf("load patrons: %w", err)
	}
	email = strings.TrimSpace(email)
	for _, p := range patrons {
		if !strings.EqualFold(p.Email, email) {
			continue
		}
		err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.Patron{}, ErrInvalidCredentials
		}
		if err != nil {
			return domain.Patron{}, fmt.Errorf("compare password: %w", err)
		}
		return p, nil
	}
	return domain.Patron{}, ErrInvalidCredentials
}

func (s *PatronService) FindByID(ctx context.Context, patronID string) (*domain.Patron, error) {
	patrons, err := s.store.LoadPatrons(ctx)
	if err != nil {
		return nil, fmt.Errorf("load patrons: %w", err)
	}
	for _, p := range patrons {
		if p.ID == patronID {
			return &p, nil
		}
	}
	return nil, nil
}

// Unregister removes a patron who holds no items and owes nothing.
func (s *PatronService) Unregister(ctx context.Context, patronID string) error {
	unlock, err := s.opts.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	patrons, err := s.store.LoadPatrons(ctx)
	if err != nil {
		return fmt.Errorf("load patrons: %w", err)
	}
	idx := slices.IndexFunc(patrons, func(p domain.Patron) bool { return p.ID == patronID })
	if idx < 0 {
		return fmt.Errorf("patron %s: %w", patronID, ErrNotFound)
	}

	active, err := s.loans.HasActiveLoans(ctx, patronID)
	if err != nil {
		return err
	}
	if active {
		return fmt.Errorf("patron %s: %w", patronID, ErrHasActiveLoans)
	}
	unpaid, err := s.fines.HasUnpaidFines(ctx, patronID)
	if err != nil {
		return err
	}
	if unpaid {
		return fmt.Errorf("patron %s: %w", patronID, ErrUnpaidFineBlock)
	}

	if err := s.store.SavePatrons(ctx, slices.Delete(patrons, idx, idx+1)); err != nil {
		return fmt.Errorf("save patrons: %w", err)
	}

	s.opts.logger.Info("patron unregistered", "patron_id", patronID)
	return nil
}
