package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/library-ledger/internal/port"
)

const reminderSubject = "Library overdue reminder"

type ReminderService struct {
	loans     *LoanService
	directory port.PatronDirectory
	notifier  port.Notifier
	opts      options
}

func NewReminderService(loans *LoanService, directory port.PatronDirectory, notifier port.Notifier, opts ...Option) *ReminderService {
	return &ReminderService{
		loans:     loans,
		directory: directory,
		notifier:  notifier,
		opts:      newOptions(opts),
	}
}

// SendOverdueReminders notifies the patron of every overdue loan and returns
// how many reminders were delivered. Loans whose patron no longer resolves are
// skipped. A failed delivery does not stop the sweep; all delivery failures are
// returned joined.
func (s *ReminderService) SendOverdueReminders(ctx context.Context) (int, error) {
	loans, err := s.loans.OverdueLoans(ctx)
	if err != nil {
		return 0, fmt.Errorf("list overdue loans: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, loan := range loans {
		patron, err := s.directory.FindByID(ctx, loan.PatronID)
		if err != nil {
			return sent, errors.Join(append(errs, fmt.Errorf("resolve patron %s: %w", loan.PatronID, err))...)
		}
		if patron == nil {
			s.opts.logger.Debug("skipping reminder for unknown patron", "loan_id", loan.ID, "patron_id", loan.PatronID)
			continue
		}

		body := fmt.Sprintf("Dear %s,\n\nThe item %s you borrowed was due on %s. Please return it as soon as possible.\n",
			patron.Name, loan.ItemID, loan.DueOn.Format(dateLayout))
		if err := s.notifier.Send(ctx, patron.Email, reminderSubject, body); err != nil {
			s.opts.logger.Error("reminder delivery failed", "loan_id", loan.ID, "address", patron.Email, "error", err)
			errs = append(errs, fmt.Errorf("send reminder for loan %s: %w", loan.ID, err))
			continue
		}
		sent++
	}

	s.opts.logger.Info("overdue reminders sent", "overdue", len(loans), "sent", sent, "failed", len(errs))
	return sent, errors.Join(errs...)
}
