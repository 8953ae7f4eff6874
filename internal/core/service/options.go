package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/library-ledger/internal/port"
)

type options struct {
	now          func() time.Time
	newID        func(prefix string) string
	locker       port.Locker
	logger       *slog.Logger
	passwordCost int
}

type Option func(*options)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(fn func(prefix string) string) Option {
	return func(o *options) { o.newID = fn }
}

// WithLocker sets the serialization point for mutations. Services sharing a
// record store must share a locker.
func WithLocker(l port.Locker) Option {
	return func(o *options) { o.locker = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPasswordCost sets the bcrypt cost used for patron passwords.
func WithPasswordCost(cost int) Option {
	return func(o *options) { o.passwordCost = cost }
}

func newOptions(opts []Option) options {
	o := options{
		now:          time.Now,
		newID:        newTokenID,
		locker:       processLock,
		logger:       slog.New(slog.DiscardHandler),
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newTokenID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

var processLock = NewLocalLocker()

// LocalLocker serializes mutations within one process.
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
