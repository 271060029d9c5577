// Package monitor scans loans and stock and emits reminder notifications.
//
// Sweeps only read loan and book state. Due dates are calendar dates stored
// as midnight UTC, so loans are compared against today's date rather than
// the current instant: a loan due today is due soon, not overdue. Every
// notification carries a dedupe key scoped to the calendar day, so
// re-running a sweep on the same day does not notify twice.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/database/books"
	"github.com/datptitudu2/backendthuvienptit/internal/database/loans"
	"github.com/datptitudu2/backendthuvienptit/internal/database/users"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Sweep names accepted by Run.
const (
	SweepDueSoon  = "due-soon"
	SweepLowStock = "low-stock"
	SweepOverdue  = "overdue"
)

// DefaultDueSoonWindow is how far ahead the due-soon sweep looks.
const DefaultDueSoonWindow = 72 * time.Hour

var ErrUnknownSweep = errors.New("unknown sweep")

// Notifier writes a notification unless one with the same key exists.
type Notifier interface {
	NotifyOnce(ctx context.Context, dedupeKey string, userID uint, kind entities.NotificationType, title, message string) (bool, error)
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Name     string        `json:"name"`
	Scanned  int           `json:"scanned"`
	Notified int           `json:"notified"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func (r *SweepResult) record(written bool, err error) {
	switch {
	case err != nil:
		r.Failed++
	case written:
		r.Notified++
	default:
		r.Skipped++
	}
}

type Monitor struct {
	db            *gorm.DB
	notifier      Notifier
	now           func() time.Time
	dueSoonWindow time.Duration
}

type Option func(*Monitor)

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithDueSoonWindow(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.dueSoonWindow = d
		}
	}
}

func New(db *gorm.DB, notifier Notifier, opts ...Option) *Monitor {
	m := &Monitor{
		db:            db,
		notifier:      notifier,
		now:           time.Now,
		dueSoonWindow: DefaultDueSoonWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SweepNames lists the sweeps in the order Run accepts them.
func SweepNames() []string {
	return []string{SweepDueSoon, SweepLowStock, SweepOverdue}
}

// Run executes the sweep with the given name.
func (m *Monitor) Run(ctx context.Context, name string) (SweepResult, error) {
	switch name {
	case SweepDueSoon:
		return m.RunDueSoonSweep(ctx)
	case SweepLowStock:
		return m.RunLowStockSweep(ctx)
	case SweepOverdue:
		return m.RunOverdueSweep(ctx)
	default:
		return SweepResult{}, fmt.Errorf("%w: %q", ErrUnknownSweep, name)
	}
}

// RunDueSoonSweep notifies borrowers whose loan is due within the window.
func (m *Monitor) RunDueSoonSweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	res := SweepResult{Name: SweepDueSoon}
	today := entities.DateOf(m.now())

	due, err := loans.NewRepository(m.db).GetLoansDueBetween(ctx, today, today.Add(m.dueSoonWindow))
	if err != nil {
		return res, fmt.Errorf("query loans due soon: %w", err)
	}
	res.Scanned = len(due)

	for _, loan := range due {
		msg := fmt.Sprintf("%q is due %s (%s). Please return it on time.",
			bookTitle(loan.Book), dueIn(daysBetween(today, loan.DueDate)), loan.DueDate.Format(time.DateOnly))
		key := dedupeKey(entities.NotificationDueDate, today, loan.ID)

		written, err := m.notifier.NotifyOnce(ctx, key, loan.UserID, entities.NotificationDueDate, "Book due soon", msg)
		if err != nil {
			log.Error().Err(err).Uint("borrow_id", loan.ID).Msg("Failed to send due-soon notification")
		}
		res.record(written, err)
	}

	return m.finish(res, start), nil
}

// RunLowStockSweep notifies every admin about each book running out of copies.
// Admins hear about a book at most once per day per stock level, so a further
// drop on the same day is reported again.
func (m *Monitor) RunLowStockSweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	res := SweepResult{Name: SweepLowStock}
	today := entities.DateOf(m.now())

	low, err := books.NewRepository(m.db).GetLowStockBooks(ctx, entities.LowStockThreshold)
	if err != nil {
		return res, fmt.Errorf("query low stock books: %w", err)
	}
	res.Scanned = len(low)
	if len(low) == 0 {
		return m.finish(res, start), nil
	}

	admins, err := users.NewRepository(m.db).ListIDsByRole(ctx, entities.UserRoleAdmin)
	if err != nil {
		return res, fmt.Errorf("list admins: %w", err)
	}

	for _, book := range low {
		msg := fmt.Sprintf("%q has only %d of %d copies left.", book.Title, book.AvailableQuantity, book.Quantity)
		for _, adminID := range admins {
			key := dedupeKey(entities.NotificationLowStock, today, book.ID, adminID, uint(book.AvailableQuantity))
			written, err := m.notifier.NotifyOnce(ctx, key, adminID, entities.NotificationLowStock, "Low stock", msg)
			if err != nil {
				log.Error().Err(err).Uint("book_id", book.ID).Uint("admin_id", adminID).Msg("Failed to send low stock notification")
			}
			res.record(written, err)
		}
	}

	return m.finish(res, start), nil
}

// RunOverdueSweep notifies borrowers whose loan is past its due date.
func (m *Monitor) RunOverdueSweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	res := SweepResult{Name: SweepOverdue}
	today := entities.DateOf(m.now())

	late, err := loans.NewRepository(m.db).GetOverdueLoans(ctx, today)
	if err != nil {
		return res, fmt.Errorf("query overdue loans: %w", err)
	}
	res.Scanned = len(late)

	for _, loan := range late {
		msg := fmt.Sprintf("%q is %s overdue (due %s). Please return it as soon as possible.",
			bookTitle(loan.Book), pluralDays(daysBetween(loan.DueDate, today)), loan.DueDate.Format(time.DateOnly))
		key := dedupeKey(entities.NotificationOverdue, today, loan.ID)

		written, err := m.notifier.NotifyOnce(ctx, key, loan.UserID, entities.NotificationOverdue, "Book overdue", msg)
		if err != nil {
			log.Error().Err(err).Uint("borrow_id", loan.ID).Msg("Failed to send overdue notification")
		}
		res.record(written, err)
	}

	return m.finish(res, start), nil
}

// TriggerLowStockSweep runs the low-stock sweep inline.
func (m *Monitor) TriggerLowStockSweep(ctx context.Context) error {
	_, err := m.RunLowStockSweep(ctx)
	return err
}

func (m *Monitor) finish(res SweepResult, start time.Time) SweepResult {
	res.Duration = time.Since(start)
	log.Info().
		Str("sweep", res.Name).
		Int("scanned", res.Scanned).
		Int("notified", res.Notified).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Dur("duration", res.Duration).
		Msg("Sweep completed")
	return res
}

// daysBetween counts calendar days from one date to another.
func daysBetween(from, to time.Time) int {
	return int(entities.DateOf(to).Sub(entities.DateOf(from)) / (24 * time.Hour))
}

func dueIn(days int) string {
	if days <= 0 {
		return "today"
	}
	return "in " + pluralDays(days)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func bookTitle(b *entities.Book) string {
	if b == nil {
		return "Your book"
	}
	return b.Title
}

// dedupeKey builds "<type>:<id>[:<id>...]:<yyyy-mm-dd>". Low-stock keys carry
// book id, admin id and remaining copies.
func dedupeKey(kind entities.NotificationType, day time.Time, ids ...uint) string {
	key := string(kind)
	for _, id := range ids {
		key += fmt.Sprintf(":%d", id)
	}
	return key + ":" + day.Format(time.DateOnly)
}
