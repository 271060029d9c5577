// Package circulation implements borrowing and returning books.
//
// Both operations validate up front, then mutate the loan and the book's stock
// counter in one transaction that repeats the checks under locks, and finally
// run best-effort side effects (notification, low-stock trigger, activity log,
// catalog cache invalidation) that can never undo a committed change.
package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/database/books"
	"github.com/datptitudu2/backendthuvienptit/internal/database/loans"
	"github.com/datptitudu2/backendthuvienptit/internal/database/users"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

// Notifier delivers a notification to a user inbox.
type Notifier interface {
	Notify(ctx context.Context, userID uint, kind entities.NotificationType, title, message string) error
}

// ActivityLogger appends to the user activity trail.
type ActivityLogger interface {
	Log(ctx context.Context, userID uint, action, description string) error
}

// LowStockTrigger starts a low-stock sweep.
type LowStockTrigger interface {
	TriggerLowStockSweep(ctx context.Context) error
}

// CatalogInvalidator drops cached catalog listings.
type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context) error
}

// BorrowResult describes a committed borrow.
type BorrowResult struct {
	LoanID     uint         `json:"borrow_id"`
	BookID     uint         `json:"book_id"`
	BorrowDate time.Time    `json:"borrow_date"`
	DueDate    time.Time    `json:"due_date"`
	Hooks      []HookResult `json:"-"`
}

// ReturnResult describes a committed return.
type ReturnResult struct {
	LoanID     uint         `json:"borrow_id"`
	BookTitle  string       `json:"book_title"`
	ReturnDate time.Time    `json:"return_date"`
	Hooks      []HookResult `json:"-"`
}

// Engine runs the borrow and return workflows.
type Engine struct {
	db       *gorm.DB
	notifier Notifier
	activity ActivityLogger
	lowStock LowStockTrigger
	catalog  CatalogInvalidator
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLowStockTrigger(t LowStockTrigger) Option {
	return func(e *Engine) { e.lowStock = t }
}

func WithCatalogInvalidator(c CatalogInvalidator) Option {
	return func(e *Engine) { e.catalog = c }
}

// NewEngine creates an engine. A nil notifier or activity logger disables
// that side effect.
func NewEngine(db *gorm.DB, notifier Notifier, activity ActivityLogger, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		notifier: notifier,
		activity: activity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Borrow lends one copy of bookID to userID for entities.LoanPeriod.
func (e *Engine) Borrow(ctx context.Context, userID, bookID uint) (*BorrowResult, error) {
	book, err := books.NewRepository(e.db).GetBookByID(ctx, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load book %d: %w", ErrTransactionFailure, bookID, err)
	}
	if book.AvailableQuantity <= 0 {
		return nil, ErrBookUnavailable
	}

	active, err := loans.NewRepository(e.db).CountActiveLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: count loans of user %d: %w", ErrTransactionFailure, userID, err)
	}
	if active >= entities.MaxActiveLoans {
		return nil, ErrBorrowLimitExceeded
	}

	today := entities.DateOf(e.now())
	loan := &entities.Loan{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: today,
		DueDate:    today.Add(entities.LoanPeriod),
		Status:     entities.LoanStatusBorrowed,
	}
	var remaining int

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txBooks := books.NewRepository(tx)
		txLoans := loans.NewRepository(tx)

		// Lock order: book, then user.
		taken, err := txBooks.DecrementAvailable(ctx, bookID)
		if err != nil {
			return fmt.Errorf("decrement stock of book %d: %w", bookID, err)
		}
		if !taken {
			return ErrBookUnavailable
		}

		if err := users.NewRepository(tx).LockUser(ctx, userID); err != nil {
			return fmt.Errorf("lock user %d: %w", userID, err)
		}
		active, err := txLoans.CountActiveLoans(ctx, userID)
		if err != nil {
			return fmt.Errorf("count loans of user %d: %w", userID, err)
		}
		if active >= entities.MaxActiveLoans {
			return ErrBorrowLimitExceeded
		}

		if err := txLoans.CreateLoan(ctx, loan); err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		updated, err := txBooks.GetBookByID(ctx, bookID)
		if err != nil {
			return fmt.Errorf("reload book %d: %w", bookID, err)
		}
		remaining = updated.AvailableQuantity
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: borrow: %w", ErrTransactionFailure, err)
	}

	hooks := make([]Hook, 0, 4)
	if e.notifier != nil {
		hooks = append(hooks, Hook{Name: "notify", Run: func(ctx context.Context) error {
			return e.notifier.Notify(ctx, userID, entities.NotificationBorrow,
				"Borrow successful",
				fmt.Sprintf("You borrowed %q. Please return it by %s.", book.Title, loan.DueDate.Format(time.DateOnly)))
		}})
	}
	if e.lowStock != nil && remaining < entities.LowStockThreshold {
		hooks = append(hooks, Hook{Name: "low_stock", Run: e.lowStock.TriggerLowStockSweep})
	}
	if e.activity != nil {
		hooks = append(hooks, Hook{Name: "activity", Run: func(ctx context.Context) error {
			return e.activity.Log(ctx, userID, entities.ActivityBorrowBook, "Borrowed book: "+book.Title)
		}})
	}
	if e.catalog != nil {
		hooks = append(hooks, Hook{Name: "catalog_cache", Run: e.catalog.InvalidateCatalog})
	}

	return &BorrowResult{
		LoanID:     loan.ID,
		BookID:     bookID,
		BorrowDate: loan.BorrowDate,
		DueDate:    loan.DueDate,
		Hooks:      runPostCommit(ctx, "borrow", hooks),
	}, nil
}

// Return closes the user's active loan and puts the copy back on the shelf.
func (e *Engine) Return(ctx context.Context, loanID, userID uint) (*ReturnResult, error) {
	loan, err := loans.NewRepository(e.db).GetActiveLoan(ctx, loanID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load loan %d: %w", ErrTransactionFailure, loanID, err)
	}

	today := entities.DateOf(e.now())

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock order: loan, then book.
		closed, err := loans.NewRepository(tx).MarkReturned(ctx, loanID, userID, today)
		if err != nil {
			return fmt.Errorf("mark loan %d returned: %w", loanID, err)
		}
		if !closed {
			return ErrLoanNotFound
		}

		restocked, err := books.NewRepository(tx).IncrementAvailable(ctx, loan.BookID)
		if err != nil {
			return fmt.Errorf("increment stock of book %d: %w", loan.BookID, err)
		}
		if !restocked {
			return fmt.Errorf("book %d is missing or already fully stocked", loan.BookID)
		}
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: return: %w", ErrTransactionFailure, err)
	}

	title := ""
	if loan.Book != nil {
		title = loan.Book.Title
	}

	hooks := make([]Hook, 0, 3)
	if e.notifier != nil {
		hooks = append(hooks, Hook{Name: "notify", Run: func(ctx context.Context) error {
			return e.notifier.Notify(ctx, userID, entities.NotificationReturn,
				"Return successful",
				fmt.Sprintf("You returned %q. Thank you!", title))
		}})
	}
	if e.activity != nil {
		hooks = append(hooks, Hook{Name: "activity", Run: func(ctx context.Context) error {
			return e.activity.Log(ctx, userID, entities.ActivityReturnBook, "Returned book: "+title)
		}})
	}
	if e.catalog != nil {
		hooks = append(hooks, Hook{Name: "catalog_cache", Run: e.catalog.InvalidateCatalog})
	}

	return &ReturnResult{
		LoanID:     loanID,
		BookTitle:  title,
		ReturnDate: today,
		Hooks:      runPostCommit(ctx, "return", hooks),
	}, nil
}
