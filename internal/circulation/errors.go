package circulation

import "errors"

var (
	// ErrBookUnavailable means the book does not exist or has no copy on the shelf.
	ErrBookUnavailable = errors.New("book is not available")
	// ErrBorrowLimitExceeded means the user already holds MaxActiveLoans books.
	ErrBorrowLimitExceeded = errors.New("borrow limit exceeded")
	// ErrLoanNotFound means no active loan with that id belongs to the user.
	ErrLoanNotFound = errors.New("loan not found or already returned")
	// ErrTransactionFailure wraps any storage error met while mutating loans or stock.
	ErrTransactionFailure = errors.New("transaction failed")
	// ErrSideEffectFailure wraps a post-commit hook error. It is reported in
	// HookResult and never returned by Borrow or Return.
	ErrSideEffectFailure = errors.New("post-commit side effect failed")
)

// IsRejection reports whether err is a business rule rejection rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrBorrowLimitExceeded) ||
		errors.Is(err, ErrLoanNotFound)
}
