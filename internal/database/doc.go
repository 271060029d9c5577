// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL), pool sizing, migrations
//	├── books/           # Catalog reads/writes and guarded stock updates
//	├── loans/           # Borrow records, active-loan counts, sweep queries
//	├── notifications/   # Notification inbox and admin management
//	├── penalties/       # Penalties attached to loans
//	├── activity/        # User activity trail
//	├── users/           # Accounts and role lookups
//	├── reviews/         # Book ratings and comments
//	├── favorites/       # Per-user favorite books
//	└── dbtest/          # Migrated throwaway databases for tests
//
// # Using Sub-packages
//
// Each sub-package provides a Repository bound to a *gorm.DB. Binding the
// repository to a transaction handle makes every call part of that transaction:
//
//	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
//		ok, err := books.NewRepository(tx).DecrementAvailable(ctx, bookID)
//		...
//		return loans.NewRepository(tx).CreateLoan(ctx, loan)
//	})
//
// # Concurrency
//
// SQLite connections are opened with _txlock=immediate, so transactions are
// serialized by the database write lock. On PostgreSQL the repositories rely on
// guarded UPDATE statements and SELECT ... FOR UPDATE row locks instead.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in Models so it is migrated
package database
