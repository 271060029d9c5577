// Package books provides catalog persistence.
//
// Stock counters are only changed through DecrementAvailable,
// IncrementAvailable and the quantity branch of UpdateBook, all guarded so
// that 0 <= available_quantity <= quantity holds even under concurrent
// transactions.
package books

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	// ErrQuantityBelowLoaned rejects shrinking a title below its borrowed copies.
	ErrQuantityBelowLoaned = errors.New("quantity is below the number of copies on loan")
	ErrBookOnLoan          = errors.New("book has copies on loan")
	ErrDuplicateISBN       = errors.New("a book with this ISBN already exists")
)

// DefaultSearchLimit caps SearchBooks when no limit is given.
const DefaultSearchLimit = 5

// BookUpdate carries the fields to change; nil fields are left as they are.
type BookUpdate struct {
	Title       *string
	Author      *string
	ISBN        *string
	Category    *string
	Publisher   *string
	PublishYear *int
	Description *string
	Quantity    *int
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a book with every copy available.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	if book.Quantity < 0 {
		return ErrInvalidQuantity
	}
	book.AvailableQuantity = book.Quantity
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkISBN(tx, book.ISBN, 0); err != nil {
			return err
		}
		return tx.Create(book).Error
	})
}

// GetBookByID retrieves a book by ID.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks returns the catalog, newest first.
func (r *Repository) GetAllBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&books).Error
	return books, err
}

// SearchBooks matches keyword against title, author and ISBN, case
// insensitively. An empty keyword returns the newest titles.
func (r *Repository) SearchBooks(ctx context.Context, keyword string, limit int) ([]entities.Book, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(keyword))) + "%"

	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(author) LIKE ? ESCAPE '\\' OR LOWER(isbn) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&books).Error
	return books, err
}

// GetBooksByCategory returns the titles of one category, newest first.
func (r *Repository) GetBooksByCategory(ctx context.Context, category string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("LOWER(category) = ?", strings.ToLower(strings.TrimSpace(category))).
		Order("created_at DESC, id DESC").
		Find(&books).Error
	return books, err
}

// UpdateBook applies upd and returns the stored book.
//
// A new quantity keeps the copies on loan: available becomes
// quantity - (old quantity - old available), computed in the UPDATE itself so
// no concurrent borrow or return is lost. Shrinking below the copies on loan
// fails with ErrQuantityBelowLoaned.
func (r *Repository) UpdateBook(ctx context.Context, id uint, upd BookUpdate) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBook(tx, id); err != nil {
			return err
		}

		changes := map[string]any{}
		setString(changes, "title", upd.Title)
		setString(changes, "author", upd.Author)
		setString(changes, "category", upd.Category)
		setString(changes, "publisher", upd.Publisher)
		setString(changes, "description", upd.Description)
		if upd.ISBN != nil {
			isbn := strings.TrimSpace(*upd.ISBN)
			if err := checkISBN(tx, isbn, id); err != nil {
				return err
			}
			changes["isbn"] = isbn
		}
		if upd.PublishYear != nil {
			changes["publish_year"] = *upd.PublishYear
		}

		query := tx.Model(&entities.Book{}).Where("id = ?", id)
		if upd.Quantity != nil {
			q := *upd.Quantity
			if q < 0 {
				return ErrInvalidQuantity
			}
			changes["quantity"] = q
			changes["available_quantity"] = gorm.Expr("? - (quantity - available_quantity)", q)
			query = query.Where("quantity - available_quantity <= ?", q)
		}

		if len(changes) > 0 {
			changes["updated_at"] = tx.NowFunc()
			result := query.Updates(changes)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrQuantityBelowLoaned
			}
		}
		return tx.First(&book, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a title from the catalog. Titles with copies on loan
// cannot be deleted; returned loans keep referencing the soft-deleted row.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBook(tx, id); err != nil {
			return err
		}

		var onLoan int64
		err := tx.Model(&entities.Loan{}).
			Where("book_id = ? AND status = ?", id, entities.LoanStatusBorrowed).
			Count(&onLoan).Error
		if err != nil {
			return err
		}
		if onLoan > 0 {
			return ErrBookOnLoan
		}

		return tx.Delete(&entities.Book{}, id).Error
	})
}

// GetLowStockBooks returns books with 0 < available_quantity < threshold.
func (r *Repository) GetLowStockBooks(ctx context.Context, threshold int) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("available_quantity > 0 AND available_quantity < ?", threshold).
		Order("id ASC").
		Find(&books).Error
	return books, err
}

// DecrementAvailable takes one copy off the shelf. It reports false when no
// copy was free (or the book does not exist); the row is then left untouched.
func (r *Repository) DecrementAvailable(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE books SET available_quantity = available_quantity - 1, updated_at = ? WHERE id = ? AND available_quantity > 0 AND deleted_at IS NULL",
		r.db.NowFunc(), id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementAvailable puts one copy back. It reports false when the book does
// not exist or every copy is already on the shelf.
func (r *Repository) IncrementAvailable(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE books SET available_quantity = available_quantity + 1, updated_at = ? WHERE id = ? AND available_quantity < quantity",
		r.db.NowFunc(), id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountBooks returns the number of titles in the catalog.
func (r *Repository) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// lockBook row-locks the book for the enclosing transaction, in the same
// order the borrow path takes it. Missing books yield gorm.ErrRecordNotFound.
func lockBook(tx *gorm.DB, id uint) error {
	var book entities.Book
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&book, id).Error
}

func checkISBN(tx *gorm.DB, isbn string, exceptID uint) error {
	if isbn == "" {
		return nil
	}
	var count int64
	err := tx.Model(&entities.Book{}).Where("isbn = ? AND id <> ?", isbn, exceptID).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateISBN
	}
	return nil
}

func setString(changes map[string]any, column string, v *string) {
	if v != nil {
		changes[column] = strings.TrimSpace(*v)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
