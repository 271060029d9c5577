package entities

import (
	"time"

	"gorm.io/gorm"
)

// LowStockThreshold is the availability below which a book counts as running out.
const LowStockThreshold = 5

// Book is a catalog title. Deleted books are soft-deleted so that loan
// history keeps pointing at them.
type Book struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Title             string         `gorm:"index;size:512" json:"title"`
	Author            string         `gorm:"index;size:256" json:"author"`
	ISBN              string         `gorm:"column:isbn;index;size:32" json:"isbn,omitempty"`
	Category          string         `gorm:"index;size:100" json:"category,omitempty"`
	Publisher         string         `gorm:"size:255" json:"publisher,omitempty"`
	PublishYear       int            `json:"publish_year,omitempty"`
	Description       string         `gorm:"type:text" json:"description,omitempty"`
	Quantity          int            `gorm:"not null;default:0" json:"quantity"`
	AvailableQuantity int            `gorm:"not null;default:0;index" json:"available_quantity"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// IsLowStock reports whether some, but fewer than LowStockThreshold, copies remain.
func (b *Book) IsLowStock() bool {
	return b.AvailableQuantity > 0 && b.AvailableQuantity < LowStockThreshold
}

// OnLoan is the number of copies currently borrowed.
func (b *Book) OnLoan() int {
	return b.Quantity - b.AvailableQuantity
}
