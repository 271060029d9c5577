package entities

import "time"

// Favorite marks a book on a user's wish list.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_favorites_user_book;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_favorites_user_book;not null" json:"book_id"`
	Book      *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"favorited_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}
