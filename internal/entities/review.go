package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a reader's rating of a book. A user has at most one active review
// per book; deleting a review only deactivates it.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"index;not null" json:"book_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"-"`
	Book      *Book     `gorm:"foreignKey:BookID" json:"-"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Filled by listing queries only.
	UserName  string `gorm:"->;-:migration" json:"user_name,omitempty"`
	BookTitle string `gorm:"->;-:migration" json:"book_title,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

// ValidRating reports whether r is within MinRating..MaxRating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
