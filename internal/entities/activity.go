package entities

import "time"

const (
	ActivityBorrowBook = "borrow_book"
	ActivityReturnBook = "return_book"
	ActivityCreateBook = "create_book"
	ActivityUpdateBook = "update_book"
	ActivityDeleteBook = "delete_book"
	ActivityLogin      = "login"
	ActivityRegister   = "register"
)

// Activity is one entry of a user's audit trail.
type Activity struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	Action      string    `gorm:"index;size:100" json:"action"`         // e.g. "borrow_book"
	Description string    `gorm:"size:500" json:"description"`          // Human-readable summary
	EntityType  string    `gorm:"size:50" json:"entity_type,omitempty"` // "book", "borrow"
	EntityID    *uint     `gorm:"index" json:"entity_id,omitempty"`
	IPAddress   string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string    `gorm:"size:500" json:"user_agent,omitempty"`
	RequestID   string    `gorm:"size:64" json:"request_id,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string {
	return "user_activities"
}
