package entities

import "time"

type NotificationType string

const (
	NotificationDueDate  NotificationType = "due_date"
	NotificationOverdue  NotificationType = "overdue"
	NotificationNewBook  NotificationType = "new_book"
	NotificationLowStock NotificationType = "low_stock"
	NotificationBorrow   NotificationType = "borrow"
	NotificationReturn   NotificationType = "return"
)

// Notification is append-only apart from IsRead.
// DedupeKey is set by the periodic sweeps; it is unique when not null.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Type      NotificationType `gorm:"index;size:50;not null" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	DedupeKey *string          `gorm:"uniqueIndex;size:191" json:"-"`
	User      *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
