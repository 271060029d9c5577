package entities

import "time"

type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "borrowed"
	LoanStatusReturned LoanStatus = "returned"
)

// LoanPeriod is the fixed borrowing period.
const LoanPeriod = 14 * 24 * time.Hour

// MaxActiveLoans is how many books a user may hold at once.
const MaxActiveLoans = 3

// Loan is a borrow record. ReturnDate is set iff Status is LoanStatusReturned.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	BorrowDate time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time  `gorm:"index;not null" json:"due_date"`
	Status     LoanStatus `gorm:"index;size:20;not null;default:borrowed" json:"status"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Book       *Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Loan) TableName() string {
	return "borrows"
}

// DateOf truncates t to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
