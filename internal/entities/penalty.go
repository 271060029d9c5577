package entities

import "time"

type PenaltyStatus string

const (
	PenaltyStatusUnpaid PenaltyStatus = "unpaid"
	PenaltyStatusPaid   PenaltyStatus = "paid"
)

type Penalty struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	LoanID    uint          `gorm:"column:borrow_id;index;not null" json:"borrow_id"`
	UserID    uint          `gorm:"index;not null" json:"user_id"`
	Reason    string        `gorm:"size:500" json:"reason"`
	Amount    float64       `gorm:"not null;default:0" json:"amount"`
	Status    PenaltyStatus `gorm:"size:20;not null;default:unpaid" json:"status"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
	Loan      *Loan         `gorm:"foreignKey:LoanID" json:"borrow,omitempty"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Penalty) TableName() string {
	return "penalties"
}
