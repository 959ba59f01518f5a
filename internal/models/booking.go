package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

type Booking struct {
	Model
	UserID              uint            `gorm:"index;not null" json:"user_id"`
	User                *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GameID              uint            `gorm:"index;not null" json:"game_id"`
	Game                *Game           `gorm:"foreignKey:GameID" json:"game,omitempty"`
	StartTime           time.Time       `gorm:"index;not null" json:"start_time"`
	EndTime             time.Time       `gorm:"index;not null" json:"end_time"`
	Duration            int             `gorm:"not null" json:"duration"` // minutes
	Players             int             `gorm:"not null" json:"players"`
	TotalPrice          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"`
	Status              BookingStatus   `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	PaymentStatus       PaymentStatus   `gorm:"type:varchar(16);index;not null;default:PENDING" json:"payment_status"`
	PaymentID           *string         `json:"payment_id"`
	Notes               *string         `json:"notes"`
	MembershipSessionID *uint           `gorm:"index" json:"membership_session_id"`
}

// Cancellable reports whether the booking may still move to CANCELLED.
func (b *Booking) Cancellable() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
