package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlanType string

const (
	PlanRCTrack     PlanType = "RC_TRACK"
	PlanPS5GamerDuo PlanType = "PS5_GAMER_DUO"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipExpired   MembershipStatus = "EXPIRED"
	MembershipCompleted MembershipStatus = "COMPLETED"
	MembershipCancelled MembershipStatus = "CANCELLED"
)

// Membership is a monthly allowance of sessions.
type Membership struct {
	Model
	UserID            uint                    `gorm:"index;not null" json:"user_id"`
	User              *User                   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanType          PlanType                `gorm:"type:varchar(32);not null" json:"plan_type"`
	StartDate         time.Time               `gorm:"not null" json:"start_date"`
	ExpiryDate        time.Time               `gorm:"index;not null" json:"expiry_date"`
	SessionsTotal     int                     `gorm:"not null" json:"sessions_total"`
	SessionsUsed      int                     `gorm:"not null;default:0" json:"sessions_used"`
	SessionsRemaining int                     `gorm:"not null" json:"sessions_remaining"`
	Status            MembershipStatus        `gorm:"type:varchar(16);index;not null;default:ACTIVE" json:"status"`
	LastBookedDate    *time.Time              `json:"last_booked_date"`
	Sessions          []MembershipSession     `gorm:"foreignKey:MembershipID" json:"sessions,omitempty"`
	Transactions      []MembershipTransaction `gorm:"foreignKey:MembershipID" json:"transactions,omitempty"`
}

// MembershipSession is one unit deducted from a membership's allowance.
type MembershipSession struct {
	Model
	MembershipID uint      `gorm:"index;not null" json:"membership_id"`
	BookingID    *uint     `gorm:"index" json:"booking_id"`
	Booking      *Booking  `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	UsedAt       time.Time `gorm:"not null" json:"used_at"`
	UsedBy       uint      `gorm:"not null" json:"used_by"`
	UsedByName   string    `json:"used_by_name"`
	Notes        *string   `json:"notes"`
}

type MembershipTransaction struct {
	Model
	MembershipID    uint            `gorm:"index;not null" json:"membership_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status          string          `gorm:"type:varchar(16);not null" json:"status"`
	PaymentMethod   *string         `json:"payment_method"`
	TransactionDate time.Time       `gorm:"not null" json:"transaction_date"`
}
