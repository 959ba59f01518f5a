package models

import (
	"time"

	"gorm.io/datatypes"
)

type PointStatus string

const (
	PointPending  PointStatus = "PENDING"
	PointApproved PointStatus = "APPROVED"
	PointRejected PointStatus = "REJECTED"
)

// Point is one loyalty ledger entry. Only APPROVED entries count towards the balance.
type Point struct {
	Model
	UserID     uint        `gorm:"index;not null" json:"user_id"`
	User       *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount     int         `gorm:"not null" json:"amount"`
	Reason     string      `gorm:"not null" json:"reason"`
	Status     PointStatus `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	ApprovedBy *uint       `json:"approved_by"`
	ApprovedAt *time.Time  `json:"approved_at"`
}

const ActionPointsAllocated = "POINTS_ALLOCATED"

// StaffAction is an audit record of a back-office operation.
type StaffAction struct {
	Model
	StaffID     uint           `gorm:"index;not null" json:"staff_id"`
	Action      string         `gorm:"index;not null" json:"action"`
	Description string         `json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
}
