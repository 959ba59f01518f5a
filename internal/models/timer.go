package models

import "time"

type TimerStatus string

const (
	TimerStopped   TimerStatus = "STOPPED"
	TimerRunning   TimerStatus = "RUNNING"
	TimerPaused    TimerStatus = "PAUSED"
	TimerCompleted TimerStatus = "COMPLETED"
)

// Timer is the on-site countdown of a customer's play time.
// RemainingSeconds is authoritative only while the timer is not RUNNING; while RUNNING the
// live value is RemainingSeconds minus the seconds elapsed since StartTime.
type Timer struct {
	Model
	CustomerName     string      `gorm:"not null" json:"customer_name"`
	TrackID          *uint       `gorm:"index" json:"track_id"`
	Track            *Track      `gorm:"foreignKey:TrackID" json:"track,omitempty"`
	AllocatedMinutes int         `gorm:"not null" json:"allocated_minutes"`
	RemainingSeconds int         `gorm:"not null" json:"remaining_seconds"`
	Status           TimerStatus `gorm:"type:varchar(16);index;not null;default:STOPPED" json:"status"`
	StartTime        *time.Time  `json:"start_time"`
	PausedAt         *time.Time  `json:"paused_at"`
	IsCombo          bool        `gorm:"default:false" json:"is_combo"`
	CreatedBy        uint        `gorm:"index;not null" json:"created_by"`
	CreatedByName    string      `json:"created_by_name"`
}
