package models

import "time"

// Model is gorm.Model without soft deletes; staff deletions here are permanent.
type Model struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
