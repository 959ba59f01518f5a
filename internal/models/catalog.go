package models

import "github.com/shopspring/decimal"

// Track is a physical RC track a timer can run on.
type Track struct {
	Model
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"index;not null" json:"is_active"`
}

// Game is a bookable product: a track slot or a console session.
type Game struct {
	Model
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Duration    int             `gorm:"not null" json:"duration"` // minutes
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	MaxPlayers  int             `gorm:"not null;default:4" json:"max_players"`
	IsActive    bool            `gorm:"index;not null" json:"is_active"`
}
