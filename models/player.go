package models

import (
	"time"
)

// Player is a registered account. Connection-scoped state (current score,
// display name for the session) lives on the websocket client, not here.
type Player struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	TotalGames   int       `json:"total_games" gorm:"not null;default:0"`
	Wins         int       `json:"wins" gorm:"not null;default:0"`
	TotalScore   int       `json:"total_score" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
