package models

import "time"

// Trainer owns a roster of captured creatures.
type Trainer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CapturedCreature is one roster entry.
type CapturedCreature struct {
	ID         int64     `json:"id"`
	CreatureID int       `json:"creature_id"`
	TrainerID  int64     `json:"trainer_id"`
	Nickname   string    `json:"nickname,omitempty"`
	Level      int       `json:"level"`
	Experience int       `json:"experience"`
	Shiny      bool      `json:"is_shiny"`
	CapturedAt time.Time `json:"captured_at"`
}

// CaptureRequest describes a new roster entry.
type CaptureRequest struct {
	TrainerID  int64  `json:"trainer_id"`
	CreatureID int    `json:"creature_id"`
	Nickname   string `json:"nickname,omitempty"`
	Level      int    `json:"level"`
	Shiny      bool   `json:"is_shiny"`
}
