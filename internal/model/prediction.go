package model

import "time"

// Prediction is one classification outcome kept for auditing. The HTML page never reads it back.
type Prediction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID string    `gorm:"size:36;not null;uniqueIndex" json:"request_id"`
	Filename  string    `gorm:"size:255;not null" json:"filename"`
	Label     string    `gorm:"size:64;not null;index" json:"label"`
	Group     string    `gorm:"column:produce_group;size:16;not null" json:"group"`
	Calories  string    `gorm:"size:255" json:"calories,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
