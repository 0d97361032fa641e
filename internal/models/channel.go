package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel represents a broadcast channel entity
type Channel struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	Number    string    `json:"number" gorm:"type:text;not null;uniqueIndex;column:number" validate:"required"`
	Icon      *string   `json:"icon,omitempty" gorm:"type:text;column:icon"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewChannel creates a new Channel with generated UUID and timestamps
func NewChannel(name, number string) *Channel {
	now := time.Now().UTC()
	return &Channel{
		ID:        uuid.New(),
		Name:      name,
		Number:    number,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
