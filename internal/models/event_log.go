package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventLog stores every emitted market event as JSON
type EventLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StreamID  uint64    `gorm:"not null;index" json:"stream_id"`
	EventName string    `gorm:"size:64;not null;index:idx_event_logs_name_created" json:"event_name"`
	Data      string    `gorm:"type:text;not null" json:"data"`
	CreatedAt time.Time `gorm:"index:idx_event_logs_name_created" json:"created_at"`
}

// TableName specifies the table name for EventLog model
func (EventLog) TableName() string {
	return "event_logs"
}

func (e *EventLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
