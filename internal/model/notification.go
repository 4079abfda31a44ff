package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationApproved      = "requisition_approved"
	NotificationRejected      = "requisition_rejected"
	NotificationClarification = "requisition_clarification"
	NotificationAssigned      = "requisition_assigned"
	NotificationRerouted      = "requisition_rerouted"
	NotificationCompleted     = "requisition_completed"
)

// Notification is an in-app message addressed to a single user
type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`
	ActionLink string    `gorm:"type:varchar(255)" json:"action_link"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
