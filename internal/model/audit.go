package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateRequisition      = "CREATE_REQUISITION"
	ActionUpdateRequisitionDraft = "UPDATE_REQUISITION_DRAFT"
	ActionSubmitRequisition      = "SUBMIT_REQUISITION"
	ActionApproveRequisition     = "APPROVE_REQUISITION"
	ActionRejectRequisition      = "REJECT_REQUISITION"
	ActionClarifyRequisition     = "REQUEST_CLARIFICATION"
	ActionRerouteRequisition     = "REROUTE_REQUISITION"
	ActionCompleteRequisition    = "COMPLETE_REQUISITION"
	EntityRequisitionList        = "requisition_list"
)

// AuditLog tracks Who, What, and When for every requisition change
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
