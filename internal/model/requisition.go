package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequisitionStatus is the lifecycle position of a requisition list
type RequisitionStatus string

const (
	StatusDraft                  RequisitionStatus = "draft"
	StatusPendingManagerApproval RequisitionStatus = "pending_manager_approval"
	StatusManagerApproved        RequisitionStatus = "manager_approved"
	StatusInProgress             RequisitionStatus = "in_progress"
	StatusCompleted              RequisitionStatus = "completed"
	StatusRejected               RequisitionStatus = "rejected"
)

// AllStatuses lists every status in lifecycle order, rejected last
var AllStatuses = []RequisitionStatus{
	StatusDraft,
	StatusPendingManagerApproval,
	StatusManagerApproved,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
}

func (s RequisitionStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Priority of a requisition as chosen by the requester
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// RequisitionList is the header row of a facilities purchase request
type RequisitionList struct {
	ID                   uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber          string                `gorm:"type:varchar(32);not null;index" json:"order_number"`
	PropertyID           uuid.UUID             `gorm:"type:uuid;not null;index" json:"property_id"`
	CreatedBy            uuid.UUID             `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedByName        string                `gorm:"type:varchar(255)" json:"created_by_name"`
	Status               RequisitionStatus     `gorm:"type:varchar(40);not null;index" json:"status"`
	Priority             Priority              `gorm:"type:varchar(20);not null" json:"priority"`
	ExpectedDeliveryDate *time.Time            `gorm:"type:date" json:"expected_delivery_date,omitempty"`
	Notes                string                `gorm:"type:text" json:"notes"`
	TotalItems           int                   `gorm:"not null;default:0" json:"total_items"`
	IdempotencyKey       string                `gorm:"type:varchar(100);uniqueIndex;not null" json:"idempotency_key"`
	AssignedTo           *uuid.UUID            `gorm:"type:uuid;index" json:"assigned_to,omitempty"`
	ApprovedBy           *uuid.UUID            `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt           *time.Time            `json:"approved_at,omitempty"`
	RejectionReason      string                `gorm:"type:text" json:"rejection_reason,omitempty"`
	Items                []RequisitionListItem `gorm:"foreignKey:RequisitionListID;constraint:OnDelete:CASCADE;" json:"items,omitempty"`
	CreatedAt            time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RequisitionList) TableName() string { return "requisition_lists" }

func (r *RequisitionList) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RequisitionListItem is one requested line, carrying a snapshot of the catalog entry
type RequisitionListItem struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequisitionListID uuid.UUID `gorm:"type:uuid;not null;index" json:"requisition_list_id"`
	LineNo            int       `gorm:"not null" json:"line_no"`
	ItemMasterID      uuid.UUID `gorm:"type:uuid;not null" json:"item_master_id"`
	ItemName          string    `gorm:"type:varchar(255);not null" json:"item_name"`
	CategoryName      string    `gorm:"type:varchar(255)" json:"category_name"`
	Unit              string    `gorm:"type:varchar(50)" json:"unit"`
	UnitLimit         int       `gorm:"not null" json:"unit_limit"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RequisitionListItem) TableName() string { return "requisition_list_items" }

func (i *RequisitionListItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// SumQuantities returns the total requested units across the given lines
func SumQuantities(items []RequisitionListItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
