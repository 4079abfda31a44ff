package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role decides which requisition actions a user may take
type Role string

const (
	RoleRequester         Role = "requester"
	RoleManager           Role = "manager"
	RoleOpsSupervisor     Role = "ops_supervisor"
	RoleAdmin             Role = "admin"
	RolePurchaseExecutive Role = "purchase_executive"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleRequester, RoleManager, RoleOpsSupervisor, RoleAdmin, RolePurchaseExecutive:
		return true
	}
	return false
}

// User is a person acting on requisitions. Credentials live with the identity provider.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role      Role           `gorm:"type:varchar(50);not null;index" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
