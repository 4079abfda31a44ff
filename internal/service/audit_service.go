package service

import (
	"context"
	"encoding/json"
	"fmt"

	"facilityops/internal/repository"

	"github.com/google/uuid"
)

// ActivityEntry is one line of a requisition's history.
type ActivityEntry struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	UserName  string                 `json:"user_name"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
	CreatedAt string                 `json:"created_at"`
}

type AuditService interface {
	ListActivity(ctx context.Context, requisitionID uuid.UUID) ([]ActivityEntry, error)
}

type auditService struct {
	audit repository.AuditRepository
	users repository.UserRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(audit repository.AuditRepository, users repository.UserRepository) AuditService {
	return &auditService{audit: audit, users: users}
}

// ListActivity returns the audit trail of a requisition, oldest first.
func (s *auditService) ListActivity(ctx context.Context, requisitionID uuid.UUID) ([]ActivityEntry, error) {
	logs, err := s.audit.ListByEntity(ctx, requisitionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	names := map[uuid.UUID]string{}
	res := make([]ActivityEntry, 0, len(logs))
	for _, l := range logs {
		entry := ActivityEntry{
			ID:        l.ID.String(),
			UserName:  "System",
			Action:    l.Action,
			CreatedAt: l.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if l.UserID != nil {
			entry.UserID = l.UserID.String()
			entry.UserName = s.userName(ctx, *l.UserID, names)
		}
		if l.Details != "" {
			_ = json.Unmarshal([]byte(l.Details), &entry.Details)
		}
		res = append(res, entry)
	}
	return res, nil
}

func (s *auditService) userName(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]string) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name := "Unknown"
	if user, err := s.users.GetByID(ctx, id); err == nil {
		name = user.Name
	}
	cache[id] = name
	return name
}
