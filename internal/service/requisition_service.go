package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"facilityops/internal/model"
	"facilityops/internal/repository"
	"facilityops/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- DTOs ---

// Actor is the authenticated user performing a write.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role model.Role
}

type SaveOutcome string

const (
	OutcomeCreated       SaveOutcome = "created"
	OutcomeUpdated       SaveOutcome = "updated"
	OutcomeAlreadyExists SaveOutcome = "already_exists"
)

// CreateResult describes the requisition a save or submit landed on.
type CreateResult struct {
	ID          uuid.UUID               `json:"id"`
	OrderNumber string                  `json:"order_number"`
	Status      model.RequisitionStatus `json:"status"`
	Outcome     SaveOutcome             `json:"outcome"`
}

// Transition is a status and/or assignee change requested by the controller.
type Transition struct {
	Action   workflow.Action
	ActorID  uuid.UUID
	To       model.RequisitionStatus // empty keeps the current status
	AssignTo *uuid.UUID              // nil keeps the current assignee
	Reason   string
	Remarks  string
}

type RequisitionFilter struct {
	Status     model.RequisitionStatus
	PropertyID *uuid.UUID
	CreatedBy  *uuid.UUID
	AssignedTo *uuid.UUID
	Involving  *uuid.UUID // created by or assigned to
	Page       int
	Limit      int
}

// RequisitionConfig tunes order numbering and duplicate detection.
type RequisitionConfig struct {
	OrderPrefix          string
	PropertyCodeFallback string
	IdempotencyWindow    time.Duration
	Location             *time.Location
	Now                  func() time.Time
}

// --- Interface ---

type RequisitionService interface {
	Validate(form RequisitionForm, items []ItemInput) ValidationResult
	SaveDraft(ctx context.Context, actor Actor, form RequisitionForm, items []ItemInput, existingID *uuid.UUID) (CreateResult, error)
	SubmitForApproval(ctx context.Context, actor Actor, form RequisitionForm, items []ItemInput, existingID *uuid.UUID) (CreateResult, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
	Get(ctx context.Context, id uuid.UUID) (*model.RequisitionList, error)
	List(ctx context.Context, filter RequisitionFilter) ([]model.RequisitionList, int64, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, t Transition) (*model.RequisitionList, error)
}

type requisitionService struct {
	repo       repository.RequisitionRepository
	properties repository.PropertyRepository
	catalog    repository.ItemMasterRepository
	audit      repository.AuditRepository
	txManager  repository.TransactionManager
	keys       *KeyGenerator
	cfg        RequisitionConfig
	logger     *zap.Logger
}

func NewRequisitionService(
	repo repository.RequisitionRepository,
	properties repository.PropertyRepository,
	catalog repository.ItemMasterRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	cfg RequisitionConfig,
	logger *zap.Logger,
) RequisitionService {
	if cfg.OrderPrefix == "" {
		cfg.OrderPrefix = "REQ"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &requisitionService{
		repo:       repo,
		properties: properties,
		catalog:    catalog,
		audit:      audit,
		txManager:  txManager,
		keys:       NewKeyGenerator(cfg.IdempotencyWindow, cfg.Now),
		cfg:        cfg,
		logger:     logger,
	}
}

// --- Implementation ---

func (s *requisitionService) Validate(form RequisitionForm, items []ItemInput) ValidationResult {
	return Validate(form, items)
}

func (s *requisitionService) SaveDraft(ctx context.Context, actor Actor, form RequisitionForm, items []ItemInput, existingID *uuid.UUID) (CreateResult, error) {
	return s.save(ctx, actor, form, items, existingID, model.StatusDraft)
}

func (s *requisitionService) SubmitForApproval(ctx context.Context, actor Actor, form RequisitionForm, items []ItemInput, existingID *uuid.UUID) (CreateResult, error) {
	return s.save(ctx, actor, form, items, existingID, model.StatusPendingManagerApproval)
}

func (s *requisitionService) save(ctx context.Context, actor Actor, form RequisitionForm, items []ItemInput, existingID *uuid.UUID, status model.RequisitionStatus) (CreateResult, error) {
	resolved, err := s.resolveItems(ctx, items)
	if err != nil {
		return CreateResult{}, err
	}
	if result := Validate(form, resolved); !result.Valid {
		return CreateResult{}, result.Err()
	}

	propertyID := uuid.MustParse(form.PropertyID)
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return CreateResult{}, notFound(err, "property %s", form.PropertyID)
	}

	header, err := newHeader(form, property.ID)
	if err != nil {
		return CreateResult{}, err
	}

	if existingID != nil {
		return s.update(ctx, actor, *existingID, header, resolved, status)
	}
	return s.create(ctx, actor, property, header, resolved, status, form.ClientKey)
}

func (s *requisitionService) create(ctx context.Context, actor Actor, property *model.Property, header model.RequisitionList, items []ItemInput, status model.RequisitionStatus, clientKey string) (CreateResult, error) {
	code := PropertyCode(property, s.cfg.PropertyCodeFallback)
	key := s.keys.Generate(code, property.ID, actor.ID, string(status), clientKey)

	var result CreateResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		orderNumber, err := s.nextOrderNumber(txCtx)
		if err != nil {
			return err
		}

		req := header
		req.ID = uuid.New()
		req.OrderNumber = orderNumber
		req.CreatedBy = actor.ID
		req.CreatedByName = actor.Name
		req.Status = status
		req.IdempotencyKey = key

		lines := buildLines(req.ID, items)
		req.TotalItems = model.SumQuantities(lines)

		if err := s.repo.Create(txCtx, &req); err != nil {
			return err
		}
		if err := s.repo.CreateItems(txCtx, lines); err != nil {
			return fmt.Errorf("failed to create requisition items: %w", err)
		}

		action := model.ActionCreateRequisition
		if status == model.StatusPendingManagerApproval {
			action = model.ActionSubmitRequisition
		}
		if err := s.writeAudit(txCtx, actor.ID, action, &req, map[string]interface{}{
			"order_number": req.OrderNumber,
			"status":       req.Status,
			"total_items":  req.TotalItems,
		}); err != nil {
			return err
		}

		result = CreateResult{ID: req.ID, OrderNumber: req.OrderNumber, Status: req.Status, Outcome: OutcomeCreated}
		return nil
	})
	if err == nil {
		s.logger.Info("requisition created",
			zap.String("id", result.ID.String()),
			zap.String("order_number", result.OrderNumber),
			zap.String("status", string(result.Status)))
		return result, nil
	}

	// The failed insert has rolled the transaction back, so the lookup runs outside it.
	if errors.Is(err, repository.ErrDuplicateKey) {
		existing, findErr := s.repo.FindByIdempotencyKey(ctx, key)
		if findErr == nil {
			s.logger.Info("duplicate requisition submission resolved",
				zap.String("id", existing.ID.String()),
				zap.String("idempotency_key", key))
			return CreateResult{
				ID:          existing.ID,
				OrderNumber: existing.OrderNumber,
				Status:      existing.Status,
				Outcome:     OutcomeAlreadyExists,
			}, nil
		}
		s.logger.Error("duplicate requisition could not be resolved",
			zap.String("idempotency_key", key),
			zap.Error(findErr))
	}
	return CreateResult{}, fmt.Errorf("failed to create requisition: %w", err)
}

func (s *requisitionService) update(ctx context.Context, actor Actor, id uuid.UUID, header model.RequisitionList, items []ItemInput, status model.RequisitionStatus) (CreateResult, error) {
	var result CreateResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, "requisition %s", id)
		}
		// A creator re-submitting an already pending requisition is a retry.
		if status == model.StatusPendingManagerApproval && current.Status == status && current.CreatedBy == actor.ID {
			result = CreateResult{ID: current.ID, OrderNumber: current.OrderNumber, Status: current.Status, Outcome: OutcomeAlreadyExists}
			return nil
		}
		action := workflow.ActionEdit
		if status == model.StatusPendingManagerApproval {
			action = workflow.ActionSubmit
		}
		if err := Authorize(action, Subject{UserID: actor.ID, Role: actor.Role}, current); err != nil {
			return err
		}

		lines := buildLines(id, items)
		patch := map[string]interface{}{
			"property_id":            header.PropertyID,
			"priority":               header.Priority,
			"expected_delivery_date": header.ExpectedDeliveryDate,
			"notes":                  header.Notes,
			"total_items":            model.SumQuantities(lines),
			"status":                 status,
		}
		if err := s.repo.Update(txCtx, id, patch); err != nil {
			return notFound(err, "requisition %s", id)
		}
		if err := s.repo.DeleteItems(txCtx, id); err != nil {
			return fmt.Errorf("failed to replace requisition items: %w", err)
		}
		if err := s.repo.CreateItems(txCtx, lines); err != nil {
			return fmt.Errorf("failed to replace requisition items: %w", err)
		}

		auditAction := model.ActionUpdateRequisitionDraft
		if status == model.StatusPendingManagerApproval {
			auditAction = model.ActionSubmitRequisition
		}
		if err := s.writeAudit(txCtx, actor.ID, auditAction, current, map[string]interface{}{
			"from":        current.Status,
			"to":          status,
			"total_items": patch["total_items"],
		}); err != nil {
			return err
		}

		result = CreateResult{ID: id, OrderNumber: current.OrderNumber, Status: status, Outcome: OutcomeUpdated}
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}
	return result, nil
}

// GenerateOrderNumber previews the next order number for today without
// reserving it.
func (s *requisitionService) GenerateOrderNumber(ctx context.Context) (string, error) {
	prefix := s.orderPrefix()
	count, err := s.repo.CountByOrderPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to count order numbers: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// nextOrderNumber allocates the next number inside the caller's transaction.
func (s *requisitionService) nextOrderNumber(txCtx context.Context) (string, error) {
	prefix := s.orderPrefix()
	if err := s.repo.LockOrderSequence(txCtx, prefix); err != nil {
		return "", fmt.Errorf("failed to lock order sequence: %w", err)
	}
	count, err := s.repo.CountByOrderPrefix(txCtx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to count order numbers: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func (s *requisitionService) orderPrefix() string {
	day := s.cfg.Now().In(s.cfg.Location).Format("20060102")
	return fmt.Sprintf("%s-%s-", s.cfg.OrderPrefix, day)
}

func (s *requisitionService) Get(ctx context.Context, id uuid.UUID) (*model.RequisitionList, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "requisition %s", id)
	}
	return req, nil
}

func (s *requisitionService) List(ctx context.Context, filter RequisitionFilter) ([]model.RequisitionList, int64, error) {
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	list, total, err := s.repo.List(ctx, repository.RequisitionFilter{
		Status:     filter.Status,
		PropertyID: filter.PropertyID,
		CreatedBy:  filter.CreatedBy,
		AssignedTo: filter.AssignedTo,
		Involving:  filter.Involving,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requisitions: %w", err)
	}
	return list, total, nil
}

var transitionAudit = map[workflow.Action]string{
	workflow.ActionApprove:  model.ActionApproveRequisition,
	workflow.ActionReject:   model.ActionRejectRequisition,
	workflow.ActionClarify:  model.ActionClarifyRequisition,
	workflow.ActionReroute:  model.ActionRerouteRequisition,
	workflow.ActionComplete: model.ActionCompleteRequisition,
}

// ApplyTransition moves a requisition along the lifecycle. The caller has
// already authorized the actor; this only enforces the transition table.
func (s *requisitionService) ApplyTransition(ctx context.Context, id uuid.UUID, t Transition) (*model.RequisitionList, error) {
	auditAction, ok := transitionAudit[t.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a status transition", ErrInvalidTransition, t.Action)
	}

	var updated *model.RequisitionList
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, "requisition %s", id)
		}

		from := current.Status
		to := t.To
		if to == "" {
			to = from
		}
		if err := workflow.Requisition().Check(from, t.Action, to); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
		}

		patch := map[string]interface{}{}
		if to != from {
			patch["status"] = to
		}
		if t.AssignTo != nil && (current.AssignedTo == nil || *current.AssignedTo != *t.AssignTo) {
			patch["assigned_to"] = *t.AssignTo
		}
		switch t.Action {
		case workflow.ActionApprove:
			patch["approved_by"] = t.ActorID
			patch["approved_at"] = s.cfg.Now().UTC()
		case workflow.ActionReject:
			patch["rejection_reason"] = t.Reason
		}

		if err := s.repo.Update(txCtx, id, patch); err != nil {
			return notFound(err, "requisition %s", id)
		}

		details := map[string]interface{}{"from": from, "to": to}
		if t.Remarks != "" {
			details["remarks"] = t.Remarks
		}
		if t.Reason != "" {
			details["reason"] = t.Reason
		}
		if assignee, ok := patch["assigned_to"]; ok {
			details["assigned_to"] = assignee
		}
		if err := s.writeAudit(txCtx, t.ActorID, auditAction, current, details); err != nil {
			return err
		}

		updated, err = s.repo.FindByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("requisition transitioned",
		zap.String("id", id.String()),
		zap.String("action", string(t.Action)),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

// resolveItems refreshes each line from the item master. Lines with an
// unparseable id are left for Validate to report.
func (s *requisitionService) resolveItems(ctx context.Context, items []ItemInput) ([]ItemInput, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if id, err := uuid.Parse(item.ItemMasterID); err == nil {
			ids = append(ids, id)
		}
	}
	masters, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load item masters: %w", err)
	}
	byID := make(map[uuid.UUID]model.ItemMaster, len(masters))
	for _, m := range masters {
		byID[m.ID] = m
	}

	resolved := make([]ItemInput, len(items))
	for i, item := range items {
		resolved[i] = item
		id, err := uuid.Parse(item.ItemMasterID)
		if err != nil {
			continue
		}
		master, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: item master %s", ErrNotFound, item.ItemMasterID)
		}
		if !master.IsActive {
			return nil, newValidationError(fmt.Sprintf("items[%d]: %s is no longer available", i, master.Name))
		}
		resolved[i].ItemName = master.Name
		resolved[i].CategoryName = master.CategoryName
		resolved[i].Unit = master.Unit
		resolved[i].UnitLimit = master.UnitLimit
	}
	return resolved, nil
}

func (s *requisitionService) writeAudit(ctx context.Context, actorID uuid.UUID, action string, req *model.RequisitionList, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	userID := actorID
	entry := model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   req.ID.String(),
		EntityName: req.OrderNumber,
		Details:    string(payload),
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func newHeader(form RequisitionForm, propertyID uuid.UUID) (model.RequisitionList, error) {
	header := model.RequisitionList{
		PropertyID: propertyID,
		Priority:   form.Priority,
		Notes:      form.Notes,
	}
	if header.Priority == "" {
		header.Priority = model.PriorityNormal
	}
	if form.ExpectedDeliveryDate != "" {
		date, err := time.Parse("2006-01-02", form.ExpectedDeliveryDate)
		if err != nil {
			return header, newValidationError("expected_delivery_date must be a date in YYYY-MM-DD format")
		}
		header.ExpectedDeliveryDate = &date
	}
	return header, nil
}

func buildLines(requisitionID uuid.UUID, items []ItemInput) []model.RequisitionListItem {
	lines := make([]model.RequisitionListItem, 0, len(items))
	for i, item := range items {
		lines = append(lines, model.RequisitionListItem{
			RequisitionListID: requisitionID,
			LineNo:            i + 1,
			ItemMasterID:      uuid.MustParse(item.ItemMasterID),
			ItemName:          item.ItemName,
			CategoryName:      item.CategoryName,
			Unit:              item.Unit,
			UnitLimit:         item.UnitLimit,
			Quantity:          item.Quantity,
		})
	}
	return lines
}
