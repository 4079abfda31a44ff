package repository

import (
	"context"

	"facilityops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequisitionFilter narrows a requisition listing. Zero values mean "any".
type RequisitionFilter struct {
	Status     model.RequisitionStatus
	PropertyID *uuid.UUID
	CreatedBy  *uuid.UUID
	AssignedTo *uuid.UUID
	Involving  *uuid.UUID // created_by or assigned_to
	Offset     int
	Limit      int
}

type RequisitionRepository interface {
	Create(ctx context.Context, req *model.RequisitionList) error
	Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RequisitionList, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.RequisitionList, error)
	List(ctx context.Context, filter RequisitionFilter) ([]model.RequisitionList, int64, error)
	CountByOrderPrefix(ctx context.Context, prefix string) (int64, error)
	LockOrderSequence(ctx context.Context, prefix string) error
	CreateItems(ctx context.Context, items []model.RequisitionListItem) error
	DeleteItems(ctx context.Context, requisitionID uuid.UUID) error
}

type requisitionRepository struct {
	db *gorm.DB
}

func NewRequisitionRepository(db *gorm.DB) RequisitionRepository {
	return &requisitionRepository{db: db}
}

// Create inserts the header row only; lines go through CreateItems.
func (r *requisitionRepository) Create(ctx context.Context, req *model.RequisitionList) error {
	return translate(GetDB(ctx, r.db).Omit(clause.Associations).Create(req).Error)
}

func (r *requisitionRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return nil
	}
	result := GetDB(ctx, r.db).Model(&model.RequisitionList{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *requisitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RequisitionList, error) {
	var req model.RequisitionList
	err := GetDB(ctx, r.db).
		Preload("Items", orderedItems).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *requisitionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.RequisitionList, error) {
	var req model.RequisitionList
	err := GetDB(ctx, r.db).
		Preload("Items", orderedItems).
		First(&req, "idempotency_key = ?", key).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *requisitionRepository) List(ctx context.Context, filter RequisitionFilter) ([]model.RequisitionList, int64, error) {
	var requisitions []model.RequisitionList
	var total int64

	query := applyRequisitionFilter(GetDB(ctx, r.db).Model(&model.RequisitionList{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := applyRequisitionFilter(GetDB(ctx, r.db), filter).Order("created_at DESC")
	if filter.Limit > 0 {
		fetch = fetch.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := fetch.Find(&requisitions).Error; err != nil {
		return nil, 0, err
	}

	return requisitions, total, nil
}

func (r *requisitionRepository) CountByOrderPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.RequisitionList{}).
		Where("order_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// LockOrderSequence serialises order number allocation for prefix until the
// surrounding transaction ends. Only postgres offers advisory locks; other
// dialects fall through and rely on their own write locking.
func (r *requisitionRepository) LockOrderSequence(ctx context.Context, prefix string) error {
	db := GetDB(ctx, r.db)
	if !isPostgres(db) {
		return nil
	}
	return db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error
}

func (r *requisitionRepository) CreateItems(ctx context.Context, items []model.RequisitionListItem) error {
	if len(items) == 0 {
		return nil
	}
	return translate(GetDB(ctx, r.db).Create(&items).Error)
}

func (r *requisitionRepository) DeleteItems(ctx context.Context, requisitionID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("requisition_list_id = ?", requisitionID).
		Delete(&model.RequisitionListItem{}).Error
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

func applyRequisitionFilter(query *gorm.DB, filter RequisitionFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Involving != nil {
		query = query.Where("(created_by = ? OR assigned_to = ?)", *filter.Involving, *filter.Involving)
	}
	return query
}
