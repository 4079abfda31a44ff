package repository

import (
	"context"

	"facilityops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *model.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	List(ctx context.Context) ([]model.Property, error)
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *model.Property) error {
	return translate(GetDB(ctx, r.db).Create(property).Error)
}

func (r *propertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	if err := GetDB(ctx, r.db).First(&property, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &property, nil
}

func (r *propertyRepository) List(ctx context.Context) ([]model.Property, error) {
	var properties []model.Property
	err := GetDB(ctx, r.db).Order("name ASC").Find(&properties).Error
	return properties, err
}

type ItemMasterRepository interface {
	Create(ctx context.Context, item *model.ItemMaster) error
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ItemMaster, error)
	List(ctx context.Context, category string, activeOnly bool) ([]model.ItemMaster, error)
}

type itemMasterRepository struct {
	db *gorm.DB
}

func NewItemMasterRepository(db *gorm.DB) ItemMasterRepository {
	return &itemMasterRepository{db: db}
}

func (r *itemMasterRepository) Create(ctx context.Context, item *model.ItemMaster) error {
	return translate(GetDB(ctx, r.db).Create(item).Error)
}

func (r *itemMasterRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ItemMaster, error) {
	var items []model.ItemMaster
	if len(ids) == 0 {
		return items, nil
	}
	err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *itemMasterRepository) List(ctx context.Context, category string, activeOnly bool) ([]model.ItemMaster, error) {
	var items []model.ItemMaster
	query := GetDB(ctx, r.db)
	if category != "" {
		query = query.Where("category_name = ?", category)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("category_name ASC, name ASC").Find(&items).Error
	return items, err
}
