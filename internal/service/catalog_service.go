package service

import (
	"context"
	"fmt"

	"facilityops/internal/model"
	"facilityops/internal/repository"
)

// CatalogService exposes the reference data a requisition form is built from.
type CatalogService interface {
	ListProperties(ctx context.Context) ([]model.Property, error)
	ListItemMasters(ctx context.Context, category string, includeInactive bool) ([]model.ItemMaster, error)
}

type catalogService struct {
	properties repository.PropertyRepository
	items      repository.ItemMasterRepository
}

func NewCatalogService(properties repository.PropertyRepository, items repository.ItemMasterRepository) CatalogService {
	return &catalogService{properties: properties, items: items}
}

func (s *catalogService) ListProperties(ctx context.Context) ([]model.Property, error) {
	properties, err := s.properties.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (s *catalogService) ListItemMasters(ctx context.Context, category string, includeInactive bool) ([]model.ItemMaster, error) {
	items, err := s.items.List(ctx, category, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list item masters: %w", err)
	}
	return items, nil
}
