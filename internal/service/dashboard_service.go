package service

import (
	"context"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"
)

type DashboardSummary struct {
	repository.Totals
	LowStock []model.InventoryItem `json:"low_stock"`
}

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
}

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	inventoryRepo repository.InventoryRepository
}

func NewDashboardService(dashboardRepo repository.DashboardRepository, inventoryRepo repository.InventoryRepository) DashboardService {
	return &dashboardService{dashboardRepo: dashboardRepo, inventoryRepo: inventoryRepo}
}

func (s *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	totals, err := s.dashboardRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.inventoryRepo.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	if low == nil {
		low = []model.InventoryItem{}
	}
	return &DashboardSummary{Totals: *totals, LowStock: low}, nil
}
