package service

import (
	"context"

	"sitebooks/internal/export"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"
)

type AuditService interface {
	ListLogs(ctx context.Context, entityType string, page, limit int) ([]model.AuditLog, int64, error)
	AllLogs(ctx context.Context) ([]model.AuditLog, error)
	Export(ctx context.Context) ([]byte, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListLogs(ctx context.Context, entityType string, page, limit int) ([]model.AuditLog, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.auditRepo.List(ctx, entityType, page, limit)
}

func (s *auditService) AllLogs(ctx context.Context) ([]model.AuditLog, error) {
	return s.auditRepo.All(ctx)
}

func (s *auditService) Export(ctx context.Context) ([]byte, error) {
	logs, err := s.auditRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	sheet := export.Sheet{
		Name: "سجل العمليات",
		Columns: []export.Column{
			{Header: "الوقت", Width: 20},
			{Header: "المستخدم"},
			{Header: "العملية", Width: 12},
			{Header: "النوع"},
			{Header: "الاسم", Width: 28},
			{Header: "التفاصيل", Width: 60},
		},
	}
	for _, l := range logs {
		user := ""
		if l.User != nil {
			user = l.User.Name
		}
		sheet.Rows = append(sheet.Rows, []interface{}{
			l.CreatedAt.Format("2006-01-02 15:04"), user, l.Action, l.EntityType, l.EntityName, l.Details,
		})
	}
	return export.Workbook(sheet)
}
