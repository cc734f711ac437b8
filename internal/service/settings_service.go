package service

import (
	"context"
	"fmt"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"
)

// Broadcaster announces a change on every collection at once.
type Broadcaster interface {
	TouchAll(ctx context.Context)
}

type SettingsService interface {
	// Reset wipes every business record in one transaction. Users and jobs
	// are kept; the RESET audit row is written after the wipe so it survives.
	Reset(ctx context.Context, actor string) error
}

type settingsService struct {
	writer
	dataRepo    repository.DataRepository
	broadcaster Broadcaster
}

func NewSettingsService(dataRepo repository.DataRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, feed ChangeFeed, broadcaster Broadcaster) SettingsService {
	return &settingsService{
		writer:      newWriter(txManager, auditRepo, feed),
		dataRepo:    dataRepo,
		broadcaster: broadcaster,
	}
}

func (s *settingsService) Reset(ctx context.Context, actor string) error {
	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.dataRepo.Reset(txCtx); err != nil {
			return fmt.Errorf("failed to reset data: %w", err)
		}
		return s.record(txCtx, auditEntry{actor: actor, action: model.ActionReset, entityType: "system"})
	})
	if err != nil {
		return err
	}
	if s.broadcaster != nil {
		s.broadcaster.TouchAll(ctx)
	}
	return nil
}
