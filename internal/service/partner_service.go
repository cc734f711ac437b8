package service

import (
	"context"
	"fmt"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"
)

type PartnerRequest struct {
	Kind      string `json:"kind" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	TaxNumber string `json:"tax_number"`
	Notes     string `json:"notes"`
}

// PartnerPath is the collection path of a partner kind, or "" for an
// unknown kind.
func PartnerPath(kind string) string {
	switch kind {
	case model.PartnerKindCustomer:
		return PathCustomers
	case model.PartnerKindSupplier:
		return PathSuppliers
	}
	return ""
}

type PartnerService interface {
	ListPartners(ctx context.Context, kind, search string, page, limit int) ([]model.Partner, int64, error)
	AllPartners(ctx context.Context, kind string) ([]model.Partner, error)
	GetPartner(ctx context.Context, id string) (*model.Partner, error)
	CreatePartner(ctx context.Context, actor string, req PartnerRequest) (*model.Partner, error)
	UpdatePartner(ctx context.Context, actor, id string, req PartnerRequest) (*model.Partner, error)
	DeletePartner(ctx context.Context, actor, id string) error
}

type partnerService struct {
	writer
	partnerRepo repository.PartnerRepository
}

func NewPartnerService(partnerRepo repository.PartnerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, feed ChangeFeed) PartnerService {
	return &partnerService{
		writer:      newWriter(txManager, auditRepo, feed),
		partnerRepo: partnerRepo,
	}
}

func (req PartnerRequest) apply(p *model.Partner) error {
	if PartnerPath(req.Kind) == "" {
		return invalid("kind must be %q or %q", model.PartnerKindCustomer, model.PartnerKindSupplier)
	}
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	p.Kind = req.Kind
	p.Name = strings.TrimSpace(req.Name)
	p.Phone = req.Phone
	p.Email = strings.TrimSpace(req.Email)
	p.Address = req.Address
	p.TaxNumber = req.TaxNumber
	p.Notes = req.Notes
	return nil
}

func (s *partnerService) ListPartners(ctx context.Context, kind, search string, page, limit int) ([]model.Partner, int64, error) {
	if kind != "" && PartnerPath(kind) == "" {
		return nil, 0, invalid("unknown partner kind %q", kind)
	}
	page, limit = normalizePage(page, limit)
	return s.partnerRepo.List(ctx, kind, strings.TrimSpace(search), page, limit)
}

func (s *partnerService) AllPartners(ctx context.Context, kind string) ([]model.Partner, error) {
	if PartnerPath(kind) == "" {
		return nil, invalid("unknown partner kind %q", kind)
	}
	return s.partnerRepo.AllByKind(ctx, kind)
}

func (s *partnerService) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	uid, err := parseID(id, "partner")
	if err != nil {
		return nil, err
	}
	p, err := s.partnerRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "partner")
	}
	return p, nil
}

func (s *partnerService) CreatePartner(ctx context.Context, actor string, req PartnerRequest) (*model.Partner, error) {
	partner := &model.Partner{}
	if err := req.apply(partner); err != nil {
		return nil, err
	}

	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Create(txCtx, partner); err != nil {
			return fmt.Errorf("failed to create partner: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: partner.Kind,
			entityID: partner.ID, entityName: partner.Name, details: req,
		})
	}, PartnerPath(partner.Kind))
	if err != nil {
		return nil, err
	}
	return partner, nil
}

// UpdatePartner may move a partner between kinds; both collections change then.
func (s *partnerService) UpdatePartner(ctx context.Context, actor, id string, req PartnerRequest) (*model.Partner, error) {
	partner, err := s.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	paths := []string{PartnerPath(partner.Kind)}
	if err := req.apply(partner); err != nil {
		return nil, err
	}
	if p := PartnerPath(partner.Kind); p != paths[0] {
		paths = append(paths, p)
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Update(txCtx, partner); err != nil {
			return fmt.Errorf("failed to update partner: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: partner.Kind,
			entityID: partner.ID, entityName: partner.Name, details: req,
		})
	}, paths...)
	if err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *partnerService) DeletePartner(ctx context.Context, actor, id string) error {
	partner, err := s.GetPartner(ctx, id)
	if err != nil {
		return err
	}
	return s.commit(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Delete(txCtx, partner.ID); err != nil {
			return fmt.Errorf("failed to delete partner: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: partner.Kind,
			entityID: partner.ID, entityName: partner.Name,
		})
	}, PartnerPath(partner.Kind), PathPurchases)
}
