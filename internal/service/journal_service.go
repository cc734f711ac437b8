package service

import (
	"context"
	"fmt"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/shopspring/decimal"
)

type JournalLineRequest struct {
	Account string          `json:"account"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Memo    string          `json:"memo"`
}

type JournalEntryRequest struct {
	Date        string               `json:"date"`
	Description string               `json:"description"`
	Reference   string               `json:"reference"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=2"`
}

type JournalService interface {
	ListEntries(ctx context.Context, page, limit int) ([]model.JournalEntry, int64, error)
	AllEntries(ctx context.Context) ([]model.JournalEntry, error)
	GetEntry(ctx context.Context, id string) (*model.JournalEntry, error)
	CreateEntry(ctx context.Context, actor string, req JournalEntryRequest) (*model.JournalEntry, error)
	UpdateEntry(ctx context.Context, actor, id string, req JournalEntryRequest) (*model.JournalEntry, error)
	DeleteEntry(ctx context.Context, actor, id string) error
	TrialBalance(ctx context.Context) ([]repository.AccountBalance, error)
}

type journalService struct {
	writer
	journalRepo repository.JournalRepository
}

func NewJournalService(journalRepo repository.JournalRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, feed ChangeFeed) JournalService {
	return &journalService{
		writer:      newWriter(txManager, auditRepo, feed),
		journalRepo: journalRepo,
	}
}

// lines validates req and builds the entry lines. Debits and credits must
// match and be non-zero.
func (req JournalEntryRequest) lines() ([]model.JournalLine, error) {
	if len(req.Lines) < 2 {
		return nil, invalid("an entry needs at least two lines")
	}
	var debit, credit decimal.Decimal
	out := make([]model.JournalLine, 0, len(req.Lines))
	for i, l := range req.Lines {
		account := strings.TrimSpace(l.Account)
		if account == "" {
			return nil, invalid("line %d: account is required", i+1)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return nil, invalid("line %d: amounts cannot be negative", i+1)
		}
		if l.Debit.IsPositive() && l.Credit.IsPositive() {
			return nil, invalid("line %d: a line is either a debit or a credit", i+1)
		}
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
		out = append(out, model.JournalLine{Account: account, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo})
	}
	if !debit.IsPositive() || !debit.Equal(credit) {
		return nil, fmt.Errorf("debit %s, credit %s: %w", debit, credit, ErrUnbalancedEntry)
	}
	return out, nil
}

func (s *journalService) ListEntries(ctx context.Context, page, limit int) ([]model.JournalEntry, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.journalRepo.List(ctx, page, limit)
}

func (s *journalService) AllEntries(ctx context.Context) ([]model.JournalEntry, error) {
	return s.journalRepo.All(ctx)
}

func (s *journalService) GetEntry(ctx context.Context, id string) (*model.JournalEntry, error) {
	uid, err := parseID(id, "journal entry")
	if err != nil {
		return nil, err
	}
	entry, err := s.journalRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "journal entry")
	}
	return entry, nil
}

func (s *journalService) CreateEntry(ctx context.Context, actor string, req JournalEntryRequest) (*model.JournalEntry, error) {
	lines, err := req.lines()
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	entry := &model.JournalEntry{Date: date, Description: req.Description, Reference: req.Reference, Lines: lines}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.journalRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create journal entry: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "journal_entry",
			entityID: entry.ID, entityName: entry.Reference, details: req,
		})
	}, PathJournal)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *journalService) UpdateEntry(ctx context.Context, actor, id string, req JournalEntryRequest) (*model.JournalEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := req.lines()
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	entry.Date = date
	entry.Description = req.Description
	entry.Reference = req.Reference
	entry.Lines = lines

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.journalRepo.Replace(txCtx, entry); err != nil {
			return fmt.Errorf("failed to update journal entry: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "journal_entry",
			entityID: entry.ID, entityName: entry.Reference, details: req,
		})
	}, PathJournal)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *journalService) DeleteEntry(ctx context.Context, actor, id string) error {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	return s.commit(ctx, func(txCtx context.Context) error {
		if err := s.journalRepo.Delete(txCtx, entry.ID); err != nil {
			return fmt.Errorf("failed to delete journal entry: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "journal_entry",
			entityID: entry.ID, entityName: entry.Reference,
		})
	}, PathJournal)
}

func (s *journalService) TrialBalance(ctx context.Context) ([]repository.AccountBalance, error) {
	return s.journalRepo.TrialBalance(ctx)
}
