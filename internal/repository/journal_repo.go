package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountBalance is the debit and credit total of one account.
type AccountBalance struct {
	Account string          `json:"account"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

type JournalRepository interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	// Replace swaps the entry's lines and saves its header.
	Replace(ctx context.Context, entry *model.JournalEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error)
	List(ctx context.Context, page, limit int) ([]model.JournalEntry, int64, error)
	All(ctx context.Context) ([]model.JournalEntry, error)
	TrialBalance(ctx context.Context) ([]AccountBalance, error)
}

type journalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *journalRepository) Replace(ctx context.Context, entry *model.JournalEntry) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("entry_id = ?", entry.ID).Delete(&model.JournalLine{}).Error; err != nil {
		return err
	}
	for i := range entry.Lines {
		entry.Lines[i].ID = uuid.Nil
		entry.Lines[i].EntryID = entry.ID
	}
	if len(entry.Lines) > 0 {
		if err := db.Create(&entry.Lines).Error; err != nil {
			return err
		}
	}
	return db.Model(entry).Select("date", "description", "reference").Updates(entry).Error
}

func (r *journalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("entry_id = ?", id).Delete(&model.JournalLine{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&model.JournalEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *journalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := GetDB(ctx, r.db).Preload("Lines").First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepository) List(ctx context.Context, page, limit int) ([]model.JournalEntry, int64, error) {
	return paginate[model.JournalEntry](GetDB(ctx, r.db).Model(&model.JournalEntry{}), "date DESC, created_at DESC", page, limit, "Lines")
}

func (r *journalRepository) All(ctx context.Context) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	if err := GetDB(ctx, r.db).Preload("Lines").Order("date DESC, created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *journalRepository) TrialBalance(ctx context.Context) ([]AccountBalance, error) {
	var rows []AccountBalance
	if err := GetDB(ctx, r.db).Model(&model.JournalLine{}).
		Select("account, COALESCE(SUM(debit), 0) AS debit, COALESCE(SUM(credit), 0) AS credit").
		Group("account").
		Order("account ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
