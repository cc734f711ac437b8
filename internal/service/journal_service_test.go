package service

import (
	"context"
	"testing"

	"sitebooks/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalEntryMustBalance(t *testing.T) {
	tests := []struct {
		name  string
		lines []JournalLineRequest
		want  error
	}{
		{
			name:  "single line",
			lines: []JournalLineRequest{{Account: "الصندوق", Debit: dec("10")}},
			want:  ErrValidation,
		},
		{
			name:  "unbalanced",
			lines: []JournalLineRequest{{Account: "الصندوق", Debit: dec("10")}, {Account: "البنك", Credit: dec("9")}},
			want:  ErrUnbalancedEntry,
		},
		{
			name:  "all zero",
			lines: []JournalLineRequest{{Account: "الصندوق"}, {Account: "البنك"}},
			want:  ErrUnbalancedEntry,
		},
		{
			name:  "debit and credit on one line",
			lines: []JournalLineRequest{{Account: "الصندوق", Debit: dec("5"), Credit: dec("5")}, {Account: "البنك"}},
			want:  ErrValidation,
		},
		{
			name:  "missing account",
			lines: []JournalLineRequest{{Debit: dec("5")}, {Account: "البنك", Credit: dec("5")}},
			want:  ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JournalEntryRequest{Lines: tt.lines}.lines()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJournalLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	journal := NewJournalService(repository.NewJournalRepository(f.db), f.audits, f.txm, f.feed)

	entry, err := journal.CreateEntry(ctx, "", JournalEntryRequest{
		Date:      "2024-06-01",
		Reference: "JV-1",
		Lines: []JournalLineRequest{
			{Account: "المصروفات", Debit: dec("300")},
			{Account: "الصندوق", Credit: dec("300")},
		},
	})
	require.NoError(t, err)
	assert.True(t, f.rec.touched(PathJournal))

	_, err = journal.UpdateEntry(ctx, "", entry.ID.String(), JournalEntryRequest{
		Lines: []JournalLineRequest{{Account: "المصروفات", Debit: dec("1")}, {Account: "الصندوق", Credit: dec("2")}},
	})
	assert.ErrorIs(t, err, ErrUnbalancedEntry)

	_, err = journal.UpdateEntry(ctx, "", entry.ID.String(), JournalEntryRequest{
		Reference: "JV-1",
		Lines: []JournalLineRequest{
			{Account: "المصروفات", Debit: dec("200")},
			{Account: "الصندوق", Credit: dec("150")},
			{Account: "البنك", Credit: dec("50")},
		},
	})
	require.NoError(t, err)

	balances, err := journal.TrialBalance(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 3)
	debit, credit := dec("0"), dec("0")
	for _, b := range balances {
		debit = debit.Add(b.Debit)
		credit = credit.Add(b.Credit)
	}
	assert.True(t, dec("200").Equal(debit))
	assert.True(t, debit.Equal(credit))

	require.NoError(t, journal.DeleteEntry(ctx, "", entry.ID.String()))
	_, err = journal.GetEntry(ctx, entry.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}
