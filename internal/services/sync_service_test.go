package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"anggaran/internal/core"
	"anggaran/internal/sheets/memory"
	"anggaran/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "anggaran.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// budgetGrid holds one expense of 15000 and one income of 500000 in
// the usual side by side layout.
func budgetGrid() [][]string {
	return [][]string{
		{"Expenses", "", "", "", "", "Income"},
		{"date", "amount", "description", "category", "", "date", "amount", "description", "category"},
		{"Jul 1", "Rp15.000", "coffee", "food", "", "Jul 25", "Rp500.000", "salary", "work"},
	}
}

func TestSyncAll(t *testing.T) {
	repo := newTestRepo(t)
	source := memory.New()
	exportDir := t.TempDir()
	ctx := context.Background()

	julyID := source.Add("July 2024", budgetGrid())
	source.Add("notes.txt", budgetGrid())
	augustID := source.Add("August 2024", budgetGrid())
	source.FailFetch(augustID, errors.New("backend offline"))

	svc := NewSyncService(repo, source, SyncConfig{
		Backend:     "memory",
		ExportDir:   exportDir,
		Parallelism: 2,
	})

	report, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, report.BatchID)
	require.Len(t, report.Outcomes, 3)
	require.Equal(t, 1, report.Created)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Failed)

	// Outcomes come back in listing order.
	require.Equal(t, StatusCreated, report.Outcomes[0].Status)
	require.Equal(t, StatusSkipped, report.Outcomes[1].Status)
	require.Equal(t, "no month and year in name", report.Outcomes[1].Reason)
	require.Equal(t, StatusFailed, report.Outcomes[2].Status)
	require.Contains(t, report.Outcomes[2].Reason, "August 2024")

	doc, err := repo.GetDocumentBySheetID(ctx, julyID)
	require.NoError(t, err)
	require.Equal(t, 7, doc.Month)
	require.Equal(t, 2024, doc.Year)
	require.Equal(t, "15000", doc.TotalExpenses.String())
	require.Equal(t, "500000", doc.TotalIncome.String())
	require.Equal(t, 1, doc.ExpenseCount)
	require.Equal(t, 1, doc.IncomeCount)

	require.Equal(t, filepath.Join(exportDir, "July 2024.csv"), doc.CSVPath)
	data, err := os.ReadFile(doc.CSVPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Equal(t, "name,amount,description,category,expense/income", lines[0])
	require.Equal(t, "coffee,15000,coffee,food,expense", lines[1])
	require.Equal(t, "salary,500000,salary,work,income", lines[2])

	txs, err := repo.DocumentTransactions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, core.KindExpense, txs[0].Kind)
	require.Equal(t, "Jul 1", txs[0].Date)
	require.Equal(t, core.KindIncome, txs[1].Kind)

	_, ok, err := repo.SourceSyncTime(ctx, "memory", "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSyncAllSecondRunSkips(t *testing.T) {
	repo := newTestRepo(t)
	source := memory.New()
	source.Add("July 2024", budgetGrid())
	svc := NewSyncService(repo, source, SyncConfig{Backend: "memory", ExportDir: t.TempDir()})
	ctx := context.Background()

	first, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	second, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 1, second.Skipped)
	require.Equal(t, "already synced", second.Outcomes[0].Reason)
}

func TestSyncAllListFailure(t *testing.T) {
	repo := newTestRepo(t)
	source := memory.New()
	source.FailList(errors.New("folder gone"))
	svc := NewSyncService(repo, source, SyncConfig{Backend: "memory"})

	report, err := svc.SyncAll(context.Background())
	require.Error(t, err)
	require.Nil(t, report)
}

func TestSyncOne(t *testing.T) {
	repo := newTestRepo(t)
	source := memory.New()
	id := source.Add("July 2024", budgetGrid())
	svc := NewSyncService(repo, source, SyncConfig{Backend: "memory", ExportDir: t.TempDir()})
	ctx := context.Background()

	_, err := svc.SyncAll(ctx)
	require.NoError(t, err)

	// A targeted sync replaces the stored month instead of skipping it.
	outcome, err := svc.SyncOne(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusUpdated, outcome.Status)
	require.Equal(t, 1, outcome.Expenses)

	// Display names work as well as ids.
	outcome, err = svc.SyncOne(ctx, "July 2024")
	require.NoError(t, err)
	require.Equal(t, StatusUpdated, outcome.Status)

	_, err = svc.SyncOne(ctx, "missing")
	require.ErrorIs(t, err, ErrNotInSource)
}
