package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()

	cfg := &config.JournalConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "journal.db"),
	}
	j := NewSQLiteJournal(cfg)
	require.NoError(t, j.Connect(), "Failed to connect journal")
	t.Cleanup(func() { j.Close() })
	require.NoError(t, j.Migrate(), "Failed to migrate journal")
	return j
}

func testRecord(id string, kind models.OperationKind, vault string, settledAt time.Time) models.OperationRecord {
	return models.OperationRecord{
		ID:        id,
		Kind:      kind,
		Vault:     vault,
		TxHash:    "0x" + id,
		Succeeded: true,
		StartedAt: settledAt.Add(-5 * time.Second),
		SettledAt: settledAt,
	}
}

func TestOperationHistory(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	vaultA := "0x00000000000000000000000000000000000000aa"
	vaultB := "0x00000000000000000000000000000000000000bb"
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []models.OperationRecord{
		testRecord("op1", models.OpDeposit, vaultA, base),
		testRecord("op2", models.OpSubmit, vaultA, base.Add(time.Minute)),
		testRecord("op3", models.OpDeposit, vaultB, base.Add(2*time.Minute)),
		testRecord("op4", models.OpRelease, vaultA, base.Add(3*time.Minute)),
	}
	for _, record := range records {
		require.NoError(t, j.RecordOperation(ctx, record), "Failed to record operation %s", record.ID)
	}

	t.Run("most recent first", func(t *testing.T) {
		got, err := j.GetOperations(ctx, OperationFilter{})
		require.NoError(t, err, "Failed to query operations")
		require.Len(t, got, 4, "Expected all recorded operations")
		for i, wantID := range []string{"op4", "op3", "op2", "op1"} {
			assert.Equal(t, wantID, got[i].ID, "Operations should be ordered by settled time, newest first")
		}
	})

	t.Run("filter by kind", func(t *testing.T) {
		kind := models.OpDeposit
		got, err := j.GetOperations(ctx, OperationFilter{Kind: &kind})
		require.NoError(t, err, "Failed to query operations")
		require.Len(t, got, 2, "Expected two deposit operations")
		for _, record := range got {
			assert.Equal(t, models.OpDeposit, record.Kind)
		}
	})

	t.Run("filter by vault", func(t *testing.T) {
		got, err := j.GetOperations(ctx, OperationFilter{Vault: &vaultB})
		require.NoError(t, err, "Failed to query operations")
		require.Len(t, got, 1, "Expected a single operation for vault B")
		assert.Equal(t, "op3", got[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := j.GetOperations(ctx, OperationFilter{Vault: &vaultA, Limit: 2})
		require.NoError(t, err, "Failed to query operations")
		require.Len(t, got, 2, "Limit should cap the result set")
		assert.Equal(t, "op4", got[0].ID)
		assert.Equal(t, "op2", got[1].ID)
	})
}

func TestOperationRoundTrip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	targetID := uint64(3)
	record := models.OperationRecord{
		ID:        "milestone-op",
		Kind:      models.OpApprove,
		Vault:     "0x00000000000000000000000000000000000000cc",
		TargetID:  &targetID,
		Succeeded: false,
		ErrorCode: utils.ErrCodeUnauthorized,
		Detail:    "Only the client can approve milestones",
		StartedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		SettledAt: time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC),
	}
	require.NoError(t, j.RecordOperation(ctx, record), "Failed to record operation")

	got, err := j.GetOperations(ctx, OperationFilter{})
	require.NoError(t, err, "Failed to query operations")
	require.Len(t, got, 1, "Expected the single recorded operation")

	stored := got[0]
	assert.Equal(t, models.OpApprove, stored.Kind)
	require.NotNil(t, stored.TargetID, "Milestone id should survive the round trip")
	assert.Equal(t, targetID, *stored.TargetID)
	assert.False(t, stored.Succeeded)
	assert.Equal(t, utils.ErrCodeUnauthorized, stored.ErrorCode)
	assert.Equal(t, record.Detail, stored.Detail)
}

func TestSnapshots(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	account := "0xabcdef1111111111111111111111111111111111"

	t.Run("no snapshot recorded", func(t *testing.T) {
		_, err := j.GetLatestSnapshot(ctx, account)
		require.Error(t, err, "Expected an error for a missing snapshot")
		appErr, ok := err.(*utils.AppError)
		require.True(t, ok, "Expected a structured error, got %T", err)
		assert.Equal(t, utils.ErrCodeNotFound, appErr.Code)
	})

	t.Run("latest wins", func(t *testing.T) {
		base := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			snapshot := PortfolioSnapshot{
				ID:              fmt.Sprintf("snap%d", i),
				Account:         account,
				TotalVaults:     i + 1,
				TotalDeposited:  "1000000000",
				TotalReleased:   "250000000",
				TotalMilestones: uint64(4 * (i + 1)),
				TakenAt:         base.Add(time.Duration(i) * time.Hour),
			}
			require.NoError(t, j.RecordSnapshot(ctx, snapshot), "Failed to record snapshot %d", i)
		}

		got, err := j.GetLatestSnapshot(ctx, account)
		require.NoError(t, err, "Failed to query latest snapshot")
		assert.Equal(t, "snap2", got.ID, "Most recent snapshot should win")
		assert.Equal(t, 3, got.TotalVaults)
		assert.Equal(t, uint64(12), got.TotalMilestones)
		assert.Equal(t, "1000000000", got.TotalDeposited)
	})

	t.Run("account lookup is case insensitive", func(t *testing.T) {
		got, err := j.GetLatestSnapshot(ctx, "0xABCDEF1111111111111111111111111111111111")
		require.NoError(t, err, "Failed to query latest snapshot")
		assert.Equal(t, account, got.Account)
	})
}
