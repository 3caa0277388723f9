package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// SQLiteJournal implements Journal using SQLite
type SQLiteJournal struct {
	db     *sql.DB
	config *config.JournalConfig
	logger *logrus.Logger
}

// NewSQLiteJournal creates a new SQLite journal instance
func NewSQLiteJournal(cfg *config.JournalConfig) *SQLiteJournal {
	return &SQLiteJournal{
		config: cfg,
		logger: utils.GetLogger(),
	}
}

// Connect establishes the database connection
func (j *SQLiteJournal) Connect() error {
	dir := filepath.Dir(j.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeStorage, "Failed to create journal directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", j.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeStorage, "Failed to open SQLite journal", err.Error())
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(j.config.MaxIdleTime)

	if err := db.Ping(); err != nil {
		return utils.NewAppError(utils.ErrCodeStorage, "Failed to ping SQLite journal", err.Error())
	}

	j.db = db
	j.logger.WithField("path", j.config.ConnectionString).Info("SQLite journal connected")
	return nil
}

// Close closes the database connection
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Ping checks the connection
func (j *SQLiteJournal) Ping() error {
	if j.db == nil {
		return utils.NewAppError(utils.ErrCodeStorage, "Journal not connected")
	}
	return j.db.Ping()
}

// Migrate creates the journal schema
func (j *SQLiteJournal) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		vault TEXT,
		target_id INTEGER,
		tx_hash TEXT,
		succeeded INTEGER NOT NULL,
		error_code TEXT,
		detail TEXT,
		started_at TIMESTAMP NOT NULL,
		settled_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind);
	CREATE INDEX IF NOT EXISTS idx_operations_vault ON operations(vault);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		total_vaults INTEGER NOT NULL,
		total_deposited TEXT NOT NULL,
		total_released TEXT NOT NULL,
		total_milestones INTEGER NOT NULL,
		taken_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_account ON snapshots(account);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return utils.NewAppError(utils.ErrCodeStorage, "Journal migration failed", err.Error())
	}
	return nil
}

// RecordOperation inserts a settled operation row
func (j *SQLiteJournal) RecordOperation(ctx context.Context, record models.OperationRecord) error {
	query := `
	INSERT INTO operations (id, kind, vault, target_id, tx_hash, succeeded, error_code, detail, started_at, settled_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, query,
		record.ID, string(record.Kind), record.Vault, record.TargetID, record.TxHash,
		record.Succeeded, record.ErrorCode, record.Detail, record.StartedAt, record.SettledAt)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeStorage, "Failed to record operation", err.Error())
	}
	return nil
}

// GetOperations returns journaled operations, most recent first
func (j *SQLiteJournal) GetOperations(ctx context.Context, filter OperationFilter) ([]models.OperationRecord, error) {
	query := `
	SELECT id, kind, vault, target_id, tx_hash, succeeded, error_code, detail, started_at, settled_at
	FROM operations`

	var conditions []string
	var args []interface{}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}
	if filter.Vault != nil {
		conditions = append(conditions, "vault = ?")
		args = append(args, *filter.Vault)
	}
	query += whereClause(conditions)
	query += " ORDER BY settled_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeStorage, "Failed to query operations", err.Error())
	}
	defer rows.Close()

	return scanOperations(rows)
}

// RecordSnapshot inserts a portfolio snapshot row
func (j *SQLiteJournal) RecordSnapshot(ctx context.Context, snapshot PortfolioSnapshot) error {
	query := `
	INSERT INTO snapshots (id, account, total_vaults, total_deposited, total_released, total_milestones, taken_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.Account, snapshot.TotalVaults,
		snapshot.TotalDeposited, snapshot.TotalReleased, snapshot.TotalMilestones, snapshot.TakenAt)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeStorage, "Failed to record snapshot", err.Error())
	}
	return nil
}

// GetLatestSnapshot returns the most recent snapshot for an account
func (j *SQLiteJournal) GetLatestSnapshot(ctx context.Context, account string) (*PortfolioSnapshot, error) {
	query := `
	SELECT id, account, total_vaults, total_deposited, total_released, total_milestones, taken_at
	FROM snapshots WHERE account = ? ORDER BY taken_at DESC LIMIT 1`

	var snapshot PortfolioSnapshot
	err := j.db.QueryRowContext(ctx, query, utils.NormalizeAddress(account)).Scan(
		&snapshot.ID, &snapshot.Account, &snapshot.TotalVaults,
		&snapshot.TotalDeposited, &snapshot.TotalReleased, &snapshot.TotalMilestones, &snapshot.TakenAt)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "No snapshot recorded", account)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeStorage, "Failed to query snapshot", err.Error())
	}
	return &snapshot, nil
}
