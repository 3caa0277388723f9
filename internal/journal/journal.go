// Package journal keeps a local history of settled operations and
// portfolio refreshes. It is a convenience record only; the vault
// contract's on-chain ledger remains the authoritative history, and
// the wallet session itself is never persisted.
package journal

import (
	"context"
	"strings"
	"time"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// Journal defines the local activity journal operations
type Journal interface {
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	RecordOperation(ctx context.Context, record models.OperationRecord) error
	GetOperations(ctx context.Context, filter OperationFilter) ([]models.OperationRecord, error)

	RecordSnapshot(ctx context.Context, snapshot PortfolioSnapshot) error
	GetLatestSnapshot(ctx context.Context, account string) (*PortfolioSnapshot, error)
}

// OperationFilter narrows journal history queries.
type OperationFilter struct {
	Kind  *models.OperationKind
	Vault *string
	Limit int
}

// PortfolioSnapshot is one recorded portfolio refresh. Monetary fields
// are stored as base-unit decimal strings to avoid precision loss.
type PortfolioSnapshot struct {
	ID              string    `json:"id" db:"id"`
	Account         string    `json:"account" db:"account"`
	TotalVaults     int       `json:"total_vaults" db:"total_vaults"`
	TotalDeposited  string    `json:"total_deposited" db:"total_deposited"`
	TotalReleased   string    `json:"total_released" db:"total_released"`
	TotalMilestones uint64    `json:"total_milestones" db:"total_milestones"`
	TakenAt         time.Time `json:"taken_at" db:"taken_at"`
}

// New creates a journal instance based on configuration
func New(cfg *config.JournalConfig) (Journal, error) {
	switch strings.ToLower(cfg.Type) {
	case "sqlite":
		return NewSQLiteJournal(cfg), nil
	case "postgres", "postgresql":
		return NewPostgresJournal(cfg), nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported journal type", cfg.Type)
	}
}

// SnapshotFromPortfolio builds a snapshot row from a fetched portfolio.
func SnapshotFromPortfolio(account string, p *models.Portfolio) PortfolioSnapshot {
	snapshot := PortfolioSnapshot{
		Account:         utils.NormalizeAddress(account),
		TotalVaults:     p.TotalVaults,
		TotalDeposited:  p.TotalDeposited.String(),
		TotalReleased:   p.TotalReleased.String(),
		TotalMilestones: p.TotalMilestones,
		TakenAt:         time.Now(),
	}
	if id, err := utils.GenerateID(); err == nil {
		snapshot.ID = id
	}
	return snapshot
}
