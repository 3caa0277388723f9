// Package view reduces authoritative on-chain vault state into
// display-ready snapshots. Reads are parallelized per vault and per
// field; mutating operations never touch this package.
package view

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/internal/gateway"
	"github.com/arcnetlabs/vault-client/internal/metrics"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// unknownVaultName marks a vault whose individual reads failed during a
// portfolio fetch. The vault stays in the list with zeroed stats so the
// vault count stays consistent with the factory's record.
const unknownVaultName = "Unknown Vault"

// Gateway is the slice of the contract gateway the aggregator uses.
type Gateway interface {
	Deployed() error
	FactoryReader(ctx context.Context) (gateway.FactoryReader, bool)
	VaultReader(ctx context.Context, addr common.Address) (gateway.VaultReader, bool)
}

// Aggregator reads vault and factory state into consistent snapshots.
type Aggregator struct {
	session *session.Manager
	gateway Gateway
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// New creates an aggregator. metrics may be nil.
func New(sess *session.Manager, gw Gateway, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		session: sess,
		gateway: gw,
		metrics: m,
		logger:  utils.GetLogger(),
	}
}

// FetchVaultData reads one vault's name, owner, stats, milestones, and
// ledger in parallel. All-or-nothing: any failed read fails the whole
// snapshot rather than reporting partial state.
func (a *Aggregator) FetchVaultData(ctx context.Context, vaultAddr common.Address) (*models.VaultSnapshot, error) {
	start := time.Now()

	if err := a.gate(); err != nil {
		return nil, err
	}

	reader, ok := a.gateway.VaultReader(ctx, vaultAddr)
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeConnection, "No node binding available")
	}

	snapshot := &models.VaultSnapshot{Address: vaultAddr}
	errs := make([]error, 5)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		snapshot.Name, errs[0] = reader.Name(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Owner, errs[1] = reader.Owner(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Stats, errs[2] = reader.Stats(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Milestones, errs[3] = reader.Milestones(ctx)
	}()
	go func() {
		defer wg.Done()
		snapshot.Transactions, errs[4] = reader.Transactions(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			a.recordRefresh("vault", false, start)
			return nil, utils.NewAppError(utils.ErrCodeRemoteFailure,
				"Vault read failed", err.Error())
		}
	}

	a.recordRefresh("vault", true, start)
	return snapshot, nil
}

// FetchUserVaults resolves the factory's vault list for an account and
// reads each vault's summary in parallel. Vaults whose reads fail are
// kept with zeroed stats and a marker name; totals fold only over
// successfully read vaults, with integer accumulation throughout.
func (a *Aggregator) FetchUserVaults(ctx context.Context, account common.Address) (*models.Portfolio, error) {
	start := time.Now()

	if err := a.gate(); err != nil {
		return nil, err
	}

	factory, ok := a.gateway.FactoryReader(ctx)
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeConnection, "No node binding available")
	}

	addrs, err := factory.GetUserVaults(ctx, account)
	if err != nil {
		a.recordRefresh("portfolio", false, start)
		return nil, utils.NewAppError(utils.ErrCodeRemoteFailure,
			"Failed to list vaults", err.Error())
	}

	summaries := make([]models.VaultSummary, len(addrs))
	var wg sync.WaitGroup
	for i, addr := range addrs {
		wg.Add(1)
		go func(i int, addr common.Address) {
			defer wg.Done()
			summaries[i] = a.readSummary(ctx, addr)
		}(i, addr)
	}
	wg.Wait()

	portfolio := &models.Portfolio{
		Vaults:         summaries,
		TotalVaults:    len(summaries),
		TotalDeposited: new(big.Int),
		TotalReleased:  new(big.Int),
	}
	for _, summary := range summaries {
		if summary.ReadFailed {
			continue
		}
		portfolio.TotalDeposited.Add(portfolio.TotalDeposited, summary.TotalDeposited)
		portfolio.TotalReleased.Add(portfolio.TotalReleased, summary.TotalReleased)
		portfolio.TotalMilestones += summary.MilestoneCount
	}

	a.recordRefresh("portfolio", true, start)
	return portfolio, nil
}

// readSummary reads one vault's name and stats. Failure yields the
// zeroed placeholder summary instead of dropping the vault.
func (a *Aggregator) readSummary(ctx context.Context, addr common.Address) models.VaultSummary {
	reader, ok := a.gateway.VaultReader(ctx, addr)
	if !ok {
		return placeholderSummary(addr)
	}

	var (
		name     string
		stats    models.VaultStats
		nameErr  error
		statsErr error
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		name, nameErr = reader.Name(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = reader.Stats(ctx)
	}()
	wg.Wait()

	if nameErr != nil || statsErr != nil {
		a.logger.WithField("vault", addr.Hex()).Warn("Vault summary read failed")
		if a.metrics != nil {
			a.metrics.VaultReadErrors.Inc()
		}
		return placeholderSummary(addr)
	}

	return models.VaultSummary{
		Address:             addr,
		Name:                name,
		TotalDeposited:      stats.TotalDeposited,
		TotalReleased:       stats.TotalReleased,
		TotalLocked:         stats.TotalLocked,
		MilestoneCount:      stats.MilestoneCount,
		CompletedMilestones: stats.CompletedMilestones,
		PendingMilestones:   stats.PendingMilestones,
	}
}

// gate refuses aggregate reads unless the session is connected to the
// configured network and contracts are deployed.
func (a *Aggregator) gate() error {
	if err := a.gateway.Deployed(); err != nil {
		return err
	}
	if a.session.Current().State != session.Connected {
		return utils.NewAppError(utils.ErrCodeProviderUnavailable, "Wallet not connected")
	}
	if !a.session.IsCorrectChain() {
		return utils.NewAppError(utils.ErrCodeWrongNetwork,
			"Connected to the wrong network",
			"switch to "+a.session.Network().DisplayName)
	}
	return nil
}

func (a *Aggregator) recordRefresh(scope string, succeeded bool, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordRefresh(scope, succeeded, time.Since(start))
	}
}

func placeholderSummary(addr common.Address) models.VaultSummary {
	return models.VaultSummary{
		Address:        addr,
		Name:           unknownVaultName,
		TotalDeposited: new(big.Int),
		TotalReleased:  new(big.Int),
		TotalLocked:    new(big.Int),
		ReadFailed:     true,
	}
}

// ReversedTransactions returns a most-recent-first copy of a ledger
// without mutating the underlying chronological order.
func ReversedTransactions(entries []models.TransactionLogEntry) []models.TransactionLogEntry {
	reversed := make([]models.TransactionLogEntry, len(entries))
	for i, entry := range entries {
		reversed[len(entries)-1-i] = entry
	}
	return reversed
}
