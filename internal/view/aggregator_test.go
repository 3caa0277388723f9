package view

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/gateway"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

var (
	testNetwork = config.NetworkProfile{
		ChainID:        5042002,
		DisplayName:    "Arc Network Testnet",
		CurrencySymbol: "USDC",
	}
	testAccount = common.HexToAddress("0x1111111111111111111111111111111111111111")
	vaultA      = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	vaultB      = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

type fakeSessionProvider struct {
	chainID uint64
	events  chan session.Event
}

func (p *fakeSessionProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{testAccount}, nil
}

func (p *fakeSessionProvider) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	return nil, nil
}

func (p *fakeSessionProvider) ChainID(ctx context.Context) (uint64, error) {
	return p.chainID, nil
}

func (p *fakeSessionProvider) SwitchChain(ctx context.Context, chainID uint64) error { return nil }

func (p *fakeSessionProvider) AddChain(ctx context.Context, profile config.NetworkProfile) error {
	return nil
}

func (p *fakeSessionProvider) TransactOpts(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{From: account}, nil
}

func (p *fakeSessionProvider) Events() <-chan session.Event { return p.events }

func (p *fakeSessionProvider) Close() error { return nil }

func connectedSession(t *testing.T, chainID uint64) *session.Manager {
	t.Helper()
	provider := &fakeSessionProvider{chainID: chainID, events: make(chan session.Event)}
	manager := session.NewManager(provider, testNetwork)
	if err := manager.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return manager
}

type fakeVaultReader struct {
	name         string
	owner        common.Address
	stats        models.VaultStats
	milestones   []models.Milestone
	transactions []models.TransactionLogEntry

	statsErr error
	nameErr  error
}

func (f *fakeVaultReader) Name(ctx context.Context) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.name, nil
}

func (f *fakeVaultReader) Owner(ctx context.Context) (common.Address, error) {
	return f.owner, nil
}

func (f *fakeVaultReader) Stats(ctx context.Context) (models.VaultStats, error) {
	if f.statsErr != nil {
		return models.VaultStats{}, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeVaultReader) Milestones(ctx context.Context) ([]models.Milestone, error) {
	return f.milestones, nil
}

func (f *fakeVaultReader) Transactions(ctx context.Context) ([]models.TransactionLogEntry, error) {
	return f.transactions, nil
}

type fakeFactoryReader struct {
	vaults []common.Address
	err    error
}

func (f *fakeFactoryReader) GetUserVaults(ctx context.Context, user common.Address) ([]common.Address, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vaults, nil
}

type fakeGateway struct {
	deployedErr error
	factory     *fakeFactoryReader
	readers     map[common.Address]*fakeVaultReader
}

func (g *fakeGateway) Deployed() error { return g.deployedErr }

func (g *fakeGateway) FactoryReader(ctx context.Context) (gateway.FactoryReader, bool) {
	return g.factory, true
}

func (g *fakeGateway) VaultReader(ctx context.Context, addr common.Address) (gateway.VaultReader, bool) {
	reader, ok := g.readers[addr]
	return reader, ok
}

func healthyStats() models.VaultStats {
	return models.VaultStats{
		TotalDeposited:      utils.ParseUSDC("1000"),
		TotalReleased:       utils.ParseUSDC("250"),
		TotalLocked:         utils.ParseUSDC("750"),
		MilestoneCount:      4,
		CompletedMilestones: 1,
		PendingMilestones:   3,
	}
}

func TestFetchVaultData(t *testing.T) {
	ctx := context.Background()

	t.Run("combines all reads into one snapshot", func(t *testing.T) {
		gw := &fakeGateway{readers: map[common.Address]*fakeVaultReader{
			vaultA: {
				name:       "Project Alpha",
				owner:      testAccount,
				stats:      healthyStats(),
				milestones: []models.Milestone{{ID: 0, Title: "Design", Status: models.StatusPending}},
				transactions: []models.TransactionLogEntry{
					{Timestamp: 100, Action: "Deposit", Amount: utils.ParseUSDC("1000"), Actor: testAccount},
				},
			},
		}}
		aggregator := New(connectedSession(t, testNetwork.ChainID), gw, nil)

		snapshot, err := aggregator.FetchVaultData(ctx, vaultA)
		if err != nil {
			t.Fatalf("FetchVaultData failed: %v", err)
		}
		if snapshot.Name != "Project Alpha" {
			t.Errorf("name = %q", snapshot.Name)
		}
		if snapshot.Owner != testAccount {
			t.Errorf("owner = %s", snapshot.Owner.Hex())
		}
		if len(snapshot.Milestones) != 1 || len(snapshot.Transactions) != 1 {
			t.Errorf("milestones = %d, transactions = %d", len(snapshot.Milestones), len(snapshot.Transactions))
		}
	})

	t.Run("any failed read fails the whole snapshot", func(t *testing.T) {
		gw := &fakeGateway{readers: map[common.Address]*fakeVaultReader{
			vaultA: {
				name:     "Project Alpha",
				stats:    healthyStats(),
				statsErr: errors.New("connection reset"),
			},
		}}
		aggregator := New(connectedSession(t, testNetwork.ChainID), gw, nil)

		if _, err := aggregator.FetchVaultData(ctx, vaultA); err == nil {
			t.Fatal("expected error when one read fails")
		}
	})

	t.Run("refused when disconnected", func(t *testing.T) {
		gw := &fakeGateway{readers: map[common.Address]*fakeVaultReader{}}
		aggregator := New(session.NewManager(nil, testNetwork), gw, nil)

		_, err := aggregator.FetchVaultData(ctx, vaultA)
		if !utils.IsCode(err, utils.ErrCodeProviderUnavailable) {
			t.Errorf("code = %s, want %s", utils.ErrorCode(err), utils.ErrCodeProviderUnavailable)
		}
	})

	t.Run("refused on the wrong chain", func(t *testing.T) {
		gw := &fakeGateway{readers: map[common.Address]*fakeVaultReader{}}
		aggregator := New(connectedSession(t, 1), gw, nil)

		_, err := aggregator.FetchVaultData(ctx, vaultA)
		if !utils.IsCode(err, utils.ErrCodeWrongNetwork) {
			t.Errorf("code = %s, want %s", utils.ErrorCode(err), utils.ErrCodeWrongNetwork)
		}
	})
}

func TestFetchUserVaults(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates totals across vaults", func(t *testing.T) {
		gw := &fakeGateway{
			factory: &fakeFactoryReader{vaults: []common.Address{vaultA, vaultB}},
			readers: map[common.Address]*fakeVaultReader{
				vaultA: {name: "Alpha", stats: healthyStats()},
				vaultB: {name: "Beta", stats: healthyStats()},
			},
		}
		aggregator := New(connectedSession(t, testNetwork.ChainID), gw, nil)

		portfolio, err := aggregator.FetchUserVaults(ctx, testAccount)
		if err != nil {
			t.Fatalf("FetchUserVaults failed: %v", err)
		}

		if portfolio.TotalVaults != 2 {
			t.Errorf("TotalVaults = %d, want 2", portfolio.TotalVaults)
		}
		if portfolio.TotalDeposited.Cmp(utils.ParseUSDC("2000")) != 0 {
			t.Errorf("TotalDeposited = %s, want %s", portfolio.TotalDeposited, utils.ParseUSDC("2000"))
		}
		if portfolio.TotalReleased.Cmp(utils.ParseUSDC("500")) != 0 {
			t.Errorf("TotalReleased = %s, want %s", portfolio.TotalReleased, utils.ParseUSDC("500"))
		}
		if portfolio.TotalMilestones != 8 {
			t.Errorf("TotalMilestones = %d, want 8", portfolio.TotalMilestones)
		}
	})

	t.Run("failed vault becomes zeroed placeholder", func(t *testing.T) {
		gw := &fakeGateway{
			factory: &fakeFactoryReader{vaults: []common.Address{vaultA, vaultB}},
			readers: map[common.Address]*fakeVaultReader{
				vaultA: {name: "Alpha", stats: healthyStats()},
				vaultB: {nameErr: errors.New("connection reset"), stats: healthyStats()},
			},
		}
		aggregator := New(connectedSession(t, testNetwork.ChainID), gw, nil)

		portfolio, err := aggregator.FetchUserVaults(ctx, testAccount)
		if err != nil {
			t.Fatalf("FetchUserVaults failed: %v", err)
		}

		// The failed vault stays in the list so the count matches the factory.
		if portfolio.TotalVaults != 2 {
			t.Errorf("TotalVaults = %d, want 2", portfolio.TotalVaults)
		}
		if len(portfolio.Vaults) != 2 {
			t.Fatalf("len(Vaults) = %d, want 2", len(portfolio.Vaults))
		}

		var failed *models.VaultSummary
		for i := range portfolio.Vaults {
			if portfolio.Vaults[i].Address == vaultB {
				failed = &portfolio.Vaults[i]
			}
		}
		if failed == nil {
			t.Fatal("failed vault missing from portfolio")
		}
		if !failed.ReadFailed {
			t.Error("expected ReadFailed marker")
		}
		if failed.Name != "Unknown Vault" {
			t.Errorf("name = %q, want Unknown Vault", failed.Name)
		}
		if failed.TotalDeposited.Sign() != 0 || failed.TotalLocked.Sign() != 0 {
			t.Error("expected zeroed stats on failed vault")
		}

		// Totals fold only over successfully read vaults.
		if portfolio.TotalDeposited.Cmp(utils.ParseUSDC("1000")) != 0 {
			t.Errorf("TotalDeposited = %s, want %s", portfolio.TotalDeposited, utils.ParseUSDC("1000"))
		}
		if portfolio.TotalMilestones != 4 {
			t.Errorf("TotalMilestones = %d, want 4", portfolio.TotalMilestones)
		}
	})

	t.Run("empty portfolio has zero totals", func(t *testing.T) {
		gw := &fakeGateway{
			factory: &fakeFactoryReader{},
			readers: map[common.Address]*fakeVaultReader{},
		}
		aggregator := New(connectedSession(t, testNetwork.ChainID), gw, nil)

		portfolio, err := aggregator.FetchUserVaults(ctx, testAccount)
		if err != nil {
			t.Fatalf("FetchUserVaults failed: %v", err)
		}
		if portfolio.TotalVaults != 0 {
			t.Errorf("TotalVaults = %d, want 0", portfolio.TotalVaults)
		}
		if portfolio.TotalDeposited == nil || portfolio.TotalDeposited.Sign() != 0 {
			t.Errorf("TotalDeposited = %v, want 0", portfolio.TotalDeposited)
		}
	})

	t.Run("factory failure fails the fetch", func(t *testing.T) {
		gw := &fakeGateway{
			factory: &fakeFactoryReader{err: errors.New("connection reset")},
			readers: map[common.Address]*fakeVaultReader{},
		}
		aggregator := New(connectedSession(t, testNetwork.ChainID), gw, nil)

		if _, err := aggregator.FetchUserVaults(ctx, testAccount); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestReversedTransactions(t *testing.T) {
	entries := []models.TransactionLogEntry{
		{Timestamp: 1, Action: "Deposit", Amount: big.NewInt(1)},
		{Timestamp: 2, Action: "Release", Amount: big.NewInt(2)},
		{Timestamp: 3, Action: "Deposit", Amount: big.NewInt(3)},
	}

	reversed := ReversedTransactions(entries)

	if reversed[0].Timestamp != 3 || reversed[2].Timestamp != 1 {
		t.Errorf("unexpected order: %v", reversed)
	}
	// The source slice must keep its chronological order.
	if entries[0].Timestamp != 1 || entries[2].Timestamp != 3 {
		t.Errorf("source mutated: %v", entries)
	}
}
