// Package gateway derives typed contract handles from the current node
// connection and wallet session. Handles are never cached across session
// mutations; every call derives a fresh binding so no operation acts on
// a stale account or chain.
package gateway

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/connection"
	"github.com/arcnetlabs/vault-client/internal/contracts"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// TokenReader is the read-only capability on the stablecoin contract.
type TokenReader interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

// TokenWriter is the signing capability on the stablecoin contract.
type TokenWriter interface {
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error)
	Faucet(ctx context.Context) (*types.Transaction, error)
}

// FactoryReader is the read-only capability on the vault factory.
type FactoryReader interface {
	GetUserVaults(ctx context.Context, user common.Address) ([]common.Address, error)
}

// FactoryWriter is the signing capability on the vault factory.
type FactoryWriter interface {
	CreateVault(ctx context.Context, name string) (*types.Transaction, error)
	VaultAddressFromReceipt(receipt *types.Receipt) (common.Address, bool)
}

// VaultReader is the read-only capability on one vault instance.
type VaultReader interface {
	Name(ctx context.Context) (string, error)
	Owner(ctx context.Context) (common.Address, error)
	Stats(ctx context.Context) (models.VaultStats, error)
	Milestones(ctx context.Context) ([]models.Milestone, error)
	Transactions(ctx context.Context) ([]models.TransactionLogEntry, error)
}

// VaultWriter is the signing capability on one vault instance.
type VaultWriter interface {
	Deposit(ctx context.Context, amount *big.Int) (*types.Transaction, error)
	AddMilestone(ctx context.Context, title, description string, amount *big.Int, deadline uint64) (*types.Transaction, error)
	Submit(ctx context.Context, milestoneID uint64) (*types.Transaction, error)
	Approve(ctx context.Context, milestoneID uint64) (*types.Transaction, error)
	Reject(ctx context.Context, milestoneID uint64) (*types.Transaction, error)
	Release(ctx context.Context, milestoneID uint64) (*types.Transaction, error)
}

// Gateway is the only component permitted to construct contract handles.
type Gateway struct {
	node      connection.Manager
	session   *session.Manager
	contracts config.ContractsConfig

	tokenAddr   common.Address
	factoryAddr common.Address
}

// New creates a gateway over the node connection and session.
func New(node connection.Manager, sess *session.Manager, cfg config.ContractsConfig) *Gateway {
	g := &Gateway{
		node:      node,
		session:   sess,
		contracts: cfg,
	}
	if cfg.Deployed() {
		g.tokenAddr = common.HexToAddress(cfg.TokenAddress)
		g.factoryAddr = common.HexToAddress(cfg.FactoryAddress)
	}
	return g
}

// Deployed returns a configuration error when the contract addresses
// are still deploy-tool placeholders. Operations fail fast on this.
func (g *Gateway) Deployed() error {
	if !g.contracts.Deployed() {
		return utils.NewAppError(utils.ErrCodeConfiguration,
			"Contracts not deployed",
			"factory/token addresses are placeholders; run the deploy tooling or set overrides")
	}
	return nil
}

// TokenAddress returns the resolved token contract address.
func (g *Gateway) TokenAddress() common.Address {
	return g.tokenAddr
}

// TokenReader derives a read-only token handle. ok=false means the
// binding does not currently exist, not a user-facing failure.
func (g *Gateway) TokenReader(ctx context.Context) (TokenReader, bool) {
	backend, ok := g.backend(ctx)
	if !ok {
		return nil, false
	}
	token, err := contracts.NewToken(g.tokenAddr, backend)
	if err != nil {
		return nil, false
	}
	return &tokenReader{token: token}, true
}

// TokenWriter derives a signing token handle bound to the session account.
func (g *Gateway) TokenWriter(ctx context.Context) (TokenWriter, bool) {
	backend, opts, ok := g.signingBackend(ctx)
	if !ok {
		return nil, false
	}
	token, err := contracts.NewToken(g.tokenAddr, backend)
	if err != nil {
		return nil, false
	}
	return &tokenWriter{token: token, opts: opts}, true
}

// FactoryReader derives a read-only factory handle.
func (g *Gateway) FactoryReader(ctx context.Context) (FactoryReader, bool) {
	backend, ok := g.backend(ctx)
	if !ok {
		return nil, false
	}
	factory, err := contracts.NewFactory(g.factoryAddr, backend)
	if err != nil {
		return nil, false
	}
	return &factoryReader{factory: factory}, true
}

// FactoryWriter derives a signing factory handle.
func (g *Gateway) FactoryWriter(ctx context.Context) (FactoryWriter, bool) {
	backend, opts, ok := g.signingBackend(ctx)
	if !ok {
		return nil, false
	}
	factory, err := contracts.NewFactory(g.factoryAddr, backend)
	if err != nil {
		return nil, false
	}
	return &factoryWriter{factory: factory, opts: opts}, true
}

// VaultReader derives a read-only handle on the vault at addr.
func (g *Gateway) VaultReader(ctx context.Context, addr common.Address) (VaultReader, bool) {
	backend, ok := g.backend(ctx)
	if !ok {
		return nil, false
	}
	vault, err := contracts.NewVault(addr, backend)
	if err != nil {
		return nil, false
	}
	return &vaultReader{vault: vault}, true
}

// VaultWriter derives a signing handle on the vault at addr.
func (g *Gateway) VaultWriter(ctx context.Context, addr common.Address) (VaultWriter, bool) {
	backend, opts, ok := g.signingBackend(ctx)
	if !ok {
		return nil, false
	}
	vault, err := contracts.NewVault(addr, backend)
	if err != nil {
		return nil, false
	}
	return &vaultWriter{vault: vault, opts: opts}, true
}

// WaitMined blocks until the transaction reaches confirmed finality.
func (g *Gateway) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	client, err := g.node.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	return bind.WaitMined(ctx, client, tx)
}

func (g *Gateway) backend(ctx context.Context) (bind.ContractBackend, bool) {
	if !g.contracts.Deployed() {
		return nil, false
	}
	client, err := g.node.GetClient(ctx)
	if err != nil {
		return nil, false
	}
	return client, true
}

func (g *Gateway) signingBackend(ctx context.Context) (bind.ContractBackend, *bind.TransactOpts, bool) {
	backend, ok := g.backend(ctx)
	if !ok {
		return nil, nil, false
	}
	opts, ok := g.session.Signer()
	if !ok {
		return nil, nil, false
	}
	return backend, opts, true
}
