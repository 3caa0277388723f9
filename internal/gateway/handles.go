package gateway

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/arcnetlabs/vault-client/internal/contracts"
	"github.com/arcnetlabs/vault-client/internal/models"
)

type tokenReader struct {
	token *contracts.Token
}

func (r *tokenReader) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return r.token.Allowance(&bind.CallOpts{Context: ctx}, owner, spender)
}

func (r *tokenReader) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return r.token.BalanceOf(&bind.CallOpts{Context: ctx}, account)
}

type tokenWriter struct {
	token *contracts.Token
	opts  *bind.TransactOpts
}

func (w *tokenWriter) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return w.token.Approve(withContext(w.opts, ctx), spender, amount)
}

func (w *tokenWriter) Faucet(ctx context.Context) (*types.Transaction, error) {
	return w.token.Faucet(withContext(w.opts, ctx))
}

type factoryReader struct {
	factory *contracts.Factory
}

func (r *factoryReader) GetUserVaults(ctx context.Context, user common.Address) ([]common.Address, error) {
	return r.factory.GetUserVaults(&bind.CallOpts{Context: ctx}, user)
}

type factoryWriter struct {
	factory *contracts.Factory
	opts    *bind.TransactOpts
}

func (w *factoryWriter) CreateVault(ctx context.Context, name string) (*types.Transaction, error) {
	return w.factory.CreateVault(withContext(w.opts, ctx), name)
}

func (w *factoryWriter) VaultAddressFromReceipt(receipt *types.Receipt) (common.Address, bool) {
	for _, log := range receipt.Logs {
		if log == nil {
			continue
		}
		event, err := w.factory.ParseVaultCreated(*log)
		if err == nil && event != nil {
			return event.VaultAddress, true
		}
	}
	return common.Address{}, false
}

type vaultReader struct {
	vault *contracts.Vault
}

func (r *vaultReader) Name(ctx context.Context) (string, error) {
	return r.vault.VaultName(&bind.CallOpts{Context: ctx})
}

func (r *vaultReader) Owner(ctx context.Context) (common.Address, error) {
	return r.vault.Owner(&bind.CallOpts{Context: ctx})
}

func (r *vaultReader) Stats(ctx context.Context) (models.VaultStats, error) {
	stats, err := r.vault.GetVaultStats(&bind.CallOpts{Context: ctx})
	if err != nil {
		return models.VaultStats{}, err
	}
	return stats.Model(), nil
}

func (r *vaultReader) Milestones(ctx context.Context) ([]models.Milestone, error) {
	raw, err := r.vault.GetMilestones(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, err
	}
	milestones := make([]models.Milestone, len(raw))
	for i, m := range raw {
		milestones[i] = m.Model()
	}
	return milestones, nil
}

func (r *vaultReader) Transactions(ctx context.Context) ([]models.TransactionLogEntry, error) {
	raw, err := r.vault.GetTransactions(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, err
	}
	entries := make([]models.TransactionLogEntry, len(raw))
	for i, t := range raw {
		entries[i] = t.Model()
	}
	return entries, nil
}

type vaultWriter struct {
	vault *contracts.Vault
	opts  *bind.TransactOpts
}

func (w *vaultWriter) Deposit(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	return w.vault.DepositFunds(withContext(w.opts, ctx), amount)
}

func (w *vaultWriter) AddMilestone(ctx context.Context, title, description string, amount *big.Int, deadline uint64) (*types.Transaction, error) {
	return w.vault.AddMilestone(withContext(w.opts, ctx), title, description, amount, new(big.Int).SetUint64(deadline))
}

func (w *vaultWriter) Submit(ctx context.Context, milestoneID uint64) (*types.Transaction, error) {
	return w.vault.SubmitMilestone(withContext(w.opts, ctx), new(big.Int).SetUint64(milestoneID))
}

func (w *vaultWriter) Approve(ctx context.Context, milestoneID uint64) (*types.Transaction, error) {
	return w.vault.ApproveMilestone(withContext(w.opts, ctx), new(big.Int).SetUint64(milestoneID))
}

func (w *vaultWriter) Reject(ctx context.Context, milestoneID uint64) (*types.Transaction, error) {
	return w.vault.RejectMilestone(withContext(w.opts, ctx), new(big.Int).SetUint64(milestoneID))
}

func (w *vaultWriter) Release(ctx context.Context, milestoneID uint64) (*types.Transaction, error) {
	return w.vault.ReleasePayment(withContext(w.opts, ctx), new(big.Int).SetUint64(milestoneID))
}

// withContext clones transact opts with a per-call context so shared
// signer options are never mutated.
func withContext(opts *bind.TransactOpts, ctx context.Context) *bind.TransactOpts {
	cloned := *opts
	cloned.Context = ctx
	return &cloned
}
