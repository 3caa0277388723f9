package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/arcnetlabs/vault-client/internal/models"
)

// Vault binds one milestone vault contract instance.
type Vault struct {
	address  common.Address
	contract *bind.BoundContract
}

// VaultMilestone is the raw milestone tuple as the contract returns it.
type VaultMilestone struct {
	Id          *big.Int
	Title       string
	Description string
	Amount      *big.Int
	Deadline    *big.Int
	CreatedAt   *big.Int
	Status      uint8
}

// VaultTransaction is the raw ledger tuple as the contract returns it.
type VaultTransaction struct {
	Timestamp *big.Int
	Action    string
	Amount    *big.Int
	Actor     common.Address
}

// VaultStatsResult is the aggregate stat block returned by getVaultStats.
type VaultStatsResult struct {
	TotalDeposited      *big.Int
	TotalReleased       *big.Int
	TotalLocked         *big.Int
	MilestoneCount      *big.Int
	CompletedMilestones *big.Int
	PendingMilestones   *big.Int
}

// NewVault binds a vault contract at the given address.
func NewVault(address common.Address, backend bind.ContractBackend) (*Vault, error) {
	parsed, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		return nil, err
	}
	return &Vault{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address.
func (v *Vault) Address() common.Address {
	return v.address
}

// VaultName reads the vault's display name.
func (v *Vault) VaultName(opts *bind.CallOpts) (string, error) {
	var out []interface{}
	if err := v.contract.Call(opts, &out, "vaultName"); err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Owner reads the vault owner address.
func (v *Vault) Owner(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := v.contract.Call(opts, &out, "owner"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// GetVaultStats reads the vault's aggregate statistics.
func (v *Vault) GetVaultStats(opts *bind.CallOpts) (VaultStatsResult, error) {
	var out []interface{}
	if err := v.contract.Call(opts, &out, "getVaultStats"); err != nil {
		return VaultStatsResult{}, err
	}
	return VaultStatsResult{
		TotalDeposited:      *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		TotalReleased:       *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		TotalLocked:         *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		MilestoneCount:      *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		CompletedMilestones: *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		PendingMilestones:   *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
	}, nil
}

// GetMilestones reads the milestone list in contract order.
func (v *Vault) GetMilestones(opts *bind.CallOpts) ([]VaultMilestone, error) {
	var out []interface{}
	if err := v.contract.Call(opts, &out, "getMilestones"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]VaultMilestone)).(*[]VaultMilestone), nil
}

// GetTransactions reads the ledger in chronological contract order.
func (v *Vault) GetTransactions(opts *bind.CallOpts) ([]VaultTransaction, error) {
	var out []interface{}
	if err := v.contract.Call(opts, &out, "getTransactions"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]VaultTransaction)).(*[]VaultTransaction), nil
}

// DepositFunds moves amount base units from the caller into the vault.
func (v *Vault) DepositFunds(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return v.contract.Transact(opts, "depositFunds", amount)
}

// AddMilestone appends a milestone; the contract assigns its id.
func (v *Vault) AddMilestone(opts *bind.TransactOpts, title, description string, amount, deadline *big.Int) (*types.Transaction, error) {
	return v.contract.Transact(opts, "addMilestone", title, description, amount, deadline)
}

// SubmitMilestone requests the Pending/Rejected -> Submitted transition.
func (v *Vault) SubmitMilestone(opts *bind.TransactOpts, milestoneID *big.Int) (*types.Transaction, error) {
	return v.contract.Transact(opts, "submitMilestone", milestoneID)
}

// ApproveMilestone requests the Submitted -> Approved transition.
func (v *Vault) ApproveMilestone(opts *bind.TransactOpts, milestoneID *big.Int) (*types.Transaction, error) {
	return v.contract.Transact(opts, "approveMilestone", milestoneID)
}

// RejectMilestone requests the Submitted -> Rejected transition.
func (v *Vault) RejectMilestone(opts *bind.TransactOpts, milestoneID *big.Int) (*types.Transaction, error) {
	return v.contract.Transact(opts, "rejectMilestone", milestoneID)
}

// ReleasePayment requests the Approved -> Paid transition.
func (v *Vault) ReleasePayment(opts *bind.TransactOpts, milestoneID *big.Int) (*types.Transaction, error) {
	return v.contract.Transact(opts, "releasePayment", milestoneID)
}

// Model converts a raw milestone tuple to the domain model.
func (m VaultMilestone) Model() models.Milestone {
	return models.Milestone{
		ID:          m.Id.Uint64(),
		Title:       m.Title,
		Description: m.Description,
		Amount:      m.Amount,
		Deadline:    m.Deadline.Uint64(),
		CreatedAt:   m.CreatedAt.Uint64(),
		Status:      models.MilestoneStatus(m.Status),
	}
}

// Model converts a raw ledger tuple to the domain model.
func (t VaultTransaction) Model() models.TransactionLogEntry {
	return models.TransactionLogEntry{
		Timestamp: t.Timestamp.Uint64(),
		Action:    t.Action,
		Amount:    t.Amount,
		Actor:     t.Actor,
	}
}

// Model converts the raw stat block to the domain model.
func (s VaultStatsResult) Model() models.VaultStats {
	return models.VaultStats{
		TotalDeposited:      s.TotalDeposited,
		TotalReleased:       s.TotalReleased,
		TotalLocked:         s.TotalLocked,
		MilestoneCount:      s.MilestoneCount.Uint64(),
		CompletedMilestones: s.CompletedMilestones.Uint64(),
		PendingMilestones:   s.PendingMilestones.Uint64(),
	}
}
