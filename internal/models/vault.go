package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MilestoneStatus mirrors the numeric status encoding of the vault contract.
type MilestoneStatus uint8

const (
	StatusPending MilestoneStatus = iota
	StatusSubmitted
	StatusApproved
	StatusRejected
	StatusPaid
)

// String returns the display label for a milestone status.
func (s MilestoneStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusSubmitted:
		return "Submitted"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusPaid:
		return "Paid"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is defined from s.
func (s MilestoneStatus) Terminal() bool {
	return s == StatusPaid
}

// CanSubmit reports whether a submit (or resubmit) request is legal from s.
func (s MilestoneStatus) CanSubmit() bool {
	return s == StatusPending || s == StatusRejected
}

// CanReview reports whether approve/reject requests are legal from s.
func (s MilestoneStatus) CanReview() bool {
	return s == StatusSubmitted
}

// CanRelease reports whether a release request is legal from s.
func (s MilestoneStatus) CanRelease() bool {
	return s == StatusApproved
}

// Milestone is one milestone record as returned by the vault contract.
// IDs are assigned by the contract and never fabricated or reordered here.
type Milestone struct {
	ID          uint64          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      *big.Int        `json:"amount"`
	Deadline    uint64          `json:"deadline"`
	CreatedAt   uint64          `json:"created_at"`
	Status      MilestoneStatus `json:"status"`
}

// VaultStats is the aggregate stat block reported by a vault contract.
type VaultStats struct {
	TotalDeposited      *big.Int `json:"total_deposited"`
	TotalReleased       *big.Int `json:"total_released"`
	TotalLocked         *big.Int `json:"total_locked"`
	MilestoneCount      uint64   `json:"milestone_count"`
	CompletedMilestones uint64   `json:"completed_milestones"`
	PendingMilestones   uint64   `json:"pending_milestones"`
}

// TransactionLogEntry is one row of the vault's on-chain ledger. The
// contract returns entries in chronological order; readers may present
// them reversed but never mutate the underlying order.
type TransactionLogEntry struct {
	Timestamp uint64         `json:"timestamp"`
	Action    string         `json:"action"`
	Amount    *big.Int       `json:"amount"`
	Actor     common.Address `json:"actor"`
}

// VaultSummary is the per-vault view used on the portfolio dashboard.
// Recomputed wholesale on every refresh, never partially merged.
type VaultSummary struct {
	Address             common.Address `json:"address"`
	Name                string         `json:"name"`
	TotalDeposited      *big.Int       `json:"total_deposited"`
	TotalReleased       *big.Int       `json:"total_released"`
	TotalLocked         *big.Int       `json:"total_locked"`
	MilestoneCount      uint64         `json:"milestone_count"`
	CompletedMilestones uint64         `json:"completed_milestones"`
	PendingMilestones   uint64         `json:"pending_milestones"`
	ReadFailed          bool           `json:"read_failed,omitempty"`
}

// Progress returns the completed-milestone percentage for display.
func (v *VaultSummary) Progress() int {
	if v.MilestoneCount == 0 {
		return 0
	}
	return int(v.CompletedMilestones * 100 / v.MilestoneCount)
}

// VaultSnapshot is the combined per-vault view: identity, stats,
// milestones, and ledger fetched together as one consistent read.
type VaultSnapshot struct {
	Address      common.Address        `json:"address"`
	Name         string                `json:"name"`
	Owner        common.Address        `json:"owner"`
	Stats        VaultStats            `json:"stats"`
	Milestones   []Milestone           `json:"milestones"`
	Transactions []TransactionLogEntry `json:"transactions"`
}

// Portfolio aggregates every vault the factory has recorded for a user.
// Monetary totals are integer accumulated, never floating point.
type Portfolio struct {
	Vaults          []VaultSummary `json:"vaults"`
	TotalVaults     int            `json:"total_vaults"`
	TotalDeposited  *big.Int       `json:"total_deposited"`
	TotalReleased   *big.Int       `json:"total_released"`
	TotalMilestones uint64         `json:"total_milestones"`
}
