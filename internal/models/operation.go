package models

import "time"

// OperationKind identifies a user intent handled by the orchestrator.
type OperationKind string

const (
	OpDeposit      OperationKind = "deposit"
	OpAddMilestone OperationKind = "add_milestone"
	OpSubmit       OperationKind = "submit"
	OpApprove      OperationKind = "approve"
	OpReject       OperationKind = "reject"
	OpRelease      OperationKind = "release"
	OpMint         OperationKind = "mint"
	OpCreateVault  OperationKind = "create_vault"
)

// OperationPhase tracks where a pending operation currently stands.
type OperationPhase string

const (
	PhaseIdle                 OperationPhase = "idle"
	PhaseAwaitingApproval     OperationPhase = "awaiting_approval"
	PhaseAwaitingSubmission   OperationPhase = "awaiting_submission"
	PhaseAwaitingConfirmation OperationPhase = "awaiting_confirmation"
	PhaseSucceeded            OperationPhase = "succeeded"
	PhaseFailed               OperationPhase = "failed"
)

// PendingOperation is the ephemeral progress record for one in-flight
// operation. Created when the orchestrator starts work, discarded once
// the operation settles.
type PendingOperation struct {
	Kind     OperationKind  `json:"kind"`
	TargetID *uint64        `json:"target_id,omitempty"`
	Phase    OperationPhase `json:"phase"`
}

// OperationRecord is the settled form journaled after an operation
// completes, for the local activity history.
type OperationRecord struct {
	ID        string        `json:"id" db:"id"`
	Kind      OperationKind `json:"kind" db:"kind"`
	Vault     string        `json:"vault,omitempty" db:"vault"`
	TargetID  *uint64       `json:"target_id,omitempty" db:"target_id"`
	TxHash    string        `json:"tx_hash,omitempty" db:"tx_hash"`
	Succeeded bool          `json:"succeeded" db:"succeeded"`
	ErrorCode string        `json:"error_code,omitempty" db:"error_code"`
	Detail    string        `json:"detail,omitempty" db:"detail"`
	StartedAt time.Time     `json:"started_at" db:"started_at"`
	SettledAt time.Time     `json:"settled_at" db:"settled_at"`
}
