// Package orchestrator sequences every user intent onto its remote
// calls: validate preconditions, run any dependent sub-transaction,
// submit, await confirmed finality, and report a structured outcome.
// It never predicts contract state; callers re-read after settlement.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/internal/gateway"
	"github.com/arcnetlabs/vault-client/internal/metrics"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/internal/notify"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// Gateway is the slice of the contract gateway the orchestrator uses.
type Gateway interface {
	Deployed() error
	TokenReader(ctx context.Context) (gateway.TokenReader, bool)
	TokenWriter(ctx context.Context) (gateway.TokenWriter, bool)
	FactoryWriter(ctx context.Context) (gateway.FactoryWriter, bool)
	VaultWriter(ctx context.Context, addr common.Address) (gateway.VaultWriter, bool)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Journal records settled operations for the local activity history.
// A nil journal disables recording.
type Journal interface {
	RecordOperation(ctx context.Context, record models.OperationRecord) error
}

// Orchestrator is the transaction core. It provides no mutual
// exclusion; callers disable the triggering control while an
// operation's pending phase is non-terminal.
type Orchestrator struct {
	session *session.Manager
	gateway Gateway
	notify  *notify.Manager
	journal Journal
	metrics *metrics.Metrics
	logger  *logrus.Logger

	mu      sync.RWMutex
	pending map[models.OperationKind]models.PendingOperation
}

// New creates an orchestrator. journal and metrics may be nil.
func New(sess *session.Manager, gw Gateway, notifier *notify.Manager, journal Journal, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		session: sess,
		gateway: gw,
		notify:  notifier,
		journal: journal,
		metrics: m,
		logger:  utils.GetLogger(),
		pending: make(map[models.OperationKind]models.PendingOperation),
	}
}

// Pending returns the progress record for an operation kind.
func (o *Orchestrator) Pending(kind models.OperationKind) (models.PendingOperation, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	op, ok := o.pending[kind]
	return op, ok
}

// Deposit runs the two-step approve-then-deposit flow. The deposit call
// is never attempted while allowance is insufficient, and an approval
// failure short-circuits the whole operation.
func (o *Orchestrator) Deposit(ctx context.Context, vaultAddr common.Address, amount string) error {
	op := o.begin(models.OpDeposit, nil)

	base := utils.ParseUSDC(amount)
	if base.Sign() <= 0 {
		return o.settle(ctx, op, vaultAddr.Hex(), "",
			utils.NewAppError(utils.ErrCodeInvalidInput, "Deposit amount must be a positive number", amount))
	}

	if err := o.precheck(ctx); err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), "", err)
	}

	account := o.session.Current().Account

	reader, ok := o.gateway.TokenReader(ctx)
	if !ok {
		return o.settle(ctx, op, vaultAddr.Hex(), "", errNotPossible())
	}
	allowance, err := reader.Allowance(ctx, account, vaultAddr)
	if err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), "", err)
	}

	if allowance.Cmp(base) < 0 {
		writer, ok := o.gateway.TokenWriter(ctx)
		if !ok {
			return o.settle(ctx, op, vaultAddr.Hex(), "", errNotPossible())
		}

		o.setPhase(op, models.PhaseAwaitingApproval)
		o.notify.Progress(op.Kind, "Approving USDC…")

		tx, err := writer.Approve(ctx, vaultAddr, base)
		if err != nil {
			return o.settle(ctx, op, vaultAddr.Hex(), "", err)
		}
		if err := o.awaitReceipt(ctx, op, tx); err != nil {
			return o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), err)
		}
		o.notify.Progress(op.Kind, "USDC approved")
	}

	vault, ok := o.gateway.VaultWriter(ctx, vaultAddr)
	if !ok {
		return o.settle(ctx, op, vaultAddr.Hex(), "", errNotPossible())
	}

	o.setPhase(op, models.PhaseAwaitingSubmission)
	o.notify.Progress(op.Kind, "Depositing funds…")

	tx, err := vault.Deposit(ctx, base)
	if err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), "", err)
	}
	if err := o.awaitReceipt(ctx, op, tx); err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), err)
	}

	return o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), nil)
}

// AddMilestone validates and submits a new milestone. Malformed input
// is refused before any remote call.
func (o *Orchestrator) AddMilestone(ctx context.Context, vaultAddr common.Address, title, description, amount string, deadline time.Time) error {
	op := o.begin(models.OpAddMilestone, nil)

	base := utils.ParseUSDC(amount)
	if base.Sign() <= 0 {
		return o.settle(ctx, op, vaultAddr.Hex(), "",
			utils.NewAppError(utils.ErrCodeInvalidInput, "Milestone amount must be a positive number", amount))
	}
	if title == "" {
		return o.settle(ctx, op, vaultAddr.Hex(), "",
			utils.NewAppError(utils.ErrCodeInvalidInput, "Milestone title is required"))
	}
	if deadline.IsZero() || deadline.Before(time.Now()) {
		return o.settle(ctx, op, vaultAddr.Hex(), "",
			utils.NewAppError(utils.ErrCodeInvalidInput, "Milestone deadline must be in the future"))
	}

	if err := o.precheck(ctx); err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), "", err)
	}

	vault, ok := o.gateway.VaultWriter(ctx, vaultAddr)
	if !ok {
		return o.settle(ctx, op, vaultAddr.Hex(), "", errNotPossible())
	}

	o.setPhase(op, models.PhaseAwaitingSubmission)
	o.notify.Progress(op.Kind, "Adding milestone…")

	tx, err := vault.AddMilestone(ctx, title, description, base, uint64(deadline.Unix()))
	if err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), "", err)
	}
	if err := o.awaitReceipt(ctx, op, tx); err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), err)
	}

	return o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), nil)
}

// SubmitMilestone requests Pending/Rejected -> Submitted.
func (o *Orchestrator) SubmitMilestone(ctx context.Context, vaultAddr common.Address, milestoneID uint64) error {
	return o.milestoneOp(ctx, models.OpSubmit, vaultAddr, milestoneID, "Submitting milestone…",
		func(ctx context.Context, vault gateway.VaultWriter) (*types.Transaction, error) {
			return vault.Submit(ctx, milestoneID)
		})
}

// ApproveMilestone requests Submitted -> Approved. Owner only; the
// contract enforces the role, this client merely relays the request.
func (o *Orchestrator) ApproveMilestone(ctx context.Context, vaultAddr common.Address, milestoneID uint64) error {
	return o.milestoneOp(ctx, models.OpApprove, vaultAddr, milestoneID, "Approving milestone…",
		func(ctx context.Context, vault gateway.VaultWriter) (*types.Transaction, error) {
			return vault.Approve(ctx, milestoneID)
		})
}

// RejectMilestone requests Submitted -> Rejected.
func (o *Orchestrator) RejectMilestone(ctx context.Context, vaultAddr common.Address, milestoneID uint64) error {
	return o.milestoneOp(ctx, models.OpReject, vaultAddr, milestoneID, "Rejecting milestone…",
		func(ctx context.Context, vault gateway.VaultWriter) (*types.Transaction, error) {
			return vault.Reject(ctx, milestoneID)
		})
}

// ReleasePayment requests Approved -> Paid.
func (o *Orchestrator) ReleasePayment(ctx context.Context, vaultAddr common.Address, milestoneID uint64) error {
	return o.milestoneOp(ctx, models.OpRelease, vaultAddr, milestoneID, "Releasing payment…",
		func(ctx context.Context, vault gateway.VaultWriter) (*types.Transaction, error) {
			return vault.Release(ctx, milestoneID)
		})
}

// Mint requests the token faucet allotment for the connected account.
func (o *Orchestrator) Mint(ctx context.Context) error {
	op := o.begin(models.OpMint, nil)

	if err := o.precheck(ctx); err != nil {
		return o.settle(ctx, op, "", "", err)
	}

	writer, ok := o.gateway.TokenWriter(ctx)
	if !ok {
		return o.settle(ctx, op, "", "", errNotPossible())
	}

	o.setPhase(op, models.PhaseAwaitingSubmission)
	o.notify.Progress(op.Kind, "Minting test USDC…")

	tx, err := writer.Faucet(ctx)
	if err != nil {
		return o.settle(ctx, op, "", "", err)
	}
	if err := o.awaitReceipt(ctx, op, tx); err != nil {
		return o.settle(ctx, op, "", tx.Hash().Hex(), err)
	}

	return o.settle(ctx, op, "", tx.Hash().Hex(), nil)
}

// CreateVault asks the factory to deploy a vault and returns the new
// vault address recovered from the VaultCreated event.
func (o *Orchestrator) CreateVault(ctx context.Context, name string) (common.Address, error) {
	op := o.begin(models.OpCreateVault, nil)

	if name == "" {
		return common.Address{}, o.settle(ctx, op, "", "",
			utils.NewAppError(utils.ErrCodeInvalidInput, "Vault name is required"))
	}

	if err := o.precheck(ctx); err != nil {
		return common.Address{}, o.settle(ctx, op, "", "", err)
	}

	factory, ok := o.gateway.FactoryWriter(ctx)
	if !ok {
		return common.Address{}, o.settle(ctx, op, "", "", errNotPossible())
	}

	o.setPhase(op, models.PhaseAwaitingSubmission)
	o.notify.Progress(op.Kind, "Creating vault…")

	tx, err := factory.CreateVault(ctx, name)
	if err != nil {
		return common.Address{}, o.settle(ctx, op, "", "", err)
	}

	o.setPhase(op, models.PhaseAwaitingConfirmation)
	receipt, err := o.gateway.WaitMined(ctx, tx)
	if err != nil {
		return common.Address{}, o.settle(ctx, op, "", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, o.settle(ctx, op, "", tx.Hash().Hex(),
			utils.NewAppError(utils.ErrCodeRemoteFailure, "Transaction reverted", tx.Hash().Hex()))
	}

	vaultAddr, found := factory.VaultAddressFromReceipt(receipt)
	if !found {
		return common.Address{}, o.settle(ctx, op, "", tx.Hash().Hex(),
			utils.NewAppError(utils.ErrCodeRemoteFailure, "VaultCreated event missing from receipt"))
	}

	return vaultAddr, o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), nil)
}

// milestoneOp is the shared shape of the single-call milestone
// operations: no local precondition beyond a usable signer.
func (o *Orchestrator) milestoneOp(ctx context.Context, kind models.OperationKind, vaultAddr common.Address, milestoneID uint64, stage string, submit func(context.Context, gateway.VaultWriter) (*types.Transaction, error)) error {
	op := o.begin(kind, &milestoneID)

	if err := o.precheck(ctx); err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), "", err)
	}

	vault, ok := o.gateway.VaultWriter(ctx, vaultAddr)
	if !ok {
		return o.settle(ctx, op, vaultAddr.Hex(), "", errNotPossible())
	}

	o.setPhase(op, models.PhaseAwaitingSubmission)
	o.notify.Progress(kind, stage)

	tx, err := submit(ctx, vault)
	if err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), "", err)
	}
	if err := o.awaitReceipt(ctx, op, tx); err != nil {
		return o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), err)
	}

	return o.settle(ctx, op, vaultAddr.Hex(), tx.Hash().Hex(), nil)
}

// precheck enforces the preconditions shared by every operation:
// deployed contracts and a connected session on the configured chain.
func (o *Orchestrator) precheck(ctx context.Context) error {
	if err := o.gateway.Deployed(); err != nil {
		return err
	}
	if o.session.Current().State != session.Connected {
		return utils.NewAppError(utils.ErrCodeProviderUnavailable, "Wallet not connected")
	}
	if !o.session.IsCorrectChain() {
		return utils.NewAppError(utils.ErrCodeWrongNetwork,
			"Connected to the wrong network",
			"switch to "+o.session.Network().DisplayName)
	}
	return nil
}

// awaitReceipt waits for confirmed finality and rejects reverted
// transactions. Once submitted, the transaction cannot be cancelled.
func (o *Orchestrator) awaitReceipt(ctx context.Context, op opHandle, tx *types.Transaction) error {
	o.setPhase(op, models.PhaseAwaitingConfirmation)

	receipt, err := o.gateway.WaitMined(ctx, tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return utils.NewAppError(utils.ErrCodeRemoteFailure, "Transaction reverted", tx.Hash().Hex())
	}
	return nil
}

// opHandle carries identity and timing for one in-flight operation.
type opHandle struct {
	Kind     models.OperationKind
	TargetID *uint64
	started  time.Time
}

func (o *Orchestrator) begin(kind models.OperationKind, targetID *uint64) opHandle {
	o.mu.Lock()
	o.pending[kind] = models.PendingOperation{Kind: kind, TargetID: targetID, Phase: models.PhaseIdle}
	o.mu.Unlock()

	return opHandle{Kind: kind, TargetID: targetID, started: time.Now()}
}

func (o *Orchestrator) setPhase(op opHandle, phase models.OperationPhase) {
	o.mu.Lock()
	o.pending[op.Kind] = models.PendingOperation{Kind: op.Kind, TargetID: op.TargetID, Phase: phase}
	o.mu.Unlock()
}

// settle publishes the operation's single terminal notification,
// journals the outcome, and records metrics. Returns the classified
// error (nil on success) for the caller.
func (o *Orchestrator) settle(ctx context.Context, op opHandle, vault, txHash string, opErr error) error {
	var classified *utils.AppError
	if opErr != nil {
		classified = classifyRemoteError(opErr)
	}

	if classified == nil {
		o.setPhase(op, models.PhaseSucceeded)
		o.notify.Success(op.Kind, successMessage(op.Kind))
	} else {
		o.setPhase(op, models.PhaseFailed)
		o.notify.Failure(op.Kind, classified.Message, classified.Code)
	}

	if o.metrics != nil {
		o.metrics.RecordOperation(string(op.Kind), classified == nil, time.Since(op.started))
	}

	if o.journal != nil {
		// History filters compare normalized addresses, so the stored
		// form must match.
		if vault != "" {
			vault = utils.NormalizeAddress(vault)
		}
		record := models.OperationRecord{
			Kind:      op.Kind,
			Vault:     vault,
			TargetID:  op.TargetID,
			TxHash:    txHash,
			Succeeded: classified == nil,
			StartedAt: op.started,
			SettledAt: time.Now(),
		}
		if id, err := utils.GenerateID(); err == nil {
			record.ID = id
		}
		if classified != nil {
			record.ErrorCode = classified.Code
			record.Detail = classified.Message
		}
		if err := o.journal.RecordOperation(ctx, record); err != nil {
			o.logger.WithError(err).Warn("Failed to journal operation")
		}
	}

	if classified == nil {
		return nil
	}
	return classified
}

func successMessage(kind models.OperationKind) string {
	switch kind {
	case models.OpDeposit:
		return "Funds deposited!"
	case models.OpAddMilestone:
		return "Milestone added!"
	case models.OpSubmit:
		return "Milestone submitted for review!"
	case models.OpApprove:
		return "Milestone approved!"
	case models.OpReject:
		return "Milestone rejected."
	case models.OpRelease:
		return "Payment released!"
	case models.OpMint:
		return "10,000 Test USDC minted to your wallet!"
	case models.OpCreateVault:
		return "Vault created!"
	default:
		return "Done"
	}
}

func errNotPossible() error {
	return utils.NewAppError(utils.ErrCodeProviderUnavailable,
		"Operation not currently possible", "no signer or node binding available")
}
