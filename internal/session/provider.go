package session

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcnetlabs/vault-client/internal/config"
)

// ErrUnknownChain is returned by SwitchChain when the wallet does not
// recognize the requested chain id. The caller follows up with AddChain.
var ErrUnknownChain = errors.New("unknown chain")

// EventKind classifies wallet-initiated notifications.
type EventKind int

const (
	AccountsChanged EventKind = iota
	ChainChanged
)

// Event is a wallet-initiated account or chain change notification.
type Event struct {
	Kind     EventKind
	Accounts []common.Address
	ChainID  uint64
}

// Provider is the wallet boundary. The wallet's internals (key handling,
// user prompts) live outside this process; the session manager only
// drives this interface.
type Provider interface {
	// RequestAccounts asks the wallet to expose accounts, prompting the
	// user if needed. The first account returned becomes the session's.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// AuthorizedAccounts returns accounts already exposed without
	// prompting. Used for silent auto-reconnect at startup.
	AuthorizedAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID reports the chain the wallet is currently on.
	ChainID(ctx context.Context) (uint64, error)

	// SwitchChain requests the wallet move to the given chain. Returns
	// ErrUnknownChain if the wallet has no profile for it.
	SwitchChain(ctx context.Context, chainID uint64) error

	// AddChain registers a network profile with the wallet.
	AddChain(ctx context.Context, profile config.NetworkProfile) error

	// TransactOpts returns a signer bound to the given account on the
	// wallet's current chain.
	TransactOpts(ctx context.Context, account common.Address) (*bind.TransactOpts, error)

	// Events delivers account/chain change notifications for the
	// lifetime of the provider.
	Events() <-chan Event

	Close() error
}
