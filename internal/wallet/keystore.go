// Package wallet provides a headless, keystore-backed implementation of
// the session provider boundary. It stands in for a browser wallet when
// the client runs as a daemon or CLI.
package wallet

import (
	"context"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// KeystoreProvider implements session.Provider over a local encrypted
// keystore. "Authorization" is the act of unlocking the first account;
// chain switching moves the provider between registered network profiles.
type KeystoreProvider struct {
	ks     *keystore.KeyStore
	cfg    config.WalletConfig
	logger *logrus.Logger

	mu         sync.RWMutex
	chains     map[uint64]config.NetworkProfile
	chainID    uint64
	authorized bool

	events chan session.Event
	closed bool
}

// NewKeystoreProvider opens (or creates) the keystore directory and
// registers the home network profile.
func NewKeystoreProvider(cfg config.WalletConfig, network config.NetworkProfile) *KeystoreProvider {
	return &KeystoreProvider{
		ks:      keystore.NewKeyStore(cfg.KeystoreDir, keystore.StandardScryptN, keystore.StandardScryptP),
		cfg:     cfg,
		logger:  utils.GetLogger(),
		chains:  map[uint64]config.NetworkProfile{network.ChainID: network},
		chainID: network.ChainID,
		events:  make(chan session.Event, 8),
	}
}

// RequestAccounts unlocks the keystore and exposes its accounts.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	accts := p.ks.Accounts()
	if len(accts) == 0 {
		return nil, utils.NewAppError(utils.ErrCodeProviderUnavailable,
			"Keystore contains no accounts", p.cfg.KeystoreDir)
	}

	if p.cfg.UnlockOnConnect {
		passphrase, err := p.passphrase()
		if err != nil {
			return nil, err
		}
		timeout := time.Duration(p.cfg.UnlockTimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		if err := p.ks.TimedUnlock(accts[0], passphrase, timeout); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeUserRejected,
				"Keystore unlock failed", err.Error())
		}
	}

	p.mu.Lock()
	p.authorized = true
	p.mu.Unlock()

	return addressesOf(accts), nil
}

// AuthorizedAccounts returns accounts without prompting for an unlock.
func (p *KeystoreProvider) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.RLock()
	authorized := p.authorized || p.cfg.AutoConnect
	p.mu.RUnlock()

	if !authorized {
		return nil, nil
	}
	return addressesOf(p.ks.Accounts()), nil
}

// ChainID reports the chain the provider is currently pointed at.
func (p *KeystoreProvider) ChainID(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chainID, nil
}

// SwitchChain moves to a registered chain, emitting a ChainChanged event.
func (p *KeystoreProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	p.mu.Lock()
	if _, known := p.chains[chainID]; !known {
		p.mu.Unlock()
		return session.ErrUnknownChain
	}
	p.chainID = chainID
	p.mu.Unlock()

	p.emit(session.Event{Kind: session.ChainChanged, ChainID: chainID})
	return nil
}

// AddChain registers a network profile so it can be switched to.
func (p *KeystoreProvider) AddChain(ctx context.Context, profile config.NetworkProfile) error {
	p.mu.Lock()
	p.chains[profile.ChainID] = profile
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"chain_id": profile.ChainID,
		"name":     profile.DisplayName,
	}).Info("Network profile registered with wallet")
	return nil
}

// TransactOpts returns a signer for the given account on the current chain.
func (p *KeystoreProvider) TransactOpts(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	p.mu.RLock()
	chainID := p.chainID
	p.mu.RUnlock()

	acct, err := p.ks.Find(accounts.Account{Address: account})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeProviderUnavailable,
			"Account not in keystore", account.Hex())
	}

	return bind.NewKeyStoreTransactorWithChainID(p.ks, acct, new(big.Int).SetUint64(chainID))
}

// Events delivers account/chain change notifications.
func (p *KeystoreProvider) Events() <-chan session.Event {
	return p.events
}

// Close stops event delivery.
func (p *KeystoreProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	return nil
}

// emit delivers an event without blocking the caller.
func (p *KeystoreProvider) emit(event session.Event) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return
	}

	select {
	case p.events <- event:
	default:
		p.logger.Warn("Wallet event dropped, subscriber not keeping up")
	}
}

// passphrase resolves the unlock passphrase from file or environment.
func (p *KeystoreProvider) passphrase() (string, error) {
	if p.cfg.PassphraseFile != "" {
		data, err := os.ReadFile(p.cfg.PassphraseFile)
		if err != nil {
			return "", utils.NewAppError(utils.ErrCodeConfiguration,
				"Failed to read passphrase file", err.Error())
		}
		return strings.TrimSpace(string(data)), nil
	}
	if pass, ok := os.LookupEnv("VAULT_WALLET_PASSPHRASE"); ok {
		return pass, nil
	}
	return "", utils.NewAppError(utils.ErrCodeConfiguration,
		"No wallet passphrase configured",
		"set wallet.passphrase_file or VAULT_WALLET_PASSPHRASE")
}

func addressesOf(accts []accounts.Account) []common.Address {
	addrs := make([]common.Address, len(accts))
	for i, a := range accts {
		addrs[i] = a.Address
	}
	return addrs
}
