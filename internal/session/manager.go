package session

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// State is the wallet connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

// String returns the display label for a connection state.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Session is the current wallet identity. ChainID is only meaningful
// while State is Connected. Never persisted; replaced wholesale on
// every mutation so readers never observe a torn account/chain pair.
type Session struct {
	Account   common.Address `json:"account"`
	ChainID   uint64         `json:"chain_id"`
	State     State          `json:"state"`
	LastError string         `json:"last_error,omitempty"`
}

// Manager owns wallet connectivity and the live session record. All
// consumers read the session through Current(); none mutate it directly.
type Manager struct {
	provider Provider
	network  config.NetworkProfile
	logger   *logrus.Logger

	mu      sync.RWMutex
	session Session
	signer  *bind.TransactOpts

	watchOnce sync.Once
}

// NewManager creates a session manager. provider may be nil when no
// wallet is present; Connect then fails with ProviderUnavailable.
func NewManager(provider Provider, network config.NetworkProfile) *Manager {
	return &Manager{
		provider: provider,
		network:  network,
		logger:   utils.GetLogger(),
		session:  Session{State: Disconnected},
	}
}

// Connect establishes the wallet session, adopting the first exposed
// account, and begins listening for wallet events.
func (m *Manager) Connect(ctx context.Context) error {
	if m.provider == nil {
		err := utils.NewAppError(utils.ErrCodeProviderUnavailable,
			"No wallet provider present")
		m.replace(Session{State: Disconnected, LastError: err.Message})
		return err
	}

	m.replace(Session{State: Connecting})

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		m.replace(Session{State: Disconnected, LastError: err.Error()})
		return utils.NewAppError(utils.ErrCodeProviderUnavailable,
			"Wallet refused to expose accounts", err.Error())
	}
	if len(accounts) == 0 {
		err := utils.NewAppError(utils.ErrCodeProviderUnavailable,
			"Wallet exposed no accounts")
		m.replace(Session{State: Disconnected, LastError: err.Message})
		return err
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		m.replace(Session{State: Disconnected, LastError: err.Error()})
		return utils.NewAppError(utils.ErrCodeConnection,
			"Failed to read wallet chain id", err.Error())
	}

	signer, err := m.provider.TransactOpts(ctx, accounts[0])
	if err != nil {
		m.replace(Session{State: Disconnected, LastError: err.Error()})
		return utils.NewAppError(utils.ErrCodeProviderUnavailable,
			"Failed to derive signer", err.Error())
	}

	m.mu.Lock()
	m.session = Session{Account: accounts[0], ChainID: chainID, State: Connected}
	m.signer = signer
	m.mu.Unlock()

	m.watchOnce.Do(func() { go m.watchEvents() })

	m.logger.WithFields(logrus.Fields{
		"account":  accounts[0].Hex(),
		"chain_id": chainID,
	}).Info("Wallet connected")

	return nil
}

// AutoConnect connects silently when the wallet already exposes at
// least one authorized account. Returns true when a session was
// established.
func (m *Manager) AutoConnect(ctx context.Context) bool {
	if m.provider == nil {
		return false
	}

	accounts, err := m.provider.AuthorizedAccounts(ctx)
	if err != nil || len(accounts) == 0 {
		return false
	}

	return m.Connect(ctx) == nil
}

// Disconnect clears the session. Idempotent. Wallet-side authorization
// is not revoked; that lives outside this process.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	wasConnected := m.session.State == Connected
	m.session = Session{State: Disconnected}
	m.signer = nil
	m.mu.Unlock()

	if wasConnected {
		m.logger.Info("Wallet disconnected")
	}
}

// SwitchNetwork requests the wallet move to the configured network. On
// an unknown-chain failure the full profile is registered first, then
// the switch is retried once. Failures are reported, never auto-retried.
func (m *Manager) SwitchNetwork(ctx context.Context) error {
	if m.provider == nil {
		return utils.NewAppError(utils.ErrCodeProviderUnavailable,
			"No wallet provider present")
	}

	err := m.provider.SwitchChain(ctx, m.network.ChainID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUnknownChain) {
		return utils.NewAppError(utils.ErrCodeConnection,
			"Network switch rejected", err.Error())
	}

	if err := m.provider.AddChain(ctx, m.network); err != nil {
		return utils.NewAppError(utils.ErrCodeConnection,
			"Failed to register network with wallet", err.Error())
	}
	if err := m.provider.SwitchChain(ctx, m.network.ChainID); err != nil {
		return utils.NewAppError(utils.ErrCodeConnection,
			"Network switch rejected after registration", err.Error())
	}

	return nil
}

// Current returns a copy of the session record.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// IsCorrectChain reports whether the session is connected to exactly
// the configured network. False whenever the session is not connected.
func (m *Manager) IsCorrectChain() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.State == Connected && m.session.ChainID == m.network.ChainID
}

// Signer returns the session's transactor, or ok=false when no signing
// capability currently exists.
func (m *Manager) Signer() (*bind.TransactOpts, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session.State != Connected || m.signer == nil {
		return nil, false
	}
	return m.signer, true
}

// Network returns the configured network profile.
func (m *Manager) Network() config.NetworkProfile {
	return m.network
}

// replace swaps the session record atomically and drops the signer.
func (m *Manager) replace(s Session) {
	m.mu.Lock()
	m.session = s
	if s.State != Connected {
		m.signer = nil
	}
	m.mu.Unlock()
}

// watchEvents consumes wallet notifications for the process lifetime.
func (m *Manager) watchEvents() {
	for event := range m.provider.Events() {
		switch event.Kind {
		case AccountsChanged:
			m.handleAccountsChanged(event.Accounts)
		case ChainChanged:
			m.handleChainChanged(event.ChainID)
		}
	}
}

func (m *Manager) handleAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		m.logger.Info("Wallet revoked all accounts")
		m.Disconnect()
		return
	}

	signer, err := m.provider.TransactOpts(context.Background(), accounts[0])
	if err != nil {
		m.logger.WithError(err).Warn("Failed to refresh signer after account change")
		m.Disconnect()
		return
	}

	m.mu.Lock()
	session := m.session
	session.Account = accounts[0]
	m.session = session
	m.signer = signer
	m.mu.Unlock()

	m.logger.WithField("account", accounts[0].Hex()).Info("Wallet account changed")
}

func (m *Manager) handleChainChanged(chainID uint64) {
	m.mu.RLock()
	account := m.session.Account
	connected := m.session.State == Connected
	m.mu.RUnlock()

	var signer *bind.TransactOpts
	if connected {
		var err error
		signer, err = m.provider.TransactOpts(context.Background(), account)
		if err != nil {
			m.logger.WithError(err).Warn("Failed to refresh signer after chain change")
		}
	}

	m.mu.Lock()
	// ChainID is only meaningful while connected; drop stale events
	// arriving after disconnect.
	if m.session.State != Connected {
		m.mu.Unlock()
		return
	}
	session := m.session
	session.ChainID = chainID
	m.session = session
	m.signer = signer
	m.mu.Unlock()

	m.logger.WithField("chain_id", chainID).Info("Wallet chain changed")
}
