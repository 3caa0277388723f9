package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// Manager defines the node connection manager interface
type Manager interface {
	GetClient(ctx context.Context) (*ethclient.Client, error)
	ChainID(ctx context.Context) (uint64, error)
	VerifyChain(ctx context.Context) error
	IsConnected() bool
	Close() error
	Stats() Stats
}

// NodeManager maintains the read-side connection to the configured
// network's RPC node, with backup endpoints and reconnect on failure.
type NodeManager struct {
	network config.NetworkProfile
	node    config.NodeConfig
	urls    []string

	mu              sync.RWMutex
	client          *ethclient.Client
	currentURL      string
	lastHealthCheck time.Time
	stats           Stats
	logger          *logrus.Logger
}

// Stats holds node connection statistics
type Stats struct {
	TotalRequests   uint64    `json:"total_requests"`
	FailedRequests  uint64    `json:"failed_requests"`
	Reconnects      uint64    `json:"reconnects"`
	CurrentURL      string    `json:"current_url"`
	LastConnectedAt time.Time `json:"last_connected_at"`
	ChainID         uint64    `json:"chain_id"`
}

// NewNodeManager creates a node manager for the configured network.
func NewNodeManager(network config.NetworkProfile, node config.NodeConfig) *NodeManager {
	urls := append([]string{network.RPCURL}, node.BackupURLs...)

	return &NodeManager{
		network: network,
		node:    node,
		urls:    urls,
		logger:  utils.GetLogger(),
		stats:   Stats{CurrentURL: network.RPCURL},
	}
}

// GetClient returns the current node client, dialing if necessary.
func (nm *NodeManager) GetClient(ctx context.Context) (*ethclient.Client, error) {
	nm.mu.RLock()
	client := nm.client
	lastCheck := nm.lastHealthCheck
	nm.mu.RUnlock()

	if client == nil {
		return nm.connect(ctx)
	}

	if time.Since(lastCheck) > time.Minute {
		if err := nm.quickHealthCheck(ctx, client); err != nil {
			nm.logger.WithError(err).Warn("Node health check failed, reconnecting")
			return nm.reconnect(ctx)
		}
		nm.mu.Lock()
		nm.lastHealthCheck = time.Now()
		nm.mu.Unlock()
	}

	nm.mu.Lock()
	nm.stats.TotalRequests++
	nm.mu.Unlock()
	return client, nil
}

// connect establishes a new connection, rotating through backup URLs.
func (nm *NodeManager) connect(ctx context.Context) (*ethclient.Client, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	attempts := nm.node.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		for _, url := range nm.urls {
			nm.logger.WithFields(logrus.Fields{"url": url, "attempt": attempt + 1}).
				Info("Attempting node connection")

			client, err := nm.dialWithTimeout(ctx, url)
			if err != nil {
				nm.logger.WithError(err).WithField("url", url).Warn("Connection failed")
				nm.stats.FailedRequests++
				continue
			}

			if err := nm.quickHealthCheck(ctx, client); err != nil {
				client.Close()
				nm.logger.WithError(err).WithField("url", url).Warn("Health check failed after connection")
				continue
			}

			nm.client = client
			nm.currentURL = url
			nm.stats.CurrentURL = url
			nm.stats.LastConnectedAt = time.Now()
			nm.lastHealthCheck = time.Now()

			nm.logger.WithField("url", url).Info("Connected to node")
			return client, nil
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(nm.node.RetryDelay):
			}
		}
	}

	return nil, utils.NewAppError(utils.ErrCodeConnection,
		"Failed to connect to any node", "All connection attempts exhausted")
}

// reconnect drops the current client and dials again.
func (nm *NodeManager) reconnect(ctx context.Context) (*ethclient.Client, error) {
	nm.mu.Lock()
	if nm.client != nil {
		nm.client.Close()
		nm.client = nil
	}
	nm.stats.Reconnects++
	nm.mu.Unlock()

	return nm.connect(ctx)
}

func (nm *NodeManager) dialWithTimeout(ctx context.Context, url string) (*ethclient.Client, error) {
	timeout := nm.node.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return ethclient.DialContext(dialCtx, url)
}

func (nm *NodeManager) quickHealthCheck(ctx context.Context, client *ethclient.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := client.ChainID(checkCtx)
	return err
}

// ChainID returns the chain id the node reports.
func (nm *NodeManager) ChainID(ctx context.Context) (uint64, error) {
	client, err := nm.GetClient(ctx)
	if err != nil {
		return 0, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return 0, err
	}

	nm.mu.Lock()
	nm.stats.ChainID = chainID.Uint64()
	nm.mu.Unlock()

	return chainID.Uint64(), nil
}

// VerifyChain checks the node is serving the configured network.
func (nm *NodeManager) VerifyChain(ctx context.Context) error {
	chainID, err := nm.ChainID(ctx)
	if err != nil {
		return err
	}

	if chainID != nm.network.ChainID {
		return utils.NewAppError(utils.ErrCodeWrongNetwork,
			"Node chain id mismatch",
			fmt.Sprintf("expected %d, got %d", nm.network.ChainID, chainID))
	}

	return nil
}

// IsConnected returns whether the manager holds a live client.
func (nm *NodeManager) IsConnected() bool {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.client != nil
}

// Close closes the connection
func (nm *NodeManager) Close() error {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nm.client != nil {
		nm.client.Close()
		nm.client = nil
	}

	nm.logger.Info("Node connection manager closed")
	return nil
}

// Stats returns connection statistics
func (nm *NodeManager) Stats() Stats {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.stats
}
