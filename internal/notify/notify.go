// Package notify carries operation status updates from the orchestrator
// to whatever surfaces them. Each operation kind holds a single visible
// status slot, so repeated attempts update one status instead of
// stacking, and every operation ends in exactly one terminal status.
package notify

import (
	"sync"
	"time"

	"github.com/arcnetlabs/vault-client/internal/models"
)

// Status is one progress or terminal update for an operation kind.
type Status struct {
	Kind      models.OperationKind `json:"kind"`
	Message   string               `json:"message"`
	Terminal  bool                 `json:"terminal"`
	Succeeded bool                 `json:"succeeded"`
	ErrorCode string               `json:"error_code,omitempty"`
	At        time.Time            `json:"at"`
}

// Notifier receives status updates. Implementations decide presentation;
// the orchestrator only emits structured values.
type Notifier interface {
	Notify(status Status)
}

// Manager fans status updates out to notifiers and keeps the current
// per-kind slot for pollers (HTTP API, CLI).
type Manager struct {
	mu        sync.RWMutex
	notifiers []Notifier
	current   map[models.OperationKind]Status
}

// NewManager creates a status manager over the given notifiers.
func NewManager(notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		current:   make(map[models.OperationKind]Status),
	}
}

// Progress publishes a non-terminal stage update, e.g. "Approving USDC…".
func (m *Manager) Progress(kind models.OperationKind, message string) {
	m.publish(Status{Kind: kind, Message: message, At: time.Now()})
}

// Success publishes the terminal success status for an operation.
func (m *Manager) Success(kind models.OperationKind, message string) {
	m.publish(Status{Kind: kind, Message: message, Terminal: true, Succeeded: true, At: time.Now()})
}

// Failure publishes the terminal failure status for an operation.
func (m *Manager) Failure(kind models.OperationKind, message, errorCode string) {
	m.publish(Status{Kind: kind, Message: message, Terminal: true, ErrorCode: errorCode, At: time.Now()})
}

// Current returns the latest status slot for a kind.
func (m *Manager) Current(kind models.OperationKind) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.current[kind]
	return status, ok
}

// Snapshot returns the current status of every kind seen so far.
func (m *Manager) Snapshot() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]Status, 0, len(m.current))
	for _, status := range m.current {
		statuses = append(statuses, status)
	}
	return statuses
}

func (m *Manager) publish(status Status) {
	m.mu.Lock()
	m.current[status.Kind] = status
	notifiers := m.notifiers
	m.mu.Unlock()

	for _, n := range notifiers {
		n.Notify(status)
	}
}
