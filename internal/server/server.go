// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/journal"
	"github.com/arcnetlabs/vault-client/internal/metrics"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/internal/view"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// HTTPServer exposes a read-only view of the wallet session, vault
// state, and the local operation journal. All mutating flows stay on
// the CLI; the API never accepts signed transactions.
type HTTPServer struct {
	config  *config.ServerConfig
	network config.NetworkProfile
	server  *http.Server
	router  *mux.Router
	session *session.Manager
	view    *view.Aggregator
	journal journal.Journal
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	cfg *config.ServerConfig,
	network config.NetworkProfile,
	sess *session.Manager,
	aggregator *view.Aggregator,
	jnl journal.Journal,
	m *metrics.Metrics,
) *HTTPServer {

	srv := &HTTPServer{
		config:  cfg,
		network: network,
		session: sess,
		view:    aggregator,
		journal: jnl,
		metrics: m,
		logger:  utils.GetLogger(),
	}

	srv.setupRouter()

	srv.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	// Middleware
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	if s.metrics != nil {
		s.router.Use(s.metricsMiddleware)
	}

	// API routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
	}

	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	// Session endpoints
	api.HandleFunc("/session", s.sessionHandler).Methods("GET")
	api.HandleFunc("/network", s.networkHandler).Methods("GET")

	// Vault state endpoints
	api.HandleFunc("/portfolio", s.portfolioHandler).Methods("GET")
	api.HandleFunc("/portfolio/snapshot", s.snapshotHandler).Methods("GET")
	api.HandleFunc("/vaults/{address}", s.vaultHandler).Methods("GET")

	// Journal endpoints
	api.HandleFunc("/history", s.historyHandler).Methods("GET")
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
	}).Info("Starting HTTP server")

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithField("error", err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Surface immediate binding errors instead of reporting a dead server as started
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	components := map[string]interface{}{
		"session": s.session.Current().State.String(),
	}
	if s.journal != nil {
		journalHealthy := s.journal.Ping() == nil
		components["journal"] = journalHealthy
	}

	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"network":         s.network.DisplayName,
		"components":      components,
		"metrics_enabled": s.config.EnableMetrics,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// Session Handlers

// sessionHandler returns the current wallet session
func (s *HTTPServer) sessionHandler(w http.ResponseWriter, r *http.Request) {
	current := s.session.Current()

	resp := map[string]interface{}{
		"session":       current,
		"state":         current.State.String(),
		"correct_chain": s.session.IsCorrectChain(),
		"timestamp":     time.Now(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// networkHandler returns the configured network profile
func (s *HTTPServer) networkHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"network":      s.network,
		"chain_id_hex": s.network.ChainIDHex(),
	})
}

// Vault State Handlers

// portfolioHandler returns all vaults for the connected account
func (s *HTTPServer) portfolioHandler(w http.ResponseWriter, r *http.Request) {
	current := s.session.Current()
	if current.State != session.Connected {
		s.writeError(w, http.StatusServiceUnavailable, "Wallet not connected", nil)
		return
	}

	portfolio, err := s.view.FetchUserVaults(r.Context(), current.Account)
	if err != nil {
		s.writeAppError(w, "Failed to fetch portfolio", err)
		return
	}

	s.writeJSON(w, http.StatusOK, portfolio)
}

// snapshotHandler returns the last journaled portfolio snapshot
func (s *HTTPServer) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Journal not configured", nil)
		return
	}

	account := r.URL.Query().Get("account")
	if account == "" {
		account = s.session.Current().Account.Hex()
	}
	if !utils.IsValidAddress(account) {
		s.writeError(w, http.StatusBadRequest, "Invalid account address", nil)
		return
	}

	snapshot, err := s.journal.GetLatestSnapshot(r.Context(), account)
	if err != nil {
		s.writeAppError(w, "Failed to retrieve snapshot", err)
		return
	}

	s.writeJSON(w, http.StatusOK, snapshot)
}

// vaultHandler returns the full state of a single vault
func (s *HTTPServer) vaultHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]

	if !utils.IsValidAddress(address) {
		s.writeError(w, http.StatusBadRequest, "Invalid vault address", nil)
		return
	}

	snapshot, err := s.view.FetchVaultData(r.Context(), common.HexToAddress(address))
	if err != nil {
		s.writeAppError(w, "Failed to fetch vault", err)
		return
	}

	s.writeJSON(w, http.StatusOK, snapshot)
}

// Journal Handlers

// historyHandler lists journaled operations
func (s *HTTPServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Journal not configured", nil)
		return
	}

	filter := journal.OperationFilter{Limit: 50}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}
	if kindStr := r.URL.Query().Get("kind"); kindStr != "" {
		kind := models.OperationKind(kindStr)
		filter.Kind = &kind
	}
	if vault := r.URL.Query().Get("vault"); vault != "" {
		if !utils.IsValidAddress(vault) {
			s.writeError(w, http.StatusBadRequest, "Invalid vault address", nil)
			return
		}
		normalized := utils.NormalizeAddress(vault)
		filter.Vault = &normalized
	}

	operations, err := s.journal.GetOperations(r.Context(), filter)
	if err != nil {
		s.writeAppError(w, "Failed to retrieve history", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"operations": operations,
		"total":      len(operations),
	})
}

// Utility Methods

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithField("error", err).Error("Failed to encode JSON response")
	}
}

// writeAppError maps an application error code onto an HTTP status
func (s *HTTPServer) writeAppError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch utils.ErrorCode(err) {
	case utils.ErrCodeNotFound:
		status = http.StatusNotFound
	case utils.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case utils.ErrCodeProviderUnavailable, utils.ErrCodeWrongNetwork:
		status = http.StatusServiceUnavailable
	}
	s.writeError(w, status, message, err)
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
		errorResponse["code"] = utils.ErrorCode(err)
		s.logger.WithFields(logrus.Fields{
			"status":  status,
			"message": message,
			"error":   err,
		}).Error("HTTP error")
	}

	s.writeJSON(w, status, errorResponse)
}
