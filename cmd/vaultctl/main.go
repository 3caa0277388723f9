// File: cmd/vaultctl/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/connection"
	"github.com/arcnetlabs/vault-client/internal/gateway"
	"github.com/arcnetlabs/vault-client/internal/journal"
	"github.com/arcnetlabs/vault-client/internal/metrics"
	"github.com/arcnetlabs/vault-client/internal/notify"
	"github.com/arcnetlabs/vault-client/internal/orchestrator"
	"github.com/arcnetlabs/vault-client/internal/output"
	"github.com/arcnetlabs/vault-client/internal/server"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/internal/view"
	"github.com/arcnetlabs/vault-client/internal/wallet"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application wires the vault client components together for one
// CLI invocation or one serve run.
type Application struct {
	config       *config.Config
	logger       *logrus.Logger
	ui           *output.UI
	connection   connection.Manager
	wallet       *wallet.KeystoreProvider
	session      *session.Manager
	gateway      *gateway.Gateway
	orchestrator *orchestrator.Orchestrator
	view         *view.Aggregator
	notify       *notify.Manager
	journal      journal.Journal
	metrics      *metrics.Metrics
	server       *server.HTTPServer
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ui:     output.New(),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeLogger(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger = utils.GetLogger()
	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	if err := app.initializeConnection(); err != nil {
		return fmt.Errorf("failed to initialize connection: %w", err)
	}

	if err := app.initializeSession(); err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	if err := app.initializeJournal(); err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	app.initializeNotify()

	app.metrics = metrics.New()
	app.gateway = gateway.New(app.connection, app.session, app.config.Contracts)
	app.orchestrator = orchestrator.New(app.session, app.gateway, app.notify, app.journal, app.metrics)
	app.view = view.New(app.session, app.gateway, app.metrics)

	app.server = server.NewHTTPServer(
		&app.config.Server,
		app.config.Network,
		app.session,
		app.view,
		app.journal,
		app.metrics,
	)

	return nil
}

// initializeConnection initializes the node connection manager
func (app *Application) initializeConnection() error {
	app.connection = connection.NewNodeManager(app.config.Network, app.config.Node)
	return nil
}

// initializeSession initializes the wallet provider and session manager
func (app *Application) initializeSession() error {
	app.wallet = wallet.NewKeystoreProvider(app.config.Wallet, app.config.Network)
	app.session = session.NewManager(app.wallet, app.config.Network)
	return nil
}

// initializeJournal initializes the local operation journal
func (app *Application) initializeJournal() error {
	jnl, err := journal.New(&app.config.Journal)
	if err != nil {
		return err
	}

	if err := jnl.Connect(); err != nil {
		return fmt.Errorf("failed to connect to journal: %w", err)
	}

	if err := jnl.Migrate(); err != nil {
		return fmt.Errorf("failed to run journal migrations: %w", err)
	}

	app.journal = jnl
	return nil
}

// initializeNotify initializes the operation status notifiers
func (app *Application) initializeNotify() {
	notifiers := []notify.Notifier{notify.NewLogNotifier()}
	if app.config.Notify.EnableWebhook {
		notifiers = append(notifiers, notify.NewWebhookNotifier(app.config.Notify))
	}
	app.notify = notify.NewManager(notifiers...)
}

// ensureSession connects the wallet session, silently when a prior
// authorization exists, interactively otherwise.
func (app *Application) ensureSession(ctx context.Context) error {
	if app.session.Current().State == session.Connected {
		return nil
	}

	if app.config.Wallet.AutoConnect && app.session.AutoConnect(ctx) {
		return nil
	}

	if err := app.session.Connect(ctx); err != nil {
		return err
	}

	current := app.session.Current()
	app.ui.Info("Connected as %s on %s",
		output.Cyan(utils.ShortenAddress(current.Account)), app.config.Network.DisplayName)
	return nil
}

// Close releases all application resources
func (app *Application) Close() {
	app.cancel()

	if app.journal != nil {
		if err := app.journal.Close(); err != nil {
			app.logger.WithField("error", err).Error("Failed to close journal")
		}
	}

	if app.wallet != nil {
		app.wallet.Close()
	}

	if app.connection != nil {
		if err := app.connection.Close(); err != nil {
			app.logger.WithField("error", err).Error("Failed to close node connection")
		}
	}
}

// Serve starts the HTTP API and blocks until a shutdown signal arrives
func (app *Application) Serve() error {
	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	app.ui.Info("API listening on %s:%d",
		app.config.Server.Host, app.config.Server.Port)

	go app.sessionMetricsUpdater()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	<-signalChan

	fmt.Println("\nReceived shutdown signal, stopping...")
	return app.server.Stop()
}

// sessionMetricsUpdater refreshes the session gauges periodically
func (app *Application) sessionMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			current := app.session.Current()
			app.metrics.SetSessionState(current.State == session.Connected, app.session.IsCorrectChain())
		case <-app.ctx.Done():
			return
		}
	}
}

// withApp loads configuration, builds the application, runs fn, and
// tears everything down afterwards.
func withApp(fn func(app *Application) error) error {
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "vaultctl",
	Short:   "Milestone vault client",
	Long:    `A command-line client for milestone-based escrow vaults: create vaults, deposit test USDC, and walk milestones through submission, review, and payment release.`,
	Version: AppVersion,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vaultctl %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Network: %s (chain %d)\n", cfg.Network.DisplayName, cfg.Network.ChainID)
		fmt.Printf("RPC: %s\n", cfg.Network.RPCURL)
		fmt.Printf("Journal: %s\n", cfg.Journal.Type)
		if cfg.Contracts.Deployed() {
			fmt.Printf("Factory: %s\n", cfg.Contracts.FactoryAddress)
			fmt.Printf("Token: %s\n", cfg.Contracts.TokenAddress)
		} else {
			fmt.Println("Contracts: not deployed (placeholder addresses)")
		}

		return nil
	},
}

// serveCmd runs the read-only HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *Application) error {
			if app.config.Wallet.AutoConnect {
				app.session.AutoConnect(app.ctx)
			}
			return app.Serve()
		})
	},
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	configCmd.AddCommand(validateConfigCmd)
	addSessionCommands(rootCmd)
	addVaultCommands(rootCmd)
	addMilestoneCommands(rootCmd)
	addHistoryCommand(rootCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
