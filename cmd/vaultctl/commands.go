// File: cmd/vaultctl/commands.go
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/arcnetlabs/vault-client/internal/journal"
	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/internal/output"
	"github.com/arcnetlabs/vault-client/internal/session"
	"github.com/arcnetlabs/vault-client/internal/view"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

const deadlineLayout = "2006-01-02"

func parseVaultArg(arg string) (common.Address, error) {
	if !utils.IsValidAddress(arg) {
		return common.Address{}, fmt.Errorf("invalid vault address: %s", arg)
	}
	return common.HexToAddress(arg), nil
}

func parseMilestoneArg(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid milestone id: %s", arg)
	}
	return id, nil
}

// reportOutcome prints the settled status for an operation kind and
// maps a failed operation onto a non-zero exit.
func reportOutcome(app *Application, kind models.OperationKind, err error) error {
	status, ok := app.notify.Current(kind)
	if err != nil {
		if ok {
			app.ui.Error("%s", status.Message)
		} else {
			app.ui.Error("%s", err.Error())
		}
		return err
	}
	if ok {
		app.ui.Success("%s", status.Message)
	}
	return nil
}

// Session commands

func addSessionCommands(root *cobra.Command) {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show wallet session and network status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *Application) error {
				if app.config.Wallet.AutoConnect {
					app.session.AutoConnect(app.ctx)
				}

				current := app.session.Current()
				network := app.config.Network

				app.ui.Info("Network: %s (chain %d)", network.DisplayName, network.ChainID)
				app.ui.Info("Session: %s", output.SessionColor(current.State.String()))

				if current.State == session.Connected {
					app.ui.Info("Account: %s", output.Cyan(current.Account.Hex()))
					if app.session.IsCorrectChain() {
						app.ui.Success("On the expected chain")
					} else {
						app.ui.Warning("Wrong chain: connected to %d, expected %d",
							current.ChainID, network.ChainID)
					}
				}

				if !app.config.Contracts.Deployed() {
					app.ui.Warning("Contracts not deployed yet; vault operations unavailable")
				}
				return nil
			})
		},
	}

	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect the wallet session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *Application) error {
				return app.ensureSession(app.ctx)
			})
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch-network",
		Short: "Switch the wallet to the configured network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}
				if err := app.session.SwitchNetwork(app.ctx); err != nil {
					app.ui.Error("%s", err.Error())
					return err
				}
				app.ui.Success("Switched to %s", app.config.Network.DisplayName)
				return nil
			})
		},
	}

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint test USDC from the faucet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}
				app.ui.Pending("Minting test %s...", app.config.Network.CurrencySymbol)
				err := app.orchestrator.Mint(app.ctx)
				return reportOutcome(app, models.OpMint, err)
			})
		},
	}

	root.AddCommand(statusCmd, connectCmd, switchCmd, mintCmd)
}

// Vault commands

func addVaultCommands(root *cobra.Command) {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Vault management commands",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new milestone vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}
				app.ui.Pending("Creating vault %q...", args[0])
				addr, err := app.orchestrator.CreateVault(app.ctx, args[0])
				if err := reportOutcome(app, models.OpCreateVault, err); err != nil {
					return err
				}
				app.ui.Info("Vault address: %s", output.Cyan(addr.Hex()))
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your vaults and portfolio totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}

				portfolio, err := app.view.FetchUserVaults(app.ctx, app.session.Current().Account)
				if err != nil {
					app.ui.Error("%s", err.Error())
					return err
				}

				renderPortfolio(app, portfolio)

				if app.journal != nil {
					snapshot := journal.SnapshotFromPortfolio(app.session.Current().Account.Hex(), portfolio)
					if err := app.journal.RecordSnapshot(app.ctx, snapshot); err != nil {
						app.logger.WithField("error", err).Warn("Failed to journal portfolio snapshot")
					}
				}
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <address>",
		Short: "Show full vault state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultAddr, err := parseVaultArg(args[0])
			if err != nil {
				return err
			}
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}

				snapshot, err := app.view.FetchVaultData(app.ctx, vaultAddr)
				if err != nil {
					app.ui.Error("%s", err.Error())
					return err
				}

				renderVault(app, snapshot)
				return nil
			})
		},
	}

	depositCmd := &cobra.Command{
		Use:   "deposit <vault> <amount>",
		Short: "Deposit USDC into a vault",
		Long:  `Deposits the given USDC amount into a vault, approving the token spend first when the existing allowance does not cover it.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultAddr, err := parseVaultArg(args[0])
			if err != nil {
				return err
			}
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}
				app.ui.Pending("Depositing %s %s...", args[1], app.config.Network.CurrencySymbol)
				err := app.orchestrator.Deposit(app.ctx, vaultAddr, args[1])
				return reportOutcome(app, models.OpDeposit, err)
			})
		},
	}

	vaultCmd.AddCommand(createCmd, listCmd, showCmd)
	root.AddCommand(vaultCmd, depositCmd)
}

// Milestone commands

func addMilestoneCommands(root *cobra.Command) {
	milestoneCmd := &cobra.Command{
		Use:   "milestone",
		Short: "Milestone lifecycle commands",
	}

	var title, description, amount, deadline string

	addCmd := &cobra.Command{
		Use:   "add <vault>",
		Short: "Add a milestone to a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultAddr, err := parseVaultArg(args[0])
			if err != nil {
				return err
			}
			due, err := time.Parse(deadlineLayout, deadline)
			if err != nil {
				return fmt.Errorf("invalid deadline %q, expected YYYY-MM-DD", deadline)
			}
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}
				app.ui.Pending("Adding milestone %q...", title)
				err := app.orchestrator.AddMilestone(app.ctx, vaultAddr, title, description, amount, due)
				return reportOutcome(app, models.OpAddMilestone, err)
			})
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "milestone title")
	addCmd.Flags().StringVar(&description, "description", "", "milestone description")
	addCmd.Flags().StringVar(&amount, "amount", "", "milestone amount in USDC")
	addCmd.Flags().StringVar(&deadline, "deadline", "", "milestone deadline (YYYY-MM-DD)")
	addCmd.MarkFlagRequired("title")
	addCmd.MarkFlagRequired("amount")
	addCmd.MarkFlagRequired("deadline")

	milestoneCmd.AddCommand(addCmd)
	milestoneCmd.AddCommand(milestoneActionCmd("submit", "Submit a milestone for review", models.OpSubmit,
		func(app *Application, vault common.Address, id uint64) error {
			return app.orchestrator.SubmitMilestone(app.ctx, vault, id)
		}))
	milestoneCmd.AddCommand(milestoneActionCmd("approve", "Approve a submitted milestone", models.OpApprove,
		func(app *Application, vault common.Address, id uint64) error {
			return app.orchestrator.ApproveMilestone(app.ctx, vault, id)
		}))
	milestoneCmd.AddCommand(milestoneActionCmd("reject", "Reject a submitted milestone", models.OpReject,
		func(app *Application, vault common.Address, id uint64) error {
			return app.orchestrator.RejectMilestone(app.ctx, vault, id)
		}))
	milestoneCmd.AddCommand(milestoneActionCmd("release", "Release payment for an approved milestone", models.OpRelease,
		func(app *Application, vault common.Address, id uint64) error {
			return app.orchestrator.ReleasePayment(app.ctx, vault, id)
		}))

	root.AddCommand(milestoneCmd)
}

func milestoneActionCmd(use, short string, kind models.OperationKind,
	action func(app *Application, vault common.Address, id uint64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <vault> <milestone-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultAddr, err := parseVaultArg(args[0])
			if err != nil {
				return err
			}
			id, err := parseMilestoneArg(args[1])
			if err != nil {
				return err
			}
			return withApp(func(app *Application) error {
				if err := app.ensureSession(app.ctx); err != nil {
					return err
				}
				return reportOutcome(app, kind, action(app, vaultAddr, id))
			})
		},
	}
}

// History command

func addHistoryCommand(root *cobra.Command) {
	var kindFlag, vaultFlag string
	var limitFlag int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled operation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *Application) error {
				filter := journal.OperationFilter{Limit: limitFlag}
				if kindFlag != "" {
					kind := models.OperationKind(kindFlag)
					filter.Kind = &kind
				}
				if vaultFlag != "" {
					if !utils.IsValidAddress(vaultFlag) {
						return fmt.Errorf("invalid vault address: %s", vaultFlag)
					}
					normalized := utils.NormalizeAddress(vaultFlag)
					filter.Vault = &normalized
				}

				operations, err := app.journal.GetOperations(app.ctx, filter)
				if err != nil {
					app.ui.Error("%s", err.Error())
					return err
				}

				renderHistory(app, operations)
				return nil
			})
		},
	}
	historyCmd.Flags().StringVar(&kindFlag, "kind", "", "filter by operation kind")
	historyCmd.Flags().StringVar(&vaultFlag, "vault", "", "filter by vault address")
	historyCmd.Flags().IntVar(&limitFlag, "limit", 25, "maximum rows to show")

	root.AddCommand(historyCmd)
}

// Rendering

func renderPortfolio(app *Application, portfolio *models.Portfolio) {
	symbol := app.config.Network.CurrencySymbol

	if len(portfolio.Vaults) == 0 {
		app.ui.Info("No vaults yet")
		return
	}

	table := app.ui.Table([]string{"Name", "Address", "Deposited", "Released", "Locked", "Milestones", "Progress"})
	for _, vault := range portfolio.Vaults {
		if vault.ReadFailed {
			table.Append([]string{
				output.Red(vault.Name), utils.ShortenAddress(vault.Address),
				"-", "-", "-", "-", "-",
			})
			continue
		}
		table.Append([]string{
			vault.Name,
			utils.ShortenAddress(vault.Address),
			output.Amount(vault.TotalDeposited, symbol),
			output.Amount(vault.TotalReleased, symbol),
			output.Amount(vault.TotalLocked, symbol),
			fmt.Sprintf("%d/%d", vault.CompletedMilestones, vault.MilestoneCount),
			fmt.Sprintf("%d%%", vault.Progress()),
		})
	}
	table.Render()

	fmt.Fprintln(app.ui.Out)
	app.ui.Info("Vaults: %d   Deposited: %s   Released: %s   Milestones: %d",
		portfolio.TotalVaults,
		output.Amount(portfolio.TotalDeposited, symbol),
		output.Amount(portfolio.TotalReleased, symbol),
		portfolio.TotalMilestones)
}

func renderVault(app *Application, snapshot *models.VaultSnapshot) {
	symbol := app.config.Network.CurrencySymbol

	app.ui.Info("%s (%s)", output.Cyan(snapshot.Name), snapshot.Address.Hex())
	app.ui.Info("Owner: %s", snapshot.Owner.Hex())
	app.ui.Info("Deposited: %s   Released: %s   Locked: %s",
		output.Amount(snapshot.Stats.TotalDeposited, symbol),
		output.Amount(snapshot.Stats.TotalReleased, symbol),
		output.Amount(snapshot.Stats.TotalLocked, symbol))

	if len(snapshot.Milestones) > 0 {
		fmt.Fprintln(app.ui.Out)
		table := app.ui.Table([]string{"ID", "Title", "Amount", "Deadline", "Status"})
		for _, m := range snapshot.Milestones {
			table.Append([]string{
				strconv.FormatUint(m.ID, 10),
				m.Title,
				output.Amount(m.Amount, symbol),
				utils.TimeRemaining(m.Deadline),
				output.StatusColor(m.Status),
			})
		}
		table.Render()
	}

	if len(snapshot.Transactions) > 0 {
		fmt.Fprintln(app.ui.Out)
		table := app.ui.Table([]string{"When", "Action", "Amount", "Actor"})
		for _, entry := range view.ReversedTransactions(snapshot.Transactions) {
			table.Append([]string{
				utils.FormatTimestamp(entry.Timestamp),
				entry.Action,
				output.Amount(entry.Amount, symbol),
				utils.ShortenAddress(entry.Actor),
			})
		}
		table.Render()
	}
}

func renderHistory(app *Application, operations []models.OperationRecord) {
	if len(operations) == 0 {
		app.ui.Info("No journaled operations")
		return
	}

	table := app.ui.Table([]string{"When", "Kind", "Vault", "Outcome", "Detail"})
	for _, op := range operations {
		outcome := output.Green("ok")
		detail := op.Detail
		if !op.Succeeded {
			outcome = output.Red(op.ErrorCode)
		}
		vault := ""
		if op.Vault != "" {
			vault = utils.ShortenAddress(common.HexToAddress(op.Vault))
		}
		table.Append([]string{
			op.SettledAt.Format("2006-01-02 15:04:05"),
			string(op.Kind),
			vault,
			outcome,
			detail,
		})
	}
	table.Render()
}
