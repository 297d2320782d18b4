package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"launchpad/logging"
	"launchpad/presale"
	"launchpad/solprogram"
	"launchpad/staking"
)

type SyncOptions struct {
	*RootOptions
	PaymentMint string
	SaleMint    string
	Depositors  []string
}

// NewSyncCommand mirrors deployed program state into the local store.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import presale and stake records from the cluster",
		Long: `Read presale_info and stake_info accounts of the deployed programs and
write them into the configured store. With depositors, the reward vault and
each depositor's stake account balance are imported too.

Example:
  launchpad sync --config launchpad.yaml --payment-mint <mint> --sale-mint <mint>
  launchpad sync --depositor <wallet> --depositor <wallet>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return runSync(ctx, opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.PaymentMint, "payment-mint", solprogram.USDCMintDevnet, "payment token mint")
	cmd.Flags().StringVar(&opts.SaleMint, "sale-mint", "", "sale token mint; presale is skipped when empty")
	cmd.Flags().StringSliceVar(&opts.Depositors, "depositor", nil, "depositor wallet to import (repeatable)")
	return cmd
}

func runSync(ctx context.Context, opts *SyncOptions, cmd *cobra.Command) error {
	cfg := opts.Config()
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	client, err := solprogram.NewClient(cfg.Solana.RpcUrl, cfg.Solana.Network, cfg.Solana.PresaleProgramID, cfg.Solana.StakingProgramID)
	if err != nil {
		return err
	}
	if err := client.HealthCheck(ctx); err != nil {
		return err
	}

	if opts.SaleMint != "" {
		paymentMint, err := solana.PublicKeyFromBase58(opts.PaymentMint)
		if err != nil {
			return fmt.Errorf("invalid payment mint: %w", err)
		}
		saleMint, err := solana.PublicKeyFromBase58(opts.SaleMint)
		if err != nil {
			return fmt.Errorf("invalid sale mint: %w", err)
		}
		details, err := client.GetPresaleDetails(ctx)
		if err != nil {
			return fmt.Errorf("failed to read presale: %s", solprogram.ParseSolanaError(cfg.Solana.PresaleProgramID, err))
		}
		info, err := presale.FromDetails(details, paymentMint, saleMint)
		if err != nil {
			return err
		}
		if err := a.presale.Restore(ctx, info); err != nil {
			return fmt.Errorf("failed to restore presale: %w", err)
		}
		logging.Info("Presale synced", logging.Sync, "stage", info.Stage, "owner", info.Owner)
		cmd.Printf("presale: stage=%s owner=%s\n", info.Stage, info.Owner)
		if pda, err := solprogram.DerivePresaleInfoPDA(solprogram.NewDeriver(client.PresaleProgramID)); err == nil {
			cmd.Printf("presale: %s\n", client.GetExplorerURL(pda))
		}
	}

	depositors := make([]solana.PublicKey, 0, len(opts.Depositors))
	for _, raw := range opts.Depositors {
		depositor, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return fmt.Errorf("invalid depositor %q: %w", raw, err)
		}
		depositors = append(depositors, depositor)
	}
	return syncStakes(ctx, client, a.staking, depositors, cmd)
}

// syncStakes mirrors the reward vault, then the stake record and stake
// account of each depositor. Depositors with no record on chain are skipped.
func syncStakes(ctx context.Context, client *solprogram.Client, engine *staking.Engine,
	depositors []solana.PublicKey, cmd *cobra.Command) error {
	if len(depositors) == 0 {
		return nil
	}
	programID := client.StakingProgramID.String()

	vault, err := client.GetRewardVault(ctx)
	if err != nil {
		return fmt.Errorf("failed to read reward vault: %s", solprogram.ParseSolanaError(programID, err))
	}
	if err := engine.RestoreVault(ctx, vault.Mint, vault.Amount); err != nil {
		return fmt.Errorf("failed to restore reward vault: %w", err)
	}
	cmd.Printf("vault: mint=%s balance=%d\n", vault.Mint, vault.Amount)

	for _, depositor := range depositors {
		onChain, err := client.GetStakeInfo(ctx, depositor)
		if err != nil {
			logging.Warn("Stake info not imported", logging.Sync, "depositor", depositor,
				"error", solprogram.ParseSolanaError(programID, err))
			continue
		}
		var balance uint64
		stakeAccount, err := client.GetStakeAccount(ctx, depositor)
		switch {
		case errors.Is(err, solprogram.ErrAccountNotFound):
		case err != nil:
			return fmt.Errorf("failed to read stake account of %s: %s", depositor, solprogram.ParseSolanaError(programID, err))
		default:
			balance = stakeAccount.Amount
		}

		info := staking.FromOnChain(onChain)
		if err := engine.Restore(ctx, depositor, info, balance); err != nil {
			return fmt.Errorf("failed to restore stake of %s: %w", depositor, err)
		}
		logging.Info("Stake synced", logging.Sync, "depositor", depositor, "staked", info.StakedAmount,
			"balance", balance, "locked_until", info.LockingPeriodEnd)
		cmd.Printf("stake: depositor=%s staked=%d pending=%d balance=%d locked_until=%d\n",
			depositor, info.StakedAmount, info.PendingRewards, balance, info.LockingPeriodEnd)
	}
	return nil
}
