package main

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"launchpad/solprogram"
)

type pdaRow struct {
	name   string
	derive func() (solana.PublicKey, error)
}

// NewPdaCommand prints the program derived addresses.
func NewPdaCommand(rootOpts *RootOptions) *cobra.Command {
	var depositor, mint string
	cmd := &cobra.Command{
		Use:   "pda",
		Short: "Print presale and staking program addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := pdaRows(rootOpts, depositor, mint)
			if err != nil {
				return err
			}
			for _, row := range rows {
				address, err := row.derive()
				if err != nil {
					return err
				}
				cmd.Printf("%-16s %s\n", row.name, address)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&depositor, "depositor", "", "wallet to derive per depositor accounts for")
	cmd.Flags().StringVar(&mint, "mint", "", "mint for the depositor's holding account")
	return cmd
}

func pdaRows(rootOpts *RootOptions, depositor, mint string) ([]pdaRow, error) {
	cfg := rootOpts.Config()
	ps, err := solprogram.NewProgramDeriver(cfg.Solana.PresaleProgramID)
	if err != nil {
		return nil, err
	}
	st, err := solprogram.NewProgramDeriver(cfg.Solana.StakingProgramID)
	if err != nil {
		return nil, err
	}

	rows := []pdaRow{
		{"presale_info", func() (solana.PublicKey, error) { return solprogram.DerivePresaleInfoPDA(ps) }},
		{"usdc_vault", func() (solana.PublicKey, error) { return solprogram.DerivePaymentVaultPDA(ps) }},
		{"token_vault", func() (solana.PublicKey, error) { return solprogram.DeriveTokenVaultPDA(ps) }},
		{"reward_vault", func() (solana.PublicKey, error) { return solprogram.DeriveRewardVaultPDA(st) }},
	}
	if depositor == "" {
		return rows, nil
	}

	wallet, err := solana.PublicKeyFromBase58(depositor)
	if err != nil {
		return nil, err
	}
	rows = append(rows,
		pdaRow{"whitelist", func() (solana.PublicKey, error) { return solprogram.DeriveWhitelistPDA(ps, wallet) }},
		pdaRow{"stake_info", func() (solana.PublicKey, error) { return solprogram.DeriveStakeInfoPDA(st, wallet) }},
		pdaRow{"stake_account", func() (solana.PublicKey, error) { return solprogram.DeriveStakeAccountPDA(st, wallet) }},
	)
	if mint != "" {
		mintKey, err := solana.PublicKeyFromBase58(mint)
		if err != nil {
			return nil, err
		}
		rows = append(rows, pdaRow{"holding_account", func() (solana.PublicKey, error) {
			return solprogram.GetAssociatedTokenAddress(wallet, mintKey)
		}})
	}
	return rows, nil
}
