package main

import (
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"launchpad/solprogram"
)

type InstructionOptions struct {
	*RootOptions
	Signer        string
	PaymentMint   string
	SaleMint      string
	Mint          string
	Amount        uint64
	Native        bool
	LockingPeriod uint8
	Allocations   []uint
	Prices        []uint
}

var instructionNames = []string{
	"initialize-presale", "start-next-round", "buy-tokens", "withdraw-usdc",
	"initialize-staking", "stake", "claim-reward", "unstake",
}

// NewInstructionCommand prints the unsigned instruction the deployed
// programs expect for a command.
func NewInstructionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstructionOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:       "instruction <name>",
		Short:     "Encode a presale or staking instruction",
		ValidArgs: instructionNames,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Long: `Build the instruction for one program command and print its program id,
account metas and data. Nothing is signed or sent.

Example:
  launchpad instruction buy-tokens --signer <wallet> --sale-mint <mint> --amount 1000000
  launchpad instruction stake --signer <wallet> --mint <mint> --amount 1000000000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := buildInstruction(opts, args[0])
			if err != nil {
				return err
			}
			return printInstruction(cmd, ix)
		},
	}
	cmd.Flags().StringVar(&opts.Signer, "signer", "", "signing wallet")
	cmd.Flags().StringVar(&opts.PaymentMint, "payment-mint", solprogram.USDCMintDevnet, "presale payment mint")
	cmd.Flags().StringVar(&opts.SaleMint, "sale-mint", "", "presale sale mint")
	cmd.Flags().StringVar(&opts.Mint, "mint", "", "staking mint")
	cmd.Flags().Uint64Var(&opts.Amount, "amount", 0, "input or stake amount")
	cmd.Flags().BoolVar(&opts.Native, "native", false, "pay buy-tokens in lamports")
	cmd.Flags().Uint8Var(&opts.LockingPeriod, "locking-period", 0, "stake locking period choice")
	cmd.Flags().UintSliceVar(&opts.Allocations, "allocations", nil, "three round allocations")
	cmd.Flags().UintSliceVar(&opts.Prices, "prices", nil, "three round prices")
	_ = cmd.MarkFlagRequired("signer")
	return cmd
}

func parseKeyFlag(flag, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", flag)
	}
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return pk, nil
}

func rounds(flag string, values []uint) ([3]uint64, error) {
	var out [3]uint64
	if len(values) != 3 {
		return out, fmt.Errorf("--%s needs 3 values, got %d", flag, len(values))
	}
	for i, v := range values {
		out[i] = uint64(v)
	}
	return out, nil
}

func buildInstruction(opts *InstructionOptions, name string) (solana.Instruction, error) {
	cfg := opts.Config()
	signer, err := parseKeyFlag("signer", opts.Signer)
	if err != nil {
		return nil, err
	}

	switch name {
	case "initialize-presale", "start-next-round", "buy-tokens", "withdraw-usdc":
		programID, err := solana.PublicKeyFromBase58(cfg.Solana.PresaleProgramID)
		if err != nil {
			return nil, fmt.Errorf("invalid presale program ID: %w", err)
		}
		paymentMint, err := parseKeyFlag("payment-mint", opts.PaymentMint)
		if err != nil {
			return nil, err
		}
		saleMint, err := parseKeyFlag("sale-mint", opts.SaleMint)
		if err != nil {
			return nil, err
		}
		accounts, err := solprogram.NewPresaleAccounts(programID, paymentMint, saleMint)
		if err != nil {
			return nil, err
		}
		switch name {
		case "initialize-presale":
			allocations, err := rounds("allocations", opts.Allocations)
			if err != nil {
				return nil, err
			}
			prices, err := rounds("prices", opts.Prices)
			if err != nil {
				return nil, err
			}
			return accounts.BuildInitializePresaleInstruction(signer, allocations, prices)
		case "start-next-round":
			return accounts.BuildStartNextRoundInstruction(signer), nil
		case "buy-tokens":
			return accounts.BuildBuyTokensInstruction(signer, opts.Amount, opts.Native)
		default:
			return accounts.BuildWithdrawUSDCInstruction(signer)
		}
	}

	programID, err := solana.PublicKeyFromBase58(cfg.Solana.StakingProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid staking program ID: %w", err)
	}
	mint, err := parseKeyFlag("mint", opts.Mint)
	if err != nil {
		return nil, err
	}
	accounts, err := solprogram.NewStakingAccounts(programID, mint)
	if err != nil {
		return nil, err
	}
	switch name {
	case "initialize-staking":
		return accounts.BuildInitializeStakingInstruction(signer), nil
	case "stake":
		return accounts.BuildStakeInstruction(signer, opts.Amount, opts.LockingPeriod)
	case "claim-reward":
		return accounts.BuildClaimRewardInstruction(signer)
	case "unstake":
		return accounts.BuildUnstakeInstruction(signer, opts.Amount)
	}
	return nil, fmt.Errorf("unknown instruction %q", name)
}

func printInstruction(cmd *cobra.Command, ix solana.Instruction) error {
	data, err := ix.Data()
	if err != nil {
		return err
	}
	cmd.Printf("program  %s\n", ix.ProgramID())
	cmd.Printf("data     %s\n", hex.EncodeToString(data))
	for i, meta := range ix.Accounts() {
		flags := []byte("--")
		if meta.IsWritable {
			flags[0] = 'w'
		}
		if meta.IsSigner {
			flags[1] = 's'
		}
		cmd.Printf("%2d %s %s\n", i, flags, meta.PublicKey)
	}
	return nil
}
