package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/config"
	"launchpad/solprogram"
	"launchpad/staking"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "dev\n", execute(t, "version"))
}

func TestPdaCommand(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	out := execute(t, "pda", "--depositor", wallet.String(), "--mint", mint.String())

	ps, err := solprogram.NewProgramDeriver(solprogram.PresaleProgramID)
	require.NoError(t, err)
	st, err := solprogram.NewProgramDeriver(solprogram.StakingProgramID)
	require.NoError(t, err)

	info, err := solprogram.DerivePresaleInfoPDA(ps)
	require.NoError(t, err)
	stakeInfo, err := solprogram.DeriveStakeInfoPDA(st, wallet)
	require.NoError(t, err)
	holding, err := solprogram.GetAssociatedTokenAddress(wallet, mint)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, out, info.String())
	assert.Contains(t, out, stakeInfo.String())
	assert.Contains(t, out, holding.String())
}

func TestNewAppSqlite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DSN = filepath.Join(t.TempDir(), "launchpad.db")
	cfg.Staking.RewardRate = staking.RateFromAPR(12)

	a, err := newApp(&cfg)
	require.NoError(t, err)
	defer a.close()

	_, err = a.presale.Info(context.Background())
	require.Error(t, err)
}

func TestNewAppRejectsMissingRate(t *testing.T) {
	cfg := config.Default()
	_, err := newApp(&cfg)
	require.Error(t, err)
}

func TestNewAppRejectsBadProgramID(t *testing.T) {
	cfg := config.Default()
	cfg.Staking.RewardRate = staking.RateFromAPR(12)
	cfg.Solana.PresaleProgramID = "nope"
	_, err := newApp(&cfg)
	require.ErrorContains(t, err, "presale program")
}

func TestInstructionCommand(t *testing.T) {
	buyer := solana.NewWallet().PublicKey()
	saleMint := solana.NewWallet().PublicKey()

	out := execute(t, "instruction", "buy-tokens",
		"--signer", buyer.String(), "--sale-mint", saleMint.String(), "--amount", "1000", "--native")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2+11)
	assert.Equal(t, "program  "+solprogram.PresaleProgramID, lines[0])
	// discriminator, 1000 LE, native flag
	assert.Equal(t, "data     "+hex.EncodeToString(solprogram.BuyTokensDisc[:])+"e80300000000000001", lines[1])
	assert.Contains(t, out, "ws "+buyer.String())
}

func TestInstructionCommandStake(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	out := execute(t, "instruction", "stake", "--signer", signer.String(), "--mint", mint.String(), "--amount", "5")
	assert.Contains(t, out, "program  "+solprogram.StakingProgramID)
	assert.Contains(t, out, hex.EncodeToString(solprogram.StakeDisc[:])+"050000000000000000")
}

func TestInstructionCommandErrors(t *testing.T) {
	signer := solana.NewWallet().PublicKey().String()
	for _, args := range [][]string{
		{"instruction", "mint-everything", "--signer", signer},
		{"instruction", "buy-tokens", "--signer", signer},
		{"instruction", "initialize-presale", "--signer", signer, "--sale-mint", signer, "--allocations", "1,2", "--prices", "1,2,3"},
		{"instruction", "stake", "--signer", "bad", "--mint", signer, "--amount", "1"},
	} {
		cmd := NewRootCommand()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), "%v", args)
	}
}
