package solprogram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrAccountNotFound is returned when an address holds no account on chain.
var ErrAccountNotFound = errors.New("account not found")

// ClusterReader is the part of rpc.Client the reader needs.
type ClusterReader interface {
	GetHealth(ctx context.Context) (string, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// Client reads presale and staking state from a cluster
type Client struct {
	RPC              ClusterReader
	PresaleProgramID solana.PublicKey
	StakingProgramID solana.PublicKey
	network          string
}

// NewClient creates new Solana program client
func NewClient(rpcURL, network, presaleProgramID, stakingProgramID string) (*Client, error) {
	presalePubkey, err := solana.PublicKeyFromBase58(presaleProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid presale program ID: %w", err)
	}
	stakingPubkey, err := solana.PublicKeyFromBase58(stakingProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid staking program ID: %w", err)
	}

	return &Client{
		RPC:              rpc.New(rpcURL),
		PresaleProgramID: presalePubkey,
		StakingProgramID: stakingPubkey,
		network:          network,
	}, nil
}

// HealthCheck - fails unless the node reports ok
func (c *Client) HealthCheck(ctx context.Context) error {
	status, err := c.RPC.GetHealth(ctx)
	if err != nil {
		return fmt.Errorf("rpc health check failed: %w", err)
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("rpc node is %s", status)
	}
	return nil
}

// GetAccount - fetch raw account
func (c *Client) GetAccount(ctx context.Context, address solana.PublicKey) (*AccountSnapshot, error) {
	accountInfo, err := c.RPC.GetAccountInfo(ctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", address, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	if accountInfo == nil || accountInfo.Value == nil {
		return nil, fmt.Errorf("%s: %w", address, ErrAccountNotFound)
	}

	return &AccountSnapshot{
		Address:  address,
		Lamports: accountInfo.Value.Lamports,
		Owner:    accountInfo.Value.Owner,
		Data:     accountInfo.Value.Data.GetBinary(),
	}, nil
}

// GetPresaleDetails - Fetch presale_info from blockchain
func (c *Client) GetPresaleDetails(ctx context.Context) (*PreSaleDetails, error) {
	pda, err := DerivePresaleInfoPDA(NewDeriver(c.PresaleProgramID))
	if err != nil {
		return nil, err
	}
	account, err := c.GetAccount(ctx, pda)
	if err != nil {
		return nil, err
	}
	return ParsePreSaleDetails(account.Data)
}

// GetStakeInfo - Fetch stake_info of depositor from blockchain
func (c *Client) GetStakeInfo(ctx context.Context, depositor solana.PublicKey) (*OnChainStakeInfo, error) {
	pda, err := DeriveStakeInfoPDA(NewDeriver(c.StakingProgramID), depositor)
	if err != nil {
		return nil, err
	}
	account, err := c.GetAccount(ctx, pda)
	if err != nil {
		return nil, err
	}
	return ParseStakeInfo(account.Data)
}

// GetTokenAccount - Fetch SPL token account
func (c *Client) GetTokenAccount(ctx context.Context, address solana.PublicKey) (*TokenAccount, error) {
	account, err := c.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	return ParseTokenAccount(account.Data)
}

// GetRewardVault - Fetch the staking reward vault token account
func (c *Client) GetRewardVault(ctx context.Context) (*TokenAccount, error) {
	pda, err := DeriveRewardVaultPDA(NewDeriver(c.StakingProgramID))
	if err != nil {
		return nil, err
	}
	return c.GetTokenAccount(ctx, pda)
}

// GetStakeAccount - Fetch the token account holding depositor's stake
func (c *Client) GetStakeAccount(ctx context.Context, depositor solana.PublicKey) (*TokenAccount, error) {
	pda, err := DeriveStakeAccountPDA(NewDeriver(c.StakingProgramID), depositor)
	if err != nil {
		return nil, err
	}
	return c.GetTokenAccount(ctx, pda)
}

// GetExplorerURL - explorer link of an address on the configured network
func (c *Client) GetExplorerURL(address solana.PublicKey) string {
	switch c.network {
	case "mainnet":
		return fmt.Sprintf(ExplorerURLMainnet, address)
	case "testnet":
		return fmt.Sprintf(ExplorerURLMainnet, address) + "?cluster=testnet"
	default:
		return fmt.Sprintf(ExplorerURLDevnet, address)
	}
}
