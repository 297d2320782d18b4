package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// POST /api/v1/staking/initialize
func (s *Server) handleInitializeStaking(w http.ResponseWriter, r *http.Request) {
	var req InitializeStakingRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	mint, ok := parseKey(w, "mint", req.Mint)
	if !ok {
		return
	}
	_, err := s.command(r.Context(), programStaking, "initialize", signer, req, func(int64) (interface{}, error) {
		return nil, s.staking.Initialize(r.Context(), signer, mint)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{
		Success: true,
		Message: "reward vault initialized",
		Data:    map[string]string{"vault": s.staking.RewardVault().String()},
	}, http.StatusOK)
}

// POST /api/v1/staking/fund
func (s *Server) handleFundRewards(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	_, err := s.command(r.Context(), programStaking, "fund_rewards", signer, req, func(int64) (interface{}, error) {
		return nil, s.staking.FundRewards(r.Context(), signer, req.Amount)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "reward vault funded"}, http.StatusOK)
}

// POST /api/v1/staking/stake
func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	result, err := s.command(r.Context(), programStaking, "stake", signer, req, func(now int64) (interface{}, error) {
		return s.staking.Stake(r.Context(), signer, req.Amount, now)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "tokens staked", Data: result}, http.StatusOK)
}

// POST /api/v1/staking/claim
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req SignerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	result, err := s.command(r.Context(), programStaking, "claim_reward", signer, req, func(now int64) (interface{}, error) {
		paid, err := s.staking.ClaimReward(r.Context(), signer, now)
		return ClaimResponse{Paid: paid}, err
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "reward claimed", Data: result}, http.StatusOK)
}

// POST /api/v1/staking/unstake
func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	var req SignerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	result, err := s.command(r.Context(), programStaking, "unstake", signer, req, func(now int64) (interface{}, error) {
		return s.staking.Unstake(r.Context(), signer, now)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "tokens unstaked", Data: result}, http.StatusOK)
}

// GET /api/v1/staking/vault
func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	balance, err := s.staking.VaultBalance(r.Context())
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Data: VaultResponse{
		Address:       s.staking.RewardVault().String(),
		Balance:       balance,
		Rate:          s.staking.Rate(),
		LockingPeriod: s.staking.LockingPeriod(),
	}}, http.StatusOK)
}

// GET /api/v1/staking/{depositor}
func (s *Server) handleGetStake(w http.ResponseWriter, r *http.Request) {
	depositor, ok := parseKey(w, "depositor", mux.Vars(r)["depositor"])
	if !ok {
		return
	}
	now := s.clock.Now()
	info, err := s.staking.GetStakeInfo(r.Context(), depositor)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	pending, err := s.staking.PendingRewardsAt(r.Context(), depositor, now)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Data: StakeInfoResponse{
		Depositor:      depositor.String(),
		StakeInfo:      info,
		PendingRewards: pending,
		Now:            now,
	}}, http.StatusOK)
}
