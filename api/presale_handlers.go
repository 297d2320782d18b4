package api

import (
	"net/http"

	"launchpad/presale"
)

// POST /api/v1/presale/initialize
func (s *Server) handleInitializePresale(w http.ResponseWriter, r *http.Request) {
	var req InitializePresaleRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	paymentMint, ok := parseKey(w, "payment_mint", req.PaymentMint)
	if !ok {
		return
	}
	saleMint, ok := parseKey(w, "sale_mint", req.SaleMint)
	if !ok {
		return
	}

	params := presale.InitializeParams{
		Allocations: req.Allocations,
		Prices:      req.Prices,
		PaymentMint: paymentMint,
		SaleMint:    saleMint,
	}
	result, err := s.command(r.Context(), programPresale, "initialize", signer, req, func(int64) (interface{}, error) {
		return s.presale.Initialize(r.Context(), signer, params)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "presale initialized", Data: result}, http.StatusOK)
}

// POST /api/v1/presale/fund
func (s *Server) handleFundVault(w http.ResponseWriter, r *http.Request) {
	var req SignerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	result, err := s.command(r.Context(), programPresale, "fund_vault", signer, req, func(int64) (interface{}, error) {
		moved, err := s.presale.FundVault(r.Context(), signer)
		return map[string]uint64{"transferred": moved}, err
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "token vault funded", Data: result}, http.StatusOK)
}

// POST /api/v1/presale/next-round
func (s *Server) handleStartNextRound(w http.ResponseWriter, r *http.Request) {
	var req SignerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	result, err := s.command(r.Context(), programPresale, "start_next_round", signer, req, func(int64) (interface{}, error) {
		stage, err := s.presale.StartNextRound(r.Context(), signer)
		return map[string]interface{}{"stage": stage.String(), "round": stage.Round()}, err
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "stage advanced", Data: result}, http.StatusOK)
}

// POST /api/v1/presale/buy
func (s *Server) handleBuyTokens(w http.ResponseWriter, r *http.Request) {
	var req BuyTokensRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	result, err := s.command(r.Context(), programPresale, "buy_tokens", signer, req, func(int64) (interface{}, error) {
		return s.presale.BuyTokens(r.Context(), signer, req.InputAmount, req.IsNative)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "tokens bought", Data: result}, http.StatusOK)
}

// POST /api/v1/presale/withdraw
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req SignerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	result, err := s.command(r.Context(), programPresale, "withdraw_usdc", signer, req, func(int64) (interface{}, error) {
		return s.presale.WithdrawUsdc(r.Context(), signer)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "payment vault withdrawn", Data: result}, http.StatusOK)
}

// POST /api/v1/presale/discount
func (s *Server) handleSetDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	_, err := s.command(r.Context(), programPresale, "set_discount", signer, req, func(int64) (interface{}, error) {
		return nil, s.presale.SetDiscount(r.Context(), signer, req.Discount)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "discount set"}, http.StatusOK)
}

// POST /api/v1/presale/whitelist
func (s *Server) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	var req WhitelistRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	buyer, ok := parseKey(w, "buyer", req.Buyer)
	if !ok {
		return
	}

	name := "add_to_whitelist"
	if req.Remove {
		name = "remove_from_whitelist"
	}
	_, err := s.command(r.Context(), programPresale, name, signer, req, func(now int64) (interface{}, error) {
		if req.Remove {
			return nil, s.presale.RemoveFromWhitelist(r.Context(), signer, buyer)
		}
		return nil, s.presale.AddToWhitelist(r.Context(), signer, buyer, now)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "whitelist updated"}, http.StatusOK)
}

// POST /api/v1/presale/owner
func (s *Server) handleChangeOwner(w http.ResponseWriter, r *http.Request) {
	var req ChangeOwnerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	signer, ok := parseKey(w, "signer", req.Signer)
	if !ok {
		return
	}
	newOwner, ok := parseKey(w, "new_owner", req.NewOwner)
	if !ok {
		return
	}
	_, err := s.command(r.Context(), programPresale, "change_owner", signer, req, func(int64) (interface{}, error) {
		return nil, s.presale.ChangeOwner(r.Context(), signer, newOwner)
	})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Message: "owner changed"}, http.StatusOK)
}

// GET /api/v1/presale/info
func (s *Server) handlePresaleInfo(w http.ResponseWriter, r *http.Request) {
	// commands hold the same lock, so config and balances agree
	s.mu.Lock()
	info, balances, err := s.presale.Snapshot(r.Context())
	s.mu.Unlock()
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, Response{Success: true, Data: PresaleInfoResponse{
		Info:      info,
		Addresses: s.presale.Addresses(),
		Balances:  balances,
		Config:    s.presale.Config(),
	}}, http.StatusOK)
}
