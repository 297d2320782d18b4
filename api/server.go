package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"launchpad/ledger"
	"launchpad/logging"
	"launchpad/metrics"
	"launchpad/presale"
	"launchpad/solprogram"
	"launchpad/staking"
)

const (
	programPresale = "presale"
	programStaking = "staking"
)

type Options struct {
	Store   ledger.Store
	Presale *presale.Engine
	Staking *staking.Engine
	Journal ledger.Journal
	Clock   ledger.Clock
	// Faucet enables the local funding route.
	Faucet bool
}

// Server exposes both engines over HTTP. Commands run one at a time in
// arrival order; the mutex is the sequencing authority.
type Server struct {
	store   ledger.Store
	presale *presale.Engine
	staking *staking.Engine
	journal ledger.Journal
	clock   ledger.Clock
	faucet  bool

	mu     sync.Mutex
	router *mux.Router
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:   opts.Store,
		presale: opts.Presale,
		staking: opts.Staking,
		journal: opts.Journal,
		clock:   opts.Clock,
		faucet:  opts.Faucet,
	}
	if s.journal == nil {
		s.journal = ledger.NewMemoryJournal()
	}
	if s.clock == nil {
		s.clock = ledger.SystemClock{}
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(logRequests)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{address}", s.handleGetAccount).Methods(http.MethodGet)
	if s.faucet {
		v1.HandleFunc("/faucet", s.handleFaucet).Methods(http.MethodPost)
	}

	ps := v1.PathPrefix("/presale").Subrouter()
	ps.HandleFunc("/initialize", s.handleInitializePresale).Methods(http.MethodPost)
	ps.HandleFunc("/fund", s.handleFundVault).Methods(http.MethodPost)
	ps.HandleFunc("/next-round", s.handleStartNextRound).Methods(http.MethodPost)
	ps.HandleFunc("/buy", s.handleBuyTokens).Methods(http.MethodPost)
	ps.HandleFunc("/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	ps.HandleFunc("/discount", s.handleSetDiscount).Methods(http.MethodPost)
	ps.HandleFunc("/whitelist", s.handleWhitelist).Methods(http.MethodPost)
	ps.HandleFunc("/owner", s.handleChangeOwner).Methods(http.MethodPost)
	ps.HandleFunc("/info", s.handlePresaleInfo).Methods(http.MethodGet)

	st := v1.PathPrefix("/staking").Subrouter()
	st.HandleFunc("/initialize", s.handleInitializeStaking).Methods(http.MethodPost)
	st.HandleFunc("/fund", s.handleFundRewards).Methods(http.MethodPost)
	st.HandleFunc("/stake", s.handleStake).Methods(http.MethodPost)
	st.HandleFunc("/claim", s.handleClaim).Methods(http.MethodPost)
	st.HandleFunc("/unstake", s.handleUnstake).Methods(http.MethodPost)
	st.HandleFunc("/vault", s.handleVault).Methods(http.MethodGet)
	st.HandleFunc("/{depositor}", s.handleGetStake).Methods(http.MethodGet)

	router.Handle("/metrics", metrics.HTTPHandler()).Methods(http.MethodGet)
	return router
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debug("Request served", logging.API, "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

// command runs fn under the sequencing lock at the current ledger time,
// then journals and meters the outcome.
func (s *Server) command(ctx context.Context, program, name string, signer solana.PublicKey, args interface{},
	fn func(now int64) (interface{}, error)) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	start := time.Now()
	result, err := fn(now)

	entry := &ledger.CommandHistory{
		CommandID:  uuid.New().String(),
		Program:    program,
		Command:    name,
		Signer:     signer.String(),
		Status:     ledger.StatusExecuted,
		LedgerTime: now,
	}
	if raw, mErr := json.Marshal(args); mErr == nil {
		entry.Args = string(raw)
	}
	if err != nil {
		entry.Status = ledger.StatusFailed
		entry.ErrorMessage = err.Error()
		if pe, ok := solprogram.AsProgramError(err); ok {
			entry.Status = ledger.StatusRejected
			code := pe.Code
			entry.ErrorCode = &code
		}
		logging.Warn("Command failed", logging.API, "program", program, "command", name, "signer", signer, "error", err)
	}
	if jErr := s.journal.Record(ctx, entry); jErr != nil {
		logging.Error("Failed to journal command", logging.API, "command_id", entry.CommandID, "error", jErr)
	}
	metrics.ObserveCommand(program, name, entry.Status, time.Since(start))
	return result, err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, Response{Success: true, Message: "ok", Data: map[string]int64{"now": s.clock.Now()}}, http.StatusOK)
}

// GET /api/v1/history?address=xxx&limit=10
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		respondError(w, "address parameter required", http.StatusBadRequest)
		return
	}
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		respondError(w, "invalid address", http.StatusBadRequest)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	histories, err := s.journal.History(r.Context(), address, limit)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, Response{Success: true, Data: histories}, http.StatusOK)
}

// GET /api/v1/accounts/{address}
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	address, err := solana.PublicKeyFromBase58(mux.Vars(r)["address"])
	if err != nil {
		respondError(w, "invalid address", http.StatusBadRequest)
		return
	}
	acc, err := s.store.Get(r.Context(), address)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		respondError(w, "account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := AccountResponse{Address: address.String(), Lamports: acc.Lamports, Owner: acc.Owner.String()}
	if acc.Owner.Equals(solprogram.TokenProgramID) {
		if token, err := solprogram.ParseTokenAccount(acc.Data); err == nil {
			out.Mint = token.Mint.String()
			out.Amount = token.Amount
		}
	}
	respondJSON(w, Response{Success: true, Data: out}, http.StatusOK)
}

// POST /api/v1/faucet
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var req FaucetRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	address, ok := parseKey(w, "address", req.Address)
	if !ok {
		return
	}
	if req.Amount == 0 {
		respondError(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	var mint *solana.PublicKey
	if req.Mint != "" {
		m, ok := parseKey(w, "mint", req.Mint)
		if !ok {
			return
		}
		mint = &m
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	txn := ledger.Begin(r.Context(), s.store)
	if err := credit(txn, address, mint, req.Amount); err != nil {
		txn.Discard()
		respondError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := txn.Commit(); err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logging.Info("Faucet credited", logging.API, "address", address, "mint", req.Mint, "amount", req.Amount)
	respondJSON(w, Response{Success: true, Message: "credited"}, http.StatusOK)
}

// credit mints amount into the holding account of address, or airdrops
// lamports when mint is nil.
func credit(txn *ledger.Txn, address solana.PublicKey, mint *solana.PublicKey, amount uint64) error {
	if mint == nil {
		return txn.Airdrop(address, amount)
	}
	holding, err := solprogram.GetAssociatedTokenAddress(address, *mint)
	if err != nil {
		return err
	}
	if err := txn.EnsureTokenAccount(holding, *mint, address); err != nil {
		return err
	}
	return txn.MintTo(holding, amount)
}
