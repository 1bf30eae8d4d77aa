package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/harlanhai/blockchain-server/pkg/core"
)

// Server exposes ledger operations over HTTP. It parses request bodies,
// calls into the ledger and maps the ledger's typed errors to status
// codes; the ledger itself performs no network I/O.
type Server struct {
	listenAddr string
	ledger     *core.Ledger
	router     *mux.Router
	hub        *Hub
}

// NewServer creates an RPC server for the given ledger.
func NewServer(listenAddr string, ledger *core.Ledger) *Server {
	server := &Server{
		listenAddr: listenAddr,
		ledger:     ledger,
		router:     mux.NewRouter(),
		hub:        NewHub(),
	}
	server.registerRoutes()
	return server
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// BroadcastBlock pushes a newly mined block to websocket subscribers.
// Safe to use as a miner notification callback.
func (s *Server) BroadcastBlock(block *core.Block) {
	s.hub.Broadcast(block)
}

// Start runs the HTTP server in a goroutine.
func (s *Server) Start() error {
	logrus.WithField("addr", s.listenAddr).Info("starting RPC server")

	server := &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("RPC server stopped")
		}
	}()
	return nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")
	s.router.HandleFunc("/info", s.infoHandler).Methods("GET")

	s.router.HandleFunc("/chain", s.chainHandler).Methods("GET")
	s.router.HandleFunc("/chain/valid", s.chainValidHandler).Methods("GET")
	s.router.HandleFunc("/blocks/latest", s.latestBlockHandler).Methods("GET")
	s.router.HandleFunc("/blocks/{hash}", s.blockByHashHandler).Methods("GET")

	s.router.HandleFunc("/transactions", s.submitTransactionHandler).Methods("POST")
	s.router.HandleFunc("/transactions/pending", s.pendingHandler).Methods("GET")
	s.router.HandleFunc("/transactions/{hash}", s.transactionHandler).Methods("GET")

	s.router.HandleFunc("/accounts/{address}/balance", s.balanceHandler).Methods("GET")

	s.router.HandleFunc("/mine", s.mineHandler).Methods("POST")
	s.router.HandleFunc("/ws", s.hub.HandleWS)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"height":     s.ledger.Height(),
		"tip_hash":   s.ledger.Tip().Hash,
		"difficulty": s.ledger.Difficulty(),
		"reward":     s.ledger.Reward(),
		"pending":    s.ledger.PendingCount(),
	})
}

func (s *Server) chainHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.ledger.Blocks())
}

func (s *Server) chainValidHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]bool{"valid": s.ledger.IsValid()})
}

func (s *Server) latestBlockHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.ledger.Tip())
}

func (s *Server) blockByHashHandler(w http.ResponseWriter, r *http.Request) {
	block := s.ledger.GetBlockByHash(mux.Vars(r)["hash"])
	if block == nil {
		errorResponse(w, "block not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, block)
}

// submitTransactionHandler admits a signed transfer into the pending
// queue. The body is a full transaction: the signature must already be
// bound to the submitted timestamp.
func (s *Server) submitTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		errorResponse(w, "malformed transaction body", http.StatusBadRequest)
		return
	}
	tx.Hash = tx.CalculateHash()

	if err := s.ledger.AddTransaction(&tx); err != nil {
		errorResponse(w, err.Error(), admissionStatus(err))
		return
	}

	logrus.WithFields(logrus.Fields{
		"hash":   tx.Hash,
		"from":   tx.From,
		"to":     tx.To,
		"amount": tx.Amount,
	}).Info("transaction admitted")

	jsonResponse(w, &tx)
}

func (s *Server) pendingHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.ledger.Pending())
}

func (s *Server) transactionHandler(w http.ResponseWriter, r *http.Request) {
	tx := s.ledger.GetTransactionByHash(mux.Vars(r)["hash"])
	if tx == nil {
		errorResponse(w, "transaction not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, tx)
}

func (s *Server) balanceHandler(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	jsonResponse(w, map[string]interface{}{
		"address": address,
		"balance": s.ledger.GetBalance(address),
	})
}

// mineHandler mines the pending queue synchronously. The response is
// delayed by the full proof-of-work search.
func (s *Server) mineHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RewardAddress string `json:"reward_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, "malformed mine request", http.StatusBadRequest)
		return
	}

	block, err := s.ledger.MinePendingTransactions(req.RewardAddress)
	if err != nil {
		errorResponse(w, err.Error(), admissionStatus(err))
		return
	}

	logrus.WithFields(logrus.Fields{
		"index": block.Index,
		"hash":  block.Hash,
		"nonce": block.Nonce,
		"txs":   len(block.Transactions),
	}).Info("block mined")

	s.hub.Broadcast(block)
	jsonResponse(w, block)
}

// admissionStatus maps the ledger's error taxonomy to HTTP statuses.
func admissionStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, core.ErrMissingAddress),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("encode response")
	}
}

func errorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
