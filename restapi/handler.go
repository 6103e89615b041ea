// Package restapi is the read-only HTTP query API of the pool.
package restapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/joltify-finance/token-staking/errcode"
	"github.com/joltify-finance/token-staking/stakemgr"
)

// Handler holds the dependencies for API handlers
type Handler struct {
	Ledger *stakemgr.Ledger
	// DB backs the paged history endpoints.  It may be nil.
	DB *gorm.DB
	// Token is the bearer token of the protected endpoints.  Empty leaves
	// them open.
	Token string
}

// NewHandler creates a new Handler instance
func NewHandler(ledger *stakemgr.Ledger, db *gorm.DB, token string) *Handler {
	return &Handler{
		Ledger: ledger,
		DB:     db,
		Token:  token,
	}
}

// NewRouter creates and configures the HTTP router with all API routes
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	// Public health check endpoint
	r.HandleFunc("/api/health", h.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/pool", h.RequireAuth(h.HandlePool)).Methods(http.MethodGet)
	r.HandleFunc("/api/pool/pending", h.RequireAuth(h.HandlePendingChanges)).Methods(http.MethodGet)
	r.HandleFunc("/api/ratehistory", h.RequireAuth(h.HandleRateHistory)).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts", h.RequireAuth(h.HandleAccountsList)).Methods(http.MethodGet)
	r.HandleFunc("/api/accounts/{address}", h.RequireAuth(h.HandleAccount)).Methods(http.MethodGet)
	r.HandleFunc("/api/events", h.RequireAuth(h.HandleEvents)).Methods(http.MethodGet)
	r.HandleFunc("/api/snapshots", h.RequireAuth(h.HandleSnapshots)).Methods(http.MethodGet)

	return r
}

// RequireAuth is a middleware that validates the bearer token
func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Token != "" && r.Header.Get("Authorization") != "Bearer "+h.Token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// HandleHealth returns a simple health check response
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"initialized": h.Ledger.Initialized(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError reports err with the status matching its kind.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errcode.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, errcode.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("REST query failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// pageParams reads ?page=&num=&order=asc|desc.
func pageParams(r *http.Request) (page, num int, positiveOrder bool, err error) {
	q := r.URL.Query()
	page, num = 1, 20
	if s := q.Get("page"); s != "" {
		if page, err = strconv.Atoi(s); err != nil {
			return 0, 0, false, errors.New("invalid page")
		}
	}
	if s := q.Get("num"); s != "" {
		if num, err = strconv.Atoi(s); err != nil {
			return 0, 0, false, errors.New("invalid num")
		}
	}
	switch q.Get("order") {
	case "", "desc":
	case "asc":
		positiveOrder = true
	default:
		return 0, 0, false, errors.New("order must be asc or desc")
	}
	return page, num, positiveOrder, nil
}
