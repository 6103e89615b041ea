package restapi

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/service"
	"github.com/joltify-finance/token-staking/utils"
)

// HandlePool returns the parameters and the live statistics of the pool.
func (h *Handler) HandlePool(w http.ResponseWriter, r *http.Request) {
	params, err := h.Ledger.Params()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	stats, err := h.Ledger.Stats(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPoolView(params, stats))
}

func (h *Handler) HandlePendingChanges(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Ledger.PendingChanges()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if pending == nil {
		pending = make([]model.PendingChange, 0)
	}
	writeJSON(w, http.StatusOK, pending)
}

// HandleRateHistory returns the APR curve history.
func (h *Handler) HandleRateHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Ledger.RateHistory()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	res := make([]RateEntryView, 0, len(entries))
	for _, e := range entries {
		res = append(res, RateEntryView{Timestamp: e.Timestamp, Curve: newCurveView(e.Curve)})
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleAccount returns one account with its emission accrued so far.
func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := utils.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acct := h.Ledger.Account(addr)
	accrual, err := h.Ledger.AccruedEmission(r.Context(), addr)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	view := newAccountView(&acct)
	view.Address = addr.Hex()
	view.AccruedTotal = newAmount(accrual.Total)
	view.AccruedUserShare = newAmount(accrual.UserShare)
	writeJSON(w, http.StatusOK, view)
}

// HandleAccountsList pages through the persisted accounts.
// Query param: ?open=true to list open deposits only
func (h *Handler) HandleAccountsList(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "history database not configured")
		return
	}
	page, num, positiveOrder, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	openOnly := r.URL.Query().Get("open") == "true"

	accounts, total, err := service.GetQueryService().GetAccounts(r.Context(), h.DB, page, num, openOnly, positiveOrder)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	items := make([]*AccountView, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, newAccountView(a))
	}
	page, num = service.NormalizePage(page, num)
	writeJSON(w, http.StatusOK, &Page{Total: total, Page: page, Num: num, Items: items})
}

// HandleEvents pages through the persisted events.
// Query param: ?sender=0x... to filter by sender
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "history database not configured")
		return
	}
	page, num, positiveOrder, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sender, err := senderParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, total, err := service.GetQueryService().GetEvents(r.Context(), h.DB, sender, page, num, positiveOrder)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	page, num = service.NormalizePage(page, num)
	writeJSON(w, http.StatusOK, &Page{Total: total, Page: page, Num: num, Items: events})
}

// HandleSnapshots pages through the pool snapshots taken by the scheduler.
func (h *Handler) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "history database not configured")
		return
	}
	page, num, positiveOrder, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshots, total, err := service.GetQueryService().GetSnapshots(r.Context(), h.DB, page, num, positiveOrder)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	items := make([]*SnapshotView, 0, len(snapshots))
	for _, s := range snapshots {
		items = append(items, newSnapshotView(s))
	}
	page, num = service.NormalizePage(page, num)
	writeJSON(w, http.StatusOK, &Page{Total: total, Page: page, Num: num, Items: items})
}

func senderParam(r *http.Request) (*common.Address, error) {
	s := r.URL.Query().Get("sender")
	if s == "" {
		return nil, nil
	}
	addr, err := utils.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
