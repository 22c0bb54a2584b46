package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/erpgo/pos-storefront/internal/cart"
	"github.com/erpgo/pos-storefront/internal/config"
	"github.com/erpgo/pos-storefront/internal/model"
	"github.com/erpgo/pos-storefront/internal/obs"
	"github.com/erpgo/pos-storefront/internal/push"
	"github.com/erpgo/pos-storefront/internal/syncer"
)

// Status answers whether the backend is currently reachable.
type Status interface {
	Online() bool
}

type App struct {
	Cfg      config.Config
	Sync     *syncer.Synchronizer
	Conn     Status
	Sessions *cart.Sessions
	Hub      *push.Hub
	Proxy    http.Handler
	started  time.Time
}

func NewApp(cfg config.Config, s *syncer.Synchronizer, conn Status, sessions *cart.Sessions, hub *push.Hub, proxy http.Handler) *App {
	return &App{Cfg: cfg, Sync: s, Conn: conn, Sessions: sessions, Hub: hub, Proxy: proxy, started: time.Now()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) getCatalogHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Sync.Snapshot())
}

func (a *App) postSyncHandler(w http.ResponseWriter, r *http.Request) {
	snap := a.Sync.Sync(r.Context())
	writeJSON(w, http.StatusOK, snap)
	obs.Logger.Info("sync_requested",
		"request_id", RequestIDFromContext(r.Context()),
		"state", snap.State.String(),
		"records", len(snap.Records),
	)
}

func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	snap := a.Sync.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"online":     a.Conn.Online(),
		"sync_state": a.Sync.State().String(),
		"records":    len(snap.Records),
		"advisory":   snap.Advisory,
		"clients":    a.Hub.Count(),
		"uptime_sec": time.Since(a.started).Seconds(),
	})
}

type cartView struct {
	SessionID string           `json:"session_id"`
	Lines     []model.CartLine `json:"lines"`
	Total     decimal.Decimal  `json:"total"`
	// OpenPanel tells the UI to reveal the cart after an add.
	OpenPanel bool `json:"open_panel,omitempty"`
}

func (a *App) view(sid string, c *cart.Cart, open bool) cartView {
	return cartView{SessionID: sid, Lines: c.Lines(), Total: c.Total(), OpenPanel: open}
}

func (a *App) createCartHandler(w http.ResponseWriter, r *http.Request) {
	sid := a.Sessions.Create()
	c, _ := a.Sessions.Get(sid)
	writeJSON(w, http.StatusCreated, a.view(sid, c, false))
}

// requireJSON rejects body-bearing requests without a JSON content type.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	return true
}

func (a *App) session(w http.ResponseWriter, r *http.Request) (string, *cart.Cart, bool) {
	sid := chi.URLParam(r, "sid")
	c, ok := a.Sessions.Get(sid)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "unknown_session", "")
		return "", nil, false
	}
	return sid, c, true
}

func (a *App) getCartHandler(w http.ResponseWriter, r *http.Request) {
	sid, c, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.view(sid, c, false))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (a *App) addItemHandler(w http.ResponseWriter, r *http.Request) {
	sid, c, ok := a.session(w, r)
	if !ok {
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req addItemRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}
	p, ok := a.findProduct(req.ProductID)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "unknown_product", "product is not in the published catalog")
		return
	}
	c.Add(p)
	writeJSON(w, http.StatusOK, a.view(sid, c, true))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (a *App) setQuantityHandler(w http.ResponseWriter, r *http.Request) {
	sid, c, ok := a.session(w, r)
	if !ok {
		return
	}
	if !requireJSON(w, r) {
		return
	}
	pid := chi.URLParam(r, "pid")
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if !c.Has(pid) {
		WriteJSONError(w, http.StatusNotFound, "not_in_cart", "")
		return
	}
	// Quantities below 1 are a no-op by contract; the cart keeps its
	// previous state and the response shows it.
	c.SetQuantity(pid, req.Quantity)
	writeJSON(w, http.StatusOK, a.view(sid, c, false))
}

func (a *App) removeItemHandler(w http.ResponseWriter, r *http.Request) {
	sid, c, ok := a.session(w, r)
	if !ok {
		return
	}
	pid := chi.URLParam(r, "pid")
	if !c.Remove(pid) {
		WriteJSONError(w, http.StatusNotFound, "not_in_cart", "")
		return
	}
	writeJSON(w, http.StatusOK, a.view(sid, c, false))
}

// findProduct resolves a product id against the published snapshot, the
// only catalog the UI can legitimately reference.
func (a *App) findProduct(id string) (model.ProductRecord, bool) {
	for _, p := range a.Sync.Snapshot().Records {
		if p.ID == id {
			return p, true
		}
	}
	return model.ProductRecord{}, false
}

func (a *App) notifyHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	a.Hub.Broadcast(push.Notification{Title: push.DefaultTitle, Body: string(body)})
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "sent", "clients": a.Hub.Count()})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
