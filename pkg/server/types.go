package server

import (
	"net/http"
	"sync"

	"github.com/windora/fanstore/pkg/auth"
	"github.com/windora/fanstore/pkg/catalog"
	"github.com/windora/fanstore/pkg/category"
	"github.com/windora/fanstore/pkg/inventory"
	"github.com/windora/fanstore/pkg/pricewatch"
	"github.com/windora/fanstore/pkg/storage"
	"github.com/windora/fanstore/pkg/stores"
	fanstoresync "github.com/windora/fanstore/pkg/sync"
	"github.com/windora/fanstore/pkg/tracking"
)

// CategoryNotifier receives the full flat list of a category type after an
// admin change so other nodes can rebuild their trees.
type CategoryNotifier interface {
	CategoryReloaded(reload fanstoresync.CategoryReload)
}

// AuthHandler is the surface the admin mux needs from an auth backend.
type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	AuthCallback(w http.ResponseWriter, r *http.Request)
	User(w http.ResponseWriter, r *http.Request)
	Middleware(next http.HandlerFunc) http.HandlerFunc
}

// WebServer owns the shared state behind both the storefront and the
// back-office muxes.
type WebServer struct {
	Index     *catalog.Index
	Forest    *category.Forest
	Inventory *inventory.Inventory
	Stores    *stores.Registry
	Watches   *pricewatch.Watches
	Tracking  tracking.Tracking
	Cache     *Cache
	Storage   *storage.DiskStorage
	Notifier  CategoryNotifier

	Users  *auth.UserStore
	Codes  auth.CodeStore
	Sender auth.CodeSender
	Tokens *auth.TokenIssuer

	categoryMu sync.Mutex
	categories storage.CategorySnapshot

	flowMu sync.Mutex
	flows  map[string]*auth.Flow
}

// SetCategories seeds the flat category lists, normally from the snapshot
// loaded at startup.
func (ws *WebServer) SetCategories(snapshot storage.CategorySnapshot) {
	ws.categoryMu.Lock()
	defer ws.categoryMu.Unlock()
	if snapshot == nil {
		snapshot = storage.CategorySnapshot{}
	}
	ws.categories = snapshot
}

func (ws *WebServer) signupFlow(flowId string) (*auth.Flow, bool) {
	ws.flowMu.Lock()
	defer ws.flowMu.Unlock()
	if ws.flows == nil {
		return nil, false
	}
	flow, ok := ws.flows[flowId]
	return flow, ok
}

func (ws *WebServer) storeSignupFlow(flowId string, flow *auth.Flow) {
	ws.flowMu.Lock()
	defer ws.flowMu.Unlock()
	if ws.flows == nil {
		ws.flows = map[string]*auth.Flow{}
	}
	ws.flows[flowId] = flow
}

func (ws *WebServer) dropSignupFlow(flowId string) {
	ws.flowMu.Lock()
	defer ws.flowMu.Unlock()
	delete(ws.flows, flowId)
}
