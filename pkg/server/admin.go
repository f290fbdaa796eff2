package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/windora/fanstore/pkg/common"
	"github.com/windora/fanstore/pkg/inventory"
	"github.com/windora/fanstore/pkg/stores"
	fanstoresync "github.com/windora/fanstore/pkg/sync"
	"github.com/windora/fanstore/pkg/types"
)

func (ws *WebServer) invalidateSearchCache() {
	if ws.Cache == nil {
		return
	}
	if err := ws.Cache.Invalidate("search:*"); err != nil {
		log.Printf("Failed to invalidate search cache: %v", err)
	}
}

func (ws *WebServer) reloadCategories(ct types.CategoryType, flat []types.Category) {
	ws.Forest.Load(ct, flat)
	ws.invalidateSearchCache()
	if ws.Notifier != nil {
		ws.Notifier.CategoryReloaded(fanstoresync.CategoryReload{Type: ct, Flat: flat})
	}
	if ws.Storage != nil {
		if err := ws.Storage.SaveCategories(ws.categories); err != nil {
			log.Printf("Failed to save categories: %v", err)
		}
	}
}

// UpsertCategory adds or replaces one category in its type's flat list and
// rebuilds the tree.
func (ws *WebServer) UpsertCategory(w http.ResponseWriter, r *http.Request) {
	ct := types.CategoryType(r.PathValue("type"))
	if !ct.Valid() {
		common.WriteError(w, http.StatusBadRequest, "unknown category type")
		return
	}
	var record types.Category
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if record.Id == 0 || record.Name == "" {
		common.WriteError(w, http.StatusBadRequest, "id and name are required")
		return
	}
	record.Type = ct
	if record.ParentId != nil {
		if *record.ParentId == record.Id {
			common.WriteError(w, http.StatusBadRequest, "category cannot be its own parent")
			return
		}
		parent, ok := ws.Forest.Get(*record.ParentId)
		if !ok || parent.Type != ct {
			common.WriteError(w, http.StatusBadRequest, "parent category not found")
			return
		}
		if ws.Forest.Depth(parent.Id) >= 2 {
			common.WriteError(w, http.StatusBadRequest, "parent is nested too deep")
			return
		}
	}

	ws.categoryMu.Lock()
	defer ws.categoryMu.Unlock()
	if ws.categories == nil {
		ws.categories = map[types.CategoryType][]types.Category{}
	}
	flat := ws.categories[ct]
	replaced := false
	for i, existing := range flat {
		if existing.Id == record.Id {
			flat[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		flat = append(flat, record)
	}
	ws.categories[ct] = flat
	ws.reloadCategories(ct, flat)
	common.WriteJson(w, r, record)
}

// DeleteCategory removes a leaf category. A category that still has
// subcategories is rejected, the children must be moved or removed first.
func (ws *WebServer) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ct := types.CategoryType(r.PathValue("type"))
	if !ct.Valid() {
		common.WriteError(w, http.StatusBadRequest, "unknown category type")
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	categoryId := types.CategoryId(id)

	ws.categoryMu.Lock()
	defer ws.categoryMu.Unlock()
	flat := ws.categories[ct]
	found := -1
	for i, existing := range flat {
		if existing.Id == categoryId {
			found = i
		}
		if existing.ParentId != nil && *existing.ParentId == categoryId {
			common.WriteError(w, http.StatusConflict, "category still has subcategories")
			return
		}
	}
	if found < 0 {
		common.WriteError(w, http.StatusNotFound, "category not found")
		return
	}
	flat = append(flat[:found], flat[found+1:]...)
	ws.categories[ct] = flat
	ws.reloadCategories(ct, flat)
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceCategories swaps a type's whole flat list in one call, the bulk
// import path.
func (ws *WebServer) ReplaceCategories(w http.ResponseWriter, r *http.Request) {
	ct := types.CategoryType(r.PathValue("type"))
	if !ct.Valid() {
		common.WriteError(w, http.StatusBadRequest, "unknown category type")
		return
	}
	var flat []types.Category
	if err := json.NewDecoder(r.Body).Decode(&flat); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for i := range flat {
		flat[i].Type = ct
	}

	ws.categoryMu.Lock()
	defer ws.categoryMu.Unlock()
	if ws.categories == nil {
		ws.categories = map[types.CategoryType][]types.Category{}
	}
	ws.categories[ct] = flat
	ws.reloadCategories(ct, flat)
	common.WriteJson(w, r, ws.Forest.Roots(ct))
}

// GetSelectableParents lists the categories that may be chosen as a parent
// for this type, keeping trees at most three levels deep.
func (ws *WebServer) GetSelectableParents(w http.ResponseWriter, r *http.Request) {
	ct := types.CategoryType(r.PathValue("type"))
	if !ct.Valid() {
		common.WriteError(w, http.StatusBadRequest, "unknown category type")
		return
	}
	common.WriteJson(w, r, ws.Forest.SelectableParents(ct))
}

func (ws *WebServer) UpsertProducts(w http.ResponseWriter, r *http.Request) {
	var products []*types.Product
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, p := range products {
		if p.Id == 0 {
			common.WriteError(w, http.StatusBadRequest, "every product needs an id")
			return
		}
	}
	ws.Index.Upsert(products...)
	ws.invalidateSearchCache()
	common.WriteJson(w, r, map[string]int{"updated": len(products)})
}

func (ws *WebServer) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	ws.Index.Delete(types.ProductId(id))
	ws.invalidateSearchCache()
	w.WriteHeader(http.StatusNoContent)
}

type stockUpdateRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

type stockUpdateResponse struct {
	Quantity uint16 `json:"quantity"`
	Warning  string `json:"warning,omitempty"`
}

// UpdateStock sets one product's quantity in one store. Values outside the
// storable range are clamped and the response carries a warning so the
// operator sees what was actually written.
func (ws *WebServer) UpdateStock(w http.ResponseWriter, r *http.Request) {
	storeId := r.PathValue("storeId")
	id, err := strconv.Atoi(r.PathValue("productId"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, ok := ws.Stores.Get(storeId); !ok {
		common.WriteError(w, http.StatusNotFound, "store not found")
		return
	}
	var body stockUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := inventory.Key{StoreId: storeId, ProductId: types.ProductId(id)}
	stored, clamped, err := ws.Inventory.Set(key, body.Quantity, body.Reason)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	response := stockUpdateResponse{Quantity: stored}
	if clamped {
		response.Warning = fmt.Sprintf("quantity adjusted to %d", stored)
	}
	common.WriteJson(w, r, response)
}

func (ws *WebServer) UpsertStore(w http.ResponseWriter, r *http.Request) {
	var store stores.Store
	if err := json.NewDecoder(r.Body).Decode(&store); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if store.Id == "" {
		common.WriteError(w, http.StatusBadRequest, "store id is required")
		return
	}
	ws.Stores.Upsert(&store)
	if ws.Storage != nil {
		if err := ws.Storage.SaveStores(ws.Stores); err != nil {
			log.Printf("Failed to save stores: %v", err)
		}
	}
	common.WriteJson(w, r, &store)
}

// Save snapshots everything to disk on demand.
func (ws *WebServer) Save(w http.ResponseWriter, _ *http.Request) {
	if ws.Storage == nil {
		http.Error(w, "no storage configured", http.StatusServiceUnavailable)
		return
	}
	if err := ws.Storage.SaveProducts(ws.Index); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ws.categoryMu.Lock()
	err := ws.Storage.SaveCategories(ws.categories)
	ws.categoryMu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := ws.Storage.SaveInventory(ws.Inventory); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := ws.Storage.SaveStores(ws.Stores); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (ws *WebServer) AdminHandler(authHandler AuthHandler) *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv.HandleFunc("/login", authHandler.Login)
	srv.HandleFunc("/logout", authHandler.Logout)
	srv.HandleFunc("/callback", authHandler.AuthCallback)
	srv.HandleFunc("/user", authHandler.User)

	srv.HandleFunc("PUT /categories/{type}", authHandler.Middleware(ws.UpsertCategory))
	srv.HandleFunc("POST /categories/{type}", authHandler.Middleware(ws.ReplaceCategories))
	srv.HandleFunc("DELETE /categories/{type}/{id}", authHandler.Middleware(ws.DeleteCategory))
	srv.HandleFunc("GET /categories/{type}/parents", authHandler.Middleware(ws.GetSelectableParents))

	srv.HandleFunc("POST /products", authHandler.Middleware(ws.UpsertProducts))
	srv.HandleFunc("DELETE /products/{id}", authHandler.Middleware(ws.DeleteProduct))

	srv.HandleFunc("GET /stock/{storeId}", authHandler.Middleware(ws.GetStock))
	srv.HandleFunc("PUT /stock/{storeId}/{productId}", authHandler.Middleware(ws.UpdateStock))

	srv.HandleFunc("PUT /stores", authHandler.Middleware(ws.UpsertStore))
	srv.HandleFunc("POST /save", authHandler.Middleware(ws.Save))

	return srv
}
