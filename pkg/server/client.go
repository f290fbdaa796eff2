package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/windora/fanstore/pkg/auth"
	"github.com/windora/fanstore/pkg/catalog"
	"github.com/windora/fanstore/pkg/category"
	"github.com/windora/fanstore/pkg/common"
	"github.com/windora/fanstore/pkg/filters"
	"github.com/windora/fanstore/pkg/stores"
	"github.com/windora/fanstore/pkg/types"
)

var (
	noSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanstore_searches_total",
		Help: "The total number of processed searches",
	})
	noCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanstore_search_cache_hits_total",
		Help: "The total number of searches answered from cache",
	})
)

const searchCacheTTL = 2 * time.Minute

type SearchResponse struct {
	TotalHits    int              `json:"totalHits"`
	Page         int              `json:"page"`
	PageSize     int              `json:"pageSize"`
	ActiveFacets int              `json:"activeFacets"`
	Items        []*types.Product `json:"items"`
}

func (ws *WebServer) Search(w http.ResponseWriter, r *http.Request) {
	state, err := filters.FromRequest(r)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid search parameters")
		return
	}
	state.Sanitize()
	go noSearches.Inc()
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)

	key := "search:" + filters.CacheKey(state)
	var response SearchResponse
	if ws.Cache != nil {
		if err := ws.Cache.Get(key, &response); err == nil {
			go noCacheHits.Inc()
			ws.trackSearch(sessionId, state, response.TotalHits)
			common.WriteCachedJson(w, r, response)
			return
		}
	}

	matching := ws.Index.Match(state)
	totalHits := len(matching)
	catalog.SortProducts(matching, state.SortBy, state.Order)
	items := catalog.Page(matching, state.Page, 0)

	response = SearchResponse{
		TotalHits:    totalHits,
		Page:         state.Page,
		PageSize:     len(items),
		ActiveFacets: state.ActiveFacetCount(),
		Items:        items,
	}
	if ws.Cache != nil {
		if err := ws.Cache.Set(key, response, searchCacheTTL); err != nil {
			log.Printf("Failed to cache search response: %v", err)
		}
	}
	ws.trackSearch(sessionId, state, totalHits)
	common.WriteCachedJson(w, r, response)
}

func (ws *WebServer) trackSearch(sessionId int, state *filters.State, totalHits int) {
	if ws.Tracking != nil {
		go ws.Tracking.TrackSearch(sessionId, state, totalHits)
	}
}

func (ws *WebServer) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, ok := ws.Index.Get(types.ProductId(id))
	if !ok {
		common.WriteError(w, http.StatusNotFound, "product not found")
		return
	}
	common.WriteCachedJson(w, r, product)
}

// GetCompatibleAccessories lists accessories whose compatibility covers any
// fan type category of the given product.
func (ws *WebServer) GetCompatibleAccessories(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, ok := ws.Index.Get(types.ProductId(id))
	if !ok {
		common.WriteError(w, http.StatusNotFound, "product not found")
		return
	}

	fanTypeIds := make([]types.CategoryId, 0)
	for _, categoryId := range product.CategoryIds {
		if node, found := ws.Forest.Get(categoryId); found && node.Type == types.CategoryFanType {
			fanTypeIds = append(fanTypeIds, categoryId)
		}
	}

	result := make([]*types.Product, 0)
	for _, candidate := range ws.Index.All() {
		if !candidate.IsAccessory || candidate.Id == product.Id {
			continue
		}
		for _, fanTypeId := range fanTypeIds {
			if candidate.IsCompatibleWith(fanTypeId) {
				result = append(result, candidate)
				break
			}
		}
	}
	catalog.SortProducts(result, filters.DefaultSortBy, filters.DefaultOrder)
	common.WriteCachedJson(w, r, result)
}

func (ws *WebServer) categoryType(w http.ResponseWriter, r *http.Request) (types.CategoryType, bool) {
	ct := types.CategoryType(r.PathValue("type"))
	if !ct.Valid() {
		common.WriteError(w, http.StatusBadRequest, "unknown category type")
		return ct, false
	}
	return ct, true
}

func (ws *WebServer) GetCategoryTree(w http.ResponseWriter, r *http.Request) {
	ct, ok := ws.categoryType(w, r)
	if !ok {
		return
	}
	common.WriteCachedJson(w, r, category.ActiveOnly(ws.Forest.Roots(ct)))
}

// SearchCategoryTree filters a type's tree on the q parameter, keeping the
// ancestor chain of every match.
func (ws *WebServer) SearchCategoryTree(w http.ResponseWriter, r *http.Request) {
	ct, ok := ws.categoryType(w, r)
	if !ok {
		return
	}
	term := r.URL.Query().Get("q")
	common.WriteJson(w, r, category.FilterTree(category.ActiveOnly(ws.Forest.Roots(ct)), term))
}

func (ws *WebServer) GetStores(w http.ResponseWriter, r *http.Request) {
	common.WriteCachedJson(w, r, ws.Stores.All())
}

func (ws *WebServer) GetNearestStores(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(query.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		common.WriteError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	limit := 5
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	common.WriteJson(w, r, ws.Stores.Nearest(stores.Location{Latitude: lat, Longitude: lng}, limit))
}

func (ws *WebServer) GetStock(w http.ResponseWriter, r *http.Request) {
	storeId := r.PathValue("storeId")
	if _, ok := ws.Stores.Get(storeId); !ok {
		common.WriteError(w, http.StatusNotFound, "store not found")
		return
	}
	common.WriteJson(w, r, ws.Inventory.ByStore(storeId))
}

type watchRequest struct {
	Token string `json:"token"`
}

func (ws *WebServer) WatchPriceChange(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, ok := ws.Index.Get(types.ProductId(id)); !ok {
		common.WriteError(w, http.StatusNotFound, "product not found")
		return
	}
	var body watchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		common.WriteError(w, http.StatusBadRequest, "a device token is required")
		return
	}
	watch, err := ws.Watches.Add(types.ProductId(id), body.Token)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "could not save watch")
		return
	}
	common.WriteJson(w, r, watch)
}

func (ws *WebServer) TrackClick(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)
	if ws.Tracking != nil {
		go ws.Tracking.TrackClick(sessionId, uint(id))
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type availabilityResponse struct {
	UsernameAvailable bool `json:"usernameAvailable"`
	EmailAvailable    bool `json:"emailAvailable"`
}

func (ws *WebServer) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var body availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	response := availabilityResponse{UsernameAvailable: true, EmailAvailable: true}
	if body.Username != "" {
		response.UsernameAvailable, _ = ws.Users.UsernameAvailable(r.Context(), body.Username)
	}
	if body.Email != "" {
		response.EmailAvailable, _ = ws.Users.EmailAvailable(r.Context(), body.Email)
	}
	common.WriteJson(w, r, response)
}

type signupResponse struct {
	FlowId   string `json:"flowId"`
	State    string `json:"state"`
	ResendIn int    `json:"resendIn"`
}

func (ws *WebServer) flowResponse(flowId string, flow *auth.Flow) signupResponse {
	return signupResponse{
		FlowId:   flowId,
		State:    flow.State().String(),
		ResendIn: flow.ResendIn(),
	}
}

// StartSignup validates the registration form and moves a fresh flow into the
// code verification step.
func (ws *WebServer) StartSignup(w http.ResponseWriter, r *http.Request) {
	var form auth.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flow := auth.NewFlow(ws.Users, ws.Sender, ws.Codes)
	if err := flow.SubmitForm(r.Context(), form); err != nil {
		common.WriteError(w, signupStatus(err), err.Error())
		return
	}
	flowId := uuid.NewString()
	ws.storeSignupFlow(flowId, flow)
	common.WriteJson(w, r, ws.flowResponse(flowId, flow))
}

func signupStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrCooldownActive):
		return http.StatusTooManyRequests
	case errors.Is(err, auth.ErrCodeRejected):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrWrongState):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (ws *WebServer) GetSignup(w http.ResponseWriter, r *http.Request) {
	flowId := r.PathValue("flowId")
	flow, ok := ws.signupFlow(flowId)
	if !ok {
		common.WriteError(w, http.StatusNotFound, "signup flow not found")
		return
	}
	common.WriteJson(w, r, ws.flowResponse(flowId, flow))
}

type codeRequest struct {
	Code string `json:"code"`
}

// VerifySignupCode checks the one time code; on success the user is created
// and logged in, on rejection the flow stays in the code step with the form
// intact.
func (ws *WebServer) VerifySignupCode(w http.ResponseWriter, r *http.Request) {
	flowId := r.PathValue("flowId")
	flow, ok := ws.signupFlow(flowId)
	if !ok {
		common.WriteError(w, http.StatusNotFound, "signup flow not found")
		return
	}
	var body codeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flow.SetCodeInput(body.Code)
	if err := flow.SubmitCode(r.Context()); err != nil {
		common.WriteError(w, signupStatus(err), err.Error())
		return
	}

	user, err := ws.Users.Register(flow.Form())
	if err != nil {
		common.WriteError(w, signupStatus(err), err.Error())
		return
	}
	ws.dropSignupFlow(flowId)
	ws.issueSession(w, user)
	common.WriteJson(w, r, user)
}

func (ws *WebServer) ResendSignupCode(w http.ResponseWriter, r *http.Request) {
	flowId := r.PathValue("flowId")
	flow, ok := ws.signupFlow(flowId)
	if !ok {
		common.WriteError(w, http.StatusNotFound, "signup flow not found")
		return
	}
	if err := flow.Resend(r.Context()); err != nil {
		if errors.Is(err, auth.ErrCooldownActive) {
			common.WriteError(w, http.StatusTooManyRequests, fmt.Sprintf("resend available in %d seconds", flow.ResendIn()))
			return
		}
		common.WriteError(w, signupStatus(err), err.Error())
		return
	}
	common.WriteJson(w, r, ws.flowResponse(flowId, flow))
}

// BackToSignupForm returns the flow to the form step, keeping what was typed.
func (ws *WebServer) BackToSignupForm(w http.ResponseWriter, r *http.Request) {
	flowId := r.PathValue("flowId")
	flow, ok := ws.signupFlow(flowId)
	if !ok {
		common.WriteError(w, http.StatusNotFound, "signup flow not found")
		return
	}
	if err := flow.Back(); err != nil {
		common.WriteError(w, signupStatus(err), err.Error())
		return
	}
	common.WriteJson(w, r, ws.flowResponse(flowId, flow))
}

const sessionCookieName = "fs-token"

func (ws *WebServer) issueSession(w http.ResponseWriter, user *auth.User) {
	token, err := ws.Tokens.CreateToken(user.Username, user.Username, user.Role)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Hour * 24),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (ws *WebServer) CustomerLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := ws.Users.Login(body.Username, body.Password)
	if err != nil {
		common.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}
	ws.issueSession(w, user)
	common.WriteJson(w, r, user)
}

func (ws *WebServer) CustomerLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusOK)
}

func (ws *WebServer) CustomerUser(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	claims, err := ws.Tokens.ParseToken(cookie.Value)
	if err != nil {
		common.WriteError(w, http.StatusUnauthorized, "invalid session")
		return
	}
	common.WriteJson(w, r, claims)
}

func (ws *WebServer) ClientHandler() *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv.HandleFunc("GET /search", ws.Search)
	srv.HandleFunc("GET /get/{id}", ws.GetProduct)
	srv.HandleFunc("GET /compatible/{id}", ws.GetCompatibleAccessories)
	srv.HandleFunc("GET /categories/{type}", ws.GetCategoryTree)
	srv.HandleFunc("GET /categories/{type}/search", ws.SearchCategoryTree)
	srv.HandleFunc("GET /stores", ws.GetStores)
	srv.HandleFunc("GET /stores/near", ws.GetNearestStores)
	srv.HandleFunc("GET /stock/{storeId}", ws.GetStock)
	srv.HandleFunc("POST /watch/{id}", ws.WatchPriceChange)
	srv.HandleFunc("POST /track/click/{id}", ws.TrackClick)

	srv.HandleFunc("POST /auth/availability", ws.CheckAvailability)
	srv.HandleFunc("POST /auth/signup", ws.StartSignup)
	srv.HandleFunc("GET /auth/signup/{flowId}", ws.GetSignup)
	srv.HandleFunc("POST /auth/signup/{flowId}/code", ws.VerifySignupCode)
	srv.HandleFunc("POST /auth/signup/{flowId}/resend", ws.ResendSignupCode)
	srv.HandleFunc("POST /auth/signup/{flowId}/back", ws.BackToSignupForm)
	srv.HandleFunc("POST /auth/login", ws.CustomerLogin)
	srv.HandleFunc("POST /auth/logout", ws.CustomerLogout)
	srv.HandleFunc("GET /auth/user", ws.CustomerUser)

	return srv
}
