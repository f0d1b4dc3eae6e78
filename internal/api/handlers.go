package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/product-catalog/internal/api/middleware"
	"github.com/example/product-catalog/internal/audit"
	"github.com/example/product-catalog/internal/auth"
	"github.com/example/product-catalog/internal/catalog"
)

type Handlers struct {
	service    *catalog.Service
	users      catalog.UserStore
	jwtService *auth.JWTService
}

func NewHandlers(service *catalog.Service, users catalog.UserStore, jwtService *auth.JWTService) *Handlers {
	return &Handlers{
		service:    service,
		users:      users,
		jwtService: jwtService,
	}
}

// Auth handlers

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *catalog.User `json:"user"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		respondJSONError(w, "Account disabled", http.StatusForbidden)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respondJSONError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, actor)
}

// Product handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input catalog.CreateProduct
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.service.Create(r.Context(), input, *actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	code := extractPathParam(r.URL.Path, "/products/")
	actor := middleware.ActorFromContext(r.Context())

	product, err := h.service.Get(r.Context(), code, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	filter := catalog.ListFilter{
		Status:    catalog.Status(r.URL.Query().Get("status")),
		CreatedBy: r.URL.Query().Get("createdBy"),
	}

	products, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	code := extractPathParam(r.URL.Path, "/products/")

	var patch catalog.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.service.Update(r.Context(), code, patch, *actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) ApproveProduct(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	code := strings.TrimSuffix(extractPathParam(r.URL.Path, "/products/"), "/approve")

	product, err := h.service.Approve(r.Context(), code, *actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	code := extractPathParam(r.URL.Path, "/products/")

	if err := h.service.Delete(r.Context(), code, *actor); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (h *Handlers) ProductHistory(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	code := strings.TrimSuffix(extractPathParam(r.URL.Path, "/products/"), "/history")

	opts := audit.ListOptions{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
		Action: audit.Action(r.URL.Query().Get("action")),
	}

	entries, err := h.service.History(r.Context(), code, *actor, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// Internal handlers

// InternalListProducts returns every product regardless of status. It backs
// the search service's backfill and is reachable only with a service token.
func (h *Handlers) InternalListProducts(w http.ResponseWriter, r *http.Request) {
	admin := catalog.Actor{ID: "system", Name: "system", Role: catalog.RoleAdmin}
	products, err := h.service.List(r.Context(), &admin, catalog.ListFilter{})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalog.ErrPermissionDenied):
		respondJSONError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrUserNotFound):
		respondJSONError(w, "Product not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrDuplicateGTIN):
		respondJSONError(w, "GTIN already registered", http.StatusConflict)
	case errors.Is(err, catalog.ErrNotPending):
		respondJSONError(w, "Product is not pending approval", http.StatusConflict)
	default:
		respondJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
