package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/product-catalog/internal/api/middleware"
	"github.com/example/product-catalog/internal/auth"
)

func NewRouter(handlers *Handlers, jwtService *auth.JWTService, serviceToken string) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.Auth(jwtService)
	optionalAuth := middleware.OptionalAuth(jwtService)
	requireService := middleware.RequireService(serviceToken)

	mux.HandleFunc("/health", handlers.Health)

	// Auth
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.Login(w, r)
	})
	mux.Handle("/auth/me", requireAuth(http.HandlerFunc(handlers.Me)))

	// Products
	mux.Handle("/products", optionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.ListProducts(w, r)
		case http.MethodPost:
			requireAuth(http.HandlerFunc(handlers.CreateProduct)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/products/", optionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/approve") && r.Method == http.MethodPost:
			requireAuth(http.HandlerFunc(handlers.ApproveProduct)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/history") && r.Method == http.MethodGet:
			requireAuth(http.HandlerFunc(handlers.ProductHistory)).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			handlers.GetProduct(w, r)
		case r.Method == http.MethodPatch:
			requireAuth(http.HandlerFunc(handlers.UpdateProduct)).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			requireAuth(http.HandlerFunc(handlers.DeleteProduct)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Service-to-service
	mux.Handle("/internal/products", requireService(http.HandlerFunc(handlers.InternalListProducts)))

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
