package search

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/example/product-catalog/internal/auth"
)

// NewHTTPHandler exposes the query and resync endpoints of the search
// service.
func NewHTTPHandler(index *Index, coordinator *Coordinator, serviceToken string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		size, _ := strconv.Atoi(q.Get("size"))
		from, _ := strconv.Atoi(q.Get("from"))

		hits, total, err := index.Search(q.Get("q"), size, from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"total": total,
			"hits":  hits,
		})
	})

	mux.HandleFunc("/internal/resync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !auth.VerifyServiceToken(serviceToken, r.Header.Get("X-Service-Token")) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}

		result, err := coordinator.ForceResync(r.Context())
		if err != nil {
			log.Printf("[Search] Forced resync failed: %v", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
