package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/example/product-catalog/internal/infrastructure/kafka"
	"github.com/example/product-catalog/internal/listener"
	"github.com/example/product-catalog/internal/search"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Configuration from environment variables
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	groupID := getEnv("KAFKA_GROUP_ID", "search-service")
	indexPath := os.Getenv("INDEX_PATH")
	catalogURL := getEnv("CATALOG_URL", "http://localhost:8080")
	serviceToken := os.Getenv("SERVICE_TOKEN")
	port := getEnv("PORT", "8081")

	log.Println("[Search] ========================================")
	log.Println("[Search] Product Search Service")
	log.Println("[Search] ========================================")
	log.Printf("[Search] Kafka: %v (group %s)", kafkaBrokers, groupID)
	log.Printf("[Search] Catalog: %s", catalogURL)

	// Index: on-disk when INDEX_PATH is set, in-memory otherwise
	var (
		index *search.Index
		err   error
	)
	if indexPath != "" {
		index, err = search.OpenIndex(indexPath)
		log.Printf("[Search] Index: %s", indexPath)
	} else {
		index, err = search.NewMemoryIndex()
		log.Println("[Search] INDEX_PATH not set, using in-memory index")
	}
	if err != nil {
		log.Fatalf("[Search] Failed to open index: %v", err)
	}
	defer index.Close()

	// Backfill from the catalog before consuming events
	client := search.NewHTTPCatalogClient(catalogURL, serviceToken)
	coordinator := search.NewCoordinator(index, client)
	result, err := coordinator.SyncExisting(ctx)
	if err != nil {
		log.Fatalf("[Search] Initial sync failed: %v", err)
	}
	if !result.Skipped {
		log.Printf("[Search] Initial sync indexed %d products", result.Indexed)
	}

	// One listener per topic, each with its own reconnect budget
	transport := kafka.NewTransport(kafkaBrokers, groupID)
	var wg sync.WaitGroup
	for topic, handler := range search.Handlers(index) {
		l := listener.New(topic, transport, handler)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[Search] Listener %s stopped: %v", l.Topic(), err)
			}
		}()
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: search.NewHTTPHandler(index, coordinator, serviceToken),
	}

	go func() {
		log.Printf("[Search] Server started on :%s", port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[Search] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Search] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wg.Wait()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
