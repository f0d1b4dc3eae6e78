package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/example/product-catalog/internal/api"
	"github.com/example/product-catalog/internal/audit"
	"github.com/example/product-catalog/internal/auth"
	"github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/infrastructure/kafka"
	"github.com/example/product-catalog/internal/infrastructure/store"
)

func main() {
	ctx := context.Background()

	// Configuration from environment variables
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	postgresConnStr := os.Getenv("DATABASE_URL")
	auditBackend := getEnv("AUDIT_BACKEND", "")
	dynamoTable := getEnv("DYNAMO_AUDIT_TABLE", "product_history")
	serviceToken := os.Getenv("SERVICE_TOKEN")
	port := getEnv("PORT", "8080")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("[API] JWT_SECRET environment variable is required")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("[API] JWT_SECRET must be at least 32 characters long")
	}

	log.Println("[API] ========================================")
	log.Println("[API] Product Catalog Service")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", kafkaBrokers)
	log.Printf("[API] Topics: %v", events.Topics)

	// Kafka producer
	producer := kafka.NewProducer(kafkaBrokers)
	defer producer.Close()

	// Stores: PostgreSQL when configured, in-memory otherwise
	var (
		products   catalog.ProductStore
		users      catalog.UserStore
		auditStore audit.Store
	)
	if postgresConnStr != "" {
		db, err := store.ConnectPostgres(postgresConnStr)
		if err != nil {
			log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()
		if err := store.EnsureSchema(db); err != nil {
			log.Fatalf("[API] Failed to ensure schema: %v", err)
		}
		log.Println("[API] Connected to PostgreSQL")

		products = store.NewPostgresProductStore(db)
		users = store.NewPostgresUserStore(db)
		auditStore = store.NewPostgresAuditStore(db)
	} else {
		log.Println("[API] DATABASE_URL not set, using in-memory stores")
		products = store.NewMemoryProductStore()
		users = store.NewMemoryUserStore()
		auditStore = store.NewMemoryAuditStore()
	}

	// The audit trail can live in DynamoDB independently of the primary
	// store.
	if auditBackend == "dynamo" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[API] Failed to load AWS config: %v", err)
		}
		auditStore = store.NewDynamoAuditStore(dynamodb.NewFromConfig(awsCfg), dynamoTable)
		log.Printf("[API] Audit trail: DynamoDB table %s", dynamoTable)
	}

	seedUsers(ctx, users)

	recorder := audit.NewRecorder(auditStore)
	service := catalog.NewService(products, users, recorder, producer)
	jwtService := auth.NewJWTService(jwtSecret, 15*time.Minute)

	handlers := api.NewHandlers(service, users, jwtService)
	router := api.NewRouter(handlers, jwtService, serviceToken)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on :%s", port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// seedUsers creates the initial admin account when SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are set. Insert is a no-op if the email exists.
func seedUsers(ctx context.Context, users catalog.UserStore) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("[API] Invalid seed admin password: %v", err)
	}

	u := &catalog.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         getEnv("SEED_ADMIN_NAME", "Administrator"),
		Role:         catalog.RoleAdmin,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := users.Insert(ctx, u); err != nil {
		log.Printf("[API] Failed to seed admin user: %v", err)
		return
	}
	log.Printf("[API] Seeded admin user %s", email)
}
