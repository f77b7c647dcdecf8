package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"fleet-waybill/internal/audit"
	"fleet-waybill/internal/auth"
	masterdatarepo "fleet-waybill/internal/masterdata/infrastructure/postgres"
	masterdatahttp "fleet-waybill/internal/masterdata/interfaces/http"
	"fleet-waybill/internal/observability/metrics"
	seasonrepo "fleet-waybill/internal/season/infrastructure/postgres"
	waybillapp "fleet-waybill/internal/waybill/application"
	waybillrepo "fleet-waybill/internal/waybill/infrastructure/postgres"
	waybillinterfaces "fleet-waybill/internal/waybill/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	appCfg, err := waybillapp.LoadConfig()
	if err != nil {
		logger.Fatalf("waybill config error: %v", err)
	}

	auditRepo := audit.NewRepository(db)
	vehicleRepo := masterdatarepo.NewVehicleRepository(db)
	driverRepo := masterdatarepo.NewDriverRepository(db)
	seasonSettings := seasonrepo.NewSettingsRepository(db)

	waybillReader := waybillrepo.NewRepository(db)
	uow := waybillrepo.NewUnitOfWork(db)

	waybillService, err := waybillapp.NewService(uow, waybillReader, vehicleRepo, driverRepo, seasonSettings, appCfg, logger)
	if err != nil {
		logger.Fatalf("waybill service error: %v", err)
	}
	waybillHandler, err := waybillinterfaces.NewHandler(waybillService, auditRepo)
	if err != nil {
		logger.Fatalf("waybill handler error: %v", err)
	}
	masterdataHandler, err := masterdatahttp.NewHandler(vehicleRepo, driverRepo)
	if err != nil {
		logger.Fatalf("masterdata handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/waybills", waybillHandler)
	mux.Handle("/api/v1/waybills/", waybillHandler)
	mux.Handle("/api/v1/vehicles", masterdataHandler)
	mux.Handle("/api/v1/drivers", masterdataHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
