package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"idscan/internal/config"
	"idscan/internal/handle"
	"idscan/internal/pipeline"
	"idscan/internal/store"
)

func main() {
	cfg := config.Load()

	// Prefer platform PORT env var; fallback to cfg.Port
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	} else if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	// --- Postgres (optional cache) ---
	var db *sql.DB
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db.Ping: %v", err)
		}
		if err := store.NewScanRepo(db).EnsureSchema(ctx); err != nil {
			log.Fatalf("db schema: %v", err)
		}
		cancel()
		log.Printf("db connected, recognition cache enabled")
	} else {
		log.Printf("no DATABASE_URL, recognition cache disabled")
	}

	pipe := pipeline.Build(cfg, db)
	h := handle.New(pipe, db)

	addr := ":" + cfg.Port
	log.Printf("idscan-server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, h.Router()))
}
