package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/handlers"
	"wallet/internal/proxy"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	payments := store.NewPaymentStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewRunner(database)
	hub := websocket.NewHub()
	service := services.NewPaymentService(txRunner, users, payments, audit, hub, cfg.MinPaymentMinor)
	recommender := proxy.New(cfg.ProxyUpstreamURL, cfg.ProxyUserID, cfg.ProxySecretKey)

	handler := handlers.New(txRunner, cfg, users, payments, audit, service, hub, recommender)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("wallet API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
