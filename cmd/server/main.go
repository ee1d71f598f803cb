package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/propdesk/portal/internal/access"
	"github.com/propdesk/portal/internal/config"
	"github.com/propdesk/portal/internal/es"
	"github.com/propdesk/portal/internal/handlers"
	"github.com/propdesk/portal/internal/logging"
	"github.com/propdesk/portal/internal/mykafka"
	"github.com/propdesk/portal/internal/service"
	httpserver "github.com/propdesk/portal/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	store := &access.Store{DB: db}
	checker := &access.Checker{Store: store}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:                 db,
		AuthHandler:        &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler:     &handlers.ProductHandler{DB: db, Producer: prod},
		CatalogHandler:     &handlers.CatalogHandler{DB: db, Producer: prod},
		EntitlementHandler: &handlers.EntitlementHandler{DB: db, Store: store, Producer: prod},
		ContentHandler:     &handlers.ContentHandler{DB: db, Checker: checker, Producer: prod, JWTSecret: jwtSecret},
		CourseHandler:      &handlers.CourseHandler{DB: db, Checker: checker, JWTSecret: jwtSecret},
		ToolHandler:        &handlers.ToolHandler{DB: db, Checker: checker, JWTSecret: jwtSecret},
		SearchHandler:      &handlers.SearchHandler{ES: esClient, Index: "product"},
		ServiceHandler:     &service.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
