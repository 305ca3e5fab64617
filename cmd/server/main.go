package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctfbot/internal/api"
	"ctfbot/internal/app/service"
	"ctfbot/internal/common/security"
	"ctfbot/internal/domain/repository"
	"ctfbot/internal/platform/cache"
	"ctfbot/internal/platform/config"
	"ctfbot/internal/platform/database"
	"ctfbot/internal/platform/gateway"
)

func main() {
	mintService := flag.String("mint-token", "", "print a service token for the named caller and exit")
	flag.Parse()

	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// Operator path: mint the bearer token the gateway connector presents
	// to the interactions webhook.
	if *mintService != "" {
		token, err := security.GenerateServiceToken(*mintService)
		if err != nil {
			log.Fatalf("Could not mint service token: %v", err)
		}
		fmt.Println(token)
		return
	}

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	if err := database.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Could not ensure database schema: %v", err)
	}
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Gateway Client
	gw := gateway.NewHTTPClient(config.AppConfig.GatewayBaseURL, config.AppConfig.GatewayTimeout)

	// 6. Initialize Repositories
	eventRepo := repository.NewPgEventRepository(database.DB)
	membershipRepo := repository.NewPgMembershipRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	codeRepo := repository.NewRedisCodeRepository(cache.RDB)

	// 7. Initialize Services
	scoreboardService := service.NewScoreboardService(submissionRepo, membershipRepo, eventRepo)
	eventService := service.NewEventService(eventRepo, scoreboardService, gw, gw)
	onboardingService := service.NewOnboardingService(eventRepo, membershipRepo, codeRepo, gw)
	submissionService := service.NewSubmissionService(submissionRepo, membershipRepo, eventRepo, gw)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(eventService, onboardingService, submissionService, scoreboardService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
