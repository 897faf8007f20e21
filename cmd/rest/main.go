package main

import (
	"context"
	"log"

	"github.com/kinhai-collab/Mira-sub001/internal/bootstrap"
	"github.com/kinhai-collab/Mira-sub001/internal/config"
	"github.com/kinhai-collab/Mira-sub001/internal/server"
	"github.com/kinhai-collab/Mira-sub001/internal/tracer"
	"github.com/kinhai-collab/Mira-sub001/pkg/database"

	"github.com/fatih/color"
)

func main() {
	// 0. Initialize tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load configuration
	cfg := config.Load()

	// 2. Initialize database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap dependencies (container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start background services
	go container.WebSocketHub.Run()
	go func() {
		log.Println("Background: starting consumer service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background consumer error: %v", err)
		}
	}()

	// 5. Initialize server
	srv := server.New(cfg, container)

	color.Cyan("Mira gateway (%s)", cfg.App.Environment)
	color.Green("Listening on port %s", cfg.App.Port)

	// 6. Run server
	log.Fatal(srv.Run())
}
