package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mikeboe/knowledge-aggregator/pkg/aggregator"
	"github.com/mikeboe/knowledge-aggregator/pkg/clients"
	"github.com/mikeboe/knowledge-aggregator/pkg/config"
	"github.com/mikeboe/knowledge-aggregator/pkg/report"
	"github.com/mikeboe/knowledge-aggregator/pkg/scrape"
	"github.com/mikeboe/knowledge-aggregator/pkg/search"
	"github.com/mikeboe/knowledge-aggregator/pkg/server"
	"github.com/mikeboe/knowledge-aggregator/pkg/summarize"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	llm, err := clients.NewAzureOpenAI(cfg)
	if err != nil {
		log.Fatalf("Failed to init inference client: %v", err)
	}

	agg := aggregator.New(cfg,
		search.NewClient(cfg, nil),
		scrape.NewScraper(cfg, nil),
		summarize.New(llm, cfg),
		report.NewWriter(cfg),
	)

	// Initialize Service & Handler
	svc := server.NewService(agg)
	handler := server.NewHandler(svc)

	// Web Server Setup
	r := gin.Default()

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all for dev
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
