package main

import (
	"log"

	"shoplytics/internal/api"
	"shoplytics/internal/cache"
	"shoplytics/internal/config"
	"shoplytics/internal/database"
	"shoplytics/internal/jobs"
	"shoplytics/internal/logger"
	"shoplytics/internal/mail"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	// Initialize OTP/session store
	store, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to redis: %v", err)
	}

	// Initialize job queue
	queue := jobs.NewKafkaQueue(cfg.KafkaBrokers)
	defer queue.Close()

	// Initialize API server
	server := api.New(cfg, logger, db, store, queue, mail.NewSMTPMailer(cfg))

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
