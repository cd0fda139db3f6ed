package worker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"shoplytics/internal/config"
	"shoplytics/internal/database"
	"shoplytics/internal/jobs"
	"shoplytics/internal/logger"
	"shoplytics/internal/sync"
)

// Worker consumes sync jobs and runs them. Job failures are logged and
// dropped; the submitting request has long since returned.
type Worker struct {
	config     *config.Config
	logger     *logger.Logger
	reader     *kafka.Reader
	subscriber *sync.Subscriber
	backfill   *sync.Engine
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(cfg.KafkaBrokers, ","),
		GroupID:        "shoplytics-sync-worker",
		Topic:          jobs.Topic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config:     cfg,
		logger:     logger,
		reader:     reader,
		subscriber: sync.NewSubscriber(db.DB, logger, cfg.AppBaseURL),
		backfill:   sync.NewEngine(db.DB, logger),
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for sync jobs...")

	for {
		message, err := w.reader.ReadMessage(context.Background())
		if err != nil {
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		var job jobs.Message
		if err := json.Unmarshal(message.Value, &job); err != nil {
			w.logger.Error("Failed to parse job: %v", err)
			continue
		}

		w.logger.Info("Running job %s (%s) for tenant %s", job.ID, job.Type, job.TenantID)

		if err := w.dispatch(&job); err != nil {
			w.logger.Error("Job %s failed: %v", job.ID, err)
			continue
		}

		w.logger.Debug("Job %s completed", job.ID)
	}
}

func (w *Worker) dispatch(job *jobs.Message) error {
	switch job.Type {
	case jobs.JobSubscribeWebhooks:
		return w.subscriber.Run(job.TenantID)
	case jobs.JobBackfill:
		return w.backfill.Run(job.TenantID)
	default:
		w.logger.Warn("Unknown job type %q, dropping", job.Type)
		return nil
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
