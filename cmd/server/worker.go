package main

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ConfabulousDev/resume-insights/internal/analytics"
	"github.com/ConfabulousDev/resume-insights/internal/db"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
	"github.com/ConfabulousDev/resume-insights/internal/models"
	"github.com/ConfabulousDev/resume-insights/internal/validation"
)

var workerTracer = otel.Tracer("resume-insights/worker")

// WorkerConfig holds configuration for the record ingest worker.
type WorkerConfig struct {
	RabbitMQURL string
	DatabaseURL string
	Queue       string
	Prefetch    int
	DryRun      bool // If true, validate and log messages without storing them
}

// recordInserter is the slice of analytics.Store the worker needs.
type recordInserter interface {
	InsertRecord(ctx context.Context, rec *models.AnalysisRecord) (int64, error)
}

// Worker consumes analysis records published by the analysis service.
type Worker struct {
	records recordInserter
	config  WorkerConfig
}

// errPoisonMessage marks a delivery that can never be stored.
var errPoisonMessage = errors.New("poison message")

// runWorker is the entry point for the background worker process.
func runWorker() {
	logger.Info("starting record ingest worker")

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		logger.Warn("failed to configure OpenTelemetry for worker", "error", err)
	} else {
		defer otelShutdown()
	}

	config, err := parseWorkerConfig(os.Getenv)
	if err != nil {
		logger.Fatal("invalid worker configuration", "error", err)
	}
	logger.Info("worker configuration loaded",
		"queue", config.Queue,
		"prefetch", config.Prefetch,
		"dry_run", config.DryRun,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Connect(ctx, config.DatabaseURL, db.PoolConfig{MaxOpenConns: config.Prefetch + 1})
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close()

	conn, err := amqp.Dial(config.RabbitMQURL)
	if err != nil {
		logger.Fatal("failed to connect to rabbitmq", "error", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("failed to open channel", "error", err)
	}
	defer ch.Close()

	if err := ch.Qos(config.Prefetch, 0, false); err != nil {
		logger.Fatal("failed to set prefetch", "error", err)
	}
	if _, err := ch.QueueDeclare(config.Queue, true, false, false, false, nil); err != nil {
		logger.Fatal("failed to declare queue", "error", err, "queue", config.Queue)
	}
	deliveries, err := ch.Consume(config.Queue, "resume-insights-worker", false, false, false, false, nil)
	if err != nil {
		logger.Fatal("failed to start consuming", "error", err, "queue", config.Queue)
	}

	worker := &Worker{
		records: analytics.NewStore(database.Conn()),
		config:  config,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutdown signal received, stopping worker")
		cancel()
	}()

	worker.Run(ctx, deliveries)
	logger.Info("worker stopped")
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			w.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery stores one record and settles the delivery. Invalid
// payloads are dropped. Storage failures go back on the queue once; a
// redelivered message is only requeued again when the database was
// unreachable.
func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	id, err := w.process(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			logger.Error("failed to ack delivery", "error", ackErr, "delivery_tag", d.DeliveryTag)
		}
		if id > 0 {
			logger.Info("record ingested", "record_id", id, "delivery_tag", d.DeliveryTag)
		}
	case errors.Is(err, errPoisonMessage):
		logger.Warn("dropping invalid message", "error", err, "delivery_tag", d.DeliveryTag)
		if nackErr := d.Nack(false, false); nackErr != nil {
			logger.Error("failed to nack delivery", "error", nackErr, "delivery_tag", d.DeliveryTag)
		}
	case d.Redelivered && !isConnectionError(err):
		logger.Error("dropping redelivered message after storage failure", "error", err, "delivery_tag", d.DeliveryTag)
		if nackErr := d.Nack(false, false); nackErr != nil {
			logger.Error("failed to nack delivery", "error", nackErr, "delivery_tag", d.DeliveryTag)
		}
	default:
		logger.Error("failed to store record, requeueing", "error", err, "delivery_tag", d.DeliveryTag, "redelivered", d.Redelivered)
		if nackErr := d.Nack(false, true); nackErr != nil {
			logger.Error("failed to nack delivery", "error", nackErr, "delivery_tag", d.DeliveryTag)
		}
	}
}

// process decodes, validates and stores one message body. It returns 0 with
// a nil error in dry-run mode.
func (w *Worker) process(ctx context.Context, body []byte) (int64, error) {
	ctx, span := workerTracer.Start(ctx, "worker.process")
	defer span.End()

	var rec models.AnalysisRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		span.SetStatus(codes.Error, "decode failed")
		return 0, fmt.Errorf("%w: %w", errPoisonMessage, err)
	}
	if err := validation.ValidateRecord(&rec); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return 0, fmt.Errorf("%w: %w", errPoisonMessage, err)
	}
	span.SetAttributes(
		attribute.Int64("user.id", rec.UserID),
		attribute.Int64("resume.id", rec.ResumeID),
	)

	if w.config.DryRun {
		logger.Info("dry-run: would ingest record", "user_id", rec.UserID, "resume_id", rec.ResumeID)
		return 0, nil
	}

	id, err := w.records.InsertRecord(ctx, &rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if errors.Is(err, analytics.ErrInvalidUploadedAt) {
			return 0, fmt.Errorf("%w: %w", errPoisonMessage, err)
		}
		return 0, err
	}
	return id, nil
}

// isConnectionError reports whether err means the database could not be
// reached, as opposed to the database rejecting the record.
func isConnectionError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		pgconn.Timeout(err)
}

// parseWorkerConfig builds the WorkerConfig from getenv.
func parseWorkerConfig(getenv func(string) string) (WorkerConfig, error) {
	var errs []error
	c := WorkerConfig{
		RabbitMQURL: getenv("RABBITMQ_URL"),
		DatabaseURL: getenv("DATABASE_URL"),
		Queue:       getenv("WORKER_QUEUE"),
		Prefetch:    10,
		DryRun:      getenv("WORKER_DRY_RUN") == "true",
	}
	if c.RabbitMQURL == "" {
		errs = append(errs, errors.New("missing required env var RABBITMQ_URL"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env var DATABASE_URL"))
	}
	if c.Queue == "" {
		c.Queue = "analysis-records"
	}
	if v := getenv("WORKER_PREFETCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("WORKER_PREFETCH must be a positive integer, got %q", v))
		} else {
			c.Prefetch = n
		}
	}
	return c, errors.Join(errs...)
}
