package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/aws"
	"github.com/openfulfil/go-courier-sync/internal/carrier"
	"github.com/openfulfil/go-courier-sync/internal/config"
	"github.com/openfulfil/go-courier-sync/internal/logging"
	"github.com/openfulfil/go-courier-sync/internal/ratelimit"
	"github.com/openfulfil/go-courier-sync/internal/shipments"
	"github.com/openfulfil/go-courier-sync/internal/webhook"
)

// governedTracker routes Track calls through the quota governor before they
// reach the carrier.
type governedTracker struct {
	client   *carrier.Client
	governor *ratelimit.Governor
}

func (t *governedTracker) Track(ctx context.Context, awbs []string) (*carrier.TrackResponse, error) {
	if err := t.governor.Allow(ctx, carrier.EndpointTrack); err != nil {
		return nil, err
	}
	return t.client.Track(ctx, awbs)
}

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogsDirectory)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	governor := ratelimit.NewGovernor(ratelimit.NewRedisCache(rdb), nil)

	carrierClient := carrier.NewClient(
		cfg.Carrier.BaseURL,
		cfg.Carrier.APIToken,
		cfg.Carrier.ClientName,
		logger,
		carrier.WithMaxRetries(cfg.MaxRetries),
		carrier.WithTimeout(cfg.ReadTimeout),
	)

	store := shipments.NewStore(clients.DynamoDB, cfg.ShipmentsTable)
	publisher := aws.NewPublisher(clients.SQS, cfg.EventsQueueURL)
	metrics := aws.NewMetrics(clients.CloudWatch, "CourierSync")

	ing := webhook.NewIngestor(webhook.IngestorConfig{
		Store:             store,
		Events:            publisher,
		Detector:          webhook.NewNDRDetector(cfg.NDRCodePrefixes, cfg.NDRKeywords),
		Metrics:           metrics,
		Logger:            logger,
		EwaybillThreshold: cfg.EwaybillThreshold,
	})

	poller := NewPoller(
		store,
		&governedTracker{client: carrierClient, governor: governor},
		ing,
		logger,
		cfg.PollSchedule,
	)

	c := cron.New()
	if _, err := c.AddFunc(poller.Schedule(), func() {
		if poller.Ready() {
			go poller.Execute()
		}
	}); err != nil {
		logger.Fatal("failed to schedule poller", zap.Error(err))
	}
	c.Start()

	logger.Info("poller started", zap.String("schedule", poller.Schedule()))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	<-c.Stop().Done()
}
