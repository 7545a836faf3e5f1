package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/aws"
	"github.com/openfulfil/go-courier-sync/internal/carrier"
	"github.com/openfulfil/go-courier-sync/internal/config"
	"github.com/openfulfil/go-courier-sync/internal/handlers"
	"github.com/openfulfil/go-courier-sync/internal/logging"
	"github.com/openfulfil/go-courier-sync/internal/ratelimit"
	"github.com/openfulfil/go-courier-sync/internal/shipments"
	"github.com/openfulfil/go-courier-sync/internal/webhook"
)

func setupRouter(svc *shipments.Service, ing *webhook.Ingestor, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterShipmentRoutes(r, handlers.HandlerConfig{Service: svc, Logger: logger})
	handlers.RegisterWebhookRoutes(r, handlers.WebhookConfig{Ingestor: ing, Logger: logger})

	return r
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
		carrier.WithTimeout(cfg.RequestTimeout),
	)

	store := shipments.NewStore(clients.DynamoDB, cfg.ShipmentsTable)
	publisher := aws.NewPublisher(clients.SQS, cfg.EventsQueueURL)
	metrics := aws.NewMetrics(clients.CloudWatch, "CourierSync")

	// One lock set per waybill, shared so API operations and webhook
	// applies never interleave on the same shipment.
	awbLocks := shipments.NewKeyedMutex()

	svc := shipments.NewService(shipments.ServiceConfig{
		Carrier:           carrierClient,
		Store:             store,
		Events:            publisher,
		Governor:          governor,
		Metrics:           metrics,
		Logger:            logger,
		PickupLocation:    cfg.PickupLocation,
		EwaybillThreshold: cfg.EwaybillThreshold,
		AWBLocks:          awbLocks,
	})

	ing := webhook.NewIngestor(webhook.IngestorConfig{
		Store:             store,
		Events:            publisher,
		Detector:          webhook.NewNDRDetector(cfg.NDRCodePrefixes, cfg.NDRKeywords),
		Metrics:           metrics,
		Logger:            logger,
		Secret:            cfg.Carrier.WebhookSecret,
		EwaybillThreshold: cfg.EwaybillThreshold,
		Locks:             awbLocks,
	})

	r := setupRouter(svc, ing, logger)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		logger.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
