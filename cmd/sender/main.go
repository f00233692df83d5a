// The sender binary runs one campaign delivery batch and exits. It is
// the operational entry point for triggering a send outside the main
// application, for example from a scheduler or a support runbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medlemsys/campaign-engine/internal/audience"
	"github.com/medlemsys/campaign-engine/internal/config"
	"github.com/medlemsys/campaign-engine/internal/personalize"
	"github.com/medlemsys/campaign-engine/internal/pkg/distlock"
	"github.com/medlemsys/campaign-engine/internal/repository/postgres"
	"github.com/medlemsys/campaign-engine/internal/service/delivery"
	"github.com/medlemsys/campaign-engine/internal/transport/ses"
)

func main() {
	var (
		orgID      = flag.String("org", "", "organization id (required)")
		campaignID = flag.String("campaign", "", "campaign id (required)")
		timeout    = flag.Duration("timeout", 30*time.Minute, "overall batch deadline")
	)
	flag.Parse()
	if *orgID == "" || *campaignID == "" {
		flag.Usage()
		os.Exit(2)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Tracking.SigningKey == "" {
		log.Fatal("tracking signing key is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := postgres.Open(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	sender, err := ses.NewSender(ctx, cfg.SES)
	if err != nil {
		log.Fatalf("ses: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, falling back to advisory locks: %v", err)
			redisClient = nil
		}
	}

	svc := delivery.NewService(
		store,
		audience.NewResolver(store),
		personalize.New(cfg.Tracking.BaseURL, cfg.Tracking.SigningKey),
		sender,
		delivery.Options{
			Workers:               cfg.Delivery.Workers,
			StrictRecipientErrors: cfg.Delivery.OnRecipientError == config.SkipPolicyStrict,
			Locks:                 distlock.NewFactory(redisClient, store.DB()),
			LockTTL:               cfg.Delivery.LockTTL(),
		},
	)

	report, err := svc.Send(ctx, *orgID, *campaignID)
	if report != nil {
		fmt.Printf("campaign %s: resolved=%d sent=%d failed=%d skipped=%d\n",
			report.CampaignID, report.Resolved, report.Sent, report.Failed, len(report.Skipped))
	}
	if err != nil {
		log.Fatalf("send: %v", err)
	}
}
