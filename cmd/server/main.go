package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"runnerDispatch/internal/config"
	"runnerDispatch/internal/db"
	"runnerDispatch/internal/feed"
	"runnerDispatch/internal/httpapi"
	"runnerDispatch/internal/lifecycle"
	"runnerDispatch/internal/notify"
	"runnerDispatch/internal/orders"
	"runnerDispatch/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	// Change feed broker: repositories publish, view sessions subscribe.
	broker := feed.NewBroker()
	defer broker.Close()

	runners := repository.NewRunnerRepository(d)
	merchants := repository.NewMerchantRepository(d)
	ordersRepo := repository.NewOrderRepository(d, broker)
	history := repository.NewHistoryRepository(d)
	earnings := repository.NewEarningsRepository(d)

	// Notification fan-out: single instance per process, explicitly injected.
	var channels []notify.Channel
	if ch := notify.NewEmailChannel(cfg.Notify.SMTPAddr, cfg.Notify.SMTPFrom, cfg.Notify.SMTPTo); ch != nil {
		channels = append(channels, ch)
	}
	if ch := notify.NewSMSChannel(cfg.Notify.SMSGatewayURL); ch != nil {
		channels = append(channels, ch)
	}
	tg, err := notify.NewTelegramChannel(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
	if err != nil {
		log.Printf("telegram channel disabled: %v", err)
	} else if tg != nil {
		channels = append(channels, tg)
	}
	fanout := notify.NewFanout(channels...)

	fetcher := orders.NewFetcher(ordersRepo, merchants)
	control := lifecycle.NewController(ordersRepo, history, earnings, fanout, cfg.Runner.BaseFee, cfg.Runner.MaxActive)

	srv := httpapi.New(cfg, runners, earnings, fetcher, control, broker)
	shutdown, err := httpapi.Start(srv)
	if err != nil {
		log.Fatalf("start http: %v", err)
	}
	log.Printf("HTTP server listening on %s", cfg.HTTP.Address)

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
