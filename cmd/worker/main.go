package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/app"
	"curvedex/internal/dex"
	"curvedex/internal/keeper"
	"curvedex/pkg/config"
	solanautil "curvedex/pkg/solana"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	settings, err := config.LoadSettings(os.Getenv("CURVEDEX_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load settings: ", err)
	}
	settings.ApplyLogLevel()

	// The keeper launches as the operator whose key it can decrypt.
	ks := solanautil.NewKeystore(settings.Keeper.KeystoreDir)
	operator, err := ks.Load(settings.Keeper.Operator, settings.Keeper.OperatorPassword)
	if err != nil {
		log.Fatal("Failed to load operator key: ", err)
	}
	operatorAddress := operator.PublicKey.ToBase58()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, settings, dex.EventLaunched)
	if err != nil {
		log.Fatal("Failed to start engine: ", err)
	}
	defer a.Close()

	k := keeper.New(a.Engine, operatorAddress, settings.FeeRecipients())

	c := cron.New(cron.WithSeconds())
	if _, err := k.Schedule(c, settings.Keeper.Schedule); err != nil {
		log.Fatal("> Failed to add launch sweep: ", err)
	}
	c.Start()
	defer c.Stop()
	log.WithFields(log.Fields{
		"operator": operatorAddress,
		"schedule": settings.Keeper.Schedule,
	}).Info("> Launch keeper started")

	if config.RabbitMQ == nil {
		<-ctx.Done()
		return
	}

	consumer, err := config.NewConsumer(dex.EventReadyToLaunch)
	if err != nil {
		log.Fatal("Failed to create consumer: ", err)
	}
	defer consumer.Close()

	if err := consumer.Consume(ctx, k.HandleMessage(ctx)); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Consumer stopped: ", err)
	}
}
