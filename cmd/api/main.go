package main

import (
	"context"
	"os"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/app"
	"curvedex/internal/handlers"
	"curvedex/internal/keeper"
	"curvedex/internal/routes"
	"curvedex/pkg/config"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	settings, err := config.LoadSettings(os.Getenv("CURVEDEX_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load settings: ", err)
	}
	settings.ApplyLogLevel()

	a, err := app.New(context.Background(), settings, app.DefaultQueued...)
	if err != nil {
		log.Fatal("Failed to start engine: ", err)
	}
	defer a.Close()

	c := cron.New(cron.WithSeconds())
	if _, err := keeper.NewPoolStats(a.Engine, a.Metrics).Schedule(c, settings.Keeper.StatsSchedule); err != nil {
		log.Fatal("> Failed to add pool stats job: ", err)
	}
	c.Start()
	defer c.Stop()

	handlers.Use(a.Engine, a.Mints)
	routes.TradingRateLimit = settings.RateLimiter()
	r := routes.SetupRouter(a.Hub, a.Metrics)

	log.WithField("port", settings.Port).Info("API listening")
	if err := r.Run(":" + settings.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
