package main

import (
	"os"

	"github.com/DRSN-tech/instrument-shop/internal/app"
	config "github.com/DRSN-tech/instrument-shop/internal/cfg"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
)

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("%v, keeping info level", err)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
