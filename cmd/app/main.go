// entry point to app :)
package main

import (
	"github.com/ds124wfegd/ticketbooker/config"
	"github.com/ds124wfegd/ticketbooker/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"version":  cfg.Server.AppVersion,
		"env":      cfg.Server.Env,
		"database": cfg.Database.Driver,
		"broker":   cfg.Broker.Kind,
	}).Info("Config loaded")

	appServer.NewServer(cfg)
}
