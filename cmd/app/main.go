package main

import (
	"stayfinder/config"
	"stayfinder/di"
	"stayfinder/helper"
	"stayfinder/shared/logger"
	"stayfinder/shared/timezone"

	"github.com/rs/zerolog/log"
)

//	@title						StayFinder API
//	@version					1.0
//	@description				Short-term rental listings, availability and bookings.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)
	logger.SetLogLevel(cfg)

	if err := timezone.Setup(cfg.App.Timezone); err != nil {
		log.Warn().Err(err).Msg("Falling back to UTC")
	}

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	server := di.InitializeService()
	server.Serve()
}
