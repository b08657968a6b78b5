package handler

import (
	"net/http"
	"stayfinder/config"
	"stayfinder/di"
	"stayfinder/shared/logger"
	"stayfinder/shared/timezone"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	once    sync.Once
	handler http.Handler
)

// Handler is the serverless entrypoint. The dependency graph is built on the
// first request and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		cfg := config.Get()

		logger.InitLogger(cfg)
		logger.SetLogLevel(cfg)

		if err := timezone.Setup(cfg.App.Timezone); err != nil {
			log.Warn().Err(err).Msg("Falling back to UTC")
		}

		handler = di.InitializeService().Adaptor()
	})

	r.RequestURI = r.URL.String()

	handler.ServeHTTP(w, r)
}
