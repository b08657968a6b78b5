package logger

import (
	"context"
	"io"
	"os"
	"stayfinder/config"
	"stayfinder/shared/constant"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger writes human readable lines in development and JSON everywhere else.
func InitLogger(config *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var output io.Writer = os.Stdout
	if config.Server.Env == constant.Empty || config.Server.Env == constant.ServerEnvDevelopment {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	logCtx := zerolog.New(output).With().Timestamp()
	if config.App.Name != constant.Empty {
		logCtx = logCtx.Str("app", config.App.Name)
	}

	log.Logger = logCtx.Logger()
	log.Trace().Msg("Zerolog initialized.")
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

func SetLogLevel(config *config.Config) {
	level, err := zerolog.ParseLevel(config.Server.LogLevel)
	if err != nil {
		level = zerolog.TraceLevel
		log.Trace().Str("loglevel", level.String()).Msg("Environment has no log level set up, using default.")
	} else {
		log.Trace().Str("loglevel", level.String()).Msg("Desired log level detected.")
	}

	zerolog.SetGlobalLevel(level)
}

// WithRequest stores a request scoped logger in ctx. log.Ctx(ctx) returns it.
func WithRequest(ctx context.Context, requestID, traceID string) context.Context {
	logCtx := log.Logger.With().Str("request_id", requestID)
	if traceID != constant.Empty {
		logCtx = logCtx.Str("trace_id", traceID)
	}

	requestLogger := logCtx.Logger()

	return requestLogger.WithContext(ctx)
}
