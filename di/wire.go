//go:build wireinject
// +build wireinject

package di

import (
	"stayfinder/config"
	"stayfinder/infras/jwt"
	"stayfinder/infras/kafka"
	"stayfinder/infras/otel"
	"stayfinder/infras/postgres"
	"stayfinder/infras/redis"
	"stayfinder/infras/s3"
	"stayfinder/permissions"
	"stayfinder/shared/cache"
	"stayfinder/transport/http"
	"stayfinder/transport/http/middleware"
	"stayfinder/transport/http/router"

	"github.com/google/wire"

	authService "stayfinder/internal/domains/auth/service"
	availabilityService "stayfinder/internal/domains/availability/service"
	bookingEvent "stayfinder/internal/domains/booking/event"
	bookingPricing "stayfinder/internal/domains/booking/pricing"
	bookingReceipt "stayfinder/internal/domains/booking/receipt"
	bookingRepository "stayfinder/internal/domains/booking/repository"
	bookingService "stayfinder/internal/domains/booking/service"
	cancellationService "stayfinder/internal/domains/cancellation/service"
	favoriteRepository "stayfinder/internal/domains/favorite/repository"
	favoriteService "stayfinder/internal/domains/favorite/service"
	listingRepository "stayfinder/internal/domains/listing/repository"
	listingService "stayfinder/internal/domains/listing/service"
	userRepository "stayfinder/internal/domains/user/repository"
	userService "stayfinder/internal/domains/user/service"

	authHandler "stayfinder/internal/handlers/auth"
	bookingHandler "stayfinder/internal/handlers/booking"
	listingHandler "stayfinder/internal/handlers/listing"
	userHandler "stayfinder/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
	authService.New,
)

var listingDomain = wire.NewSet(
	listingRepository.New,
	listingService.New,
	availabilityService.New,
	favoriteRepository.New,
	favoriteService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingPricing.New,
	bookingReceipt.New,
	bookingEvent.NewPublisher,
	bookingService.New,
	cancellationService.New,
)

var domains = wire.NewSet(
	userDomain,
	listingDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	listingHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
