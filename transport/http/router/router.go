package router

import (
	"stayfinder/internal/handlers/auth"
	"stayfinder/internal/handlers/booking"
	"stayfinder/internal/handlers/listing"
	"stayfinder/internal/handlers/user"
	"stayfinder/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth    auth.Handler
	User    user.Handler
	Listing listing.Handler
	Booking booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	authRole       middleware.AuthRole
}

// SetupRoutes mounts every domain under /v1. Which endpoints are public and
// which roles may call the rest comes from the embedded permissions file.
func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.authRole.APIKey, r.authRole.Auth, r.authRole.RBAC)

		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.User.Router(routerGroup)
		r.DomainHandlers.Listing.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		authRole:       authRole,
	}
}
