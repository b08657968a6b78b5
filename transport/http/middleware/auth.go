package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"stayfinder/config"
	"stayfinder/infras/jwt"
	"stayfinder/infras/otel"
	"stayfinder/permissions"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	"stayfinder/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type ctxKey int

const (
	ctxKeyTrusted ctxKey = iota
	ctxKeyPermission
)

type Auth interface {
	Auth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

// APIKey marks requests carrying the configured X-API-Key as trusted so Auth
// and RBAC let them through. A wrong key is rejected outright; no key at all
// falls through to token authentication.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "api_key.middleware")
		defer scope.End()

		apiKey := request.Header.Get(constant.RequestHeaderAPIKey)
		if apiKey == constant.Empty {
			scope.SetAttribute("http.source", "client")
			next.ServeHTTP(writer, request)

			return
		}

		scope.SetAttribute("http.source", "internal")

		expected := m.cfg.App.APIKey
		if expected == constant.Empty || subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
			scope.TraceError(failure.ForbiddenError)
			response.WithError(writer, failure.ForbiddenError)

			return
		}

		next.ServeHTTP(writer, request.WithContext(context.WithValue(request.Context(), ctxKeyTrusted, true)))
	})
}

// Auth validates the bearer access token and stores the caller identity in
// the context. Routes marked skip in permissions.json stay public.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "auth.middleware")
		defer scope.End()

		if trusted(ctx) {
			next.ServeHTTP(writer, request)

			return
		}

		path := routePattern(request)
		permission := m.lookup(path, request.Method)
		ctx = context.WithValue(request.Context(), ctxKeyPermission, permission)

		scope.SetAttributes(map[string]any{
			"middleware.type": "auth",
			"http.path":       path,
			"http.method":     request.Method,
		})

		if permission.Skip {
			next.ServeHTTP(writer, request.WithContext(ctx))

			return
		}

		claims, err := m.authenticate(request.Header.Get(constant.RequestHeaderAuthorization))
		if err != nil {
			scope.TraceError(err)
			response.WithError(writer, err)

			return
		}

		ctx = context.WithValue(ctx, constant.ContextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, claims.Email)
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, claims.Role)
		ctx = context.WithValue(ctx, constant.ContextKeyTokenID, claims.TokenID)

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func (m *authRoleImpl) authenticate(header string) (*jwt.Claims, error) {
	if header == constant.Empty {
		return nil, failure.Unauthorized("Missing authorization header") //nolint:wrapcheck
	}

	token, err := jwt.ExtractTokenFromHeader(header)
	if err != nil {
		return nil, failure.Unauthorized("Invalid authorization header format") //nolint:wrapcheck
	}

	claims, err := m.jwtService.ValidateToken(token, jwt.AccessToken)

	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return nil, failure.Unauthorized("Token has expired") //nolint:wrapcheck
	case errors.Is(err, jwt.ErrInvalidClaim):
		return nil, failure.Unauthorized("Invalid token claims") //nolint:wrapcheck
	case err != nil:
		return nil, failure.Unauthorized("Invalid token") //nolint:wrapcheck
	}

	if claims.UserID == constant.Empty || claims.Email == constant.Empty {
		log.Warn().Str("user_id", claims.UserID).Msg("access token is missing identity claims")

		return nil, failure.Unauthorized("Invalid token claims") //nolint:wrapcheck
	}

	return claims, nil
}

// RBAC admits the caller when its role is listed for the route. It reuses
// the permission resolved by Auth and must run after it.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "rbac.middleware")
		defer scope.End()

		if trusted(ctx) {
			next.ServeHTTP(writer, request)

			return
		}

		if m.permission == nil {
			response.WithError(writer, failure.ForbiddenError)

			return
		}

		permission, ok := ctx.Value(ctxKeyPermission).(permissions.Permission)
		if !ok {
			permission = m.lookup(routePattern(request), request.Method)
		}

		role := UserRole(ctx)

		if permission.Skip || len(permission.Permissions) == 0 || slices.Contains(permission.Permissions, role) {
			next.ServeHTTP(writer, request)

			return
		}

		scope.SetAttributes(map[string]any{
			"user_role":     role,
			"allowed_roles": permission.Permissions,
			"reason":        "role_not_allowed",
		})
		scope.TraceError(failure.ForbiddenError)
		response.WithError(writer, failure.ForbiddenError)
	})
}

func (m *authRoleImpl) lookup(path, method string) permissions.Permission {
	if m.permission == nil {
		return permissions.Permission{}
	}

	if m.permission.Skip {
		return permissions.Permission{Skip: true}
	}

	return m.permission.FindPermissions(path, method)
}

// routePattern resolves the chi pattern, e.g. /v1/listings/{id}, that the
// request will be dispatched to.
func routePattern(request *http.Request) string {
	rctx := chi.RouteContext(request.Context())
	if rctx == nil || rctx.Routes == nil {
		return request.URL.Path
	}

	return rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path)
}

func trusted(ctx context.Context) bool {
	ok, _ := ctx.Value(ctxKeyTrusted).(bool)

	return ok
}

// UserID returns the authenticated user id placed in ctx by Auth.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return userID
}

// UserRole returns the authenticated user role placed in ctx by Auth.
func UserRole(ctx context.Context) string {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	return role
}
