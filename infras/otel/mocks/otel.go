package mocks

import (
	"context"
	"stayfinder/infras/otel"
)

// otelImpl hands out no-op scopes so services can be tested without a tracer provider.
type otelImpl struct{}

func (o *otelImpl) NewScope(ctx context.Context, _, _ string) (context.Context, otel.Scope) {
	return ctx, NewScope()
}

func (o *otelImpl) Shutdown(_ context.Context) error {
	return nil
}

func NewOtel() otel.Otel {
	return &otelImpl{}
}
