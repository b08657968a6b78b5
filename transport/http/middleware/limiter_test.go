package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"stayfinder/config"
	"stayfinder/infras/otel/mocks"
	cacheMocks "stayfinder/shared/cache/mocks"
	"stayfinder/transport/http/middleware"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func limitedConfig(maxReqs int) *config.Config {
	cfg := &config.Config{}
	cfg.App.RateLimiter.Enable = true
	cfg.App.RateLimiter.MaxRequests = maxReqs
	cfg.App.RateLimiter.WindowSeconds = 60

	return cfg
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	tests := []struct {
		name          string
		setupMock     func()
		wantCode      int
		wantRemaining string
	}{
		{
			name: "under the limit",
			setupMock: func() {
				mockCache.EXPECT().Increment(gomock.Any(), "limiter:10.0.0.1:agent", 60).Return(int64(1), nil)
			},
			wantCode:      http.StatusOK,
			wantRemaining: "1",
		},
		{
			name: "over the limit",
			setupMock: func() {
				mockCache.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(3), nil)
			},
			wantCode:      http.StatusTooManyRequests,
			wantRemaining: "0",
		},
		{
			name: "redis down uses local bucket",
			setupMock: func() {
				mockCache.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection refused"))
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			app := middleware.NewAppMiddleware(mocks.NewOtel(), limitedConfig(2), mockCache)

			req := httptest.NewRequest(http.MethodGet, "/v1/listings", nil)
			req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
			req.Header.Set("User-Agent", "agent")

			rec := httptest.NewRecorder()
			app.RateLimit()(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantRemaining, rec.Header().Get("X-RateLimit-Remaining"))
		})
	}
}

func TestRateLimit_LocalBucketExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockCache.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection refused")).Times(3)

	handler := middleware.NewAppMiddleware(mocks.NewOtel(), limitedConfig(2), mockCache).RateLimit()(okHandler())

	codes := make([]int, 0, 3)

	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/listings", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := middleware.NewAppMiddleware(mocks.NewOtel(), &config.Config{}, cacheMocks.NewMockRedisCache(ctrl)).RateLimit()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
