package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pricewatch/internal/config"
	"pricewatch/internal/feature/price/adapters"
	"pricewatch/internal/feature/price/adapters/tiingo"
	"pricewatch/internal/platform/apikey"
	"pricewatch/internal/platform/cache"
	jwtmw "pricewatch/internal/platform/jwt"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Tiingo: config.TiingoConfig{APIKey: "k"},
		Fetch:  config.FetchConfig{Interval: 30 * time.Minute, Timeout: time.Second},
		DB: config.DBConfig{
			Driver:         "sqlite",
			Path:           filepath.Join(t.TempDir(), "data.db"),
			ConnectTimeout: time.Second,
			RunMigrations:  true,
		},
		Redis:  config.RedisConfig{CacheTTL: time.Hour},
		Auth:   config.AuthConfig{Mode: config.AuthModeAPIKey, APIKey: "secret"},
		NodeID: 1,
	}
}

func TestOpenDB_MigratesPriceTables(t *testing.T) {
	db, err := OpenDB(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	assert.True(t, db.Migrator().HasTable("prices"))
	assert.True(t, db.Migrator().HasTable("price_endpoint_logs"))
}

func TestNewPriceRepository_WrapsWithCacheWhenRedisPresent(t *testing.T) {
	cfg := testConfig(t)
	db, err := OpenDB(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	plain := NewPriceRepository(db, nil, clockwork.NewFakeClock(), cfg, zap.NewNop())
	_, isCache := plain.(*cache.CachingPriceRepository)
	assert.False(t, isCache)

	rdb, _ := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	cached := NewPriceRepository(db, rdb, clockwork.NewFakeClock(), cfg, zap.NewNop())
	_, isCache = cached.(*cache.CachingPriceRepository)
	assert.True(t, isCache)
}

func TestNewRedis_DisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, NewRedis(context.Background(), testConfig(t), zap.NewNop()))
}

func TestNewMarket(t *testing.T) {
	cfg := testConfig(t)
	m := NewMarket(cfg, zap.NewNop())
	assert.IsType(t, &tiingo.TiingoMarket{}, m)
}

func TestLimitMarket(t *testing.T) {
	cfg := testConfig(t)
	market := NewMarket(cfg, zap.NewNop())

	assert.Same(t, market, LimitMarket(cfg, market, clockwork.NewFakeClock(), zap.NewNop()), "no budget leaves the market unwrapped")

	cfg.Fetch.MaxRequestsPerHour = 50
	limited := LimitMarket(cfg, market, clockwork.NewFakeClock(), zap.NewNop())
	assert.NotSame(t, market, limited)
	assert.IsType(t, adapters.NewRateLimitedMarket(nil, nil, nil), limited)
}

func TestNewIngestUsecase(t *testing.T) {
	cfg := testConfig(t)

	uc, err := NewIngestUsecase(cfg, nil, nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, uc)

	cfg.NodeID = 5000
	_, err = NewIngestUsecase(cfg, nil, nil, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := jwtmw.NewGenerator("jwt-secret", time.Hour).GenerateToken("client")
	require.NoError(t, err)

	tests := []struct {
		name           string
		cfg            config.AuthConfig
		header         string
		value          string
		expectedStatus int
	}{
		{"api key accepted", config.AuthConfig{Mode: config.AuthModeAPIKey, APIKey: "secret"}, apikey.Header, "secret", http.StatusOK},
		{"api key rejected", config.AuthConfig{Mode: config.AuthModeAPIKey, APIKey: "secret"}, apikey.Header, "wrong", http.StatusUnauthorized},
		{"no key configured denies", config.AuthConfig{Mode: config.AuthModeAPIKey}, apikey.Header, "anything", http.StatusUnauthorized},
		{"jwt accepted", config.AuthConfig{Mode: config.AuthModeJWT, JWTSecret: "jwt-secret"}, "Authorization", "Bearer " + token, http.StatusOK},
		{"jwt mode ignores api key", config.AuthConfig{Mode: config.AuthModeJWT, JWTSecret: "jwt-secret", APIKey: "secret"}, apikey.Header, "secret", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/price", NewAuthMiddleware(tt.cfg, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/price", nil)
			req.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
