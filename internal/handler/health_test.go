package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/collateral-ledger/internal/database/dbtest"
	"github.com/segyhp/collateral-ledger/internal/handler"
	"github.com/segyhp/collateral-ledger/internal/mocks"
)

func TestHealthHandler(t *testing.T) {
	db, _ := dbtest.New(t)

	newHealthRouter := func(rdb *redis.Client) http.Handler {
		return handler.NewRouter(
			handler.NewLedgerHandler(&mocks.MockLedgerService{}),
			handler.NewCatalogHandler(&mocks.MockCatalogService{}),
			handler.NewHealthHandler(db, rdb, time.Second),
			zap.NewNop(),
			nil,
		)
	}

	t.Run("liveness", func(t *testing.T) {
		w, env := doRequest(t, newHealthRouter(nil), http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
	})

	t.Run("ready without cache", func(t *testing.T) {
		w, env := doRequest(t, newHealthRouter(nil), http.MethodGet, "/health/ready", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var status handler.HealthStatus
		require.NoError(t, json.Unmarshal(env.Data, &status))
		assert.Equal(t, "ok", status.Checks["database"])
		assert.Equal(t, "disabled", status.Checks["redis"])
	})

	t.Run("not ready when redis is unreachable", func(t *testing.T) {
		rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
		defer rdb.Close()

		w, env := doRequest(t, newHealthRouter(rdb), http.MethodGet, "/health/ready", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var status handler.HealthStatus
		require.NoError(t, json.Unmarshal(env.Data, &status))
		assert.Equal(t, "error", status.Status)
		assert.Equal(t, "failed", status.Checks["redis"])
	})
}
