package devserver_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/careerpush/internal/gateway/middleware"
	"github.com/saransh1220/careerpush/internal/modules/devserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewModule(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := sqlx.NewDb(sqlDB, "sqlmock")
	m := devserver.NewModule(db, middleware.NewAuthMiddleware("secret"), zap.NewNop(), devserver.Options{})
	defer m.Shutdown()
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPHandler())
	assert.NotNil(t, m.Service())
}

func TestNewModule_WithRedisRelay(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	m := devserver.NewModule(sqlx.NewDb(sqlDB, "sqlmock"), middleware.NewAuthMiddleware("secret"), zap.NewNop(), devserver.Options{
		Redis:        client,
		RedisChannel: "test",
	})
	m.Shutdown()
	assert.NotNil(t, m.Service())
}
