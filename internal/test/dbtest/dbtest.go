// Package dbtest поднимает изолированную базу SQLite в памяти для тестов
// пакетов, работающих с *database.DB. Каждый вызов New получает свою базу
// с уже примененной схемой.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"ship-swift/internal/database"
	"ship-swift/internal/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// New создает базу в памяти, применяет миграции и закрывает ее по завершении теста
func New(t testing.TB) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.New(sqlite.Open(dsn), logger.NewNop())
	require.NoError(t, err, "failed to open sqlite database")

	// одно соединение: транзакции и запросы вне их видят одну и ту же базу
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background()), "failed to migrate schema")

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
