package testutils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"terminal-terrace/testmaker/internal/model"
	dbPkg "terminal-terrace/testmaker/packages/database"
)

// migrateLockKey serializes AutoMigrate across test packages sharing one database
const migrateLockKey = 7_310_042

// SetupTestDB opens the test database, migrates it, and returns a transaction
// that is rolled back on cleanup. The test is skipped when no database is reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		host := getEnvOrDefault("POSTGRES_HOST", "localhost")
		port := getEnvOrDefault("POSTGRES_PORT", "5433")
		user := getEnvOrDefault("POSTGRES_USER", "test")
		password := getEnvOrDefault("POSTGRES_PASSWORD", "test")
		dbname := getEnvOrDefault("POSTGRES_DB", "testmaker_test")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockKey).Error; err != nil {
			return err
		}
		return model.InitTable(tx)
	})
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	tx := db.Begin()
	t.Cleanup(func() {
		tx.Rollback()
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return tx
}

// SetupTestRedis returns nil when Redis is not available
func SetupTestRedis(t *testing.T) *dbPkg.RedisClient {
	t.Helper()

	redisHost := getEnvOrDefault("REDIS_HOST", "localhost")
	redisPort, err := strconv.Atoi(getEnvOrDefault("REDIS_PORT", "6380"))
	if err != nil || redisPort == 0 {
		redisPort = 6380
	}

	redisClient, err := dbPkg.InitRedis(context.Background(), &dbPkg.RedisConfig{
		ServiceName: "testmaker-test",
		Host:        redisHost,
		Port:        redisPort,
	})
	if err != nil {
		return nil
	}

	t.Cleanup(func() {
		redisClient.FlushDB(context.Background())
		redisClient.Close()
	})
	return redisClient
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
