package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-assignment-api/internal/config"
	"github.com/yukikurage/task-assignment-api/internal/logger"
	"github.com/yukikurage/task-assignment-api/internal/models"
	gormlogger "gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := Dialector(config.DatabaseConfig{Driver: driver, Host: "localhost", Port: "1", Name: "tasks"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	log := logger.Nop()
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, gormlogger.Silent, log)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db, log))
	// Second run must be a no-op
	require.NoError(t, Migrate(db, log))

	for _, idx := range compositeIndexes {
		assert.True(t, db.Migrator().HasIndex(idx.table, idx.name), idx.name)
	}
	assert.True(t, db.Migrator().HasTable(&models.TaskAssignment{}))
}

func TestPaginate(t *testing.T) {
	log := logger.Nop()
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, gormlogger.Silent, log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, db.Create(&models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}).Error)
	}

	var users []models.User
	err = db.Order("id").Scopes(Paginate(2, 2)).Find(&users).Error
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "c", users[0].Username)

	err = db.Order("id").Scopes(Paginate(0, 2)).Find(&users).Error
	require.NoError(t, err)
	assert.Len(t, users, 3)
}
