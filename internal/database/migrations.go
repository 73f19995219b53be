package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type compositeIndex struct {
	table   string
	name    string
	columns string
}

// Indexes not expressible as single-column struct tags.
var compositeIndexes = []compositeIndex{
	// Visibility filter: tasks assigned to a user, newest first
	{"task_assignments", "idx_task_assignments_user_task", "user_id, task_id"},
	// Task listing ordered by creation time within a status
	{"tasks", "idx_tasks_status_created_at", "status, created_at"},
	// Blacklist purge
	{"revoked_tokens", "idx_revoked_tokens_expires_jti", "expires_at, jti"},
}

// AddIndexes adds the composite indexes, skipping ones that already exist.
func AddIndexes(db *gorm.DB, log *zap.SugaredLogger) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debugw("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Infow("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
