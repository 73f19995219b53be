package repository

import (
	"context"

	"github.com/yukikurage/task-assignment-api/internal/assignment"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// Create creates a group and its memberships atomically
func (r *GormGroupRepository) Create(ctx context.Context, group *models.TaskGroup, memberIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Creator").Create(group).Error; err != nil {
			return err
		}
		return replaceMembers(tx, group.ID, memberIDs)
	})
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(ctx context.Context, id uint64) (*models.TaskGroup, error) {
	var group models.TaskGroup
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("user_id") }).
		First(&group, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

// List lists all groups
func (r *GormGroupRepository) List(ctx context.Context) ([]models.TaskGroup, error) {
	var groups []models.TaskGroup
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("user_id") }).
		Order("id").
		Find(&groups).Error
	return groups, err
}

// Update saves a group's name
func (r *GormGroupRepository) Update(ctx context.Context, group *models.TaskGroup) error {
	return r.db.WithContext(ctx).Model(group).Select("Name", "UpdatedAt").Updates(group).Error
}

// ReplaceMembers rewrites the memberships so they match userIDs exactly
func (r *GormGroupRepository) ReplaceMembers(ctx context.Context, groupID uint64, userIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceMembers(tx, groupID, userIDs)
	})
}

func replaceMembers(tx *gorm.DB, groupID uint64, userIDs []uint64) error {
	var current []uint64
	if err := tx.Model(&models.TaskGroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &current).Error; err != nil {
		return err
	}

	added, removed := assignment.Diff(current, userIDs)

	if len(removed) > 0 {
		if err := tx.Where("group_id = ? AND user_id IN ?", groupID, removed).
			Delete(&models.TaskGroupMember{}).Error; err != nil {
			return err
		}
	}

	if len(added) == 0 {
		return nil
	}

	members := make([]models.TaskGroupMember, len(added))
	for i, userID := range added {
		members[i] = models.TaskGroupMember{GroupID: groupID, UserID: userID}
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&members).Error
}

// Delete deletes a group, its memberships, and unlinks it from tasks
func (r *GormGroupRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Unscoped().
			Where("group_id = ?", id).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.TaskGroupMember{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.TaskGroup{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RemoveUser drops every membership of userID
func (r *GormGroupRepository) RemoveUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.TaskGroupMember{}).Error
}
