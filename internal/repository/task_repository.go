package repository

import (
	"context"

	"github.com/yukikurage/task-assignment-api/internal/assignment"
	"github.com/yukikurage/task-assignment-api/internal/database"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Assignments", "Creator", "Group").Create(task).Error
}

// FindByID finds a task by ID with its assignments loaded
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the task row for the rest of the transaction
func (r *GormTaskRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Task, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormTaskRepository) find(query *gorm.DB, id uint64) (*models.Task, error) {
	var task models.Task
	err := query.
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("user_id") }).
		Preload("Group.Members").
		First(&task, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{})

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.GroupID != nil {
		query = query.Where("tasks.group_id = ?", *filter.GroupID)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID)
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("tasks.created_at DESC").
		Order("tasks.id DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("user_id") }).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update saves the task's own columns, leaving associations alone
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).
		Model(task).
		Select("Title", "Description", "Status", "DueDate", "GroupID", "UpdatedAt").
		Updates(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Task{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceAssignees rewrites the assignment links so they match userIDs exactly
func (r *GormTaskRepository) ReplaceAssignees(ctx context.Context, taskID uint64, userIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []uint64
		if err := tx.Model(&models.TaskAssignment{}).
			Where("task_id = ?", taskID).
			Pluck("user_id", &current).Error; err != nil {
			return err
		}

		added, removed := assignment.Diff(current, userIDs)

		if len(removed) > 0 {
			if err := tx.Where("task_id = ? AND user_id IN ?", taskID, removed).
				Delete(&models.TaskAssignment{}).Error; err != nil {
				return err
			}
		}

		if len(added) == 0 {
			return nil
		}

		assignments := make([]models.TaskAssignment, len(added))
		for i, userID := range added {
			assignments[i] = models.TaskAssignment{
				TaskID: taskID,
				UserID: userID,
			}
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignments).Error
	})
}

// ClearGroup detaches every task from the group
func (r *GormTaskRepository) ClearGroup(ctx context.Context, groupID uint64) error {
	return r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("group_id = ?", groupID).
		Update("group_id", nil).Error
}

// CountWithoutAssignees counts the live tasks linked to the group that have no assignees
func (r *GormTaskRepository) CountWithoutAssignees(ctx context.Context, groupID uint64) (int64, error) {
	anyAssignee := r.db.Model(&models.TaskAssignment{}).
		Select("1").
		Where("task_assignments.task_id = tasks.id")

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("tasks.group_id = ?", groupID).
		Where("NOT EXISTS (?)", anyAssignee).
		Count(&count).Error
	return count, err
}

// CountSoleAssignee counts the live ungrouped tasks assigned to userID and nobody else
func (r *GormTaskRepository) CountSoleAssignee(ctx context.Context, userID uint64) (int64, error) {
	assignedToUser := r.db.Model(&models.TaskAssignment{}).
		Select("1").
		Where("task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID)
	assignedToOthers := r.db.Model(&models.TaskAssignment{}).
		Select("1").
		Where("task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id <> ?", userID)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("tasks.group_id IS NULL").
		Where("EXISTS (?)", assignedToUser).
		Where("NOT EXISTS (?)", assignedToOthers).
		Count(&count).Error
	return count, err
}
