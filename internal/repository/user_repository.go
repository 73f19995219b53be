package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-assignment-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrDetachUser is returned when removing a user's links fails inside the delete transaction.
	ErrDetachUser = errors.New("user repository: detach user failed")
	// ErrDeleteUser is returned when deleting the user row fails inside the delete transaction.
	ErrDeleteUser = errors.New("user repository: delete user failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	return r.db.WithContext(ctx).Omit("Assignments", "Memberships").Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// List lists users, newest first
func (r *GormUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&users).Error
	return users, err
}

// Update saves a user
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	return r.db.WithContext(ctx).Omit("Assignments", "Memberships", "CreatedAt").Save(user).Error
}

// Delete removes the user's assignments and memberships, clears it as creator,
// then deletes the user row.
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrDetachUser, err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.TaskGroupMember{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrDetachUser, err)
		}
		if err := tx.Model(&models.Task{}).Unscoped().
			Where("creator_id = ?", id).
			Update("creator_id", nil).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrDetachUser, err)
		}
		if err := tx.Model(&models.TaskGroup{}).
			Where("creator_id = ?", id).
			Update("creator_id", nil).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrDetachUser, err)
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("%w: %v", ErrDeleteUser, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UsernameTaken reports whether another user has the username
func (r *GormUserRepository) UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error) {
	return r.taken(ctx, "username = ?", username, excludeID)
}

// EmailTaken reports whether another user has the email
func (r *GormUserRepository) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return r.taken(ctx, "email = ?", strings.ToLower(email), excludeID)
}

// PhoneTaken reports whether another user has the phone number
func (r *GormUserRepository) PhoneTaken(ctx context.Context, phone string, excludeID uint64) (bool, error) {
	return r.taken(ctx, "phone = ?", phone, excludeID)
}

func (r *GormUserRepository) taken(ctx context.Context, cond string, value string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEmployeesByIDs returns the users among ids with the employee role
func (r *GormUserRepository) FindEmployeesByIDs(ctx context.Context, ids []uint64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id IN ? AND role = ?", ids, models.RoleEmployee).
		Order("id").
		Find(&users).Error
	return users, err
}
