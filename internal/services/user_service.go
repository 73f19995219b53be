package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/task-assignment-api/internal/constants"
	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/optional"
	"github.com/yukikurage/task-assignment-api/internal/policy"
	"github.com/yukikurage/task-assignment-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// UserService handles user administration
type UserService struct {
	store repository.Store
	log   *zap.SugaredLogger
}

// NewUserService creates a new UserService
func NewUserService(store repository.Store, log *zap.SugaredLogger) *UserService {
	return &UserService{store: store, log: log}
}

// UserInput carries the fields of a user create or partial update.
type UserInput struct {
	Username   optional.Field[string]
	Email      optional.Field[string]
	Phone      optional.Field[string]
	FirstName  optional.Field[string]
	LastName   optional.Field[string]
	Position   optional.Field[string]
	Company    optional.Field[string]
	Department optional.Field[string]
	Address    optional.Field[string]
	Notes      optional.Field[string]
	Role       optional.Field[models.Role]
	Password   optional.Field[string]
}

// CreateUser registers a user. A manager without superuser rights can only create employees.
func (s *UserService) CreateUser(ctx context.Context, actor policy.Actor, input UserInput) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionCreateUser, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if v, ok := input.Username.Value(); !ok || strings.TrimSpace(v) == "" {
		verr.Add("username", "This field is required.")
	}
	if v, ok := input.Email.Value(); !ok || strings.TrimSpace(v) == "" {
		verr.Add("email", "This field is required.")
	}
	if v, ok := input.Password.Value(); !ok || v == "" {
		verr.Add("password", "Password is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	requested, _ := input.Role.Value()
	if requested != "" && !requested.Valid() {
		return nil, NewValidationError("role", fmt.Sprintf("%q is not a valid choice.", requested))
	}
	role := policy.CoerceRole(actor, requested)
	if requested != "" && role != requested {
		s.log.Warnw("requested role coerced", "actor_id", actor.ID, "requested", requested, "granted", role)
	}

	user := &models.User{Role: role}
	input.Role = optional.Absent[models.Role]()

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := applyUserInput(ctx, tx, user, input); err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("user created", "user_id", user.ID, "role", user.Role, "actor_id", actor.ID)
	return user, nil
}

// ListUsers lists all users
func (s *UserService) ListUsers(ctx context.Context, actor policy.Actor) ([]models.User, error) {
	if err := policy.Authorize(actor, policy.ActionListUsers, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, actor policy.Actor, id uint64) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionViewUser, policy.Resource{}).Err(); err != nil {
		return nil, err
	}
	return findUser(ctx, s.store, id)
}

// UpdateUser applies a partial update to a user. Roles granted by a manager are coerced.
func (s *UserService) UpdateUser(ctx context.Context, actor policy.Actor, id uint64, input UserInput) (*models.User, error) {
	if err := policy.Authorize(actor, policy.ActionUpdateUser, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	if requested, ok := input.Role.Value(); ok {
		if !requested.Valid() {
			return nil, NewValidationError("role", fmt.Sprintf("%q is not a valid choice.", requested))
		}
		granted := policy.CoerceRole(actor, requested)
		if granted != requested {
			s.log.Warnw("requested role coerced", "actor_id", actor.ID, "user_id", id, "requested", requested, "granted", granted)
		}
		input.Role = optional.Of(granted)
	} else if input.Role.IsNull() {
		return nil, NewValidationError("role", "This field may not be null.")
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		user, err = findUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionUpdateUser, policy.UserResource(user)).Err(); err != nil {
			return err
		}

		wasEmployee := user.Role == models.RoleEmployee
		if err := applyUserInput(ctx, tx, user, input); err != nil {
			return err
		}
		if err := tx.Users().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		// groups only hold employees
		if wasEmployee && user.Role != models.RoleEmployee {
			if err := tx.Groups().RemoveUser(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to remove group memberships: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser deletes a user other than the actor
func (s *UserService) DeleteUser(ctx context.Context, actor policy.Actor, id uint64) error {
	if err := policy.Authorize(actor, policy.ActionDeleteUser, policy.Resource{}).Err(); err != nil {
		return err
	}

	if id == actor.ID {
		return NewValidationError(NonFieldErrors, "You cannot delete your own account")
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := findUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ActionDeleteUser, policy.UserResource(user)).Err(); err != nil {
			return err
		}

		stranded, err := tx.Tasks().CountSoleAssignee(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count assigned tasks: %w", err)
		}
		if stranded > 0 {
			return NewValidationError(NonFieldErrors, fmt.Sprintf(
				"User is the only assignee of %d task(s). Reassign them before deleting the user.", stranded))
		}

		if err := tx.Users().Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infow("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

func findUser(ctx context.Context, store repository.Store, id uint64) (*models.User, error) {
	user, err := store.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// applyUserInput validates the supplied fields and copies them onto user.
// Uniqueness is checked against every user but user itself.
func applyUserInput(ctx context.Context, store repository.Store, user *models.User, input UserInput) error {
	users := store.Users()
	verr := &ValidationError{}

	if input.Username.Present() {
		username := strings.TrimSpace(input.Username.Or(""))
		switch {
		case username == "":
			verr.Add("username", "This field may not be blank.")
		case len(username) > 150:
			verr.Add("username", "Ensure this field has no more than 150 characters.")
		default:
			taken, err := users.UsernameTaken(ctx, username, user.ID)
			if err != nil {
				return fmt.Errorf("failed to check username: %w", err)
			}
			if taken {
				verr.Add("username", "A user with that username already exists.")
			}
			user.Username = username
		}
	}

	if input.Email.Present() {
		email := strings.ToLower(strings.TrimSpace(input.Email.Or("")))
		if err := validate.Var(email, "required,email"); err != nil {
			verr.Add("email", "Enter a valid email address.")
		} else {
			taken, err := users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				verr.Add("email", "Email already exists")
			}
			user.Email = email
		}
	}

	if input.Phone.Present() {
		phone := strings.TrimSpace(input.Phone.Or(""))
		if phone == "" {
			user.Phone = nil
		} else {
			taken, err := users.PhoneTaken(ctx, phone, user.ID)
			if err != nil {
				return fmt.Errorf("failed to check phone: %w", err)
			}
			if taken {
				verr.Add("phone", "Phone number already exists")
			}
			user.Phone = &phone
		}
	}

	if role, ok := input.Role.Value(); ok {
		user.Role = role
	}

	if password, ok := input.Password.Value(); ok && password != "" {
		if len(password) < constants.MinPasswordLength {
			verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", constants.MinPasswordLength))
		} else if verr.Empty() {
			hash, err := hashPassword(password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
	}

	for _, f := range []struct {
		field optional.Field[string]
		dst   *string
	}{
		{input.FirstName, &user.FirstName},
		{input.LastName, &user.LastName},
		{input.Position, &user.Position},
		{input.Company, &user.Company},
		{input.Department, &user.Department},
		{input.Address, &user.Address},
		{input.Notes, &user.Notes},
	} {
		if f.field.Present() {
			*f.dst = strings.TrimSpace(f.field.Or(""))
		}
	}

	return verr.OrNil()
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}
