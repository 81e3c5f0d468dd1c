package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tabib.link/configs"
	"tabib.link/configs/configslog"
	"tabib.link/models"
	"tabib.link/repositories"
)

// UserServiceError is the typed error for user operations.
type UserServiceError string

func (e UserServiceError) Error() string { return string(e) }

const (
	ErrUserNotFound       UserServiceError = "user not found"
	ErrUserEmailTaken     UserServiceError = "email address already registered"
	ErrUserInvalidInput   UserServiceError = "invalid user data"
	ErrUserInvalidRole    UserServiceError = "unknown role"
	ErrUserPasswordWeak   UserServiceError = "password must be at least 8 characters"
	ErrUserForbidden      UserServiceError = "not allowed to act on this user"
	ErrUserCreationFailed UserServiceError = "user could not be created"
	ErrUserDeletionFailed UserServiceError = "user could not be deleted"
)

// RegisterUserInput is the payload for account creation.
type RegisterUserInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Phone    string      `json:"phone"`
	Role     models.Role `json:"role"`
}

// UpdateUserInput carries the fields a user may change on their own row.
type UpdateUserInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// IUserService is the user business interface.
type IUserService interface {
	Register(ctx context.Context, input RegisterUserInput) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, actingUserID uint, input UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id uint, actingUserID uint) error
}

// UserService implements IUserService.
type UserService struct {
	repo repositories.IUserRepository
	db   *gorm.DB
}

// NewUserService builds the service on the shared connection.
func NewUserService() IUserService {
	return newUserService(configs.GetDB())
}

func newUserService(db *gorm.DB) *UserService {
	return &UserService{repo: repositories.NewUserRepositoryTx(db), db: db}
}

func validateRegisterInput(input RegisterUserInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrUserInvalidInput)
	}
	if !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: email is malformed", ErrUserInvalidInput)
	}
	if len(input.Password) < 8 {
		return ErrUserPasswordWeak
	}
	if !input.Role.Valid() || input.Role == models.RoleAdmin {
		return ErrUserInvalidRole
	}
	return nil
}

// Register creates the user row and, for professional roles, the empty
// profile that carries the default working window.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		configslog.Log.Error("password hashing failed", zap.Error(err))
		return nil, ErrUserCreationFailed
	}

	user := models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         input.Role,
		IsActive:     true,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		userRepoTx := repositories.NewUserRepositoryTx(tx)
		if err := userRepoTx.Create(ctx, &user); err != nil {
			configslog.Log.Error("user create failed", zap.Error(err))
			return ErrUserCreationFailed
		}
		if user.Role.Professional() {
			profileRepoTx := repositories.NewProfileRepositoryTx(tx)
			profile := models.ProfessionalProfile{UserID: user.ID, WorkStart: "09:00", WorkEnd: "17:00"}
			if err := profileRepoTx.Create(ctx, &profile); err != nil {
				configslog.Log.Error("profile create failed", zap.Uint("user_id", user.ID), zap.Error(err))
				return ErrUserCreationFailed
			}
			user.Profile = &profile
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	configslog.SLog.Infof("user registered: id=%d role=%s", user.ID, user.Role)
	return &user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser lets a user edit their own row; admins may edit anyone.
func (s *UserService) UpdateUser(ctx context.Context, id uint, actingUserID uint, input UpdateUserInput) (*models.User, error) {
	actor, err := s.GetUserByID(ctx, actingUserID)
	if err != nil {
		return nil, ErrUserForbidden
	}
	if actor.Role != models.RoleAdmin && actingUserID != id {
		return nil, ErrUserForbidden
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	user.Phone = strings.TrimSpace(input.Phone)

	if err := s.repo.Update(models.ContextWithUserID(ctx, actingUserID), user); err != nil {
		configslog.Log.Error("user update failed", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// DeleteUser soft-deletes the account; row cascades remove the profile and
// rendez-vous at the storage layer.
func (s *UserService) DeleteUser(ctx context.Context, id uint, actingUserID uint) error {
	actor, err := s.GetUserByID(ctx, actingUserID)
	if err != nil {
		return ErrUserForbidden
	}
	if actor.Role != models.RoleAdmin && actingUserID != id {
		return ErrUserForbidden
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(models.ContextWithUserID(ctx, actingUserID), user, actingUserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		configslog.Log.Error("user delete failed", zap.Uint("id", id), zap.Error(err))
		return ErrUserDeletionFailed
	}
	configslog.SLog.Infof("user deleted: id=%d by=%d", id, actingUserID)
	return nil
}

var _ IUserService = (*UserService)(nil)
