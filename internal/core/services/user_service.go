package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
	"insurehub/internal/pkg/pagination"
	"insurehub/internal/pkg/password"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrUserNotFoundSvc        = errors.New("user not found")
	ErrEmailAlreadyExists     = errors.New("email already exists")
	ErrOldPasswordWrong       = errors.New("old password is incorrect")
	ErrCannotDeleteSelf       = errors.New("cannot delete your own account")
	ErrCannotDeactivateSelf   = errors.New("cannot deactivate your own account")
	ErrCannotDropOwnAdminRole = errors.New("cannot remove your own Admin role")
)

// UserService handles user management business logic
type UserService struct {
	userRepo repositories.UserRepository
	roleRepo repositories.RoleRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	roleRepo repositories.RoleRepository,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Email       *string `json:"email"`
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email       *string `json:"email"`
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, params *pagination.Params) (*pagination.Response, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	return pagination.NewResponse(userResponses, params, total), nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUserByAdmin updates a user by admin
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id uint, adminID uint, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// Prevent admin from locking themselves out
	if id == adminID && input.IsActive != nil && !*input.IsActive {
		return nil, ErrCannotDeactivateSelf
	}

	if err := s.applyContact(ctx, user, input.Email, input.FullName, input.PhoneNumber); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User %d updated by admin %d", id, adminID)
	return user.ToResponse(), nil
}

// ReplaceRoles sets a user's role set; it must be non-empty and an admin
// cannot remove their own Admin role
func (s *UserService) ReplaceRoles(ctx context.Context, id uint, adminID uint, names []string) (*models.UserResponse, error) {
	v := domain.Violations{}
	set := domain.RoleSet(0)
	for _, name := range names {
		role, ok := domain.ParseRole(strings.TrimSpace(name))
		if !ok {
			v.Add("roles", fmt.Sprintf("unknown role %q", name))
			continue
		}
		set |= domain.NewRoleSet(role)
	}
	if set.IsEmpty() {
		v.Add("roles", "at least one role is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if id == adminID && !set.Has(domain.RoleAdmin) {
		return nil, ErrCannotDropOwnAdminRole
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	roles, err := s.roleRepo.GetByNames(ctx, set.Names())
	if err != nil {
		return nil, err
	}
	if len(roles) != len(set.Names()) {
		return nil, fmt.Errorf("replace roles: some roles are not seeded")
	}

	if err := s.userRepo.ReplaceRoles(ctx, user, roles); err != nil {
		return nil, err
	}
	user.Roles = roles

	log.Printf("✅ Roles of user %d set to %v by admin %d", id, set.Names(), adminID)
	return user.ToResponse(), nil
}

// DeleteUser deletes a user (soft delete)
func (s *UserService) DeleteUser(ctx context.Context, id uint, adminID uint) error {
	// Prevent admin from deleting self
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	err := s.userRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFoundSvc
	}
	if err != nil {
		return err
	}

	log.Printf("🗑️ User %d deleted by admin %d", id, adminID)
	return nil
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.applyContact(ctx, user, input.Email, input.FullName, input.PhoneNumber); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}

	// Verify old password
	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	// Validate new password
	if !password.ValidatePassword(input.NewPassword) {
		v := domain.Violations{}
		v.Add("new_password", fmt.Sprintf("must be between %d and %d characters", password.MinLength, password.MaxLength))
		return v.Err()
	}

	// Hash new password
	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

func (s *UserService) find(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}
	return user, nil
}

// applyContact validates and applies optional email, name and phone changes
func (s *UserService) applyContact(ctx context.Context, user *models.User, email, fullName, phone *string) error {
	v := domain.Violations{}
	if email != nil {
		*email = strings.TrimSpace(*email)
		validateEmail(v, *email)
	}
	name, tel := "", ""
	if fullName != nil {
		name = strings.TrimSpace(*fullName)
	}
	if phone != nil {
		tel = strings.TrimSpace(*phone)
	}
	validateContact(v, name, tel)
	if err := v.Err(); err != nil {
		return err
	}

	if email != nil && *email != user.Email {
		// Check if email already exists
		exists, err := s.userRepo.ExistsByEmail(ctx, *email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailAlreadyExists
		}
		user.Email = *email
	}
	if fullName != nil {
		user.FullName = optional(name)
	}
	if phone != nil {
		user.PhoneNumber = optional(tel)
	}
	return nil
}
