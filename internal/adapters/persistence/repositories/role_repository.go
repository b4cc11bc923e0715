package repositories

import (
	"context"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/domain"

	"gorm.io/gorm"
)

var roleDescriptions = map[domain.Role]string{
	domain.RoleAdmin:   "Reviews policies and claims, manages users",
	domain.RoleUser:    "Applies for policies and files claims",
	domain.RoleManager: "Reserved for reporting",
}

// roleRepository implements RoleRepository interface
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// GetByNames returns the active roles whose names are listed
func (r *roleRepository) GetByNames(ctx context.Context, names []string) ([]models.Role, error) {
	var roles []models.Role
	if len(names) == 0 {
		return roles, nil
	}
	err := r.db.WithContext(ctx).
		Where("name IN ?", names).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&roles).Error
	return roles, err
}

// EnsureDefaults creates any missing built-in role
func (r *roleRepository) EnsureDefaults(ctx context.Context) error {
	for _, role := range domain.AllRoles {
		row := models.Role{Name: role.String(), Description: roleDescriptions[role], IsActive: true}
		err := r.db.WithContext(ctx).
			Where(models.Role{Name: row.Name}).
			Attrs(models.Role{Description: row.Description, IsActive: true}).
			FirstOrCreate(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Count counts roles
func (r *roleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Role{}).Count(&count).Error
	return count, err
}
