package config

import (
	"context"
	"errors"
	"log"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
	"insurehub/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	users repositories.UserRepository
	roles repositories.RoleRepository
	demo  bool
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, demoUsers bool) *Seeder {
	return &Seeder{
		users: repositories.NewUserRepository(db),
		roles: repositories.NewRoleRepository(db),
		demo:  demoUsers,
	}
}

type demoAccount struct {
	username string
	email    string
	password string
	role     domain.Role
}

// demoAccounts are for development/testing only
var demoAccounts = []demoAccount{
	{username: "admin", email: "admin@insurehub.local", password: "admin123456", role: domain.RoleAdmin},
	{username: "user", email: "user@insurehub.local", password: "user123456", role: domain.RoleUser},
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if err := s.roles.EnsureDefaults(ctx); err != nil {
		return err
	}

	if s.demo {
		for _, acct := range demoAccounts {
			if err := s.seedUser(ctx, acct); err != nil {
				log.Printf("⚠️ Demo user %s skipped: %v", acct.username, err)
			}
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

func (s *Seeder) seedUser(ctx context.Context, acct demoAccount) error {
	_, err := s.users.GetByUsername(ctx, acct.username)
	if err == nil {
		return nil // already exists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	roles, err := s.roles.GetByNames(ctx, []string{acct.role.String()})
	if err != nil {
		return err
	}

	hashedPassword, err := password.Hash(acct.password)
	if err != nil {
		return err
	}

	user := &models.User{
		Username: acct.username,
		Email:    acct.email,
		Password: hashedPassword,
		IsActive: true,
		Roles:    roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ Demo user created: %s (%s)", user.Username, acct.role)
	return nil
}
