package repositories

import (
	"context"
	"errors"
	"strings"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/domain"

	"gorm.io/gorm"
)

// Repository errors
var (
	// ErrNotFound is returned when a workflow record is absent (or soft-deleted)
	ErrNotFound = errors.New("record not found")
	// ErrStale is returned when a compare-and-set write matched no row because
	// the record changed status or disappeared since it was read
	ErrStale = errors.New("record changed concurrently")
	// ErrDuplicateNumber is returned when a generated record number collides
	ErrDuplicateNumber = errors.New("duplicate record number")
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ReplaceRoles(ctx context.Context, user *models.User, roles []models.Role) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	Count(ctx context.Context) (int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RoleRepository defines role repository interface
type RoleRepository interface {
	GetByNames(ctx context.Context, names []string) ([]models.Role, error)
	EnsureDefaults(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// PolicyQuery filters policy listings
type PolicyQuery struct {
	OwnerID *uint
	Status  *domain.PolicyStatus
}

// PolicyRepository defines policy repository interface
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.Policy) error
	GetByID(ctx context.Context, id uint) (*domain.Policy, error)
	// List orders by application date descending, then id ascending
	List(ctx context.Context, q PolicyQuery) ([]*domain.Policy, error)
	// UpdateIfStatus writes status and review metadata only if the stored
	// status still equals expected
	UpdateIfStatus(ctx context.Context, policy *domain.Policy, expected domain.PolicyStatus) error
	// Delete removes the policy together with its claims
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context, ownerID *uint) (map[domain.PolicyStatus]int64, error)
}

// ClaimQuery filters claim listings
type ClaimQuery struct {
	FilerID  *uint
	PolicyID *uint
	Status   *domain.ClaimStatus
}

// ClaimTotals are summed claim amounts
type ClaimTotals struct {
	Claimed float64
	Settled float64
}

// ClaimRepository defines claim repository interface
type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.Claim) error
	GetByID(ctx context.Context, id uint) (*domain.Claim, error)
	// List orders by submission time descending, then id ascending
	List(ctx context.Context, q ClaimQuery) ([]*domain.Claim, error)
	// UpdateDetailsIfStatus writes description, amount and incident date only
	// if the stored status still equals expected
	UpdateDetailsIfStatus(ctx context.Context, claim *domain.Claim, expected domain.ClaimStatus) error
	// TransitionIfStatus writes status, review metadata and settled amount
	// only if the stored status still equals expected
	TransitionIfStatus(ctx context.Context, claim *domain.Claim, expected domain.ClaimStatus) error
	// DeleteIfStatus removes the claim if its stored status equals expected;
	// a nil expected deletes unconditionally
	DeleteIfStatus(ctx context.Context, id uint, expected *domain.ClaimStatus) error
	CountByStatus(ctx context.Context, filerID *uint) (map[domain.ClaimStatus]int64, error)
	Totals(ctx context.Context, filerID *uint) (*ClaimTotals, error)
}

// isDuplicate reports a unique constraint violation across mysql and sqlite
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
